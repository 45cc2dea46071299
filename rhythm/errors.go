package rhythm

import "fmt"

// ConfigurationError reports a setting the timing core cannot run with. It is a fatal precondition.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}
