package engine

import "fmt"

// WiringError reports a collaborator that was not supplied to the session.
type WiringError struct {
	Collaborator string
}

func (e WiringError) Error() string {
	return fmt.Sprintf("missing collaborator: %s", e.Collaborator)
}
