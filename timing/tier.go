package timing

// Tier classifies the accuracy of an action.
type Tier string

const (
	Perfect Tier = "Perfect"
	Great   Tier = "Great"
	Good    Tier = "Good"
	Miss    Tier = "Miss"
)

// IsHit returns true for every tier except Miss.
func (t Tier) IsHit() bool {
	return t != Miss && t != ""
}

func (t Tier) String() string {
	return string(t)
}

// Window is one nested acceptance threshold. An action whose absolute accuracy is at most
// HalfWidth (in beats) is classified as Tier, unless a narrower window matches first.
type Window struct {
	HalfWidth float64
	Tier      Tier
}

// Result is the outcome of evaluating a song position.
type Result struct {
	// Accuracy is the signed offset from the nearest beat, in beats, within (-0.5, 0.5].
	Accuracy float64
	Tier     Tier
}
