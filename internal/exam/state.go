package exam

// State enumerates the phases of a candidate's exam session.
type State int

const (
	StateInstructions   State = iota // Reading instructions, waiting for start
	StateBreathingPause              // Mandatory pause before the clock starts
	StateInProgress                  // Answering questions, clock running
	StateSubmitted                   // Terminal, no further mutation
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateInstructions:
		return "instructions"
	case StateBreathingPause:
		return "breathing_pause"
	case StateInProgress:
		return "in_progress"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSubmitted
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
