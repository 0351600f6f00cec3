package steps

import "fmt"

var stateKeyNames = map[State]string{
	StatePending:   "pending",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
}

var namedStateKeys map[string]State

func init() {
	namedStateKeys = make(map[string]State, len(stateKeyNames))
	for k, v := range stateKeyNames {
		namedStateKeys[v] = k
	}
}

// StateFromString creates an interaction state from a string
func StateFromString(name string) (State, error) {
	if v, ok := namedStateKeys[name]; ok {
		return v, nil
	}
	return StatePending, fmt.Errorf("invalid interaction state %q", name)
}

// State of a single step invocation, succeeded and failed are terminal
type State uint8

const (
	// StatePending is the state until the step succeeds or fails
	StatePending State = iota
	// StateSucceeded indicates the step completed
	StateSucceeded
	// StateFailed indicates the step failed, explicitly or because one of its children failed
	StateFailed
)

func (s State) String() string {
	return stateKeyNames[s]
}

// MarshalText renders this state to text
func (s State) MarshalText() (text []byte, err error) {
	return []byte(stateKeyNames[s]), nil
}

// UnmarshalText parses this state from text
func (s *State) UnmarshalText(text []byte) error {
	st, err := StateFromString(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Outcome is what a phase of the hook nest hands back to the phase wrapping it
type Outcome uint8

const (
	// Continue means the phase returned normally and the step is still pending
	Continue Outcome = iota
	// SucceededEarly means the step declared its success before the end of the chain
	SucceededEarly
	// Failed means the step failed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case SucceededEarly:
		return "succeeded-early"
	case Failed:
		return "failed"
	default:
		return "continue"
	}
}

// Phase names the contract a set of values was validated against
type Phase string

const (
	PhaseInput   Phase = "input"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)
