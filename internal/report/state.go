package report

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a pipeline run.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

// ErrInvalidTransition is returned when a run is moved along an edge the
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid run state transition")

var allowedTransitions = map[State]map[State]struct{}{
	StateNotStarted: {
		StateRunning: {},
	},
	StateRunning: {
		StateRunning:   {},
		StateCompleted: {},
		StateAborted:   {},
	},
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Transition validates the edge from -> to.
func Transition(from, to State) error {
	next, ok := allowedTransitions[from]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if _, ok := next[to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Advance moves run.Status to the next state.
func (r *Run) Advance(to State) error {
	from := r.Status
	if from == "" {
		from = StateNotStarted
	}
	if err := Transition(from, to); err != nil {
		return err
	}
	r.Status = to
	return nil
}
