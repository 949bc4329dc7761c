package component

import (
	"fmt"

	"github.com/milk9111/animgraph/ecs"
)

// TransitionGroup gates a transition on the AND of its boolean conditions.
// A group without conditions never fires.
type TransitionGroup struct {
	From int
	To   int
}

// Comparison is how a boolean condition reads its parameter.
type Comparison uint8

const (
	ComparisonTrue Comparison = iota
	ComparisonFalse
)

// Evaluate applies the comparison to a parameter value.
func (c Comparison) Evaluate(v bool) bool {
	switch c {
	case ComparisonTrue:
		return v
	case ComparisonFalse:
		return !v
	default:
		return false
	}
}

func (c Comparison) String() string {
	switch c {
	case ComparisonTrue:
		return "true"
	case ComparisonFalse:
		return "false"
	default:
		return fmt.Sprintf("comparison(%d)", uint8(c))
	}
}

// BoolCondition belongs to exactly one group.
type BoolCondition struct {
	Group      int
	Parameter  int
	Comparison Comparison
}

// ExitTargetKind tags the destination of an exit-time transition.
type ExitTargetKind uint8

const (
	// ExitToState goes to a fixed state.
	ExitToState ExitTargetKind = iota
	// ExitToPrevious returns to whatever played before the transition into
	// the current sub-state-machine.
	ExitToPrevious
)

// ExitTarget is the destination of an exit-time transition. State is only
// meaningful for ExitToState.
type ExitTarget struct {
	Kind  ExitTargetKind
	State int
}

func ToState(i int) ExitTarget {
	return ExitTarget{Kind: ExitToState, State: i}
}

func ToPrevious() ExitTarget {
	return ExitTarget{Kind: ExitToPrevious, State: -1}
}

// Resolve returns the destination state given the fallback used for
// ExitToPrevious. It reports false when there is nothing to go to.
func (t ExitTarget) Resolve(fallback StateRef) (StateRef, bool) {
	switch t.Kind {
	case ExitToState:
		ref := StateIndex(t.State)
		return ref, ref.Valid()
	case ExitToPrevious:
		return fallback, fallback.Valid()
	default:
		return NullState, false
	}
}

func (t ExitTarget) String() string {
	switch t.Kind {
	case ExitToState:
		return fmt.Sprintf("state %d", t.State)
	case ExitToPrevious:
		return "previous"
	default:
		return fmt.Sprintf("exit_target(%d)", uint8(t.Kind))
	}
}

// ExitTransition fires once the source state's normalized time exceeds
// Threshold.
type ExitTransition struct {
	From      int
	Threshold float64
	Target    ExitTarget
}

// AnimationTransitions holds one instance's authored transition tables, in
// authored order.
type AnimationTransitions struct {
	Groups     []TransitionGroup
	Conditions []BoolCondition
	Exits      []ExitTransition
}

var AnimationTransitionsComponent = ecs.NewComponent[*AnimationTransitions]()
