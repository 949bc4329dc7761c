package system

import (
	"errors"
	"fmt"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/command"
	"github.com/milk9111/animgraph/ecs/component"
)

// ErrInvalidAnimator marks corrupted authored data. It is never recovered
// from inside a tick.
var ErrInvalidAnimator = errors.New("animator: invalid configuration")

// AnimatorInstance bundles every buffer of one animated instance for a
// single tick. Nothing in it is shared with another instance except the
// command buffer behind Commands.
type AnimatorInstance struct {
	Owner     ecs.Entity
	SortKey   int
	DeltaTime float64

	Machine     *component.AnimationStateMachine
	States      []component.AnimationState
	Samplers    []component.Sampler
	Transitions *component.AnimationTransitions
	Parameters  *component.AnimationParameters
	Events      []component.AnimationEvent

	Commands *command.Writer
}

func (inst *AnimatorInstance) groups() []component.TransitionGroup {
	if inst.Transitions == nil {
		return nil
	}
	return inst.Transitions.Groups
}

func (inst *AnimatorInstance) conditions() []component.BoolCondition {
	if inst.Transitions == nil {
		return nil
	}
	return inst.Transitions.Conditions
}

func (inst *AnimatorInstance) exits() []component.ExitTransition {
	if inst.Transitions == nil {
		return nil
	}
	return inst.Transitions.Exits
}

func (inst *AnimatorInstance) bools() []component.BoolParameter {
	if inst.Parameters == nil {
		return nil
	}
	return inst.Parameters.Bools
}

func (inst *AnimatorInstance) blends() []component.BlendParameter {
	if inst.Parameters == nil {
		return nil
	}
	return inst.Parameters.Blends
}

func (inst *AnimatorInstance) state(ref component.StateRef) *component.AnimationState {
	return &inst.States[ref.Index()]
}

// UpdateAnimator runs one tick of the state machine for a single instance:
// commit the requested transition, finalize an elapsed cross-fade, request
// the next transition, advance playback, sync blend weights and dispatch
// events. It returns an error wrapping ErrInvalidAnimator, and touches
// nothing, when the instance's data is malformed.
func UpdateAnimator(inst *AnimatorInstance) error {
	if err := ValidateAnimator(inst); err != nil {
		return err
	}

	commitRequestedTransition(inst)
	finalizeTransition(inst)
	evaluateTransitions(inst)
	advanceSamplers(inst)
	syncBlendParameters(inst)

	m := inst.Machine
	dispatchEvents(inst, m.Current)
	if m.Next.Valid() && m.Next != m.Current {
		dispatchEvents(inst, m.Next)
	}
	return nil
}

// commitRequestedTransition moves Requested into Next and restarts the
// entering state from zero.
func commitRequestedTransition(inst *AnimatorInstance) {
	m := inst.Machine
	if !m.Requested.Valid() {
		return
	}
	m.Next = m.Requested
	inst.state(m.Next).ResetTime(inst.Samplers)
	m.Requested = component.NullState
}

// finalizeTransition makes Next current once its time passes its
// transition duration. One-shot states are not remembered in Prev.
func finalizeTransition(inst *AnimatorInstance) {
	m := inst.Machine
	if !m.Next.Valid() {
		return
	}
	next := inst.state(m.Next)
	if next.Time(inst.Samplers) <= next.TransitionDuration {
		return
	}
	if !inst.state(m.Current).OneShot {
		m.Prev = m.Current
	}
	m.Current = m.Next
	m.Next = component.NullState
}

// evaluateTransitions requests at most one transition for the state in
// front: Next while cross-fading, Current otherwise. Condition groups win
// over exit-time transitions.
func evaluateTransitions(inst *AnimatorInstance) {
	m := inst.Machine
	target, fallback := m.Current, m.Prev
	if m.Next.Valid() {
		target, fallback = m.Next, m.Current
	}

	if to, ok := evaluateConditionGroups(inst, target); ok {
		m.Requested = to
		return
	}
	if to, ok := evaluateExitTransitions(inst, target, fallback); ok {
		m.Requested = to
	}
}

func evaluateConditionGroups(inst *AnimatorInstance, target component.StateRef) (component.StateRef, bool) {
	for gi, g := range inst.groups() {
		if g.From != target.Index() {
			continue
		}
		if groupPasses(inst, gi) {
			return component.StateIndex(g.To), true
		}
	}
	return component.NullState, false
}

// groupPasses is the AND of the group's conditions. An empty group fails.
func groupPasses(inst *AnimatorInstance, group int) bool {
	bools := inst.bools()
	matched := 0
	for _, c := range inst.conditions() {
		if c.Group != group {
			continue
		}
		matched++
		if !c.Comparison.Evaluate(bools[c.Parameter].Value) {
			return false
		}
	}
	return matched > 0
}

func evaluateExitTransitions(inst *AnimatorInstance, target, fallback component.StateRef) (component.StateRef, bool) {
	t := inst.state(target).Time(inst.Samplers)
	for _, e := range inst.exits() {
		if e.From != target.Index() || t <= e.Threshold {
			continue
		}
		if to, ok := e.Target.Resolve(fallback); ok {
			return to, true
		}
	}
	return component.NullState, false
}

// advanceSamplers moves current and, while cross-fading, next.
func advanceSamplers(inst *AnimatorInstance) {
	m := inst.Machine
	inst.state(m.Current).Advance(inst.Samplers, inst.DeltaTime)
	if m.Next.Valid() && m.Next != m.Current {
		inst.state(m.Next).Advance(inst.Samplers, inst.DeltaTime)
	}
}

func syncBlendParameters(inst *AnimatorInstance) {
	m := inst.Machine
	for _, p := range inst.blends() {
		if p.State == m.Current.Index() || (m.Next.Valid() && p.State == m.Next.Index()) {
			inst.States[p.State].Blend = p.Value
		}
	}
}

// ValidateAnimator checks every index the tick dereferences.
func ValidateAnimator(inst *AnimatorInstance) error {
	if inst == nil || inst.Machine == nil {
		return fmt.Errorf("%w: missing state machine", ErrInvalidAnimator)
	}
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: entity=%s: %s", ErrInvalidAnimator, inst.Owner, fmt.Sprintf(format, args...))
	}

	m := inst.Machine
	states := len(inst.States)
	if !m.Current.InRange(states) {
		return invalid("current state %s out of range [0,%d)", m.Current, states)
	}
	refs := []struct {
		name string
		ref  component.StateRef
	}{
		{"next", m.Next},
		{"prev", m.Prev},
		{"requested", m.Requested},
	}
	for _, r := range refs {
		if r.ref != component.NullState && !r.ref.InRange(states) {
			return invalid("%s state %s out of range [0,%d)", r.name, r.ref, states)
		}
	}

	for i, s := range inst.States {
		if s.Index != i {
			return invalid("state %d has index %d", i, s.Index)
		}
		if s.SamplerCount <= 0 {
			return invalid("state %d has no samplers", i)
		}
		if s.SamplerStart < 0 || s.SamplerStart+s.SamplerCount > len(inst.Samplers) {
			return invalid("state %d sampler range [%d,+%d) out of range [0,%d)", i, s.SamplerStart, s.SamplerCount, len(inst.Samplers))
		}
	}
	for i, s := range inst.Samplers {
		if s.Clip.Length <= 0 {
			return invalid("sampler %d clip %q has non-positive length %v", i, s.Clip.Name, s.Clip.Length)
		}
	}

	groups := inst.groups()
	for i, g := range groups {
		if g.From < 0 || g.From >= states || g.To < 0 || g.To >= states {
			return invalid("transition group %d (%d -> %d) out of range [0,%d)", i, g.From, g.To, states)
		}
	}
	bools := len(inst.bools())
	for i, c := range inst.conditions() {
		if c.Group < 0 || c.Group >= len(groups) {
			return invalid("condition %d group %d out of range [0,%d)", i, c.Group, len(groups))
		}
		if c.Parameter < 0 || c.Parameter >= bools {
			return invalid("condition %d parameter %d out of range [0,%d)", i, c.Parameter, bools)
		}
	}
	for i, e := range inst.exits() {
		if e.From < 0 || e.From >= states {
			return invalid("exit transition %d from %d out of range [0,%d)", i, e.From, states)
		}
		switch e.Target.Kind {
		case component.ExitToState:
			if e.Target.State < 0 || e.Target.State >= states {
				return invalid("exit transition %d target %d out of range [0,%d)", i, e.Target.State, states)
			}
		case component.ExitToPrevious:
		default:
			return invalid("exit transition %d has unknown target kind %d", i, e.Target.Kind)
		}
	}
	for i, b := range inst.blends() {
		if b.State < 0 || b.State >= states {
			return invalid("blend parameter %d (%s) state %d out of range [0,%d)", i, b.Name, b.State, states)
		}
	}
	for i, evt := range inst.Events {
		if evt.Sampler < 0 || evt.Sampler >= len(inst.Samplers) {
			return invalid("event %d (%s) sampler %d out of range [0,%d)", i, evt.Name, evt.Sampler, len(inst.Samplers))
		}
	}
	return nil
}
