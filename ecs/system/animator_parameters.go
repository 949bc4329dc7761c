package system

import (
	"fmt"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// SetBool sets a named boolean parameter of e. Call it between ticks.
func SetBool(w *ecs.World, e ecs.Entity, name string, v bool) error {
	params, ok := ecs.Get(w, e, component.AnimationParametersComponent)
	if !ok || params == nil {
		return fmt.Errorf("animator: entity=%s has no parameters", e)
	}
	if !params.SetBool(name, v) {
		return fmt.Errorf("animator: entity=%s has no bool parameter %q", e, name)
	}
	return nil
}

// GetBool reads a named boolean parameter of e.
func GetBool(w *ecs.World, e ecs.Entity, name string) (bool, error) {
	params, ok := ecs.Get(w, e, component.AnimationParametersComponent)
	if !ok || params == nil {
		return false, fmt.Errorf("animator: entity=%s has no parameters", e)
	}
	v, ok := params.Bool(name)
	if !ok {
		return false, fmt.Errorf("animator: entity=%s has no bool parameter %q", e, name)
	}
	return v, nil
}

// SetBlend sets every blend parameter of e with the given name.
func SetBlend(w *ecs.World, e ecs.Entity, name string, v float64) error {
	params, ok := ecs.Get(w, e, component.AnimationParametersComponent)
	if !ok || params == nil {
		return fmt.Errorf("animator: entity=%s has no parameters", e)
	}
	if !params.SetBlend(name, v) {
		return fmt.Errorf("animator: entity=%s has no blend parameter %q", e, name)
	}
	return nil
}

// AnimatorSnapshot is a read-only view of one instance for debugging.
type AnimatorSnapshot struct {
	Entity    ecs.Entity
	Current   string
	Next      string
	Prev      string
	Requested string
	Times     []float64
	Blends    []float64
}

// Snapshot captures e's machine state. States are reported by name.
func Snapshot(w *ecs.World, e ecs.Entity) (AnimatorSnapshot, bool) {
	machine, ok := ecs.Get(w, e, component.AnimationStateMachineComponent)
	if !ok || machine == nil {
		return AnimatorSnapshot{}, false
	}
	states, ok := ecs.Get(w, e, component.AnimationStatesComponent)
	if !ok || states == nil {
		return AnimatorSnapshot{}, false
	}
	samplers, ok := ecs.Get(w, e, component.AnimationSamplersComponent)
	if !ok || samplers == nil {
		return AnimatorSnapshot{}, false
	}
	name := func(ref component.StateRef) string {
		if !ref.InRange(len(states.Items)) {
			return ""
		}
		return states.Items[ref.Index()].Name
	}
	snap := AnimatorSnapshot{
		Entity:    e,
		Current:   name(machine.Current),
		Next:      name(machine.Next),
		Prev:      name(machine.Prev),
		Requested: name(machine.Requested),
	}
	for _, s := range states.Items {
		snap.Times = append(snap.Times, s.Time(samplers.Items))
		snap.Blends = append(snap.Blends, s.Blend)
	}
	return snap, true
}

func (s AnimatorSnapshot) String() string {
	out := fmt.Sprintf("entity=%s current=%s", s.Entity, s.Current)
	if s.Next != "" {
		out += " next=" + s.Next
	}
	if s.Prev != "" {
		out += " prev=" + s.Prev
	}
	if s.Requested != "" {
		out += " requested=" + s.Requested
	}
	return out
}
