package system

import (
	"math"

	"github.com/milk9111/animgraph/ecs/component"
)

// dispatchEvents fires the events of ref's active sampler whose anchor lies
// in the window the sampler traversed this tick.
func dispatchEvents(inst *AnimatorInstance, ref component.StateRef) {
	if len(inst.Events) == 0 {
		return
	}
	idx := inst.state(ref).ActiveSamplerIndex(inst.Samplers)
	if idx < 0 {
		return
	}
	s := inst.Samplers[idx]
	step := s.Step(inst.DeltaTime)
	if step == 0 {
		return
	}
	curr := s.WrappedTime()
	prev := component.WrapNormalized(s.Time-step, s.Clip.Length)
	wholeClip := math.Abs(step) >= s.Clip.Length

	for i := range inst.Events {
		evt := &inst.Events[i]
		if evt.Sampler != idx {
			continue
		}
		if !wholeClip && !windowContains(prev, curr, evt.Time, step > 0) {
			continue
		}
		if evt.Action.Invoke == nil {
			continue
		}
		evt.Action.Invoke(component.EventContext{
			Owner:    inst.Owner,
			SortKey:  inst.SortKey,
			Commands: inst.Commands,
			Event:    evt,
		}, evt.Action.Args)
	}
}

// windowContains tests t against the inclusive window from prev to curr,
// which wraps around the clip end when it runs past it. Both ends are
// inclusive, so an anchor that lands exactly on a tick boundary fires on
// that tick and again on the next one.
func windowContains(prev, curr, t float64, forward bool) bool {
	if !forward {
		prev, curr = curr, prev
	}
	if prev <= curr {
		return t >= prev && t <= curr
	}
	return t >= prev || t <= curr
}
