package system

import (
	"errors"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/command"
	"github.com/milk9111/animgraph/ecs/component"
)

// AnimatorSystem updates every animated entity once per tick, spreading the
// instances over a bounded pool of goroutines, then replays the commands the
// instances produced in sort key order.
type AnimatorSystem struct {
	workers   int
	deltaTime float64
	commands  *command.Buffer
	err       error
}

// NewAnimatorSystem creates the system. workers <= 0 uses GOMAXPROCS.
func NewAnimatorSystem(workers int, deltaTime float64) *AnimatorSystem {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if deltaTime <= 0 {
		deltaTime = 1.0 / 60.0
	}
	return &AnimatorSystem{
		workers:   workers,
		deltaTime: deltaTime,
		commands:  command.NewBuffer(),
	}
}

// Commands returns the buffer event actions write into.
func (a *AnimatorSystem) Commands() *command.Buffer {
	if a == nil {
		return nil
	}
	return a.commands
}

// Err returns the configuration errors of the last tick, if any.
func (a *AnimatorSystem) Err() error {
	if a == nil {
		return nil
	}
	return a.err
}

// SetDeltaTime changes the fixed step used for the following ticks.
func (a *AnimatorSystem) SetDeltaTime(dt float64) {
	if a == nil || dt <= 0 {
		return
	}
	a.deltaTime = dt
}

func (a *AnimatorSystem) Update(w *ecs.World) {
	if a == nil || w == nil {
		return
	}
	instances := GatherAnimators(w, a.commands, a.deltaTime)
	a.err = RunAnimators(instances, a.workers)
	if a.err != nil {
		log.Printf("animator: tick=%d: %v", w.Tick(), a.err)
	}
	if err := a.commands.Playback(w); err != nil {
		log.Printf("animator: tick=%d playback: %v", w.Tick(), err)
	}
}

// GatherAnimators collects one AnimatorInstance per entity that carries a
// state machine, states and samplers. The sort key of an instance is its
// position in entity id order.
func GatherAnimators(w *ecs.World, buffer *command.Buffer, dt float64) []AnimatorInstance {
	entities := w.Query(
		component.AnimationStateMachineComponent.Kind().ID(),
		component.AnimationStatesComponent.Kind().ID(),
		component.AnimationSamplersComponent.Kind().ID(),
	)
	instances := make([]AnimatorInstance, 0, len(entities))
	for key, e := range entities {
		machine, _ := ecs.Get(w, e, component.AnimationStateMachineComponent)
		states, _ := ecs.Get(w, e, component.AnimationStatesComponent)
		samplers, _ := ecs.Get(w, e, component.AnimationSamplersComponent)
		if machine == nil || states == nil || samplers == nil {
			continue
		}
		inst := AnimatorInstance{
			Owner:     e,
			SortKey:   key,
			DeltaTime: dt,
			Machine:   machine,
			States:    states.Items,
			Samplers:  samplers.Items,
			Commands:  buffer.Writer(e, key),
		}
		if transitions, ok := ecs.Get(w, e, component.AnimationTransitionsComponent); ok {
			inst.Transitions = transitions
		}
		if params, ok := ecs.Get(w, e, component.AnimationParametersComponent); ok {
			inst.Parameters = params
		}
		if events, ok := ecs.Get(w, e, component.AnimationEventsComponent); ok && events != nil {
			inst.Events = events.Items
		}
		instances = append(instances, inst)
	}
	return instances
}

// RunAnimators updates every instance on at most workers goroutines. Every
// instance runs even when another one is malformed; the returned error joins
// all configuration errors in sort key order.
func RunAnimators(instances []AnimatorInstance, workers int) error {
	if len(instances) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	errs := make([]error, len(instances))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range instances {
		inst := &instances[i]
		g.Go(func() error {
			errs[i] = UpdateAnimator(inst)
			return errs[i]
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
