package entity

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/prefabs"
)

// AnimatorTables is everything one instance needs, resolved from names to
// buffer indices.
type AnimatorTables struct {
	Machine     *component.AnimationStateMachine
	States      *component.AnimationStates
	Samplers    *component.AnimationSamplers
	Transitions *component.AnimationTransitions
	Parameters  *component.AnimationParameters
	Events      *component.AnimationEvents
	Config      *component.AnimatorConfig
}

var defaultAnimatorColor = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}

// NewAnimator loads a controller prefab and spawns an entity running it.
func NewAnimator(w *ecs.World, controller string) (ecs.Entity, error) {
	spec, err := prefabs.LoadAnimatorSpec(controller)
	if err != nil {
		return 0, err
	}
	return BuildAnimator(w, controller, spec, nil)
}

// LoadClipLibrary reads a clip set prefab into a library. An empty name
// means no overrides and returns a nil library.
func LoadClipLibrary(name string) (*component.ClipLibrary, error) {
	if name == "" {
		return nil, nil
	}
	set, err := prefabs.LoadClipSet(name)
	if err != nil {
		return nil, err
	}
	library := component.NewClipLibrary()
	for _, c := range set.Clips {
		library.Register(component.Clip{Name: c.Name, Length: c.Length})
	}
	return library, nil
}

// BuildAnimator spawns an entity running spec. Clips found in the library
// replace the lengths authored in the controller.
func BuildAnimator(w *ecs.World, controller string, spec *prefabs.AnimatorSpec, clips *component.ClipLibrary) (ecs.Entity, error) {
	if w == nil {
		return 0, errors.New("entity: nil world")
	}
	tables, err := BuildAnimatorTables(controller, spec, clips)
	if err != nil {
		return 0, err
	}
	e := ecs.CreateEntity(w)
	if err := AttachAnimator(w, e, tables); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, err
	}
	return e, nil
}

// AttachAnimator adds or replaces every animator component of e.
func AttachAnimator(w *ecs.World, e ecs.Entity, t *AnimatorTables) error {
	if t == nil {
		return errors.New("entity: nil animator tables")
	}
	return errors.Join(
		ecs.Add(w, e, component.AnimationStateMachineComponent, t.Machine),
		ecs.Add(w, e, component.AnimationStatesComponent, t.States),
		ecs.Add(w, e, component.AnimationSamplersComponent, t.Samplers),
		ecs.Add(w, e, component.AnimationTransitionsComponent, t.Transitions),
		ecs.Add(w, e, component.AnimationParametersComponent, t.Parameters),
		ecs.Add(w, e, component.AnimationEventsComponent, t.Events),
		ecs.Add(w, e, component.AnimatorConfigComponent, t.Config),
	)
}

// ReloadAnimator rebuilds e's tables from spec. The machine restarts in the
// initial state; boolean parameters keep their values when the name still
// exists.
func ReloadAnimator(w *ecs.World, e ecs.Entity, spec *prefabs.AnimatorSpec) error {
	cfg, ok := ecs.Get(w, e, component.AnimatorConfigComponent)
	if !ok || cfg == nil {
		return fmt.Errorf("entity: %s has no animator config", e)
	}
	tables, err := BuildAnimatorTables(cfg.Controller, spec, cfg.Clips)
	if err != nil {
		return err
	}
	if old, ok := ecs.Get(w, e, component.AnimationParametersComponent); ok && old != nil {
		for _, p := range old.Bools {
			tables.Parameters.SetBool(p.Name, p.Value)
		}
	}
	return AttachAnimator(w, e, tables)
}

// BuildAnimatorTables validates spec and resolves it into component tables.
func BuildAnimatorTables(controller string, spec *prefabs.AnimatorSpec, clips *component.ClipLibrary) (*AnimatorTables, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	library := component.NewClipLibrary()
	for _, c := range spec.Clips {
		library.Register(component.Clip{Name: c.Name, Length: c.Length})
	}
	if clips != nil {
		for _, c := range spec.Clips {
			if clip, ok := clips.Get(c.Name); ok {
				library.Register(clip)
			}
		}
	}

	t := &AnimatorTables{
		States:      &component.AnimationStates{Items: make([]component.AnimationState, 0, len(spec.States))},
		Samplers:    &component.AnimationSamplers{},
		Transitions: &component.AnimationTransitions{},
		Parameters:  &component.AnimationParameters{},
		Events:      &component.AnimationEvents{},
		Config:      &component.AnimatorConfig{Controller: controller, Clips: clips, Color: defaultAnimatorColor},
	}
	if spec.Color != nil && spec.Color.Color != nil {
		t.Config.Color = spec.Color.Color
	}

	for i, s := range spec.States {
		state := component.AnimationState{
			Name:               s.Name,
			Index:              i,
			OneShot:            s.OneShot,
			TransitionDuration: s.TransitionDuration,
			Blend:              s.Blend,
			SamplerStart:       len(t.Samplers.Items),
			SamplerCount:       len(s.Samplers),
		}
		for _, smp := range s.Samplers {
			clip, _ := library.Get(smp.Clip)
			t.Samplers.Items = append(t.Samplers.Items, component.Sampler{
				Clip:   clip,
				Speed:  smp.SpeedOrDefault(),
				Weight: smp.Weight,
			})
		}
		t.States.Items = append(t.States.Items, state)
	}

	for _, p := range spec.Parameters.Bools {
		t.Parameters.Bools = append(t.Parameters.Bools, component.BoolParameter{Name: p.Name, Value: p.Value})
	}
	for _, p := range spec.Parameters.Blends {
		t.Parameters.Blends = append(t.Parameters.Blends, component.BlendParameter{
			Name:  p.Name,
			State: spec.StateIndex(p.State),
			Value: p.Value,
		})
	}

	for _, tr := range spec.Transitions {
		group := len(t.Transitions.Groups)
		t.Transitions.Groups = append(t.Transitions.Groups, component.TransitionGroup{
			From: spec.StateIndex(tr.From),
			To:   spec.StateIndex(tr.To),
		})
		for _, c := range tr.Conditions {
			cmp := component.ComparisonTrue
			if !c.Expected() {
				cmp = component.ComparisonFalse
			}
			t.Transitions.Conditions = append(t.Transitions.Conditions, component.BoolCondition{
				Group:      group,
				Parameter:  t.Parameters.BoolIndex(c.Parameter),
				Comparison: cmp,
			})
		}
	}

	for _, ex := range spec.Exits {
		target := component.ToPrevious()
		if !ex.ToPrevious() {
			target = component.ToState(spec.StateIndex(ex.To))
		}
		t.Transitions.Exits = append(t.Transitions.Exits, component.ExitTransition{
			From:      spec.StateIndex(ex.From),
			Threshold: ex.At,
			Target:    target,
		})
	}

	for _, ev := range spec.Events {
		kind, arg, err := ev.ActionKind()
		if err != nil {
			return nil, fmt.Errorf("entity: %s: %w", spec.Name, err)
		}
		action, err := system.NewEventAction(component.AnimationEventType(kind), arg)
		if err != nil {
			return nil, fmt.Errorf("entity: %s: event %q: %w", spec.Name, ev.Name, err)
		}
		state := t.States.Items[spec.StateIndex(ev.State)]
		t.Events.Items = append(t.Events.Items, component.AnimationEvent{
			Name:    ev.Name,
			Sampler: state.SamplerStart + ev.Sampler,
			Time:    ev.Time,
			Action:  action,
		})
	}

	machine := component.NewAnimationStateMachine(spec.StateIndex(spec.Initial))
	t.Machine = &machine
	return t, nil
}
