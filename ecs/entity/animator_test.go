package entity

import (
	"errors"
	"image/color"
	"testing"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/prefabs"
)

func TestBuildAnimatorTablesFromHero(t *testing.T) {
	spec, err := prefabs.LoadAnimatorSpec("hero")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tables, err := BuildAnimatorTables("hero", spec, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if tables.Machine.Current != 0 || tables.Machine.Next.Valid() || tables.Machine.Prev.Valid() || tables.Machine.Requested.Valid() {
		t.Fatalf("expected a fresh machine in idle, got %+v", *tables.Machine)
	}

	loco := tables.States.Items[spec.StateIndex("locomotion")]
	if loco.SamplerStart != 1 || loco.SamplerCount != 2 {
		t.Fatalf("expected locomotion samplers [1,+2), got [%d,+%d)", loco.SamplerStart, loco.SamplerCount)
	}
	if got := tables.Samplers.Items[loco.SamplerStart+1].Clip; got.Name != "run" || got.Length != 0.6 {
		t.Fatalf("unexpected run clip %+v", got)
	}
	attack := tables.States.Items[spec.StateIndex("attack")]
	if !attack.OneShot || tables.Samplers.Items[attack.SamplerStart].Speed != 1.25 {
		t.Fatalf("unexpected attack state %+v", attack)
	}
	if tables.Samplers.Items[0].Speed != 1 {
		t.Fatalf("expected default speed 1, got %v", tables.Samplers.Items[0].Speed)
	}

	if len(tables.Transitions.Groups) != len(spec.Transitions) {
		t.Fatalf("expected %d groups, got %d", len(spec.Transitions), len(tables.Transitions.Groups))
	}
	last := tables.Transitions.Conditions[len(tables.Transitions.Conditions)-1]
	if last.Group != len(spec.Transitions)-1 || last.Comparison != component.ComparisonFalse {
		t.Fatalf("expected negated moving condition in last group, got %+v", last)
	}

	var previous int
	for _, exit := range tables.Transitions.Exits {
		if exit.Target.Kind == component.ExitToPrevious {
			previous++
		}
	}
	if previous != 2 {
		t.Fatalf("expected two return-to-previous exits, got %d", previous)
	}

	if b := tables.Parameters.Blends[0]; b.Name != "speed" || b.State != spec.StateIndex("locomotion") {
		t.Fatalf("unexpected blend parameter %+v", b)
	}

	step := tables.Events.Items[0]
	if step.Name != "step_left" || step.Sampler != loco.SamplerStart || step.Action.Type != component.AnimationEventEmit {
		t.Fatalf("unexpected first event %+v", step)
	}

	if tables.Config.Controller != "hero" {
		t.Fatalf("unexpected config %+v", tables.Config)
	}
	if r, g, b, _ := tables.Config.Color.RGBA(); r>>8 != 0x4f || g>>8 != 0xc3 || b>>8 != 0xf7 {
		t.Fatalf("unexpected color %v", tables.Config.Color)
	}
}

func TestBuildAnimatorUsesClipLibrary(t *testing.T) {
	spec, err := prefabs.LoadAnimatorSpec("crowd")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	clips := component.NewClipLibrary()
	clips.Register(component.Clip{Name: "wave", Length: 3})

	w := ecs.NewWorld()
	e, err := BuildAnimator(w, "crowd", spec, clips)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	samplers, ok := ecs.Get(w, e, component.AnimationSamplersComponent)
	if !ok {
		t.Fatalf("expected samplers")
	}
	if samplers.Items[0].Clip.Length != 2 || samplers.Items[1].Clip.Length != 3 {
		t.Fatalf("expected authored stand and library wave, got %+v", samplers.Items)
	}
	for _, h := range []bool{
		ecs.Has(w, e, component.AnimationStateMachineComponent),
		ecs.Has(w, e, component.AnimationStatesComponent),
		ecs.Has(w, e, component.AnimationTransitionsComponent),
		ecs.Has(w, e, component.AnimationParametersComponent),
		ecs.Has(w, e, component.AnimationEventsComponent),
		ecs.Has(w, e, component.AnimatorConfigComponent),
	} {
		if !h {
			t.Fatalf("missing animator component")
		}
	}
}

func TestBuildAnimatorRejectsInvalidSpec(t *testing.T) {
	spec, err := prefabs.LoadAnimatorSpec("crowd")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	spec.Initial = "missing"

	w := ecs.NewWorld()
	if _, err := BuildAnimator(w, "crowd", spec, nil); !errors.Is(err, prefabs.ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
	if n := len(ecs.Entities(w)); n != 0 {
		t.Fatalf("expected no entity left behind, got %d", n)
	}
}

func TestBuildAnimatorRejectsUnknownAction(t *testing.T) {
	spec, err := prefabs.LoadAnimatorSpec("crowd")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	spec.Events[0].Action = map[string]any{"teleport": "x"}
	if _, err := BuildAnimatorTables("crowd", spec, nil); err == nil {
		t.Fatalf("expected unknown action error")
	}
}

func TestReloadAnimatorKeepsBoolValues(t *testing.T) {
	w := ecs.NewWorld()
	e, err := NewAnimator(w, "crowd")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := system.SetBool(w, e, "cheer", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	machine, _ := ecs.Get(w, e, component.AnimationStateMachineComponent)
	machine.Current = 1

	spec, err := prefabs.LoadAnimatorSpec("crowd")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	spec.Color = &prefabs.YAMLColor{Color: color.NRGBA{R: 1, A: 255}}
	if err := ReloadAnimator(w, e, spec); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if v, _ := system.GetBool(w, e, "cheer"); !v {
		t.Fatalf("expected cheer to survive reload")
	}
	machine, _ = ecs.Get(w, e, component.AnimationStateMachineComponent)
	if machine.Current != 0 {
		t.Fatalf("expected machine restarted in the initial state, got %s", machine.Current)
	}
	cfg, _ := ecs.Get(w, e, component.AnimatorConfigComponent)
	if cfg.Controller != "crowd" || cfg.Color != (color.NRGBA{R: 1, A: 255}) {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if err := ReloadAnimator(w, ecs.CreateEntity(w), spec); err == nil {
		t.Fatalf("expected error for entity without animator")
	}
}

func TestReloadAnimatorKeepsClipLibrary(t *testing.T) {
	spec, err := prefabs.LoadAnimatorSpec("crowd")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	clips := component.NewClipLibrary()
	clips.Register(component.Clip{Name: "wave", Length: 3})

	w := ecs.NewWorld()
	e, err := BuildAnimator(w, "crowd", spec, clips)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	reloaded, err := prefabs.LoadAnimatorSpec("crowd")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := ReloadAnimator(w, e, reloaded); err != nil {
		t.Fatalf("reload: %v", err)
	}

	samplers, _ := ecs.Get(w, e, component.AnimationSamplersComponent)
	if got := samplers.Items[1].Clip.Length; got != 3 {
		t.Fatalf("expected wave length 3 after reload, got %v", got)
	}
	cfg, _ := ecs.Get(w, e, component.AnimatorConfigComponent)
	if cfg.Clips != clips {
		t.Fatalf("expected reload to keep the clip library")
	}
}

func TestLoadClipLibrary(t *testing.T) {
	library, err := LoadClipLibrary("")
	if err != nil || library != nil {
		t.Fatalf("expected no library for empty name, got %v, %v", library, err)
	}

	library, err = LoadClipLibrary("export")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	wave, ok := library.Get("wave")
	if !ok || wave.Length != 1.5 {
		t.Fatalf("expected wave length 1.5, got %+v (%v)", wave, ok)
	}

	w := ecs.NewWorld()
	spec, err := prefabs.LoadAnimatorSpec("crowd")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e, err := BuildAnimator(w, "crowd", spec, library)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	samplers, _ := ecs.Get(w, e, component.AnimationSamplersComponent)
	if samplers.Items[1].Clip.Length != 1.5 {
		t.Fatalf("expected exported wave length, got %+v", samplers.Items[1])
	}

	if _, err := LoadClipLibrary("missing"); err == nil {
		t.Fatalf("expected error for missing clip set")
	}
}

type eventCollector struct {
	names []string
}

func (c *eventCollector) Update(w *ecs.World) {
	for _, evt := range w.Events().Drain() {
		if data, ok := evt.Data.(system.AnimationEventData); ok {
			c.names = append(c.names, data.Name)
		}
	}
}

func tickUntil(t *testing.T, w *ecs.World, max int, done func() bool) {
	t.Helper()
	for i := 0; i < max; i++ {
		w.Update()
		if done() {
			return
		}
	}
	t.Fatalf("condition not reached after %d ticks", max)
}

func TestHeroJumpReturnsToLocomotion(t *testing.T) {
	w := ecs.NewWorld()
	animators := system.NewAnimatorSystem(2, 1.0/60.0)
	collector := &eventCollector{}
	w.AddSystem(animators)
	w.AddSystem(collector)

	hero, err := NewAnimator(w, "hero")
	if err != nil {
		t.Fatalf("new hero: %v", err)
	}
	current := func() string {
		snap, _ := system.Snapshot(w, hero)
		return snap.Current
	}

	if err := system.SetBool(w, hero, "moving", true); err != nil {
		t.Fatal(err)
	}
	tickUntil(t, w, 60, func() bool { return current() == "locomotion" })
	if snap, _ := system.Snapshot(w, hero); snap.Prev != "idle" {
		t.Fatalf("expected prev=idle, got %s", snap)
	}

	tickUntil(t, w, 120, func() bool { return len(collector.names) > 0 })
	if collector.names[0] != "footstep" {
		t.Fatalf("expected footstep events, got %v", collector.names)
	}

	if err := system.SetBool(w, hero, "jumping", true); err != nil {
		t.Fatal(err)
	}
	tickUntil(t, w, 30, func() bool { return current() == "jump" })
	if v, _ := system.GetBool(w, hero, "jumping"); v {
		t.Fatalf("expected takeoff event to clear jumping")
	}

	tickUntil(t, w, 120, func() bool { return current() == "land" })
	if snap, _ := system.Snapshot(w, hero); snap.Prev != "locomotion" {
		t.Fatalf("one-shot jump must not become prev: %s", snap)
	}

	tickUntil(t, w, 120, func() bool { return current() == "locomotion" })
	if err := animators.Err(); err != nil {
		t.Fatalf("unexpected animator error: %v", err)
	}
}
