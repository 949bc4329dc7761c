package system

import (
	"errors"
	"testing"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/prefabs"
)

func TestAnimatorReloadSystem(t *testing.T) {
	w := ecs.NewWorld()
	hero := ecs.CreateEntity(w)
	crowd := ecs.CreateEntity(w)
	if err := ecs.Add(w, hero, component.AnimatorConfigComponent, &component.AnimatorConfig{Controller: "hero"}); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(w, crowd, component.AnimatorConfigComponent, &component.AnimatorConfig{Controller: "crowd.yaml"}); err != nil {
		t.Fatal(err)
	}

	reloaded := map[ecs.Entity]string{}
	sys := NewAnimatorReloadSystem(nil, func(_ *ecs.World, e ecs.Entity, spec *prefabs.AnimatorSpec) error {
		reloaded[e] = spec.Name
		return nil
	})

	cases := []struct {
		name   string
		change prefabs.Change
		want   map[ecs.Entity]string
	}{
		{
			name:   "controller_edit_touches_its_users",
			change: prefabs.Change{Path: "prefabs/hero.yaml", Name: "hero.yaml"},
			want:   map[ecs.Entity]string{hero: "hero"},
		},
		{
			name:   "script_edit_rebuilds_everything",
			change: prefabs.Change{Path: "prefabs/scripts/footstep.tengo", Name: "scripts/footstep.tengo", Script: true},
			want:   map[ecs.Entity]string{hero: "hero", crowd: "crowd"},
		},
		{
			name:   "unused_controller",
			change: prefabs.Change{Path: "prefabs/other.yaml", Name: "other.yaml"},
			want:   map[ecs.Entity]string{},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			clear(reloaded)
			sys.Notify(c.change)
			sys.Update(w)
			if len(reloaded) != len(c.want) {
				t.Fatalf("expected %v, got %v", c.want, reloaded)
			}
			for e, name := range c.want {
				if reloaded[e] != name {
					t.Fatalf("entity %s: expected %q, got %q", e, name, reloaded[e])
				}
			}
		})
	}
}

func TestAnimatorReloadSystemKeepsGoingAfterFailure(t *testing.T) {
	w := ecs.NewWorld()
	var calls int
	for i := 0; i < 3; i++ {
		e := ecs.CreateEntity(w)
		if err := ecs.Add(w, e, component.AnimatorConfigComponent, &component.AnimatorConfig{Controller: "hero"}); err != nil {
			t.Fatal(err)
		}
	}
	sys := NewAnimatorReloadSystem(nil, func(*ecs.World, ecs.Entity, *prefabs.AnimatorSpec) error {
		calls++
		return errors.New("boom")
	})
	sys.Notify(prefabs.Change{Name: "hero.yaml"})
	sys.Update(w)
	if calls != 3 {
		t.Fatalf("expected every entity attempted, got %d", calls)
	}

	sys.Update(w)
	if calls != 3 {
		t.Fatalf("expected pending changes consumed, got %d calls", calls)
	}
}
