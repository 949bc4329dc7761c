package main

import (
	"fmt"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/command"
	"github.com/milk9111/animgraph/ecs/entity"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/prefabs"
)

type report struct {
	States      int
	Transitions int
	Exits       int
	Events      int
	Visited     int
}

func (r report) String() string {
	return fmt.Sprintf("(states=%d transitions=%d exits=%d events=%d visited=%d)",
		r.States, r.Transitions, r.Exits, r.Events, r.Visited)
}

// check validates a controller, builds its tables and, when ticks > 0,
// drives one instance through every boolean parameter combination.
func check(name string, ticks int) (report, error) {
	spec, err := prefabs.LoadAnimatorSpec(name)
	if err != nil {
		return report{}, err
	}
	if err := spec.Validate(); err != nil {
		return report{}, err
	}
	r := report{
		States:      len(spec.States),
		Transitions: len(spec.Transitions),
		Exits:       len(spec.Exits),
		Events:      len(spec.Events),
	}
	if ticks <= 0 {
		return r, nil
	}

	tables, err := entity.BuildAnimatorTables(name, spec, nil)
	if err != nil {
		return r, err
	}

	// scripts and parameter writes are checked for construction only; their
	// commands are discarded so the walk depends on parameters alone
	buffer := command.NewBuffer()
	inst := system.AnimatorInstance{
		Owner:       ecs.Entity(1),
		DeltaTime:   1.0 / 60.0,
		Machine:     tables.Machine,
		States:      tables.States.Items,
		Samplers:    tables.Samplers.Items,
		Transitions: tables.Transitions,
		Parameters:  tables.Parameters,
		Events:      tables.Events.Items,
		Commands:    buffer.Writer(ecs.Entity(1), 0),
	}

	visited := map[int]struct{}{inst.Machine.Current.Index(): {}}
	bools := tables.Parameters.Bools
	combos := 1 << min(len(bools), 10)
	for tick := 0; tick < ticks; tick++ {
		mask := (tick / 30) % combos
		for i := range bools {
			bools[i].Value = mask&(1<<i) != 0
		}
		if err := system.UpdateAnimator(&inst); err != nil {
			return r, fmt.Errorf("tick %d: %w", tick, err)
		}
		buffer.Drain()
		visited[inst.Machine.Current.Index()] = struct{}{}
	}
	r.Visited = len(visited)
	return r, nil
}
