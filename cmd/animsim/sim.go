package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/milk9111/animgraph/config"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/ecs/entity"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/prefabs"
)

type options struct {
	Ticks    int
	Realtime bool
	Seed     uint64
	Verbose  bool
}

func parseConfig(args []string) (config.Config, error) {
	return config.ParseConfig(flag.CommandLine, args)
}

// summary is what a run reports when it stops.
type summary struct {
	Ticks   int
	Elapsed time.Duration
	States  map[string]int
	Events  map[string]int
	Errors  int
}

func (s summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticks=%d elapsed=%s errors=%d", s.Ticks, s.Elapsed.Round(time.Millisecond), s.Errors)
	fmt.Fprintf(&b, " states=[%s]", formatCounts(s.States))
	fmt.Fprintf(&b, " events=[%s]", formatCounts(s.Events))
	return b.String()
}

func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}

// parameterDriver flips random boolean parameters, standing in for gameplay
// code that sets parameters before the animator runs.
type parameterDriver struct {
	rng      *rand.Rand
	interval int
}

func (d *parameterDriver) Update(w *ecs.World) {
	if d == nil || d.interval <= 0 || w.Tick()%uint64(d.interval) != 0 {
		return
	}
	for _, e := range w.Query(component.AnimationParametersComponent.Kind().ID()) {
		params, ok := ecs.Get(w, e, component.AnimationParametersComponent)
		if !ok || params == nil || len(params.Bools) == 0 {
			continue
		}
		p := &params.Bools[d.rng.IntN(len(params.Bools))]
		p.Value = !p.Value
		for i := range params.Blends {
			params.Blends[i].Value = d.rng.Float64()
		}
	}
}

// eventCounter drains animation events off the world queue.
type eventCounter struct {
	counts  map[string]int
	verbose bool
	logger  *log.Logger
}

func (c *eventCounter) Update(w *ecs.World) {
	for _, evt := range w.Events().Drain() {
		if evt.Type != system.AnimationEventTopic {
			continue
		}
		data, ok := evt.Data.(system.AnimationEventData)
		if !ok {
			continue
		}
		c.counts[data.Name]++
		if c.verbose {
			c.logger.Printf("animsim: tick=%d entity=%s event=%s name=%s t=%.3f", w.Tick(), evt.Entity, data.Event, data.Name, data.Time)
		}
	}
}

func run(ctx context.Context, cfg config.Config, opts options, logger *log.Logger) error {
	prefabs.SetDiskRoot(cfg.PrefabDir)

	w := ecs.NewWorld()
	animators := system.NewAnimatorSystem(cfg.Workers, cfg.DeltaTime())
	counter := &eventCounter{counts: map[string]int{}, verbose: opts.Verbose, logger: logger}

	w.AddSystem(&parameterDriver{rng: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)), interval: 15})
	if cfg.HotReload {
		watcher, err := prefabs.NewWatcher(cfg.PrefabDir)
		if err != nil {
			return fmt.Errorf("animsim: watch %s: %w", cfg.PrefabDir, err)
		}
		defer watcher.Close()
		w.AddSystem(system.NewAnimatorReloadSystem(watcher, entity.ReloadAnimator))
	}
	w.AddSystem(animators)
	w.AddSystem(counter)

	spec, err := prefabs.LoadAnimatorSpec(cfg.Controller)
	if err != nil {
		return err
	}
	clips, err := entity.LoadClipLibrary(cfg.Clips)
	if err != nil {
		return fmt.Errorf("animsim: %w", err)
	}
	for i := 0; i < cfg.Instances; i++ {
		if _, err := entity.BuildAnimator(w, cfg.Controller, spec, clips); err != nil {
			return fmt.Errorf("animsim: spawn %s: %w", cfg.Controller, err)
		}
	}
	logger.Printf("animsim: controller=%s clips=%d instances=%d workers=%d dt=%.4f", cfg.Controller, clips.Len(), cfg.Instances, cfg.Workers, cfg.DeltaTime())

	var ticker *time.Ticker
	if opts.Realtime {
		ticker = time.NewTicker(cfg.TickInterval())
		defer ticker.Stop()
	}

	sum := summary{Events: counter.counts}
	start := time.Now()
loop:
	for opts.Ticks <= 0 || sum.Ticks < opts.Ticks {
		if ticker != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break loop
		}
		w.Update()
		sum.Ticks++
		if animators.Err() != nil {
			sum.Errors++
		}
	}
	sum.Elapsed = time.Since(start)
	sum.States = stateCounts(w)

	logger.Printf("animsim: %s", sum)
	if sum.Errors > 0 {
		return fmt.Errorf("animsim: %d ticks reported animator errors", sum.Errors)
	}
	return nil
}

func stateCounts(w *ecs.World) map[string]int {
	counts := map[string]int{}
	for _, e := range w.Query(component.AnimationStateMachineComponent.Kind().ID()) {
		snap, ok := system.Snapshot(w, e)
		if !ok {
			continue
		}
		counts[snap.Current]++
	}
	return counts
}
