package system

import (
	"log"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/prefabs"
)

// AnimatorReloadFunc rebuilds one entity's animator tables from spec.
type AnimatorReloadFunc func(w *ecs.World, e ecs.Entity, spec *prefabs.AnimatorSpec) error

// AnimatorReloadSystem applies controller and script edits between ticks.
type AnimatorReloadSystem struct {
	watcher *prefabs.Watcher
	reload  AnimatorReloadFunc
	pending []prefabs.Change
}

// NewAnimatorReloadSystem creates the system. watcher may be nil, in which
// case only changes passed to Notify are applied.
func NewAnimatorReloadSystem(watcher *prefabs.Watcher, reload AnimatorReloadFunc) *AnimatorReloadSystem {
	return &AnimatorReloadSystem{watcher: watcher, reload: reload}
}

// Notify queues a change for the next Update.
func (s *AnimatorReloadSystem) Notify(change prefabs.Change) {
	if s == nil {
		return
	}
	s.pending = append(s.pending, change)
}

func (s *AnimatorReloadSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.reload == nil {
		return
	}
	s.poll()
	if len(s.pending) == 0 {
		return
	}

	changes := s.pending
	s.pending = nil

	reloadAll := false
	controllers := map[string]struct{}{}
	for _, change := range changes {
		if change.Script {
			InvalidateScript(change.Name)
			reloadAll = true
			continue
		}
		controllers[prefabs.ControllerFile(change.Name)] = struct{}{}
	}

	specs := map[string]*prefabs.AnimatorSpec{}
	for _, e := range w.Query(component.AnimatorConfigComponent.Kind().ID()) {
		cfg, ok := ecs.Get(w, e, component.AnimatorConfigComponent)
		if !ok || cfg == nil {
			continue
		}
		file := prefabs.ControllerFile(cfg.Controller)
		if _, ok := controllers[file]; !ok && !reloadAll {
			continue
		}

		spec, ok := specs[file]
		if !ok {
			loaded, err := prefabs.LoadAnimatorSpec(file)
			if err != nil {
				log.Printf("animator: reload %s: %v", file, err)
			}
			specs[file] = loaded
			spec = loaded
		}
		if spec == nil {
			continue
		}
		if err := s.reload(w, e, spec); err != nil {
			log.Printf("animator: reload %s entity=%s: %v", file, e, err)
			continue
		}
		log.Printf("animator: reloaded %s entity=%s", file, e)
	}
}

func (s *AnimatorReloadSystem) poll() {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-s.watcher.Events:
			if !ok {
				s.watcher = nil
				return
			}
			s.pending = append(s.pending, change)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				s.watcher = nil
				return
			}
			log.Printf("animator: watch: %v", err)
		default:
			return
		}
	}
}
