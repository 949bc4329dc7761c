package prefabs

import (
	"errors"
	"fmt"
)

var ErrInvalidSpec = errors.New("prefabs: invalid animator spec")

// Validate rejects unnamed, duplicate and non-positive clips.
func (s *ClipSetSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil clip set", ErrInvalidSpec)
	}
	var errs []error
	seen := make(map[string]struct{}, len(s.Clips))
	for i, clip := range s.Clips {
		switch {
		case clip.Name == "":
			errs = append(errs, fmt.Errorf("%w: clips %s: clip %d has no name", ErrInvalidSpec, s.Name, i))
			continue
		case clip.Length <= 0:
			errs = append(errs, fmt.Errorf("%w: clips %s: clip %q length %v must be positive", ErrInvalidSpec, s.Name, clip.Name, clip.Length))
		}
		if _, dup := seen[clip.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: clips %s: duplicate clip %q", ErrInvalidSpec, s.Name, clip.Name))
		}
		seen[clip.Name] = struct{}{}
	}
	return errors.Join(errs...)
}

// Validate checks that every name in the controller resolves and every number is
// in range. All problems are reported together.
func (s *AnimatorSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil spec", ErrInvalidSpec)
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidSpec, s.Name, fmt.Sprintf(format, args...)))
	}

	clips := make(map[string]struct{}, len(s.Clips))
	for i, clip := range s.Clips {
		if clip.Name == "" {
			fail("clip %d has no name", i)
			continue
		}
		if _, dup := clips[clip.Name]; dup {
			fail("duplicate clip %q", clip.Name)
		}
		clips[clip.Name] = struct{}{}
		if clip.Length <= 0 {
			fail("clip %q length %v must be positive", clip.Name, clip.Length)
		}
	}

	states := make(map[string]StateSpec, len(s.States))
	for i, state := range s.States {
		if state.Name == "" {
			fail("state %d has no name", i)
			continue
		}
		if state.Name == PreviousState {
			fail("state name %q is reserved", PreviousState)
		}
		if _, dup := states[state.Name]; dup {
			fail("duplicate state %q", state.Name)
		}
		states[state.Name] = state
		if len(state.Samplers) == 0 {
			fail("state %q has no samplers", state.Name)
		}
		if state.TransitionDuration < 0 {
			fail("state %q transition_duration %v is negative", state.Name, state.TransitionDuration)
		}
		for j, sampler := range state.Samplers {
			if _, ok := clips[sampler.Clip]; !ok {
				fail("state %q sampler %d: unknown clip %q", state.Name, j, sampler.Clip)
			}
			if sampler.Weight < 0 {
				fail("state %q sampler %d: negative weight", state.Name, j)
			}
		}
	}

	if len(s.States) == 0 {
		fail("no states")
	} else if _, ok := states[s.Initial]; !ok {
		fail("unknown initial state %q", s.Initial)
	}

	bools := make(map[string]struct{}, len(s.Parameters.Bools))
	for _, p := range s.Parameters.Bools {
		if _, dup := bools[p.Name]; dup {
			fail("duplicate bool parameter %q", p.Name)
		}
		bools[p.Name] = struct{}{}
	}

	blends := make(map[string]struct{}, len(s.Parameters.Blends))
	for _, p := range s.Parameters.Blends {
		if _, dup := blends[p.Name]; dup {
			fail("duplicate blend parameter %q", p.Name)
		}
		blends[p.Name] = struct{}{}
		if _, ok := states[p.State]; !ok {
			fail("blend parameter %q: unknown state %q", p.Name, p.State)
		}
	}

	for i, tr := range s.Transitions {
		if _, ok := states[tr.From]; !ok {
			fail("transition %d: unknown from state %q", i, tr.From)
		}
		if _, ok := states[tr.To]; !ok {
			fail("transition %d: unknown to state %q", i, tr.To)
		}
		for _, cond := range tr.Conditions {
			if _, ok := bools[cond.Parameter]; !ok {
				fail("transition %d: unknown parameter %q", i, cond.Parameter)
			}
		}
	}

	for i, exit := range s.Exits {
		if _, ok := states[exit.From]; !ok {
			fail("exit transition %d: unknown from state %q", i, exit.From)
		}
		if exit.At < 0 {
			fail("exit transition %d: negative threshold %v", i, exit.At)
		}
		if exit.ToPrevious() {
			continue
		}
		if _, ok := states[exit.To]; !ok {
			fail("exit transition %d: unknown to state %q", i, exit.To)
		}
	}

	for i, ev := range s.Events {
		state, ok := states[ev.State]
		if !ok {
			fail("event %d (%s): unknown state %q", i, ev.Name, ev.State)
			continue
		}
		if ev.Sampler < 0 || ev.Sampler >= len(state.Samplers) {
			fail("event %d (%s): sampler %d out of range for state %q", i, ev.Name, ev.Sampler, ev.State)
		}
		if ev.Time < 0 || ev.Time > 1 {
			fail("event %d (%s): time %v outside [0, 1]", i, ev.Name, ev.Time)
		}
		if _, _, err := ev.ActionKind(); err != nil {
			fail("%v", err)
		}
	}

	return errors.Join(errs...)
}

// StateIndex returns the position of the named state, -1 if absent.
func (s *AnimatorSpec) StateIndex(name string) int {
	for i, state := range s.States {
		if state.Name == name {
			return i
		}
	}
	return -1
}

// Clip returns the named clip.
func (s *AnimatorSpec) Clip(name string) (ClipSpec, bool) {
	for _, clip := range s.Clips {
		if clip.Name == name {
			return clip, true
		}
	}
	return ClipSpec{}, false
}
