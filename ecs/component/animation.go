package component

import (
	"image/color"
	"math"
	"strconv"

	"github.com/milk9111/animgraph/ecs"
)

// StateRef references a state by index into the owning instance's state
// buffer. NullState marks an unset reference.
type StateRef int32

const NullState StateRef = -1

// StateIndex wraps a state buffer index.
func StateIndex(i int) StateRef {
	if i < 0 {
		return NullState
	}
	return StateRef(i)
}

func (r StateRef) Valid() bool {
	return r >= 0
}

func (r StateRef) Index() int {
	return int(r)
}

// InRange reports whether r is a valid index into a buffer of n states.
func (r StateRef) InRange(n int) bool {
	return r.Valid() && int(r) < n
}

func (r StateRef) String() string {
	if !r.Valid() {
		return "null"
	}
	return strconv.Itoa(int(r))
}

// Clip is the playback-relevant view of a clip asset. Pose data lives with
// whatever consumes the sampler output.
type Clip struct {
	Name string
	// Length is the clip duration in seconds.
	Length float64
}

// Sampler is a clip playback cursor.
type Sampler struct {
	Clip Clip
	// Time is accumulated playback time in seconds. It is never wrapped in
	// place; wrapping happens on read.
	Time  float64
	Speed float64
	// Weight is the blend-tree weight used to pick a state's active sampler.
	Weight float64
}

// NormalizedTime returns Time in clip lengths. Values above 1 mean the clip
// looped at least once.
func (s Sampler) NormalizedTime() float64 {
	if s.Clip.Length <= 0 {
		return 0
	}
	return s.Time / s.Clip.Length
}

// WrappedTime returns the position inside the clip in [0, 1).
func (s Sampler) WrappedTime() float64 {
	return WrapNormalized(s.Time, s.Clip.Length)
}

// Step returns the time delta a tick of dt applies to this sampler.
func (s Sampler) Step(dt float64) float64 {
	return dt * s.Speed
}

// WrapNormalized maps a time in seconds onto [0, 1) of a clip of the given
// length, wrapping negative times backwards.
func WrapNormalized(t, length float64) float64 {
	if length <= 0 {
		return 0
	}
	n := math.Mod(t, length)
	if n < 0 {
		n += length
	}
	r := n / length
	if r >= 1 {
		return 0
	}
	return r
}

// AnimationState is one playable unit of a state machine.
type AnimationState struct {
	Name  string
	Index int
	// OneShot states are never remembered as the state to return to.
	OneShot bool
	// TransitionDuration is the normalized cross-fade window used when
	// entering this state.
	TransitionDuration float64
	Blend              float64
	// SamplerStart and SamplerCount select this state's range of the
	// instance's sampler buffer.
	SamplerStart int
	SamplerCount int
}

// ActiveSamplerIndex returns the index into samplers of the sampler that
// defines this state's time: the heaviest sampler of the state's range, the
// first one on ties. It returns -1 for a state without samplers.
func (s AnimationState) ActiveSamplerIndex(samplers []Sampler) int {
	if s.SamplerCount <= 0 || s.SamplerStart < 0 || s.SamplerStart+s.SamplerCount > len(samplers) {
		return -1
	}
	best := s.SamplerStart
	for i := s.SamplerStart + 1; i < s.SamplerStart+s.SamplerCount; i++ {
		if samplers[i].Weight > samplers[best].Weight {
			best = i
		}
	}
	return best
}

// Time returns the normalized state time.
func (s AnimationState) Time(samplers []Sampler) float64 {
	idx := s.ActiveSamplerIndex(samplers)
	if idx < 0 {
		return 0
	}
	return samplers[idx].NormalizedTime()
}

// ResetTime zeroes every sampler feeding the state.
func (s AnimationState) ResetTime(samplers []Sampler) {
	for i := s.SamplerStart; i < s.SamplerStart+s.SamplerCount && i < len(samplers); i++ {
		samplers[i].Time = 0
	}
}

// Advance moves every sampler feeding the state forward by dt scaled by its
// own speed.
func (s AnimationState) Advance(samplers []Sampler, dt float64) {
	for i := s.SamplerStart; i < s.SamplerStart+s.SamplerCount && i < len(samplers); i++ {
		samplers[i].Time += samplers[i].Step(dt)
	}
}

// AnimationStateMachine is the per-instance state machine record.
type AnimationStateMachine struct {
	Current StateRef
	// Next is the state being cross-faded into.
	Next StateRef
	// Prev is the last non one-shot state that was current before the
	// committed transition.
	Prev StateRef
	// Requested is committed into Next on the following tick.
	Requested StateRef
}

// NewAnimationStateMachine starts a machine in the given state with no
// transition in flight.
func NewAnimationStateMachine(initial int) AnimationStateMachine {
	return AnimationStateMachine{
		Current:   StateIndex(initial),
		Next:      NullState,
		Prev:      NullState,
		Requested: NullState,
	}
}

// Transitioning reports whether a cross-fade is in flight.
func (m AnimationStateMachine) Transitioning() bool {
	return m.Next.Valid()
}

type AnimationStates struct {
	Items []AnimationState
}

type AnimationSamplers struct {
	Items []Sampler
}

// AnimatorConfig records where an instance's tables were authored.
type AnimatorConfig struct {
	Controller string
	// Clips overrides the clip lengths authored in the controller. Reloads
	// reuse it.
	Clips *ClipLibrary
	// Color tints the instance in debug views.
	Color color.Color
}

var AnimationStateMachineComponent = ecs.NewComponent[*AnimationStateMachine]()
var AnimationStatesComponent = ecs.NewComponent[*AnimationStates]()
var AnimationSamplersComponent = ecs.NewComponent[*AnimationSamplers]()
var AnimatorConfigComponent = ecs.NewComponent[*AnimatorConfig]()
