package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PreviousState is the exit transition target that returns to whatever
// played before the transition into the current sub-state-machine.
const PreviousState = "$previous"

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// DecodeSpec re-decodes a loosely typed YAML value into T.
func DecodeSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// AnimatorSpec is an authored animator controller.
type AnimatorSpec struct {
	Name        string               `yaml:"name"`
	Initial     string               `yaml:"initial"`
	Color       *YAMLColor           `yaml:"color"`
	Clips       []ClipSpec           `yaml:"clips"`
	Parameters  ParametersSpec       `yaml:"parameters"`
	States      []StateSpec          `yaml:"states"`
	Transitions []TransitionSpec     `yaml:"transitions"`
	Exits       []ExitTransitionSpec `yaml:"exit_transitions"`
	Events      []EventSpec          `yaml:"events"`
}

func LoadAnimatorSpec(filename string) (*AnimatorSpec, error) {
	spec, err := LoadSpec[AnimatorSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// ClipSetSpec lists clip lengths shared across controllers.
type ClipSetSpec struct {
	Name  string     `yaml:"name"`
	Clips []ClipSpec `yaml:"clips"`
}

func LoadClipSet(name string) (*ClipSetSpec, error) {
	data, err := LoadClips(name)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load clips %s: %w", name, err)
	}
	var set ClipSetSpec
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal clips %s: %w", name, err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

type ClipSpec struct {
	Name   string  `yaml:"name"`
	Length float64 `yaml:"length"`
}

type ParametersSpec struct {
	Bools  []BoolParameterSpec  `yaml:"bools"`
	Blends []BlendParameterSpec `yaml:"blends"`
}

type BoolParameterSpec struct {
	Name  string `yaml:"name"`
	Value bool   `yaml:"value"`
}

type BlendParameterSpec struct {
	Name  string  `yaml:"name"`
	State string  `yaml:"state"`
	Value float64 `yaml:"value"`
}

type StateSpec struct {
	Name               string        `yaml:"name"`
	OneShot            bool          `yaml:"one_shot"`
	TransitionDuration float64       `yaml:"transition_duration"`
	Blend              float64       `yaml:"blend"`
	Samplers           []SamplerSpec `yaml:"samplers"`
}

type SamplerSpec struct {
	Clip   string   `yaml:"clip"`
	Speed  *float64 `yaml:"speed"`
	Weight float64  `yaml:"weight"`
}

// SpeedOrDefault returns the authored speed, 1 when omitted.
func (s SamplerSpec) SpeedOrDefault() float64 {
	if s.Speed == nil {
		return 1
	}
	return *s.Speed
}

// TransitionSpec is a condition group. A transition without conditions is
// kept but never fires.
type TransitionSpec struct {
	From       string          `yaml:"from"`
	To         string          `yaml:"to"`
	Conditions []ConditionSpec `yaml:"conditions"`
}

type ConditionSpec struct {
	Parameter string `yaml:"parameter"`
	Equals    *bool  `yaml:"equals"`
}

// Expected returns the value the parameter must hold, true when omitted.
func (c ConditionSpec) Expected() bool {
	if c.Equals == nil {
		return true
	}
	return *c.Equals
}

type ExitTransitionSpec struct {
	From string  `yaml:"from"`
	At   float64 `yaml:"at"`
	To   string  `yaml:"to"`
}

// ToPrevious reports whether the transition returns to the previous state.
func (e ExitTransitionSpec) ToPrevious() bool {
	return strings.TrimSpace(e.To) == PreviousState
}

// EventSpec anchors an action to a normalized time of one of a state's
// samplers. Sampler indexes the state's own sampler list.
type EventSpec struct {
	Name    string         `yaml:"name"`
	State   string         `yaml:"state"`
	Sampler int            `yaml:"sampler"`
	Time    float64        `yaml:"time"`
	Action  map[string]any `yaml:"action"`
}

// ActionKind returns the single key of the action map and its argument.
func (e EventSpec) ActionKind() (string, any, error) {
	if len(e.Action) != 1 {
		return "", nil, fmt.Errorf("event %q: action must have exactly one key, got %d", e.Name, len(e.Action))
	}
	for k, v := range e.Action {
		return k, v, nil
	}
	return "", nil, nil
}

// SetBoolSpec is the argument of the set_bool event action.
type SetBoolSpec struct {
	Name  string `yaml:"name"`
	Value bool   `yaml:"value"`
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
