package prefabs

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadAnimatorSpecEmbedded(t *testing.T) {
	spec, err := LoadAnimatorSpec("hero")
	if err != nil {
		t.Fatalf("load hero: %v", err)
	}
	if spec.Name != "hero" || spec.Initial != "idle" {
		t.Fatalf("unexpected header: name=%q initial=%q", spec.Name, spec.Initial)
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("validate hero: %v", err)
	}
	if got := spec.StateIndex("locomotion"); got != 1 {
		t.Fatalf("expected locomotion at 1, got %d", got)
	}
	if got := spec.StateIndex("missing"); got != -1 {
		t.Fatalf("expected -1 for missing state, got %d", got)
	}

	var previous int
	for _, exit := range spec.Exits {
		if exit.ToPrevious() {
			previous++
		}
	}
	if previous != 2 {
		t.Fatalf("expected 2 return-to-previous exits, got %d", previous)
	}
	if spec.Color == nil {
		t.Fatalf("expected controller color")
	}
}

func TestEveryEmbeddedControllerValidates(t *testing.T) {
	names, err := Controllers()
	if err != nil {
		t.Fatalf("list controllers: %v", err)
	}
	if len(names) < 2 {
		t.Fatalf("expected embedded controllers, got %v", names)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			spec, err := LoadAnimatorSpec(name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if err := spec.Validate(); err != nil {
				t.Fatalf("validate: %v", err)
			}
		})
	}
}

func TestDiskOverride(t *testing.T) {
	dir := t.TempDir()
	SetDiskRoot(dir)
	t.Cleanup(func() { SetDiskRoot("prefabs") })

	src := "name: override\ninitial: a\nclips: [{name: a, length: 1}]\nstates: [{name: a, samplers: [{clip: a, weight: 1}]}]\n"
	if err := os.WriteFile(filepath.Join(dir, "hero.yaml"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	spec, err := LoadAnimatorSpec("prefabs/hero.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.Name != "override" {
		t.Fatalf("expected disk copy, got %q", spec.Name)
	}
	if _, ok := ModTime("hero"); !ok {
		t.Fatalf("expected mod time for disk copy")
	}

	SetDiskRoot("")
	spec, err = LoadAnimatorSpec("hero.yaml")
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if spec.Name != "hero" {
		t.Fatalf("expected embedded copy, got %q", spec.Name)
	}
}

func TestLoadClipSet(t *testing.T) {
	set, err := LoadClipSet("export")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.Name != "export" || len(set.Clips) == 0 {
		t.Fatalf("unexpected clip set %+v", set)
	}
	for _, name := range []string{"export", "export.yaml", "clips/export", "prefabs/clips/export.yaml"} {
		if got := ClipSetFile(name); got != "clips/export.yaml" {
			t.Fatalf("ClipSetFile(%q) = %q", name, got)
		}
	}

	dir := t.TempDir()
	SetDiskRoot(dir)
	t.Cleanup(func() { SetDiskRoot("prefabs") })
	if err := os.MkdirAll(filepath.Join(dir, "clips"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := "name: disk\nclips: [{name: wave, length: 0}]\n"
	if err := os.WriteFile(filepath.Join(dir, "clips", "export.yaml"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadClipSet("export"); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected disk copy to be rejected, got %v", err)
	}
}

func TestClipSetValidate(t *testing.T) {
	cases := []struct {
		name  string
		clips []ClipSpec
		want  string
	}{
		{"ok", []ClipSpec{{Name: "a", Length: 1}, {Name: "b", Length: 0.5}}, ""},
		{"unnamed", []ClipSpec{{Length: 1}}, "has no name"},
		{"zero_length", []ClipSpec{{Name: "a"}}, "must be positive"},
		{"duplicate", []ClipSpec{{Name: "a", Length: 1}, {Name: "a", Length: 2}}, "duplicate clip"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := (&ClipSetSpec{Name: "test", Clips: c.clips}).Validate()
			if c.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidSpec) || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected %q, got %v", c.want, err)
			}
		})
	}
}

func TestLoadScript(t *testing.T) {
	cases := []string{"footstep.tengo", "scripts/footstep.tengo", "prefabs/scripts/footstep.tengo"}
	for _, name := range cases {
		data, err := LoadScript(name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if !strings.Contains(string(data), "on_event") {
			t.Fatalf("%s: expected on_event definition", name)
		}
	}
}

func validSpec() *AnimatorSpec {
	return &AnimatorSpec{
		Name:    "test",
		Initial: "a",
		Clips:   []ClipSpec{{Name: "clip", Length: 1}},
		Parameters: ParametersSpec{
			Bools:  []BoolParameterSpec{{Name: "go"}},
			Blends: []BlendParameterSpec{{Name: "mix", State: "a"}},
		},
		States: []StateSpec{
			{Name: "a", Samplers: []SamplerSpec{{Clip: "clip", Weight: 1}}},
			{Name: "b", Samplers: []SamplerSpec{{Clip: "clip", Weight: 1}}},
		},
		Transitions: []TransitionSpec{{From: "a", To: "b", Conditions: []ConditionSpec{{Parameter: "go"}}}},
		Exits:       []ExitTransitionSpec{{From: "b", At: 0.9, To: PreviousState}},
		Events:      []EventSpec{{Name: "e", State: "a", Time: 0.5, Action: map[string]any{"emit": "e"}}},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(s *AnimatorSpec)
		want   string
	}{
		{name: "valid", mutate: func(*AnimatorSpec) {}},
		{name: "unknown initial", mutate: func(s *AnimatorSpec) { s.Initial = "z" }, want: "initial"},
		{name: "zero length clip", mutate: func(s *AnimatorSpec) { s.Clips[0].Length = 0 }, want: "length"},
		{name: "unknown clip", mutate: func(s *AnimatorSpec) { s.States[0].Samplers[0].Clip = "nope" }, want: "unknown clip"},
		{name: "no samplers", mutate: func(s *AnimatorSpec) { s.States[1].Samplers = nil }, want: "no samplers"},
		{name: "duplicate state", mutate: func(s *AnimatorSpec) { s.States[1].Name = "a" }, want: "duplicate state"},
		{name: "unknown transition target", mutate: func(s *AnimatorSpec) { s.Transitions[0].To = "z" }, want: "to state"},
		{name: "unknown condition parameter", mutate: func(s *AnimatorSpec) { s.Transitions[0].Conditions[0].Parameter = "z" }, want: "unknown parameter"},
		{name: "unknown exit target", mutate: func(s *AnimatorSpec) { s.Exits[0].To = "z" }, want: "exit transition 0"},
		{name: "blend state", mutate: func(s *AnimatorSpec) { s.Parameters.Blends[0].State = "z" }, want: "blend parameter"},
		{name: "event sampler", mutate: func(s *AnimatorSpec) { s.Events[0].Sampler = 1 }, want: "sampler 1"},
		{name: "event time", mutate: func(s *AnimatorSpec) { s.Events[0].Time = 1.5 }, want: "outside"},
		{name: "event action keys", mutate: func(s *AnimatorSpec) { s.Events[0].Action = map[string]any{} }, want: "exactly one key"},
		{name: "reserved name", mutate: func(s *AnimatorSpec) { s.States[1].Name = PreviousState }, want: "reserved"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec()
			tc.mutate(spec)
			err := spec.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidSpec) {
				t.Fatalf("expected ErrInvalidSpec, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestConditionAndSamplerDefaults(t *testing.T) {
	var spec TransitionSpec
	src := "from: a\nto: b\nconditions:\n  - parameter: x\n  - parameter: y\n    equals: false\n"
	if err := yaml.Unmarshal([]byte(src), &spec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !spec.Conditions[0].Expected() {
		t.Fatalf("omitted equals should expect true")
	}
	if spec.Conditions[1].Expected() {
		t.Fatalf("equals: false should expect false")
	}

	var sampler SamplerSpec
	if got := sampler.SpeedOrDefault(); got != 1 {
		t.Fatalf("expected default speed 1, got %v", got)
	}
	speed := -0.5
	sampler.Speed = &speed
	if got := sampler.SpeedOrDefault(); got != -0.5 {
		t.Fatalf("expected authored speed, got %v", got)
	}
}

func TestDecodeSpec(t *testing.T) {
	raw := map[string]any{"name": "cheer", "value": true}
	got, err := DecodeSpec[SetBoolSpec](raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "cheer" || !got.Value {
		t.Fatalf("unexpected decode: %+v", got)
	}

	if _, err := DecodeSpec[SetBoolSpec]("not a map"); err == nil {
		t.Fatalf("expected error decoding scalar into struct")
	}
}

func TestYAMLColor(t *testing.T) {
	cases := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: `"#ff8000"`, want: color.NRGBA{R: 255, G: 128, A: 255}},
		{in: `"10203040"`, want: color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}},
		{in: `"#fff"`, wantErr: true},
		{in: `[1, 2]`, wantErr: true},
	}
	for _, tc := range cases {
		var c YAMLColor
		err := yaml.Unmarshal([]byte(tc.in), &c)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if c.Color != tc.want {
			t.Fatalf("%s: got %v want %v", tc.in, c.Color, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path   string
		ok     bool
		name   string
		script bool
	}{
		{path: "/tmp/prefabs/hero.yaml", ok: true, name: "hero.yaml"},
		{path: "/tmp/prefabs/scripts/footstep.tengo", ok: true, name: "scripts/footstep.tengo", script: true},
		{path: "/tmp/prefabs/readme.md"},
	}
	for _, tc := range cases {
		got, ok := classify(tc.path)
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v want %v", tc.path, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if got.Name != tc.name || got.Script != tc.script {
			t.Fatalf("%s: got %+v", tc.path, got)
		}
	}
}
