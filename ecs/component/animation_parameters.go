package component

import "github.com/milk9111/animgraph/ecs"

// BoolParameter is set by gameplay code before the tick and read by
// transition conditions.
type BoolParameter struct {
	Name  string
	Value bool
}

// BlendParameter overwrites the Blend of state State while that state is
// current or next.
type BlendParameter struct {
	Name  string
	State int
	Value float64
}

type AnimationParameters struct {
	Bools  []BoolParameter
	Blends []BlendParameter
}

// BoolIndex returns the index of the named boolean parameter or -1.
func (p *AnimationParameters) BoolIndex(name string) int {
	if p == nil {
		return -1
	}
	for i := range p.Bools {
		if p.Bools[i].Name == name {
			return i
		}
	}
	return -1
}

// Bool returns the named boolean parameter.
func (p *AnimationParameters) Bool(name string) (bool, bool) {
	idx := p.BoolIndex(name)
	if idx < 0 {
		return false, false
	}
	return p.Bools[idx].Value, true
}

// SetBool sets the named boolean parameter, reporting whether it exists.
func (p *AnimationParameters) SetBool(name string, v bool) bool {
	idx := p.BoolIndex(name)
	if idx < 0 {
		return false
	}
	p.Bools[idx].Value = v
	return true
}

// SetBlend sets every blend parameter with the given name.
func (p *AnimationParameters) SetBlend(name string, v float64) bool {
	if p == nil {
		return false
	}
	found := false
	for i := range p.Blends {
		if p.Blends[i].Name == name {
			p.Blends[i].Value = v
			found = true
		}
	}
	return found
}

var AnimationParametersComponent = ecs.NewComponent[*AnimationParameters]()
