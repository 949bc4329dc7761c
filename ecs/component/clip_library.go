package component

// ClipLibrary stores clips by key.
type ClipLibrary struct {
	clips map[string]Clip
}

// NewClipLibrary creates an empty library.
func NewClipLibrary() *ClipLibrary {
	return &ClipLibrary{clips: make(map[string]Clip)}
}

// Register adds a clip to the library. Clips without a positive length are
// ignored.
func (l *ClipLibrary) Register(clip Clip) {
	if l == nil || clip.Name == "" || clip.Length <= 0 {
		return
	}
	if l.clips == nil {
		l.clips = make(map[string]Clip)
	}
	l.clips[clip.Name] = clip
}

// Get returns a clip by key.
func (l *ClipLibrary) Get(key string) (Clip, bool) {
	if l == nil || key == "" {
		return Clip{}, false
	}
	clip, ok := l.clips[key]
	return clip, ok
}

// Len returns the number of registered clips.
func (l *ClipLibrary) Len() int {
	if l == nil {
		return 0
	}
	return len(l.clips)
}
