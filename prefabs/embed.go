package prefabs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed *.yaml
var PrefabsFS embed.FS

//go:embed clips/*.yaml
var ClipsFS embed.FS

var (
	diskMu   sync.RWMutex
	diskRoot = "prefabs"
)

// SetDiskRoot changes the directory consulted before the embedded copies.
// An empty root disables the disk override.
func SetDiskRoot(dir string) {
	diskMu.Lock()
	diskRoot = dir
	diskMu.Unlock()
}

// DiskRoot returns the directory consulted before the embedded copies.
func DiskRoot() string {
	diskMu.RLock()
	defer diskMu.RUnlock()
	return diskRoot
}

func Load(name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if data, ok := readDisk(clean); ok {
		return data, nil
	}
	return PrefabsFS.ReadFile(clean)
}

func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, ok := readDisk(clean); ok {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// LoadClips reads a clip set from the clips directory.
func LoadClips(name string) ([]byte, error) {
	clean := cleanClipSetPath(name)
	if data, ok := readDisk(clean); ok {
		return data, nil
	}
	return ClipsFS.ReadFile(clean)
}

func ModTime(name string) (time.Time, bool) {
	path := diskPrefabPath(cleanPrefabPath(name))
	if path == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Controllers lists every controller name available, embedded or on disk.
func Controllers() ([]string, error) {
	seen := make(map[string]struct{})
	embedded, err := fs.Glob(PrefabsFS, "*.yaml")
	if err != nil {
		return nil, err
	}
	for _, name := range embedded {
		seen[name] = struct{}{}
	}

	if root := DiskRoot(); root != "" {
		entries, err := os.ReadDir(root)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("prefabs: list %s: %w", root, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isSpecFile(entry.Name()) {
				continue
			}
			seen[entry.Name()] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func readDisk(clean string) ([]byte, bool) {
	path := diskPrefabPath(clean)
	if path == "" {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if strings.HasPrefix(s, "prefabs/") {
		s = strings.TrimPrefix(s, "prefabs/")
	}
	if !isSpecFile(s) {
		s += ".yaml"
	}
	return s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}

	s := filepath.ToSlash(path)

	if after, ok := strings.CutPrefix(s, "prefabs/scripts/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}

	return fmt.Sprintf("scripts/%s", s)
}

func cleanClipSetPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	s = strings.TrimPrefix(s, "prefabs/")
	s = strings.TrimPrefix(s, "clips/")
	if !isSpecFile(s) {
		s += ".yaml"
	}
	return "clips/" + s
}

func diskPrefabPath(clean string) string {
	root := DiskRoot()
	if root == "" || clean == "" {
		return ""
	}
	return filepath.Join(root, filepath.FromSlash(clean))
}

// ControllerFile normalizes a controller name to its file name, so "hero",
// "hero.yaml" and "prefabs/hero.yaml" compare equal.
func ControllerFile(name string) string {
	return cleanPrefabPath(name)
}

// ScriptFile normalizes a script name to its path under the prefab root.
func ScriptFile(name string) string {
	return cleanScriptPath(name)
}

// ClipSetFile normalizes a clip set name to its path under the prefab root.
func ClipSetFile(name string) string {
	return cleanClipSetPath(name)
}
