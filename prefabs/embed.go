package prefabs

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskDir is where edited copies of the embedded files are looked up first.
const DiskDir = "prefabs"

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed *.yaml *.tmx
var ScenesFS embed.FS

// LoadScript returns a controller script, preferring the copy on disk.
func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// Load returns a scene or settings file, preferring the copy on disk.
func Load(name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScenesFS.ReadFile(clean)
}

// SceneFS returns the filesystem name should be read from: the disk
// directory when it holds a copy, the embedded files otherwise.
func SceneFS(name string) fs.FS {
	if _, err := os.Stat(diskPath(cleanPrefabPath(name))); err == nil {
		return os.DirFS(DiskDir)
	}
	return ScenesFS
}

func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPath(cleanPrefabPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Scenes lists the embedded scene files.
func Scenes() []string {
	var out []string
	for _, pattern := range []string{"*.yaml", "*.tmx"} {
		matches, _ := fs.Glob(ScenesFS, pattern)
		for _, m := range matches {
			if m == inputFile {
				continue
			}
			out = append(out, m)
		}
	}
	return out
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, DiskDir+"/"); ok {
		s = after
	}
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}

	s := filepath.ToSlash(path)

	if after, ok := strings.CutPrefix(s, DiskDir+"/scripts/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, DiskDir+"/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}

	if filepath.Ext(s) == "" {
		s += ".tengo"
	}

	return fmt.Sprintf("scripts/%s", s)
}

func diskPath(clean string) string {
	return filepath.Join(DiskDir, filepath.FromSlash(clean))
}
