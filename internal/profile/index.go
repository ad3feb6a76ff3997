package profile

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Index maps lowercase profile names (file stems) to calibration file paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for .ini calibration files.
// When two files share a stem, the one closer to dir wins.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	depth := make(map[string]int)

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".ini" {
			return nil
		}
		stem := stemOf(path)
		level := strings.Count(filepath.ToSlash(path), "/")

		if existing, exists := depth[stem]; !exists || level < existing {
			idx.entries[stem] = path
			depth[stem] = level
		}
		return nil
	})

	return idx
}

// ResolvePath returns the calibration file for a profile name, or ("", false).
// The name may carry a directory or an extension.
func (idx *Index) ResolvePath(name string) (string, bool) {
	path, ok := idx.entries[stemOf(name)]
	return path, ok
}

// Names returns the sorted profile names.
func (idx *Index) Names() []string {
	names := lo.Keys(idx.entries)
	slices.Sort(names)
	return names
}

// Len returns the number of indexed profiles.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// stemOf strips directories and the extension and lowercases the rest.
func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
