package batch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// ManifestEntry represents one job in the output manifest.
type ManifestEntry struct {
	Name      string `json:"name"`
	Profile   string `json:"profile"`
	File      string `json:"file,omitempty"`
	ViewCount int    `json:"view_count,omitempty"`
	Width     uint32 `json:"width,omitempty"`
	Height    uint32 `json:"height,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WriteManifest writes manifest.json to path. File names are stored relative
// to the manifest's directory.
func WriteManifest(path string, results []Result) error {
	dir := filepath.Dir(path)
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		e := ManifestEntry{
			Name:    r.Name,
			Profile: r.Profile,
			Error:   r.Error,
		}
		if r.Success {
			e.File = r.Output
			if rel, err := filepath.Rel(dir, r.Output); err == nil {
				e.File = filepath.ToSlash(rel)
			}
			e.ViewCount = r.ViewCount
			e.Width = r.Width
			e.Height = r.Height
		}
		entries[i] = e
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Failures counts the unsuccessful results.
func Failures(results []Result) int {
	return lo.CountBy(results, func(r Result) bool { return !r.Success })
}
