package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lenticular-viewmap/internal/viewmap"
)

// ErrUnknownProfile is returned for names missing from the index.
var ErrUnknownProfile = errors.New("profile: unknown profile")

// Resolver resolves a profile name to its monitor.
type Resolver interface {
	Resolve(name string) (*Entry, error)
}

// Entry is a loaded profile.
type Entry struct {
	Name        string
	Path        string
	Calibration Calibration
	Monitor     *viewmap.Monitor
}

// Cache is a concurrency-safe profile cache.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	entry *Entry
	err   error
}

// NewCache creates a new profile cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Index returns the index the cache resolves names with.
func (c *Cache) Index() *Index { return c.index }

// Resolve loads and caches a profile by name. Load failures are cached too,
// so a broken file is parsed once.
func (c *Cache) Resolve(name string) (*Entry, error) {
	path, ok := c.index.ResolvePath(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}

	// Fast path: read lock
	c.mu.RLock()
	if ce, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return ce.entry, ce.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	entry, err := loadEntry(stemOf(name), path)

	// Write lock with double-check
	c.mu.Lock()
	if ce, exists := c.items[path]; exists {
		c.mu.Unlock()
		return ce.entry, ce.err
	}
	c.items[path] = &cacheEntry{entry: entry, err: err}
	c.mu.Unlock()

	return entry, err
}

func loadEntry(name, path string) (*Entry, error) {
	cal, err := Load(path)
	if err != nil {
		return nil, err
	}
	m, err := viewmap.NewMonitor(cal.MonitorParams())
	if err != nil {
		return nil, fmt.Errorf("profile: %s: %w", path, err)
	}
	return &Entry{Name: name, Path: path, Calibration: cal, Monitor: m}, nil
}

// LoadEntry loads a calibration file outside of any index.
func LoadEntry(path string) (*Entry, error) {
	return loadEntry(stemOf(path), path)
}

// Find resolves name as a calibration file path when it names an existing
// file, and through res otherwise. res may be nil.
func Find(res Resolver, name string) (*Entry, error) {
	if strings.ContainsAny(name, `/\`) || strings.EqualFold(filepath.Ext(name), ".ini") {
		if _, err := os.Stat(name); err == nil {
			return LoadEntry(name)
		}
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return res.Resolve(name)
}
