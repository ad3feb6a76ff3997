package profile

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lenticular-viewmap/internal/viewmap"
)

const calibrationINI = `; exported by the calibration tool
[MonitorConfiguration]
HorizontalResolution = 3840
VerticalResolution = 2160
NativeViewcount = 8
AngleRatioNumerator = 3
AngleRatioDenominator = 10,0
LeftLensOrientation = 0
isBGR = true
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(calibrationINI))
	require.NoError(t, err)

	assert.Equal(t, Calibration{
		HorizontalResolution:  3840,
		VerticalResolution:    2160,
		NativeViewcount:       8,
		AngleRatioNumerator:   3,
		AngleRatioDenominator: 10,
		LeftLensOrientation:   0,
		BGR:                   true,
	}, c)

	p := c.MonitorParams()
	assert.Equal(t, viewmap.MonitorParams{
		PixelCountX:      3840,
		PixelCountY:      2160,
		ViewCount:        8,
		LensWidth:        10,
		LensAngleCounter: -3,
		BGR:              true,
	}, p)
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("[MonitorConfiguration]\nHorizontalResolution = 1920\nNativeViewcount = many\n"))
	require.NoError(t, err)
	assert.Equal(t, 1920, c.HorizontalResolution)
	assert.Equal(t, 0, c.VerticalResolution)
	assert.Equal(t, DefaultNativeViewcount, c.NativeViewcount, "unparsable values fall back")
	assert.Equal(t, DefaultAngleRatioNumerator, c.AngleRatioNumerator)
	assert.Equal(t, DefaultAngleRatioDenominator, c.AngleRatioDenominator)
	assert.Equal(t, DefaultLeftLensOrientation, c.LeftLensOrientation)
	assert.False(t, c.BGR)

	p := c.MonitorParams()
	assert.Equal(t, int32(4), p.LensAngleCounter, "left leaning lens keeps the sign")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestIndexAndCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Studio.ini"), calibrationINI)
	writeFile(t, filepath.Join(dir, "old", "studio.ini"), "[MonitorConfiguration]\nHorizontalResolution = 1\n")
	writeFile(t, filepath.Join(dir, "lab", "Portrait.INI"), calibrationINI+"Rotated = 1\n")
	writeFile(t, filepath.Join(dir, "broken.ini"), "[MonitorConfiguration]\nHorizontalResolution = 0\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a profile")

	idx := BuildIndex(dir)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"broken", "portrait", "studio"}, idx.Names())

	path, ok := idx.ResolvePath(`C:\profiles\STUDIO.ini`)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Studio.ini"), path, "shallower file wins")

	cache := NewCache(idx)
	e, err := cache.Resolve("studio")
	require.NoError(t, err)
	assert.Equal(t, "studio", e.Name)
	assert.Equal(t, 3840, e.Monitor.Width())

	again, err := cache.Resolve("Studio")
	require.NoError(t, err)
	assert.Same(t, e, again)

	p, err := cache.Resolve("portrait")
	require.NoError(t, err)
	assert.True(t, p.Monitor.Params().Rotated)

	_, err = cache.Resolve("broken")
	assert.ErrorIs(t, err, viewmap.ErrZeroDimension)

	_, err = cache.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestCacheConcurrent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "studio.ini"), calibrationINI)
	cache := NewCache(BuildIndex(dir))

	entries := make([]*Entry, 16)
	var wg sync.WaitGroup
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := cache.Resolve("studio")
			assert.NoError(t, err)
			entries[i] = e
		}(i)
	}
	wg.Wait()
	for _, e := range entries[1:] {
		assert.Same(t, entries[0], e)
	}
}
