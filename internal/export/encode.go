package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"

	"lenticular-viewmap/internal/viewmap"
)

// Format is an output file format.
type Format string

const (
	FormatRaw  Format = "vmap"
	FormatVMZ  Format = "vmz"
	FormatBMP  Format = "bmp"
	FormatWebP Format = "webp"
	FormatTGA  Format = "tga"
	FormatPNG  Format = "png"
)

// Formats lists the supported formats.
var Formats = []Format{FormatRaw, FormatVMZ, FormatBMP, FormatWebP, FormatTGA, FormatPNG}

// ParseFormat accepts a format name or file extension, with or without the
// leading dot.
func ParseFormat(s string) (Format, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	if s == "raw" {
		return FormatRaw, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Ext returns the file extension of f including the dot.
func (f Format) Ext() string { return "." + string(f) }

// IsImage reports whether f is an image format. All image formats written
// here are lossless, so view indices survive.
func (f Format) IsImage() bool {
	return f != FormatRaw && f != FormatVMZ
}

// Options tune Encode.
type Options struct {
	// Visualize stretches indices over the full 0..255 range (images only).
	Visualize bool
	// PreviewSize limits the larger image side; zero keeps full size.
	PreviewSize int
}

// Encode writes vm to w in format f.
func Encode(w io.Writer, vm *viewmap.ViewMap, f Format, opts Options) error {
	if vm.Released() {
		return fmt.Errorf("export: view map already released")
	}
	switch f {
	case FormatRaw:
		return WriteContainer(w, vm, false)
	case FormatVMZ:
		return WriteContainer(w, vm, true)
	}

	var img *image.RGBA
	if opts.Visualize {
		img = Visualize(vm)
	} else {
		img = ToImage(vm)
	}
	img = Preview(img, opts.PreviewSize)

	var err error
	switch f {
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	case FormatTGA:
		err = tga.Encode(w, img)
	case FormatPNG:
		err = png.Encode(w, img)
	default:
		return fmt.Errorf("export: unknown format %q", f)
	}
	if err != nil {
		return fmt.Errorf("export: %s encode: %w", f, err)
	}
	return nil
}

// WriteFile writes vm to path, creating parent directories.
func WriteFile(path string, vm *viewmap.ViewMap, f Format, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", filepath.Dir(path), err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := Encode(out, vm, f, opts); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a raw or zstd container file.
func ReadFile(path string) (*viewmap.ViewMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadContainer(f)
}
