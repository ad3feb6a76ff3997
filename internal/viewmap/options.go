package viewmap

import (
	"fmt"
	"strings"
)

// Alignment fixes which subpixel gets view 0 and the direction in which view
// indices increase. Values match G3DViewMapAlignment.
type Alignment int

const (
	// AlignDefault uses the computed indices: phase 0 is view 0.
	AlignDefault Alignment = iota
	// AlignDefinedZero gives the subpixel named by ZeroPixel view 0.
	AlignDefinedZero
	// AlignCompatibleDeprecated reproduces the deprecated generator: the left
	// pixel of the last row (first row for negative angles) has the highest
	// view number.
	AlignCompatibleDeprecated
	// AlignCompatibleMPV gives the red subpixel of the second row view 0.
	AlignCompatibleMPV
)

var alignmentNames = []string{"default", "defined-zero", "compatible-deprecated", "compatible-mpv"}

func (a Alignment) String() string {
	if a >= 0 && int(a) < len(alignmentNames) {
		return alignmentNames[a]
	}
	return fmt.Sprintf("alignment(%d)", int(a))
}

// ParseAlignment parses the names printed by Alignment.String. Underscores
// and case are ignored.
func ParseAlignment(s string) (Alignment, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if norm == "" {
		return AlignDefault, nil
	}
	for i, name := range alignmentNames {
		if name == norm {
			return Alignment(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlignment, s)
}

func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Alignment) UnmarshalText(b []byte) error {
	v, err := ParseAlignment(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ZeroPixel names the subpixel used by AlignDefinedZero. Z is the channel
// (0 red, 1 green, 2 blue).
type ZeroPixel struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
	Z uint32 `json:"z"`
}

// LinePadding selects the scanline size: negative pads to a multiple of four
// bytes (windows bitmap), zero disables padding, n > 0 appends n bytes.
type LinePadding int8

const (
	PaddingAuto LinePadding = -1
	PaddingNone LinePadding = 0
)

// ScanLine returns the scanline size in bytes for a row of width pixels.
func (p LinePadding) ScanLine(width int) int {
	n := width * 3
	switch {
	case p < 0:
		return (n + 3) &^ 3
	case p > 0:
		return n + int(p)
	}
	return n
}

// BuildOptions are the per-call options of BuildViewMap.
type BuildOptions struct {
	HQMode    bool      `json:"hq"`
	Alignment Alignment `json:"alignment"`
	ZeroPixel ZeroPixel `json:"zero_pixel"`
	EnlargeX  bool      `json:"enlarge_x"`
	EnlargeY  bool      `json:"enlarge_y"`
	// BGR writes blue, green, red per pixel instead of red, green, blue.
	BGR bool `json:"bgr"`
	// InvertY stores the bottom row first.
	InvertY     bool        `json:"invert_y"`
	LinePadding LinePadding `json:"padding"`
}

// BitmapOptions returns options producing a bottom-up BGR buffer with 4-byte
// aligned scanlines, the layout of a device independent bitmap.
func BitmapOptions() BuildOptions {
	return BuildOptions{
		EnlargeX:    true,
		EnlargeY:    true,
		BGR:         true,
		InvertY:     true,
		LinePadding: PaddingAuto,
	}
}
