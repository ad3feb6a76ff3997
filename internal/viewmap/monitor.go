// Package viewmap computes view maps for lenticular multi-view monitors:
// for every subpixel of the panel, the index of the view shown there.
package viewmap

import "fmt"

// MaxViewCount is the highest number of views a view map may use.
// Index values 250..255 are reserved.
const MaxViewCount = 250

// Channel is a logical color channel of a pixel.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
	NumChannels
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// MonitorParams describes a lenticular monitor as passed to G3DMonitor_Create.
type MonitorParams struct {
	PixelCountX       uint32 `json:"pixel_count_x"`
	PixelCountY       uint32 `json:"pixel_count_y"`
	ViewCount         uint16 `json:"view_count"`         // 0 disables multi-view output
	LensWidth         uint32 `json:"lens_width"`         // lens period in pixels
	LensAngleCounter  int32  `json:"lens_angle_counter"` // slant numerator, sign is the drift direction
	ViewOrderInverted bool   `json:"view_order_inverted"`
	Rotated           bool   `json:"rotated"`
	FullPixel         bool   `json:"full_pixel"`
	BGR               bool   `json:"bgr"` // panel subpixels are ordered blue, green, red
}

// Monitor is an immutable, validated monitor configuration.
type Monitor struct {
	p MonitorParams
}

// NewMonitor validates p and returns the monitor. A zero view count is
// accepted here; building a view map for such a monitor fails.
func NewMonitor(p MonitorParams) (*Monitor, error) {
	if p.PixelCountX == 0 || p.PixelCountY == 0 {
		return nil, ErrZeroDimension
	}
	if p.LensWidth == 0 {
		return nil, ErrZeroLensWidth
	}
	return &Monitor{p: p}, nil
}

// Params returns a copy of the parameters the monitor was created with.
func (m *Monitor) Params() MonitorParams { return m.p }

func (m *Monitor) Width() int  { return int(m.p.PixelCountX) }
func (m *Monitor) Height() int { return int(m.p.PixelCountY) }

// Slot returns the physical left-to-right position of channel c within a
// pixel. BGR panels mirror red and blue.
func (m *Monitor) Slot(c Channel) int {
	if m.p.BGR {
		return 2 - int(c)
	}
	return int(c)
}
