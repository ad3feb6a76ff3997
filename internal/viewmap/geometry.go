package viewmap

import "lenticular-viewmap/internal/mathutil"

// subpixels per pixel along the panel row
const subpixels = 3

// Phase is an exact position within one lens period, Num/Den in [0, 1).
type Phase struct {
	Num int64
	Den int64
}

// Point is a subpixel position in lens coordinates: X runs across the lenses
// in subpixel units, Y along them in pixels.
type Point struct {
	X, Y int64
}

// PixelChannelPosition holds the physical position of each channel of one
// pixel, indexed by Channel.
type PixelChannelPosition [NumChannels]Point

// Resolver maps physical subpixels onto lens phases. All arithmetic is done in
// subpixel units, so phases are exact rationals with denominator Period.
type Resolver struct {
	period    int64 // lens period in subpixels
	angle     int64
	rotated   bool
	fullPixel bool
}

// NewResolver returns the resolver for m.
func NewResolver(m *Monitor) (*Resolver, error) {
	if m.p.LensWidth == 0 {
		return nil, ErrZeroLensWidth
	}
	return &Resolver{
		period:    subpixels * int64(m.p.LensWidth),
		angle:     int64(m.p.LensAngleCounter),
		rotated:   m.p.Rotated,
		fullPixel: m.p.FullPixel,
	}, nil
}

// Period returns the lens period in subpixels.
func (r *Resolver) Period() int64 { return r.period }

func (r *Resolver) offset(slot int) int64 {
	if r.fullPixel {
		return 0
	}
	return int64(slot)
}

func (r *Resolver) point(x, y, slot int) Point {
	if r.rotated {
		return Point{X: subpixels*int64(y) + r.offset(slot), Y: int64(x)}
	}
	return Point{X: subpixels*int64(x) + r.offset(slot), Y: int64(y)}
}

// Position returns where each channel of pixel (x, y) on monitor m sits
// relative to the lenses.
func (r *Resolver) Position(m *Monitor, x, y int) PixelChannelPosition {
	var pos PixelChannelPosition
	for c := Red; c < NumChannels; c++ {
		pos[c] = r.point(x, y, m.Slot(c))
	}
	return pos
}

// PhaseAt returns the lens phase at pt. Each step along the lenses shifts the
// phase by the angle counter.
func (r *Resolver) PhaseAt(pt Point) Phase {
	return Phase{Num: mathutil.Mod(pt.X+r.angle*pt.Y, r.period), Den: r.period}
}

// Numerator returns the phase numerator in [0, Period) of the subpixel in
// physical slot of pixel (x, y).
func (r *Resolver) Numerator(x, y, slot int) int64 {
	return r.PhaseAt(r.point(x, y, slot)).Num
}

// IntrinsicResolution returns the number of distinct phases the panel can
// address within one lens period.
func (r *Resolver) IntrinsicResolution() int64 {
	if !r.fullPixel {
		return r.period
	}
	return r.period / mathutil.GCD(subpixels, r.angle)
}

// PatternPeriod returns after how many pixels the phase pattern repeats along
// x and y.
func (r *Resolver) PatternPeriod() (px, py int64) {
	across := r.period / subpixels
	drift := r.period / mathutil.GCD(r.angle, r.period)
	if r.rotated {
		return drift, across
	}
	return across, drift
}
