package viewmap

import (
	"fmt"

	"lenticular-viewmap/internal/mathutil"
)

// ResolveViewCount returns the number of views a map built with hq uses.
func ResolveViewCount(m *Monitor, r *Resolver, hq bool) (int, error) {
	if m.p.ViewCount == 0 {
		return 0, ErrNoViews
	}
	n := int64(m.p.ViewCount)
	if hq {
		n = r.IntrinsicResolution()
	}
	if n > MaxViewCount {
		n = MaxViewCount
	}
	return int(n), nil
}

// Quantizer turns lens phases into view indices for one monitor and one set of
// build options. The phase origin of the alignment policy is fixed when the
// quantizer is created.
type Quantizer struct {
	res        *Resolver
	views      int64
	origin     int64
	reverse    bool // measure the phase from the origin backwards
	descending bool // highest view at the origin
}

// NewQuantizer prepares quantization for m under opts.
func NewQuantizer(m *Monitor, r *Resolver, opts BuildOptions) (*Quantizer, error) {
	vc, err := ResolveViewCount(m, r, opts.HQMode)
	if err != nil {
		return nil, err
	}
	q := &Quantizer{res: r, views: int64(vc)}
	inverted := m.p.ViewOrderInverted

	switch opts.Alignment {
	case AlignDefault:
		q.descending = inverted
	case AlignDefinedZero:
		zp := opts.ZeroPixel
		if zp.Z >= uint32(NumChannels) {
			return nil, fmt.Errorf("%w (got %d)", ErrInvalidChannel, zp.Z)
		}
		if zp.X >= m.p.PixelCountX || zp.Y >= m.p.PixelCountY {
			return nil, fmt.Errorf("%w: (%d, %d) on %dx%d", ErrZeroPixelOutOfRange,
				zp.X, zp.Y, m.p.PixelCountX, m.p.PixelCountY)
		}
		q.origin = r.Numerator(int(zp.X), int(zp.Y), m.Slot(Channel(zp.Z)))
		q.reverse = inverted
	case AlignCompatibleDeprecated:
		if m.p.Rotated {
			return nil, ErrRotatedDeprecated
		}
		row := 0
		if m.p.LensAngleCounter >= 0 {
			row = m.Height() - 1
		}
		q.origin = r.Numerator(0, row, 0)
		q.descending = !inverted
	case AlignCompatibleMPV:
		row := 1
		if m.Height() < 2 {
			row = 0
		}
		q.origin = r.Numerator(0, row, m.Slot(Red))
		q.reverse = inverted
	default:
		return nil, fmt.Errorf("%w (%d)", ErrUnsupportedAlignment, int(opts.Alignment))
	}
	return q, nil
}

// ViewCount returns the resolved number of views.
func (q *Quantizer) ViewCount() int { return int(q.views) }

// Quantize maps a phase numerator in [0, Period) to a view index.
func (q *Quantizer) Quantize(num int64) uint8 {
	p := q.res.period
	k := num - q.origin
	if q.reverse {
		k = -k
	}
	k = mathutil.Mod(k, p)
	idx := k * q.views / p
	if q.descending {
		idx = q.views - 1 - idx
	}
	return uint8(idx)
}

// Index returns the view index of the subpixel in physical slot of pixel (x, y).
func (q *Quantizer) Index(x, y, slot int) uint8 {
	return q.Quantize(q.res.Numerator(x, y, slot))
}
