package viewmap

import (
	"fmt"
	"math"
)

// Layout describes the dimensions and byte layout of a view map buffer.
type Layout struct {
	ViewCount    uint8  `json:"view_count"`
	Width        uint32 `json:"width"`
	Height       uint32 `json:"height"`
	Size         uint32 `json:"size"`
	ScanLineSize uint32 `json:"scanline_size"`
	BGR          bool   `json:"bgr"`
	InvertY      bool   `json:"invert_y"`
}

// Offset returns the byte offset of pixel (x, y) counted from the top row.
func (l Layout) Offset(x, y int) int {
	row := y
	if l.InvertY {
		row = int(l.Height) - 1 - y
	}
	return row*int(l.ScanLineSize) + x*3
}

// ViewMap is a built view map. Data holds Height scanlines of ScanLineSize
// bytes, three bytes per pixel, each byte a view index.
type ViewMap struct {
	Layout
	Data []byte
}

// Release drops the buffer. Calling it again is a no-op.
func (vm *ViewMap) Release() {
	if vm == nil {
		return
	}
	vm.Data = nil
}

// Released reports whether the buffer has been released.
func (vm *ViewMap) Released() bool { return vm == nil || vm.Data == nil }

// At returns the view index of channel c at pixel (x, y).
func (vm *ViewMap) At(x, y int, c Channel) uint8 {
	i := vm.Offset(x, y)
	if vm.BGR {
		return vm.Data[i+2-int(c)]
	}
	return vm.Data[i+int(c)]
}

// Plan is a validated build: monitor, options, quantizer and resulting layout.
type Plan struct {
	Layout
	monitor   *Monitor
	quantizer *Quantizer
	tileW     int
	tileH     int
}

// NewPlan validates m and opts and resolves the layout of the view map.
func NewPlan(m *Monitor, opts BuildOptions) (*Plan, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil monitor", ErrInvalidParameter)
	}
	if m.p.PixelCountX == 0 || m.p.PixelCountY == 0 {
		return nil, ErrZeroDimension
	}
	res, err := NewResolver(m)
	if err != nil {
		return nil, err
	}
	q, err := NewQuantizer(m, res, opts)
	if err != nil {
		return nil, err
	}

	px, py := res.PatternPeriod()
	tileW := int(min(px, int64(m.p.PixelCountX)))
	tileH := int(min(py, int64(m.p.PixelCountY)))
	width, height := tileW, tileH
	if opts.EnlargeX {
		width = m.Width()
	}
	if opts.EnlargeY {
		height = m.Height()
	}

	scan := opts.LinePadding.ScanLine(width)
	size := uint64(scan) * uint64(height)
	if size > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrViewMapTooLarge, size)
	}

	return &Plan{
		Layout: Layout{
			ViewCount:    uint8(q.ViewCount()),
			Width:        uint32(width),
			Height:       uint32(height),
			Size:         uint32(size),
			ScanLineSize: uint32(scan),
			BGR:          opts.BGR,
			InvertY:      opts.InvertY,
		},
		monitor:   m,
		quantizer: q,
		tileW:     tileW,
		tileH:     tileH,
	}, nil
}

// Tile returns the size of the periodic pattern repeated over the map.
func (p *Plan) Tile() (w, h int) { return p.tileW, p.tileH }

// Build computes the view map of m for opts into a newly allocated buffer.
func Build(m *Monitor, opts BuildOptions) (*ViewMap, error) {
	p, err := NewPlan(m, opts)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, p.Size)
	p.fill(buf)
	slogger().Debug("viewmap: built",
		"width", p.Width, "height", p.Height, "views", p.ViewCount,
		"alignment", opts.Alignment.String(), "tile_w", p.tileW, "tile_h", p.tileH)
	return &ViewMap{Layout: p.Layout, Data: buf}, nil
}

// BuildInto computes the view map of m into dst, which must hold at least
// Layout.Size bytes. dst is not modified when an error is returned.
func BuildInto(m *Monitor, opts BuildOptions, dst []byte) (Layout, error) {
	p, err := NewPlan(m, opts)
	if err != nil {
		return Layout{}, err
	}
	if uint64(len(dst)) < uint64(p.Size) {
		return p.Layout, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, p.Size, len(dst))
	}
	p.fill(dst[:p.Size])
	return p.Layout, nil
}

// fill writes the view map into buf, len(buf) == Size.
func (p *Plan) fill(buf []byte) {
	m, q := p.monitor, p.quantizer
	width, height := int(p.Width), int(p.Height)
	scan := int(p.ScanLineSize)

	// byte position within a pixel for each channel
	var out [NumChannels]int
	for c := Red; c < NumChannels; c++ {
		out[c] = int(c)
		if p.BGR {
			out[c] = 2 - int(c)
		}
	}

	rowBytes := width * 3
	for ty := 0; ty < p.tileH; ty++ {
		row := buf[p.Offset(0, ty) : p.Offset(0, ty)+scan]
		for tx := 0; tx < p.tileW; tx++ {
			px := row[tx*3 : tx*3+3]
			ch := q.res.Position(m, tx, ty)
			for c := Red; c < NumChannels; c++ {
				px[out[c]] = q.Quantize(q.res.PhaseAt(ch[c]).Num)
			}
		}
		tileBytes := p.tileW * 3
		for x := tileBytes; x < rowBytes; x += tileBytes {
			copy(row[x:rowBytes], row[:min(tileBytes, rowBytes-x)])
		}
		clear(row[rowBytes:])
	}
	for y := p.tileH; y < height; y++ {
		src := p.Offset(0, y%p.tileH)
		dst := p.Offset(0, y)
		copy(buf[dst:dst+scan], buf[src:src+scan])
	}
}
