package viewmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFullHD(t *testing.T) {
	m := mustMonitor(t, MonitorParams{
		PixelCountX:      1920,
		PixelCountY:      1080,
		ViewCount:        8,
		LensWidth:        10,
		LensAngleCounter: 3,
	})
	vm, err := Build(m, BuildOptions{EnlargeX: true, EnlargeY: true, LinePadding: PaddingNone})
	require.NoError(t, err)

	assert.LessOrEqual(t, vm.ViewCount, uint8(8))
	assert.Equal(t, uint32(1920), vm.Width)
	assert.Equal(t, uint32(1080), vm.Height)
	assert.Equal(t, uint32(5760), vm.ScanLineSize)
	assert.Equal(t, uint32(5760*1080), vm.Size)
	require.Len(t, vm.Data, 5760*1080)
	for i, b := range vm.Data {
		if b > 7 {
			t.Fatalf("byte %d = %d, want <= 7", i, b)
		}
	}
}

func TestBuildIndicesBelowViewCount(t *testing.T) {
	params := []MonitorParams{
		{PixelCountX: 64, PixelCountY: 48, ViewCount: 8, LensWidth: 10, LensAngleCounter: 3},
		{PixelCountX: 64, PixelCountY: 48, ViewCount: 5, LensWidth: 7, LensAngleCounter: -4, BGR: true},
		{PixelCountX: 33, PixelCountY: 17, ViewCount: 28, LensWidth: 6, LensAngleCounter: 1, FullPixel: true},
		{PixelCountX: 20, PixelCountY: 90, ViewCount: 3, LensWidth: 9, LensAngleCounter: 2, Rotated: true, ViewOrderInverted: true},
		{PixelCountX: 16, PixelCountY: 16, ViewCount: 1, LensWidth: 1},
	}
	aligns := []Alignment{AlignDefault, AlignDefinedZero, AlignCompatibleDeprecated, AlignCompatibleMPV}
	for _, p := range params {
		m := mustMonitor(t, p)
		for _, a := range aligns {
			if a == AlignCompatibleDeprecated && p.Rotated {
				continue
			}
			for _, hq := range []bool{false, true} {
				opts := BuildOptions{HQMode: hq, Alignment: a, ZeroPixel: ZeroPixel{X: 3, Y: 2, Z: 1}, EnlargeX: true, EnlargeY: true}
				vm, err := Build(m, opts)
				require.NoError(t, err, "%+v %s", p, a)
				for y := 0; y < int(vm.Height); y++ {
					row := vm.Data[y*int(vm.ScanLineSize) : y*int(vm.ScanLineSize)+int(vm.Width)*3]
					for _, b := range row {
						require.Less(t, b, vm.ViewCount, "%+v %s hq=%v", p, a, hq)
					}
				}
			}
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 123, PixelCountY: 77, ViewCount: 9, LensWidth: 8, LensAngleCounter: -5})
	opts := BuildOptions{HQMode: true, Alignment: AlignDefinedZero, ZeroPixel: ZeroPixel{X: 50, Y: 40, Z: 2},
		EnlargeX: true, EnlargeY: true, BGR: true, InvertY: true, LinePadding: PaddingAuto}
	a, err := Build(m, opts)
	require.NoError(t, err)
	b, err := Build(m, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Layout, b.Layout)
	assert.True(t, bytes.Equal(a.Data, b.Data))
}

func TestBuildTiling(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 97, PixelCountY: 61, ViewCount: 8, LensWidth: 10, LensAngleCounter: 3})
	small, err := Build(m, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint32(10), small.Width)
	assert.Equal(t, uint32(10), small.Height)

	full, err := Build(m, BuildOptions{EnlargeX: true, EnlargeY: true})
	require.NoError(t, err)
	require.Equal(t, uint32(97), full.Width)
	require.Equal(t, uint32(61), full.Height)

	for y := 0; y < 61; y++ {
		for x := 0; x < 97; x++ {
			for c := Red; c < NumChannels; c++ {
				require.Equal(t, small.At(x%10, y%10, c), full.At(x, y, c), "pixel (%d, %d) %s", x, y, c)
			}
		}
	}
	// the pattern at a tile boundary continues the period of the geometry
	q := mustQuantizerFor(t, m, BuildOptions{})
	for y := 0; y < 61; y++ {
		assert.Equal(t, q.Index(10, y, 0), full.At(10, y, Red))
		assert.Equal(t, q.Index(89, y, 2), full.At(89, y, Blue))
	}
}

func mustQuantizerFor(t *testing.T, m *Monitor, opts BuildOptions) *Quantizer {
	t.Helper()
	q, err := NewQuantizer(m, mustResolver(t, m), opts)
	require.NoError(t, err)
	return q
}

func TestBuildEnlargeSingleAxis(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 50, PixelCountY: 40, ViewCount: 4, LensWidth: 4, LensAngleCounter: 1})
	vm, err := Build(m, BuildOptions{EnlargeX: true})
	require.NoError(t, err)
	assert.Equal(t, uint32(50), vm.Width)
	assert.Equal(t, uint32(12), vm.Height)

	vm, err = Build(m, BuildOptions{EnlargeY: true})
	require.NoError(t, err)
	assert.Equal(t, uint32(4), vm.Width)
	assert.Equal(t, uint32(40), vm.Height)
}

func TestBuildPeriodLargerThanPanel(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 6, PixelCountY: 5, ViewCount: 4, LensWidth: 20, LensAngleCounter: 7})
	vm, err := Build(m, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint32(6), vm.Width)
	assert.Equal(t, uint32(5), vm.Height)
}

func TestScanLinePadding(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 5, PixelCountY: 3, ViewCount: 4, LensWidth: 2, LensAngleCounter: 1})
	tests := []struct {
		pad  LinePadding
		want uint32
	}{
		{PaddingNone, 15},
		{PaddingAuto, 16},
		{LinePadding(-100), 16},
		{3, 18},
		{127, 142},
	}
	for _, tt := range tests {
		vm, err := Build(m, BuildOptions{EnlargeX: true, EnlargeY: true, LinePadding: tt.pad})
		require.NoError(t, err)
		assert.Equal(t, tt.want, vm.ScanLineSize, "padding %d", tt.pad)
		assert.GreaterOrEqual(t, vm.ScanLineSize, vm.Width*3)
		assert.Equal(t, tt.want*vm.Height, vm.Size)
		for y := 0; y < int(vm.Height); y++ {
			pad := vm.Data[y*int(vm.ScanLineSize)+15 : (y+1)*int(vm.ScanLineSize)]
			assert.Equal(t, make([]byte, len(pad)), pad, "pad bytes are zero")
		}
	}
}

func TestScanLineAutoMultipleOfFour(t *testing.T) {
	for w := 1; w < 40; w++ {
		s := PaddingAuto.ScanLine(w)
		assert.Zero(t, s%4)
		assert.GreaterOrEqual(t, s, w*3)
		assert.Less(t, s, w*3+4)
	}
}

func TestBuildChannelOrderAndFlip(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 7, PixelCountY: 6, ViewCount: 6, LensWidth: 3, LensAngleCounter: 2})
	ref, err := Build(m, BuildOptions{EnlargeX: true, EnlargeY: true})
	require.NoError(t, err)
	dib, err := Build(m, BitmapOptions())
	require.NoError(t, err)

	assert.Equal(t, uint32(24), dib.ScanLineSize)
	for y := 0; y < 6; y++ {
		for x := 0; x < 7; x++ {
			r := ref.Data[y*21+x*3:]
			d := dib.Data[(5-y)*24+x*3:]
			assert.Equal(t, r[0], d[2])
			assert.Equal(t, r[1], d[1])
			assert.Equal(t, r[2], d[0])
			for c := Red; c < NumChannels; c++ {
				assert.Equal(t, ref.At(x, y, c), dib.At(x, y, c))
			}
		}
	}
}

func TestBuildBGRMonitorSwapsChannelSources(t *testing.T) {
	p := MonitorParams{PixelCountX: 7, PixelCountY: 6, ViewCount: 6, LensWidth: 3, LensAngleCounter: 2}
	rgb, err := Build(mustMonitor(t, p), BuildOptions{EnlargeX: true, EnlargeY: true})
	require.NoError(t, err)
	p.BGR = true
	bgr, err := Build(mustMonitor(t, p), BuildOptions{EnlargeX: true, EnlargeY: true})
	require.NoError(t, err)

	for y := 0; y < 6; y++ {
		for x := 0; x < 7; x++ {
			assert.Equal(t, rgb.At(x, y, Red), bgr.At(x, y, Blue))
			assert.Equal(t, rgb.At(x, y, Green), bgr.At(x, y, Green))
			assert.Equal(t, rgb.At(x, y, Blue), bgr.At(x, y, Red))
		}
	}
}

func TestBuildDefinedZeroInBuffer(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 50, PixelCountY: 30, ViewCount: 12, LensWidth: 6, LensAngleCounter: -2, BGR: true})
	for _, zp := range []ZeroPixel{{0, 0, 0}, {49, 29, 2}, {17, 11, 1}} {
		opts := BitmapOptions()
		opts.Alignment = AlignDefinedZero
		opts.ZeroPixel = zp
		vm, err := Build(m, opts)
		require.NoError(t, err)
		assert.Equal(t, uint8(0), vm.At(int(zp.X), int(zp.Y), Channel(zp.Z)), "%+v", zp)
	}
}

func TestBuildErrors(t *testing.T) {
	noViews := mustMonitor(t, MonitorParams{PixelCountX: 8, PixelCountY: 8, LensWidth: 3})
	for _, hq := range []bool{false, true} {
		vm, err := Build(noViews, BuildOptions{HQMode: hq})
		assert.ErrorIs(t, err, ErrNoViews)
		assert.Nil(t, vm)
	}

	_, err := Build(&Monitor{p: MonitorParams{PixelCountX: 8, PixelCountY: 8, ViewCount: 4}}, BuildOptions{})
	assert.ErrorIs(t, err, ErrZeroLensWidth)

	_, err = Build(nil, BuildOptions{})
	assert.Equal(t, InvalidParameter, CodeOf(err))

	big := mustMonitor(t, MonitorParams{PixelCountX: 100000, PixelCountY: 100000, ViewCount: 4, LensWidth: 3})
	_, err = Build(big, BuildOptions{EnlargeX: true, EnlargeY: true})
	assert.ErrorIs(t, err, ErrViewMapTooLarge)
}

func TestBuildInto(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 9, PixelCountY: 4, ViewCount: 4, LensWidth: 3, LensAngleCounter: 1})
	opts := BuildOptions{EnlargeX: true, EnlargeY: true, LinePadding: PaddingAuto}
	want, err := Build(m, opts)
	require.NoError(t, err)

	small := bytes.Repeat([]byte{0xAA}, int(want.Size)-1)
	_, err = BuildInto(m, opts, small)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Equal(t, BufferTooSmall, CodeOf(err))
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, len(small)), small, "dst untouched on failure")

	dst := bytes.Repeat([]byte{0xAA}, int(want.Size)+5)
	layout, err := BuildInto(m, opts, dst)
	require.NoError(t, err)
	assert.Equal(t, want.Layout, layout)
	assert.Equal(t, want.Data, dst[:want.Size])
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 5), dst[want.Size:])
}

func TestRelease(t *testing.T) {
	m := mustMonitor(t, MonitorParams{PixelCountX: 4, PixelCountY: 4, ViewCount: 4, LensWidth: 2})
	vm, err := Build(m, BuildOptions{})
	require.NoError(t, err)
	assert.False(t, vm.Released())
	vm.Release()
	assert.True(t, vm.Released())
	vm.Release()
	assert.True(t, vm.Released())

	var none *ViewMap
	none.Release()
	assert.True(t, none.Released())
}

func TestDescribe(t *testing.T) {
	m := mustMonitor(t, MonitorParams{
		PixelCountX:      1920,
		PixelCountY:      1080,
		ViewCount:        8,
		LensWidth:        10,
		LensAngleCounter: 3,
	})
	info, err := Describe(m, BuildOptions{HQMode: true})
	require.NoError(t, err)
	assert.Equal(t, int64(30), info.Period)
	assert.Equal(t, int64(30), info.IntrinsicResolution)
	assert.Equal(t, uint8(30), info.ViewCount)
	assert.Equal(t, int64(10), info.PatternX)
	assert.Equal(t, int64(10), info.PatternY)
	assert.Equal(t, uint32(10), info.Width)
	assert.Equal(t, uint32(10), info.Height)

	_, err = Describe(m, BuildOptions{Alignment: Alignment(9)})
	assert.ErrorIs(t, err, ErrNotImplemented)
}
