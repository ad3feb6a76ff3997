package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"lenticular-viewmap/internal/viewmap"
)

// Container layout, little endian:
//
//	magic "VMAP" | version u16 | compression u8 | view count u8 |
//	width u32 | height u32 | scanline u32 | size u32 | flags u8 | 3 reserved |
//	payload length u32 | payload
const containerVersion uint16 = 1

var containerMagic = [4]byte{'V', 'M', 'A', 'P'}

const (
	compressionNone uint8 = iota
	compressionZstd
)

const (
	flagBGR uint8 = 1 << iota
	flagInvertY
)

type containerHeader struct {
	Magic        [4]byte
	Version      uint16
	Compression  uint8
	ViewCount    uint8
	Width        uint32
	Height       uint32
	ScanLineSize uint32
	Size         uint32
	Flags        uint8
	_            [3]byte
	PayloadLen   uint32
}

// ErrBadContainer is returned when reading data that is not a view map
// container.
var ErrBadContainer = errors.New("export: not a view map container")

// WriteContainer writes vm in the raw container format, zstd compressing the
// payload when compress is set.
func WriteContainer(w io.Writer, vm *viewmap.ViewMap, compress bool) error {
	payload := vm.Data
	hdr := containerHeader{
		Magic:        containerMagic,
		Version:      containerVersion,
		Compression:  compressionNone,
		ViewCount:    vm.ViewCount,
		Width:        vm.Width,
		Height:       vm.Height,
		ScanLineSize: vm.ScanLineSize,
		Size:         vm.Size,
	}
	if vm.BGR {
		hdr.Flags |= flagBGR
	}
	if vm.InvertY {
		hdr.Flags |= flagInvertY
	}
	if compress {
		payload = compressZstd(payload)
		hdr.Compression = compressionZstd
	}
	hdr.PayloadLen = uint32(len(payload))

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadContainer reads a view map written by WriteContainer.
func ReadContainer(r io.Reader) (*viewmap.ViewMap, error) {
	var hdr containerHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadContainer, err)
	}
	if hdr.Magic != containerMagic {
		return nil, ErrBadContainer
	}
	if hdr.Version != containerVersion {
		return nil, fmt.Errorf("export: unsupported container version: %d", hdr.Version)
	}
	if uint64(hdr.ScanLineSize)*uint64(hdr.Height) != uint64(hdr.Size) || uint64(hdr.ScanLineSize) < uint64(hdr.Width)*3 {
		return nil, fmt.Errorf("%w: inconsistent layout", ErrBadContainer)
	}

	var payload []byte
	var err error
	switch hdr.Compression {
	case compressionNone:
		if hdr.PayloadLen != hdr.Size {
			return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrBadContainer, hdr.PayloadLen, hdr.Size)
		}
		payload, err = readExactly(r, hdr.Size)
	case compressionZstd:
		payload, err = decompressZstd(io.LimitReader(r, int64(hdr.PayloadLen)), hdr.Size)
	default:
		return nil, fmt.Errorf("export: unknown compression %d", hdr.Compression)
	}
	if err != nil {
		return nil, err
	}

	return &viewmap.ViewMap{
		Layout: viewmap.Layout{
			ViewCount:    hdr.ViewCount,
			Width:        hdr.Width,
			Height:       hdr.Height,
			Size:         hdr.Size,
			ScanLineSize: hdr.ScanLineSize,
			BGR:          hdr.Flags&flagBGR != 0,
			InvertY:      hdr.Flags&flagInvertY != 0,
		},
		Data: payload,
	}, nil
}

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		return enc
	},
}

// compressZstd writes a single frame carrying its content size, so readers
// can bound the decoder by the size in the header.
func compressZstd(data []byte) []byte {
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, nil)
	zstdEncPool.Put(enc)
	return out
}

// readExactly reads size bytes from r. The buffer grows with the data
// actually read, so a lying header cannot force a large allocation.
func readExactly(r io.Reader, size uint32) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(size)); err != nil {
		return nil, fmt.Errorf("export: read payload: %w", err)
	}
	return buf.Bytes(), nil
}

// minDecoderMemory keeps the decoder usable for tiny maps.
const minDecoderMemory = 1 << 20

// decompressZstd decodes exactly size bytes from r. The decoder refuses
// frames that would need more memory than size.
func decompressZstd(r io.Reader, size uint32) ([]byte, error) {
	dec, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(max(uint64(size), minDecoderMemory)),
	)
	if err != nil {
		return nil, fmt.Errorf("export: zstd decode: %w", err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, dec, int64(size)); err != nil {
		return nil, fmt.Errorf("export: zstd decode: %w", err)
	}
	var extra [1]byte
	if n, _ := dec.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("%w: payload decodes to more than %d bytes", ErrBadContainer, size)
	}
	return buf.Bytes(), nil
}
