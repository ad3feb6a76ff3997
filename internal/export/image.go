// Package export writes view maps as images and binary containers.
package export

import (
	"image"

	"golang.org/x/image/draw"

	"lenticular-viewmap/internal/viewmap"
)

// ToImage converts vm into an opaque top-down RGBA image whose R, G and B
// samples are the view indices of the respective channels.
func ToImage(vm *viewmap.ViewMap) *image.RGBA {
	w, h := int(vm.Width), int(vm.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		off := y * img.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			img.Pix[i] = vm.At(x, y, viewmap.Red)
			img.Pix[i+1] = vm.At(x, y, viewmap.Green)
			img.Pix[i+2] = vm.At(x, y, viewmap.Blue)
			img.Pix[i+3] = 255
		}
	}
	return img
}

// Visualize stretches view indices over 0..255 so the lens pattern is
// visible. Single-view maps come out black.
func Visualize(vm *viewmap.ViewMap) *image.RGBA {
	img := ToImage(vm)
	top := int(vm.ViewCount) - 1
	if top <= 0 {
		for i := range img.Pix {
			if i%4 != 3 {
				img.Pix[i] = 0
			}
		}
		return img
	}
	for i := range img.Pix {
		if i%4 == 3 {
			continue
		}
		img.Pix[i] = uint8(int(img.Pix[i]) * 255 / top)
	}
	return img
}

// Preview scales img so that neither side exceeds maxSize. Nearest-neighbour
// sampling keeps indices intact. Images that already fit are returned as is.
func Preview(img *image.RGBA, maxSize int) *image.RGBA {
	b := img.Bounds()
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return img
	}

	w, h := maxSize, maxSize
	if b.Dx() >= b.Dy() {
		h = max(1, b.Dy()*maxSize/b.Dx())
	} else {
		w = max(1, b.Dx()*maxSize/b.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
