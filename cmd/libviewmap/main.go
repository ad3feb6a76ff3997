// Command libviewmap builds the view map generator as a C shared library:
//
//	go build -buildmode=c-shared -o libviewmap.so ./cmd/libviewmap
//
// The exported functions follow G3DMonitorLib.h. Monitor handles are C
// allocated cells holding a registry id, view maps are C allocated copies
// released with G3DMonitor_FreeViewMap.
package main

/*
#include <stdlib.h>
#include <string.h>
#include "g3dmonitor.h"
*/
import "C"

import (
	"unsafe"

	"lenticular-viewmap/internal/api"
	"lenticular-viewmap/internal/viewmap"
)

var lib = api.NewLibrary()

func main() {}

// finish moves the session's error text into the calling thread's C buffer.
func finish(s *api.Session, code api.Code) C.G3DMonitor_Error {
	if code != api.Success {
		setError(s.LastError())
	}
	return C.G3DMonitor_Error(code)
}

func setError(text string) {
	cs := C.CString(text)
	defer C.free(unsafe.Pointer(cs))
	C.g3d_set_error(cs, C.size_t(len(text)))
}

func fail(code api.Code, text string) C.G3DMonitor_Error {
	setError(text)
	return C.G3DMonitor_Error(code)
}

//export Error_SetLastError
func Error_SetLastError(text *C.char) {
	if text == nil {
		C.g3d_clear_error()
		return
	}
	C.g3d_set_error(text, C.strlen(text))
}

//export Error_GetLastError
func Error_GetLastError(text *C.char, size *C.size_t) C.bool {
	return C.g3d_get_error(text, size)
}

//export G3DMonitor_Create
func G3DMonitor_Create(
	pixelCountX, pixelCountY C.uint32_t,
	viewCount C.uint16_t,
	lensWidth C.uint32_t,
	lensAngleCounter C.int32_t,
	viewOrderInverted, rotated, fullPixel, bgrMode C.bool,
	monitor *unsafe.Pointer,
) C.G3DMonitor_Error {
	if monitor == nil {
		return fail(api.InvalidParameter, "create: nil monitor output")
	}
	*monitor = nil

	s := lib.NewSession()
	var h api.Handle
	code := s.Create(viewmap.MonitorParams{
		PixelCountX:       uint32(pixelCountX),
		PixelCountY:       uint32(pixelCountY),
		ViewCount:         uint16(viewCount),
		LensWidth:         uint32(lensWidth),
		LensAngleCounter:  int32(lensAngleCounter),
		ViewOrderInverted: bool(viewOrderInverted),
		Rotated:           bool(rotated),
		FullPixel:         bool(fullPixel),
		BGR:               bool(bgrMode),
	}, &h)
	if code != api.Success {
		return finish(s, code)
	}

	cell := (*C.uint32_t)(C.malloc(C.size_t(unsafe.Sizeof(C.uint32_t(0)))))
	if cell == nil {
		s.Destroy(h)
		return fail(api.GeneralError, "create: out of memory")
	}
	*cell = C.uint32_t(h)
	*monitor = unsafe.Pointer(cell)
	return C.G3DMonitor_Error(api.Success)
}

func handleOf(monitor unsafe.Pointer) api.Handle {
	if monitor == nil {
		return 0
	}
	return api.Handle(*(*C.uint32_t)(monitor))
}

//export G3DMonitor_Destroy
func G3DMonitor_Destroy(monitor unsafe.Pointer) C.G3DMonitor_Error {
	s := lib.NewSession()
	code := s.Destroy(handleOf(monitor))
	if code == api.Success {
		C.free(monitor)
	}
	return finish(s, code)
}

//export G3DMonitor_BuildViewMap
func G3DMonitor_BuildViewMap(
	monitor unsafe.Pointer,
	hqMode C.bool,
	alignment C.G3DViewMapAlignment,
	zeroPixel C.G3DViewMapZeroPixel,
	enlargeX, enlargeY C.bool,
	bgr, invertY C.bool,
	linePadding C.int8_t,
	resultViewCount *C.uint8_t,
	resultWidth, resultHeight *C.uint32_t,
	resultSize, resultScanLineSize *C.uint32_t,
	resultViewMap **C.uint8_t,
) C.G3DMonitor_Error {
	if resultViewCount == nil || resultWidth == nil || resultHeight == nil ||
		resultSize == nil || resultScanLineSize == nil || resultViewMap == nil {
		return fail(api.InvalidParameter, "build view map: nil result pointer")
	}
	*resultViewMap = nil

	s := lib.NewSession()
	var vm *viewmap.ViewMap
	code := s.BuildViewMap(handleOf(monitor), viewmap.BuildOptions{
		HQMode:    bool(hqMode),
		Alignment: viewmap.Alignment(alignment),
		ZeroPixel: viewmap.ZeroPixel{
			X: uint32(zeroPixel.x),
			Y: uint32(zeroPixel.y),
			Z: uint32(zeroPixel.z),
		},
		EnlargeX:    bool(enlargeX),
		EnlargeY:    bool(enlargeY),
		BGR:         bool(bgr),
		InvertY:     bool(invertY),
		LinePadding: viewmap.LinePadding(linePadding),
	}, &vm)
	if code != api.Success {
		return finish(s, code)
	}
	defer s.FreeViewMap(&vm)

	buf := C.malloc(C.size_t(vm.Size))
	if buf == nil {
		return fail(api.GeneralError, "build view map: out of memory")
	}
	copy(unsafe.Slice((*byte)(buf), vm.Size), vm.Data)

	*resultViewCount = C.uint8_t(vm.ViewCount)
	*resultWidth = C.uint32_t(vm.Width)
	*resultHeight = C.uint32_t(vm.Height)
	*resultSize = C.uint32_t(vm.Size)
	*resultScanLineSize = C.uint32_t(vm.ScanLineSize)
	*resultViewMap = (*C.uint8_t)(buf)
	return C.G3DMonitor_Error(api.Success)
}

//export G3DMonitor_FreeViewMap
func G3DMonitor_FreeViewMap(viewMap **C.uint8_t) C.G3DMonitor_Error {
	if viewMap == nil {
		return fail(api.InvalidParameter, "free view map: nil pointer")
	}
	if *viewMap != nil {
		C.free(unsafe.Pointer(*viewMap))
		*viewMap = nil
	}
	return C.G3DMonitor_Error(api.Success)
}
