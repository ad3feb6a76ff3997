package viewmap

import (
	"errors"
	"fmt"
)

// Code classifies an error the way the C interface reports it.
// The numeric values match G3DMonitor_Error.
type Code int

const (
	Success Code = iota
	GeneralError
	InvalidParameter
	BufferTooSmall
	NotImplemented
)

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case GeneralError:
		return "general error"
	case InvalidParameter:
		return "invalid parameter"
	case BufferTooSmall:
		return "buffer too small"
	case NotImplemented:
		return "not implemented"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Category errors. Every error returned by this package wraps one of them.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrBufferTooSmall   = errors.New("buffer too small")
	ErrNotImplemented   = errors.New("not implemented")
)

var (
	ErrZeroDimension       = fmt.Errorf("%w: pixel count must be greater than zero", ErrInvalidParameter)
	ErrZeroLensWidth       = fmt.Errorf("%w: lens width must be greater than zero", ErrInvalidParameter)
	ErrNoViews             = fmt.Errorf("%w: view count is zero, multi-view output is not supported", ErrInvalidParameter)
	ErrZeroPixelOutOfRange = fmt.Errorf("%w: zero pixel outside the panel", ErrInvalidParameter)
	ErrInvalidChannel      = fmt.Errorf("%w: channel must be 0 (red), 1 (green) or 2 (blue)", ErrInvalidParameter)
	ErrViewMapTooLarge     = fmt.Errorf("%w: view map exceeds 4 GiB", ErrInvalidParameter)

	ErrUnsupportedAlignment = fmt.Errorf("%w: unknown view alignment", ErrNotImplemented)
	ErrRotatedDeprecated    = fmt.Errorf("%w: deprecated alignment does not support rotated monitors", ErrNotImplemented)
)

// CodeOf maps err onto the interface error codes. A nil error is Success,
// anything unclassified is GeneralError.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInvalidParameter):
		return InvalidParameter
	case errors.Is(err, ErrBufferTooSmall):
		return BufferTooSmall
	case errors.Is(err, ErrNotImplemented):
		return NotImplemented
	}
	return GeneralError
}
