// Package api is the handle based surface of the view map generator, shaped
// like the G3DMonitor C interface: calls return a Code, failures leave their
// text in the caller's Session.
package api

import (
	"fmt"
	"sync"

	"lenticular-viewmap/internal/viewmap"
)

// Code is the result of an api call.
type Code = viewmap.Code

const (
	Success          = viewmap.Success
	GeneralError     = viewmap.GeneralError
	InvalidParameter = viewmap.InvalidParameter
	BufferTooSmall   = viewmap.BufferTooSmall
	NotImplemented   = viewmap.NotImplemented
)

// Handle identifies a monitor created through a Library. Zero is never a
// valid handle.
type Handle uint32

// Library owns the monitors created through it.
type Library struct {
	mu       sync.RWMutex
	next     Handle
	monitors map[Handle]*viewmap.Monitor
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{monitors: make(map[Handle]*viewmap.Monitor)}
}

func (l *Library) add(m *viewmap.Monitor) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		l.next++
		if l.next == 0 {
			continue
		}
		if _, used := l.monitors[l.next]; !used {
			break
		}
	}
	l.monitors[l.next] = m
	return l.next
}

func (l *Library) lookup(h Handle) (*viewmap.Monitor, error) {
	l.mu.RLock()
	m, ok := l.monitors[h]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown monitor handle %d", viewmap.ErrInvalidParameter, h)
	}
	return m, nil
}

func (l *Library) remove(h Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.monitors[h]; !ok {
		return fmt.Errorf("%w: unknown monitor handle %d", viewmap.ErrInvalidParameter, h)
	}
	delete(l.monitors, h)
	return nil
}

// Len returns the number of live monitors.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.monitors)
}

// NewSession returns a session bound to l. A session keeps the last error
// text of its own calls and must not be shared between goroutines.
func (l *Library) NewSession() *Session {
	return &Session{lib: l}
}

// Session is one caller's view of a Library.
type Session struct {
	lib     *Library
	lastErr string
	hasErr  bool
}

// call runs fn and turns its error, or a panic, into a code plus text.
func (s *Session) call(op string, fn func() error) (code Code) {
	defer func() {
		if r := recover(); r != nil {
			s.setLastError(fmt.Sprintf("%s: unexpected failure: %v", op, r))
			code = GeneralError
		}
	}()
	if err := fn(); err != nil {
		s.setLastError(fmt.Sprintf("%s: %v", op, err))
		return viewmap.CodeOf(err)
	}
	return Success
}

// Create validates p and registers the monitor.
func (s *Session) Create(p viewmap.MonitorParams, h *Handle) Code {
	return s.call("create", func() error {
		if h == nil {
			return fmt.Errorf("%w: nil handle output", viewmap.ErrInvalidParameter)
		}
		m, err := viewmap.NewMonitor(p)
		if err != nil {
			return err
		}
		*h = s.lib.add(m)
		return nil
	})
}

// Destroy removes the monitor behind h.
func (s *Session) Destroy(h Handle) Code {
	return s.call("destroy", func() error {
		return s.lib.remove(h)
	})
}

// BuildViewMap builds the view map of monitor h and stores it in *out. The
// caller owns the map and releases it with FreeViewMap. On failure *out is
// left nil.
func (s *Session) BuildViewMap(h Handle, opts viewmap.BuildOptions, out **viewmap.ViewMap) Code {
	return s.call("build view map", func() error {
		if out == nil {
			return fmt.Errorf("%w: nil view map output", viewmap.ErrInvalidParameter)
		}
		*out = nil
		m, err := s.lib.lookup(h)
		if err != nil {
			return err
		}
		vm, err := viewmap.Build(m, opts)
		if err != nil {
			return err
		}
		*out = vm
		return nil
	})
}

// BuildViewMapInto builds the view map of monitor h into dst and stores the
// resulting layout in *layout.
func (s *Session) BuildViewMapInto(h Handle, opts viewmap.BuildOptions, dst []byte, layout *viewmap.Layout) Code {
	return s.call("build view map", func() error {
		if layout == nil {
			return fmt.Errorf("%w: nil layout output", viewmap.ErrInvalidParameter)
		}
		m, err := s.lib.lookup(h)
		if err != nil {
			return err
		}
		l, err := viewmap.BuildInto(m, opts, dst)
		*layout = l
		return err
	})
}

// FreeViewMap releases *vm and sets the reference to nil. Freeing a nil
// reference is a no-op.
func (s *Session) FreeViewMap(vm **viewmap.ViewMap) Code {
	return s.call("free view map", func() error {
		if vm == nil || *vm == nil {
			return nil
		}
		(*vm).Release()
		*vm = nil
		return nil
	})
}
