package api

// SetLastError replaces the session's error text.
func (s *Session) SetLastError(text string) {
	s.setLastError(text)
}

func (s *Session) setLastError(text string) {
	s.lastErr = text
	s.hasErr = true
}

// ClearLastError forgets the stored error text.
func (s *Session) ClearLastError() {
	s.lastErr = ""
	s.hasErr = false
}

// GetLastError copies the last error text into buf as a NUL terminated
// string. At most min(*size, len(buf)) bytes are written. On return *size
// holds the length the full text needs including the terminator, so a value
// larger than the one passed in signals truncation. It reports whether an
// error text is stored and never allocates.
func (s *Session) GetLastError(buf []byte, size *int) bool {
	if !s.hasErr {
		if size != nil {
			*size = 0
		}
		return false
	}
	need := len(s.lastErr) + 1
	if size == nil {
		return true
	}
	capacity := min(*size, len(buf))
	if capacity > 0 {
		n := copy(buf[:capacity-1], s.lastErr)
		buf[n] = 0
	}
	*size = need
	return true
}

// LastError returns the stored error text, or "" when there is none.
func (s *Session) LastError() string {
	return s.lastErr
}
