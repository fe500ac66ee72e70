// Package strpool implements the XFile string pool: an append-only,
// content-interned table of NUL-terminated byte strings.
package strpool

import (
	"bytes"
	"fmt"

	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// MaxStringLen bounds a single inline string read, guarding against a
// corrupt length runaway consuming the rest of the stream looking for a
// NUL that will never appear.
const MaxStringLen = 64 * 1024

// Pool is the append-only, content-interned string table.
type Pool struct {
	strings []string
	index   map[string]int
}

// New creates an empty Pool.
func New() *Pool {
	return &Pool{index: make(map[string]int)}
}

// Get returns the string stored at handle.
func (p *Pool) Get(handle int) string { return p.strings[handle] }

// InternBytes interns raw bytes (without a trailing NUL) by content,
// returning the existing handle if this exact string was already seen.
func (p *Pool) InternBytes(b []byte) int {
	s := string(b)
	if h, ok := p.index[s]; ok {
		return h
	}
	h := len(p.strings)
	p.strings = append(p.strings, s)
	p.index[s] = h
	return h
}

// ReadXString reads one XString field: a bare pointer word followed,
// if and only if the word is the inline sentinel, by a NUL-terminated
// string. Any other wire value (already-loaded or an opaque token) yields
// an empty string: plain string fields carry no sibling "name" field an
// already-loaded lookup could key off of, so - matching the simplified
// handling the reference deserializer itself uses for this case - a
// non-inline XString degrades to "".
func (p *Pool) ReadXString(s *stream.Stream) (string, error) {
	word, err := s.ReadPointer()
	if err != nil {
		return "", err
	}
	if word != stream.SentinelInline {
		return "", nil
	}
	if err := s.AlignTo(4); err != nil {
		return "", err
	}
	h, err := p.ReadInline(s)
	if err != nil {
		return "", err
	}
	return p.Get(h), nil
}

// ReadInline reads a NUL-terminated byte run from s, up to MaxStringLen,
// aligns to 4, and interns the result by content.
func (p *Pool) ReadInline(s *stream.Stream) (int, error) {
	var buf bytes.Buffer
	for {
		if buf.Len() >= MaxStringLen {
			return 0, fmt.Errorf("%w: inline string exceeds %d bytes", xfileerr.ErrRangeViolation, MaxStringLen)
		}
		b, err := s.ReadU8()
		if err != nil {
			return 0, err
		}
		if b == 0 {
			break
		}
		buf.WriteByte(b)
	}
	if err := s.AlignTo(4); err != nil {
		return 0, err
	}
	return p.InternBytes(buf.Bytes()), nil
}
