// Package stream wraps the inflated payload in a buffered reader and
// exposes the typed, alignment-aware scalar reads every decoder in
// internal/xfile/assets builds on. Grounded on the teacher's BinaryReader
// (apfs/pkg/types/binary.go), generalized from a fixed-field struct reader
// to the position-tracking, alignment-aware reader XFile decoding needs.
package stream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// PointerWord is a raw 32-bit pointer/sentinel value as it appears on the
// wire, before the registry trichotomy is applied.
type PointerWord uint32

const (
	SentinelInline       PointerWord = 0xFFFFFFFF
	SentinelAlreadyLoaded PointerWord = 0xFFFFFFFE
)

// Stream is a little-endian, position-tracking, alignment-aware reader over
// an inflated Fastfile payload.
type Stream struct {
	r   *bufio.Reader
	pos uint64
}

// New wraps r in a Stream. r should be the zlib-inflated payload reader.
func New(r io.Reader) *Stream {
	return &Stream{r: bufio.NewReaderSize(r, 64*1024)}
}

// Position returns the number of bytes consumed so far.
func (s *Stream) Position() uint64 { return s.pos }

func (s *Stream) readFull(buf []byte) error {
	n, err := io.ReadFull(s.r, buf)
	s.pos += uint64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w at offset %d", xfileerr.ErrUnexpectedEOF, s.pos)
		}
		return err
	}
	return nil
}

// AlignTo discards bytes until Position() is a multiple of n.
func (s *Stream) AlignTo(n int) error {
	if n <= 1 {
		return nil
	}
	rem := int(s.pos) % n
	if rem == 0 {
		return nil
	}
	pad := n - rem
	_, err := s.readDiscard(pad)
	return err
}

func (s *Stream) readDiscard(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := s.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBytes reads exactly n raw bytes, after aligning to 1 (no-op).
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := s.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadU8 reads one byte.
func (s *Stream) ReadU8() (uint8, error) {
	var buf [1]byte
	if err := s.readFull(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadI8 reads one signed byte.
func (s *Stream) ReadI8() (int8, error) {
	v, err := s.ReadU8()
	return int8(v), err
}

// ReadU16 aligns to 2 bytes and reads a little-endian uint16.
func (s *Stream) ReadU16() (uint16, error) {
	if err := s.AlignTo(2); err != nil {
		return 0, err
	}
	var buf [2]byte
	if err := s.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadI16 aligns to 2 bytes and reads a little-endian int16.
func (s *Stream) ReadI16() (int16, error) {
	v, err := s.ReadU16()
	return int16(v), err
}

// ReadU32 aligns to 4 bytes and reads a little-endian uint32.
func (s *Stream) ReadU32() (uint32, error) {
	if err := s.AlignTo(4); err != nil {
		return 0, err
	}
	var buf [4]byte
	if err := s.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadI32 aligns to 4 bytes and reads a little-endian int32.
func (s *Stream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

// ReadF32 aligns to 4 bytes and reads a little-endian IEEE-754 float32.
func (s *Stream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadU64 aligns to 8 bytes and reads a little-endian uint64.
func (s *Stream) ReadU64() (uint64, error) {
	if err := s.AlignTo(8); err != nil {
		return 0, err
	}
	var buf [8]byte
	if err := s.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadPointer aligns to 4 bytes and reads a raw pointer/sentinel word.
func (s *Stream) ReadPointer() (PointerWord, error) {
	v, err := s.ReadU32()
	return PointerWord(v), err
}

// ReadArray reads count elements with decode, returning their values in
// order. It performs no alignment of its own; each decode call is
// responsible for aligning the fields it reads.
func ReadArray[T any](count int, decode func() (T, error)) ([]T, error) {
	out := make([]T, count)
	for i := 0; i < count; i++ {
		v, err := decode()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
