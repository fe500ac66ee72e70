package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

func TestReadU32AlignsPosition(t *testing.T) {
	// one byte, then a u32: the u32 read must pad to offset 4 first.
	buf := append([]byte{0x01}, []byte{0x00, 0x00, 0x00}...) // pad bytes the reader will skip
	buf = append(buf, []byte{0x02, 0x00, 0x00, 0x00}...)
	s := New(bytes.NewReader(buf))

	if _, err := s.ReadU8(); err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	if v, err := s.ReadU32(); err != nil || v != 0x02 {
		t.Fatalf("ReadU32 = %d, %v; want 2, nil", v, err)
	}
	if s.Position()%4 != 0 {
		t.Fatalf("Position() = %d, not 4-aligned", s.Position())
	}
}

func TestReadU16Alignment(t *testing.T) {
	buf := []byte{0xAA, 0x00, 0x34, 0x12} // 0x00 is the pad byte before the u16
	s := New(bytes.NewReader(buf))
	if _, err := s.ReadU8(); err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	v, err := s.ReadU16()
	if err != nil {
		t.Fatalf("ReadU16: %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("ReadU16 = 0x%04X, want 0x1234", v)
	}
	if s.Position()%2 != 0 {
		t.Fatalf("Position() = %d, not 2-aligned", s.Position())
	}
}

func TestReadU64Alignment(t *testing.T) {
	buf := make([]byte, 0, 16)
	buf = append(buf, 0x01, 0x02, 0x03) // 3 bytes, pads to 8
	buf = append(buf, make([]byte, 5)...)
	buf = append(buf, []byte{0x10, 0, 0, 0, 0, 0, 0, 0}...)
	s := New(bytes.NewReader(buf))
	if _, err := s.ReadBytes(3); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	v, err := s.ReadU64()
	if err != nil {
		t.Fatalf("ReadU64: %v", err)
	}
	if v != 0x10 {
		t.Fatalf("ReadU64 = %d, want 16", v)
	}
	if s.Position()%8 != 0 {
		t.Fatalf("Position() = %d, not 8-aligned", s.Position())
	}
}

func TestReadUnexpectedEOF(t *testing.T) {
	s := New(bytes.NewReader([]byte{0x01, 0x02}))
	_, err := s.ReadU32()
	if !errors.Is(err, xfileerr.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want ErrUnexpectedEOF", err)
	}
}

func TestReadBytesNoAlignment(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	s := New(bytes.NewReader(buf))
	if _, err := s.ReadU8(); err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	b, err := s.ReadBytes(2)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(b, []byte{0x02, 0x03}) {
		t.Fatalf("ReadBytes = %v, want [2 3]", b)
	}
	if s.Position() != 3 {
		t.Fatalf("Position() = %d, want 3 (ReadBytes must not align)", s.Position())
	}
}

func TestReadArray(t *testing.T) {
	s := New(bytes.NewReader([]byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}))
	out, err := ReadArray(3, func() (uint32, error) { return s.ReadU32() })
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if len(out) != 3 || out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Fatalf("ReadArray = %v, want [1 2 3]", out)
	}
}
