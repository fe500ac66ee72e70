package clipmap

import (
	"bytes"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfiletest"
)

func TestReadFatTableInlineConsumesElementBytes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.ScalarU32(3)) // count
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(make([]byte, 3*planeStride))
	buf.Write([]byte{0xAB}) // a trailing marker byte the table read must not consume

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	ref, err := readFatTable(s, reg, uint32(assets.KindClipMap)+1000, planeStride)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Count != 3 {
		t.Fatalf("got count %d, want 3", ref.Count)
	}
	if len(ref.Elements) != 3*planeStride {
		t.Fatalf("got %d element bytes, want %d", len(ref.Elements), 3*planeStride)
	}

	marker, err := s.ReadU8()
	if err != nil {
		t.Fatalf("reading trailing marker: %v", err)
	}
	if marker != 0xAB {
		t.Fatalf("got marker %#x, want 0xAB: the table read consumed the wrong number of bytes", marker)
	}
}

func TestReadFatTableOpaqueTokenLeavesElementsNil(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.ScalarU32(5)) // count: present even though the pointer itself is opaque
	buf.Write(xfiletest.Pointer(0x44332211))
	buf.Write([]byte{0xCD}) // nothing beyond the pointer word should be consumed

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	ref, err := readFatTable(s, reg, uint32(assets.KindClipMap)+1000, planeStride)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Count != 5 {
		t.Fatalf("got count %d, want 5", ref.Count)
	}
	if ref.Elements != nil {
		t.Fatalf("got elements %v, want nil for an opaque token", ref.Elements)
	}

	marker, err := s.ReadU8()
	if err != nil {
		t.Fatalf("reading trailing marker: %v", err)
	}
	if marker != 0xCD {
		t.Fatalf("got marker %#x, want 0xCD: the opaque branch must not consume element bytes", marker)
	}
}
