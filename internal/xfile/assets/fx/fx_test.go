package fx

import (
	"bytes"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfiletest"
)

func TestDecodeFxEffectDefInlineElemDefs(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString("fx_smoke"))

	buf.Write([]byte{0, 0, 0, 0}) // Flags, EfPriority, 2 pad
	buf.Write(xfiletest.ScalarU32(0)) // TotalSize
	buf.Write(xfiletest.ScalarU32(0)) // MsecLoopingLife
	buf.Write(xfiletest.ScalarU32(1)) // ElemDefCountLooping
	buf.Write(xfiletest.ScalarU32(2)) // ElemDefCountOneShot
	buf.Write(xfiletest.ScalarU32(0)) // ElemDefCountEmission

	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // ElemDefs: inline, (1+2+0)*292 bytes
	buf.Write(make([]byte, 3*fxElemDefStride))

	buf.Write(make([]byte, 3*4)) // BoundingBoxDim
	buf.Write(make([]byte, 4*4)) // BoundingSphere

	buf.WriteByte(0x5E) // trailing marker

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()
	pool := strpool.New()
	d := diag.New(nil)

	e, err := DecodeFxEffectDef(s, reg, pool, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Name != "fx_smoke" {
		t.Fatalf("got name %q, want fx_smoke", e.Name)
	}
	if len(e.ElemDefs) != 3*fxElemDefStride {
		t.Fatalf("got %d ElemDefs bytes, want %d", len(e.ElemDefs), 3*fxElemDefStride)
	}

	marker, err := s.ReadU8()
	if err != nil {
		t.Fatalf("reading trailing marker: %v", err)
	}
	if marker != 0x5E {
		t.Fatalf("got marker %#x, want 0x5e: ElemDefs consumed the wrong number of bytes", marker)
	}
}

func TestDecodeFxEffectDefOpaqueElemDefs(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString("fx_none"))

	buf.Write([]byte{0, 0, 0, 0})
	buf.Write(xfiletest.ScalarU32(0))
	buf.Write(xfiletest.ScalarU32(0))
	buf.Write(xfiletest.ScalarU32(0)) // ElemDefCountLooping
	buf.Write(xfiletest.ScalarU32(0)) // ElemDefCountOneShot
	buf.Write(xfiletest.ScalarU32(0)) // ElemDefCountEmission

	buf.Write(xfiletest.Pointer(0x13131313)) // ElemDefs: opaque, absent regardless of count

	buf.Write(make([]byte, 3*4))
	buf.Write(make([]byte, 4*4))

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()
	pool := strpool.New()
	d := diag.New(nil)

	e, err := DecodeFxEffectDef(s, reg, pool, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ElemDefs != nil {
		t.Fatalf("got ElemDefs %v, want nil for an opaque token", e.ElemDefs)
	}
}
