package gfxworld

import (
	"bytes"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfiletest"
)

func TestOpaquePointerInlineConsumesSizeBytes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(make([]byte, gfxLightSize))
	buf.WriteByte(0x7A) // trailing marker

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	b, err := opaquePointer(s, reg, uint32(assets.KindGfxWorld)+1000, gfxLightSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b) != gfxLightSize {
		t.Fatalf("got %d bytes, want %d", len(b), gfxLightSize)
	}
	marker, err := s.ReadU8()
	if err != nil || marker != 0x7A {
		t.Fatalf("got marker %#x (err %v), want 0x7A", marker, err)
	}
}

func TestOpaquePointerOpaqueTokenConsumesNothing(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0x99887766))
	buf.WriteByte(0x7B)

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	b, err := opaquePointer(s, reg, uint32(assets.KindGfxWorld)+1000, gfxLightSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Fatalf("got %v, want nil for an opaque token", b)
	}
	marker, err := s.ReadU8()
	if err != nil || marker != 0x7B {
		t.Fatalf("got marker %#x (err %v), want 0x7B", marker, err)
	}
}

func TestFatTableInlineUsesCountTimesStride(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.ScalarU32(4)) // count
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(make([]byte, 4*coronaStride))
	buf.WriteByte(0x7C)

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	b, err := fatTable(s, reg, uint32(assets.KindGfxWorld)+1000, coronaStride)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b) != 4*coronaStride {
		t.Fatalf("got %d bytes, want %d", len(b), 4*coronaStride)
	}
	marker, err := s.ReadU8()
	if err != nil || marker != 0x7C {
		t.Fatalf("got marker %#x (err %v), want 0x7C", marker, err)
	}
}

func TestDecodeGfxLightDefWithInlineImage(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString("light_def_a"))

	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // Attenuation.Image: inline GfxImage
	buf.Write(gfxImageBytes("sun_atten"))
	buf.WriteByte(3) // Attenuation.SamplerState

	buf.Write(make([]byte, 3))         // LmapLookupStart's ReadI32 aligns to 4
	buf.Write(xfiletest.ScalarU32(42)) // LmapLookupStart

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()
	pool := strpool.New()
	d := diag.New(nil)

	ld, err := DecodeGfxLightDef(s, reg, pool, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ld.Name != "light_def_a" {
		t.Fatalf("got name %q, want light_def_a", ld.Name)
	}
	if ld.Attenuation.Image == nil || ld.Attenuation.Image.Name != "sun_atten" {
		t.Fatalf("got attenuation image %+v, want sun_atten", ld.Attenuation.Image)
	}
	if ld.Attenuation.SamplerState != 3 {
		t.Fatalf("got sampler state %d, want 3", ld.Attenuation.SamplerState)
	}
	if ld.LmapLookupStart != 42 {
		t.Fatalf("got LmapLookupStart %d, want 42", ld.LmapLookupStart)
	}
}

// gfxImageBytes builds one inline GfxImageRaw's wire bytes in
// DecodeGfxImage's own field order, ending in the Name XString and a
// trailing Hash word.
func gfxImageBytes(name string) []byte {
	var buf bytes.Buffer
	buf.Write(xfiletest.ScalarU32(0)) // Texture: opaque handle
	buf.Write(make([]byte, 6))        // MapType, Semantic, Category, DelayLoadPixels, Picmip.Min, NoPicmip
	buf.Write([]byte{0})              // Track
	buf.Write(make([]byte, 8))        // CardMemory
	buf.WriteByte(0)                  // Width's ReadU16 aligns to 2; position is odd here, so pad
	buf.Write([]byte{0, 0})           // Width
	buf.Write([]byte{0, 0})           // Height
	buf.Write([]byte{0, 0})           // Depth
	buf.Write([]byte{0, 0})           // LevelCount, Streaming
	buf.Write(xfiletest.ScalarU32(0)) // BaseSize
	buf.Write(xfiletest.ScalarU32(0)) // pixels: plain scalar, never walked regardless of value
	buf.Write(xfiletest.ScalarU32(0)) // LoadedSize
	buf.Write(make([]byte, 4))        // SkippedMipLevels + pad
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString(name))
	buf.Write(xfiletest.ScalarU32(0)) // Hash
	return buf.Bytes()
}
