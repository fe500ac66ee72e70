package xmodel

import (
	"bytes"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfiletest"
)

// xmodelLodInfoBytes builds one zeroed XModelLodInfo record's 32 bytes:
// Dist(4) + NumSurfs(2) + SurfIndex(2) + PartBits[5](20) + Lod+pad(4).
func xmodelLodInfoBytes() []byte {
	return make([]byte, 32)
}

// TestDecodeXModelBoneFreeSkeleton covers the two fat-pointer idioms this
// decoder fixed - coll_surfs (count-last: pointer word precedes its count)
// and collmaps (count-first: count precedes the pointer word) - using a
// zero-bone, zero-surface skeleton so every other pointer field's inline
// body collapses to nothing and the record stays small.
func TestDecodeXModelBoneFreeSkeleton(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString("m"))

	buf.Write([]byte{0, 0, 0, 0}) // NumBones, NumRootBones, NumSurfaces, LodRampType

	for i := 0; i < 7; i++ { // BoneNames..Surfaces: all inline, zero-length bodies
		buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	}
	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // MaterialHandles: inline, zero surfaces

	for i := 0; i < MaxModelLods; i++ {
		buf.Write(xmodelLodInfoBytes())
	}

	buf.Write([]byte{1, 0, 0, 0}) // LoadDistAutoGen = true

	// coll_surfs: FatPointerCountLastU32<XModelCollSurfRaw>, pointer then count.
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.ScalarU32(1))
	buf.Write(make([]byte, collSurfStride))

	buf.Write(xfiletest.ScalarU32(0)) // Contents

	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // BoneInfo: inline, zero-length

	buf.Write(xfiletest.ScalarU32(0)) // Radius
	buf.Write(make([]byte, 12))       // Mins
	buf.Write(make([]byte, 12))       // Maxs
	buf.Write([]byte{0, 0})           // NumLods
	buf.Write([]byte{0, 0})           // CollLod
	buf.Write(xfiletest.ScalarU32(0)) // StreamInfo
	buf.Write(xfiletest.ScalarU32(0)) // MemUsage
	buf.Write(xfiletest.ScalarU32(0)) // Flags
	buf.Write([]byte{0, 0, 0, 0})     // Bad + pad

	buf.Write(xfiletest.Pointer(0x55555555)) // PhysPreset: opaque, absent

	// collmaps: FatPointerCountFirstU32<CollmapRaw>, count then pointer.
	buf.Write(xfiletest.ScalarU32(2))
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(make([]byte, 2*collmapStride))

	buf.Write(xfiletest.Pointer(0x66666666)) // PhysConstraints: opaque, absent

	buf.WriteByte(0x9A) // trailing marker: nothing should overrun into it

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()
	pool := strpool.New()
	d := diag.New(nil)

	m, err := DecodeXModel(s, reg, pool, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "m" {
		t.Fatalf("got name %q, want m", m.Name)
	}
	if !m.LoadDistAutoGen {
		t.Fatalf("got LoadDistAutoGen false, want true")
	}
	if len(m.CollSurfs) != collSurfStride {
		t.Fatalf("got %d CollSurfs bytes, want %d", len(m.CollSurfs), collSurfStride)
	}
	if m.PhysPreset != nil {
		t.Fatalf("got PhysPreset %+v, want nil for an opaque token", m.PhysPreset)
	}
	if len(m.Collmaps) != 2*collmapStride {
		t.Fatalf("got %d Collmaps bytes, want %d", len(m.Collmaps), 2*collmapStride)
	}
	if m.PhysConstraints != nil {
		t.Fatalf("got PhysConstraints %+v, want nil for an opaque token", m.PhysConstraints)
	}

	marker, err := s.ReadU8()
	if err != nil {
		t.Fatalf("reading trailing marker: %v", err)
	}
	if marker != 0x9A {
		t.Fatalf("got marker %#x, want 0x9a: a field consumed the wrong number of bytes", marker)
	}
}

func TestDecodeXModelCollSurfsAlreadyLoadedIsIllegal(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString("m"))
	buf.Write([]byte{0, 0, 0, 0})
	for i := 0; i < 8; i++ {
		buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	}
	for i := 0; i < MaxModelLods; i++ {
		buf.Write(xmodelLodInfoBytes())
	}
	buf.Write([]byte{0, 0, 0, 0}) // LoadDistAutoGen

	buf.Write(xfiletest.Pointer(0xFFFFFFFE)) // coll_surfs: already-loaded, illegal (no identity)
	buf.Write(xfiletest.ScalarU32(0))

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()
	pool := strpool.New()
	d := diag.New(nil)

	_, err := DecodeXModel(s, reg, pool, d)
	if err == nil {
		t.Fatalf("expected an error for an already-loaded coll_surfs sentinel, got nil")
	}
}
