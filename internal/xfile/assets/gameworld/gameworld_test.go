package gameworld

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfiletest"
)

// TestDecodePathDataMixedSentinels exercises every field of PathData with a
// mix of opaque tokens (Nodes/BaseNodes, whose node_count+128 sizing makes
// inline payloads large) and inline pointers (the rest), confirming the
// opaque branch consumes nothing and the inline branch consumes exactly its
// element bytes - in either case leaving the cursor at the next field.
func TestDecodePathDataMixedSentinels(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.ScalarU32(2)) // NodeCount

	buf.Write(xfiletest.Pointer(0x11111111)) // Nodes: opaque
	buf.Write(xfiletest.Pointer(0x22222222)) // BaseNodes: opaque

	buf.Write(xfiletest.ScalarU32(5)) // ChainNodeCount

	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // ChainNodeForNode: inline, NodeCount*2 = 4 bytes
	buf.Write([]byte{1, 0, 2, 0})
	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // NodeForChainNode: inline, 4 bytes
	buf.Write([]byte{3, 0, 4, 0})

	buf.Write(xfiletest.ScalarU32(4))        // PathVisCount: kept a multiple of 4 so the next
	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // field's ReadU32 (which aligns to 4 before reading)
	buf.Write([]byte{0xAA, 0xBB, 0xCC, 0xDD}) // doesn't silently eat into hand-laid-out bytes

	buf.Write(xfiletest.ScalarU32(1))        // NodeTreeCount
	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // NodeTree: inline, 1*16 bytes
	buf.Write(make([]byte, pathNodeTreeStride))

	buf.WriteByte(0xEE) // trailing marker: must survive untouched

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	p, err := decodePathData(s, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Nodes != nil {
		t.Fatalf("got Nodes %v, want nil for an opaque token", p.Nodes)
	}
	if p.BaseNodes != nil {
		t.Fatalf("got BaseNodes %v, want nil for an opaque token", p.BaseNodes)
	}
	if len(p.ChainNodeForNode) != 4 || len(p.NodeForChainNode) != 4 {
		t.Fatalf("got chain tables %d/%d bytes, want 4/4", len(p.ChainNodeForNode), len(p.NodeForChainNode))
	}
	if len(p.PathVis) != 4 {
		t.Fatalf("got %d PathVis bytes, want 4", len(p.PathVis))
	}
	if len(p.NodeTree) != pathNodeTreeStride {
		t.Fatalf("got %d NodeTree bytes, want %d", len(p.NodeTree), pathNodeTreeStride)
	}

	marker, err := s.ReadU8()
	if err != nil {
		t.Fatalf("reading trailing marker: %v", err)
	}
	if marker != 0xEE {
		t.Fatalf("got marker %#x, want 0xEE: a field consumed the wrong number of bytes", marker)
	}
}

func TestDecodeMapEntsInline(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString("map_ents_a"))
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	entity := "{classname worldspawn}\x00"
	buf.Write(xfiletest.ScalarU32(uint32(len(entity))))
	buf.WriteString(entity)

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	m, err := DecodeMapEnts(s, reg, strpool.New(), diag.New(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.EntityString != "{classname worldspawn}" {
		t.Fatalf("got entity string %q, want trimmed worldspawn entity", m.EntityString)
	}
}

func TestDecodeMapEntsAlreadyLoadedIsIllegal(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF))
	buf.Write(xfiletest.InlineString("map_ents_b"))
	buf.Write(xfiletest.Pointer(0xFFFFFFFE)) // already-loaded: illegal, no identity
	buf.Write(xfiletest.ScalarU32(0))

	s := stream.New(bytes.NewReader(buf.Bytes()))
	reg := registry.New()

	_, err := DecodeMapEnts(s, reg, strpool.New(), diag.New(nil))
	if !errors.Is(err, xfileerr.ErrIllegalSentinel) {
		t.Fatalf("got %v, want ErrIllegalSentinel", err)
	}
}
