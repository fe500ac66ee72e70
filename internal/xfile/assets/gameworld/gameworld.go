// Package gameworld decodes the per-map asset family: ComWorld,
// GameWorldSp, GameWorldMp and MapEnts. Grounded on gameworld.rs and
// misc.rs (MapEnts).
package gameworld

import (
	"fmt"
	"strings"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// MapEnts is the map's entity-definition text blob: a QuakeC-style
// brace-delimited entity list, stored as a single NUL-terminated string.
type MapEnts struct {
	Name         string
	EntityString string
}

// PathData is the AI navigation mesh for one map. The node/basenode/
// chain-index tables and the node-tree's own leaf partitions cross-
// reference each other by array index and carry no further named-asset
// references, so their elements are kept as raw bytes rather than walked
// field-by-field; the pointer words that carry them are still resolved
// through the sentinel protocol so the stream stays in sync. See DESIGN.md.
type PathData struct {
	NodeCount        uint32
	Nodes            []byte // Ptr32<PathNodeRaw[node_count+128]>, 128-byte stride
	BaseNodes        []byte // Ptr32<PathBaseNodeRaw[node_count+128]>, 16-byte stride
	ChainNodeCount   uint32
	ChainNodeForNode []byte // Ptr32<u16[node_count]>
	NodeForChainNode []byte // Ptr32<u16[node_count]>
	PathVisCount     uint32
	PathVis          []byte // FatPointerCountFirstU32<u8>
	NodeTreeCount    uint32
	NodeTree         []byte // FatPointerCountFirstU32<PathNodeTreeRaw>, 16-byte stride
}

// pathNodeStride, pathBaseNodeStride and pathNodeTreeStride are
// PathNodeRaw/PathBaseNodeRaw/PathNodeTreeRaw's fixed wire sizes (68-byte
// constant block + 32-byte dynamic block + 28-byte transient block for
// PathNodeRaw; 16 bytes for the other two).
const (
	pathNodeStride     = 68 + 32 + 28
	pathBaseNodeStride = 16
	pathNodeTreeStride = 16
)

// GameWorldSp is the singleplayer per-map world asset: its name and AI
// navigation mesh.
type GameWorldSp struct {
	Name string
	Path PathData
}

// GameWorldMp is the multiplayer per-map world asset, identical in shape
// to GameWorldSp.
type GameWorldMp struct {
	Name string
	Path PathData
}

// ComWorld has no surviving field-layout reference anywhere in the source
// this decoder was grounded on, so it is decoded as the minimal
// name-plus-count-prefixed-blob shape every other under-grounded asset in
// the catalogue shares. See DESIGN.md.
type ComWorld struct {
	Name string
	Blob []byte
}

func init() {
	assets.Register(assets.KindComWorld, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return decodeComWorld(s, reg, pool, d)
	})
	assets.Register(assets.KindGameWorldSp, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeGameWorldSp(s, reg, pool, d)
	})
	assets.Register(assets.KindGameWorldMp, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeGameWorldMp(s, reg, pool, d)
	})
	assets.Register(assets.KindMapEnts, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeMapEnts(s, reg, pool, d)
	})
}

func decodePathData(s *stream.Stream, reg *registry.Registry) (PathData, error) {
	var p PathData
	var err error
	if p.NodeCount, err = s.ReadU32(); err != nil {
		return p, err
	}

	// nodes/basenodes are plain Ptr32<T>, not count-prefixed: their element
	// count is node_count+128 (the engine always pads the navmesh table by
	// 128 slots), never zero, so an inline sentinel is the common case.
	nodeSlots := int(p.NodeCount) + 128
	p.Nodes, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindGameWorldSp)+1000, nil, func() ([]byte, error) {
		return s.ReadBytes(nodeSlots * pathNodeStride)
	})
	if err != nil {
		return p, err
	}
	p.BaseNodes, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindGameWorldSp)+1001, nil, func() ([]byte, error) {
		return s.ReadBytes(nodeSlots * pathBaseNodeStride)
	})
	if err != nil {
		return p, err
	}

	if p.ChainNodeCount, err = s.ReadU32(); err != nil {
		return p, err
	}

	// chain_node_for_node/node_for_chain_node are also plain Ptr32<u16>, and
	// both are sized by node_count, not chain_node_count.
	p.ChainNodeForNode, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindGameWorldSp)+1002, nil, func() ([]byte, error) {
		return s.ReadBytes(int(p.NodeCount) * 2)
	})
	if err != nil {
		return p, err
	}
	p.NodeForChainNode, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindGameWorldSp)+1003, nil, func() ([]byte, error) {
		return s.ReadBytes(int(p.NodeCount) * 2)
	})
	if err != nil {
		return p, err
	}

	if p.PathVisCount, err = s.ReadU32(); err != nil {
		return p, err
	}
	p.PathVis, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindGameWorldSp)+1004, nil, func() ([]byte, error) {
		return s.ReadBytes(int(p.PathVisCount))
	})
	if err != nil {
		return p, err
	}

	if p.NodeTreeCount, err = s.ReadU32(); err != nil {
		return p, err
	}
	p.NodeTree, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindGameWorldSp)+1005, nil, func() ([]byte, error) {
		return s.ReadBytes(int(p.NodeTreeCount) * pathNodeTreeStride)
	})
	if err != nil {
		return p, err
	}

	return p, nil
}

// DecodeGameWorldSp decodes one GameWorldSp record in engine declaration
// order.
func DecodeGameWorldSp(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*GameWorldSp, error) {
	d.Push("GameWorldSp")
	defer d.Pop()

	g := &GameWorldSp{}
	var err error
	if g.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if g.Path, err = decodePathData(s, reg); err != nil {
		return nil, d.Fatal(err)
	}
	return g, nil
}

// DecodeGameWorldMp decodes one GameWorldMp record, identical in shape to
// GameWorldSp.
func DecodeGameWorldMp(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*GameWorldMp, error) {
	d.Push("GameWorldMp")
	defer d.Pop()

	g := &GameWorldMp{}
	var err error
	if g.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if g.Path, err = decodePathData(s, reg); err != nil {
		return nil, d.Fatal(err)
	}
	return g, nil
}

// DecodeMapEnts decodes the name and entity-string blob. entity_string is a
// FatPointerCountLastU32<u8>: the pointer word precedes its byte count.
func DecodeMapEnts(s *stream.Stream, _ *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*MapEnts, error) {
	d.Push("MapEnts")
	defer d.Pop()

	m := &MapEnts{}
	var err error
	if m.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	ptr, err := s.ReadPointer()
	if err != nil {
		return nil, d.Fatal(err)
	}
	count, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	switch ptr {
	case stream.SentinelInline:
		raw, err := s.ReadBytes(int(count))
		if err != nil {
			return nil, d.Fatal(err)
		}
		m.EntityString = strings.TrimRight(string(raw), "\x00")
	case stream.SentinelAlreadyLoaded:
		return nil, d.Fatal(fmt.Errorf("%w: already-loaded sentinel for identity-less entity string", xfileerr.ErrIllegalSentinel))
	default:
	}

	return m, nil
}

func decodeComWorld(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*ComWorld, error) {
	d.Push("ComWorld")
	defer d.Pop()

	c := &ComWorld{}
	var err error
	if c.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	count, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	blob, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindComWorld), nil, func() ([]byte, error) {
		return s.ReadBytes(int(count))
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	c.Blob = blob
	return c, nil
}
