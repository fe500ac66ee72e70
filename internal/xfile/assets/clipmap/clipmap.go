// Package clipmap decodes ClipMap and ClipMapPVS, the BSP collision-world
// asset. Grounded on clipmap.rs.
//
// The collision tree (planes, nodes, leafs, leaf-brush nodes, brushes,
// partitions, AABB trees, cmodels) and the render-independent geometry
// tables (verts, triangle indices, cluster visibility) cross-reference each
// other by array index rather than by the shared-pointer protocol, and
// carry no further named-asset references. Decoding them fully needs the
// whole collision query pipeline, which is out of this decoder's scope, so
// every one of those tables is walked only far enough to consume its
// inline bytes (via readFatTable); their elements are kept as opaque raw
// bytes rather than decoded field-by-field. Only the fixed scalar header
// and the two small, non-recursive embedded records (MapEnts, box model)
// get a full field-level decode. The dyn_ent_*_list pointer words are a
// known remaining gap; see DESIGN.md.
package clipmap

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/gameworld"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// CModel is a convex collision model's bounding volume.
type CModel struct {
	Mins, Maxs   [3]float32
	Radius       float32
	LeafIndex    int32
}

// FatTableRef is one count-first fat pointer table. Count is the element
// count on the wire; Elements holds the table's raw bytes (Count*stride)
// when the pointer was inline, and is nil for an opaque token. An
// already-loaded token is rejected with ErrIllegalSentinel: none of these
// tables carry a natural identity to share by.
type FatTableRef struct {
	Count    uint32
	Elements []byte
}

// Per-element byte strides for each FatTableRef table, taken from the
// corresponding Raw struct's wire size.
const (
	planeStride          = 20 // CPlaneRaw
	staticModelStride    = 80 // CStaticModelRaw
	materialStride       = 72 // DMaterialRaw
	brushSideStride      = 12 // CBrushSideRaw
	nodeStride           = 8  // CNodeRaw: plane Ptr32 (4) + children [i16;2] (4)
	leafStride           = 44 // CLeafRaw
	leafBrushNodeStride  = 12 // CLeafBrushNodeRaw
	leafBrushesStride    = 2  // u16
	leafSurfacesStride   = 4  // u32
	vertStride           = 12 // [f32;3]
	brushVertStride      = 12 // [f32;3]
	uindStride           = 2  // u16
	borderStride         = 28 // CollisionBorderRaw
	partitionStride      = 20 // CollisionPartitionRaw
	aabbTreeStride       = 32 // CollisionAabbTreeRaw
	cmodelStride         = 72 // CModelRaw
	brushStride          = 96 // CBrushRaw
	constraintStride     = 168  // PhysConstraintRaw
	ropeStride           = 3188 // RopeRaw
)

// ClipMap is the BSP collision world for one map. ClipMapPVS shares the
// exact same wire layout under a different asset kind.
type ClipMap struct {
	Name              string
	IsInUse           int32
	Planes            FatTableRef
	StaticModelList   FatTableRef
	Materials         FatTableRef
	BrushSides        FatTableRef
	Nodes             FatTableRef
	Leafs             FatTableRef
	LeafBrushNodes    FatTableRef
	LeafBrushes       FatTableRef
	LeafSurfaces      FatTableRef
	Verts             FatTableRef
	BrushVerts        FatTableRef
	Uinds             FatTableRef
	TriCount          int32
	TriIndices        uint32
	TriEdgeIsWalkable uint32
	Borders           FatTableRef
	Partitions        FatTableRef
	AabbTrees         FatTableRef
	CModels           FatTableRef
	Brushes           FatTableRef
	NumClusters       int32
	ClusterBytes      int32
	Visibility        uint32
	Vised             int32
	MapEnts           *gameworld.MapEnts
	BoxBrush          uint32
	BoxModel          CModel
	Constraints       FatTableRef
	Ropes             FatTableRef
	Checksum          uint32
}

func init() {
	decodeFn := func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeClipMap(s, reg, pool, d)
	}
	assets.Register(assets.KindClipMap, decodeFn)
	assets.Register(assets.KindClipMapPVS, decodeFn)
}

// readFatTable reads a count-first fat pointer table and, when inline,
// consumes its Count*stride element bytes so the stream stays in sync. The
// elements themselves are index-addressed by the collision query pipeline
// this decoder doesn't implement, so they're kept as opaque raw bytes
// rather than walked field-by-field; see the package doc comment.
func readFatTable(s *stream.Stream, reg *registry.Registry, kind uint32, stride int) (FatTableRef, error) {
	count, err := s.ReadU32()
	if err != nil {
		return FatTableRef{}, err
	}
	elements, _, err := registry.ResolvePointer(s, reg, kind, nil, func() ([]byte, error) {
		return s.ReadBytes(int(count) * stride)
	})
	if err != nil {
		return FatTableRef{}, err
	}
	return FatTableRef{Count: count, Elements: elements}, nil
}

func decodeCModel(s *stream.Stream) (CModel, error) {
	var c CModel
	var err error
	for i := range c.Mins {
		if c.Mins[i], err = s.ReadF32(); err != nil {
			return c, err
		}
	}
	for i := range c.Maxs {
		if c.Maxs[i], err = s.ReadF32(); err != nil {
			return c, err
		}
	}
	if c.Radius, err = s.ReadF32(); err != nil {
		return c, err
	}
	if c.LeafIndex, err = s.ReadI32(); err != nil {
		return c, err
	}
	// CModelRaw carries additional per-submodel render/contents fields past
	// this point that are not needed here; the box_model field is 72 bytes
	// and the remainder is consumed as padding to keep the stream aligned.
	if _, err = s.ReadBytes(72 - 4*8); err != nil {
		return c, err
	}
	return c, nil
}

// DecodeClipMap decodes one ClipMap/ClipMapPVS record in engine
// declaration order.
func DecodeClipMap(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*ClipMap, error) {
	d.Push("ClipMap")
	defer d.Pop()

	cm := &ClipMap{}
	var err error

	if cm.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.IsInUse, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}

	type tableField struct {
		field  *FatTableRef
		stride int
	}
	tables := []tableField{
		{&cm.Planes, planeStride}, {&cm.StaticModelList, staticModelStride},
		{&cm.Materials, materialStride}, {&cm.BrushSides, brushSideStride},
		{&cm.Nodes, nodeStride}, {&cm.Leafs, leafStride},
		{&cm.LeafBrushNodes, leafBrushNodeStride}, {&cm.LeafBrushes, leafBrushesStride},
		{&cm.LeafSurfaces, leafSurfacesStride}, {&cm.Verts, vertStride},
		{&cm.BrushVerts, brushVertStride}, {&cm.Uinds, uindStride},
	}
	for i, t := range tables {
		if *t.field, err = readFatTable(s, reg, uint32(assets.KindClipMap)+1000+uint32(i), t.stride); err != nil {
			return nil, d.Fatal(err)
		}
	}

	if cm.TriCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.TriIndices, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.TriEdgeIsWalkable, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}

	for i, t := range []tableField{
		{&cm.Borders, borderStride}, {&cm.Partitions, partitionStride},
		{&cm.AabbTrees, aabbTreeStride}, {&cm.CModels, cmodelStride},
		{&cm.Brushes, brushStride},
	} {
		if *t.field, err = readFatTable(s, reg, uint32(assets.KindClipMap)+1100+uint32(i), t.stride); err != nil {
			return nil, d.Fatal(err)
		}
	}

	if cm.NumClusters, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.ClusterBytes, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.Visibility, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.Vised, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}

	mapEnts, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindMapEnts), nil, func() (*gameworld.MapEnts, error) {
		return gameworld.DecodeMapEnts(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	cm.MapEnts = mapEnts

	if cm.BoxBrush, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.BoxModel, err = decodeCModel(s); err != nil {
		return nil, d.Fatal(err)
	}

	// original_dyn_ent_count, dyn_ent_count[4], 2-byte pad, and the
	// dyn_ent_def_list/pose_list/client_list/server_list/coll_list pointer
	// words: consumed as raw bytes. None of these carry named-asset
	// references within this decoder's scope; see the package doc comment.
	if _, err = s.ReadBytes(2 + 8 + 2); err != nil {
		return nil, d.Fatal(err)
	}
	for i := 0; i < 2+2+2+2+4; i++ {
		if _, err = s.ReadU32(); err != nil {
			return nil, d.Fatal(err)
		}
	}

	if cm.Constraints, err = readFatTable(s, reg, uint32(assets.KindClipMap)+1200, constraintStride); err != nil {
		return nil, d.Fatal(err)
	}
	if cm.Ropes, err = readFatTable(s, reg, uint32(assets.KindClipMap)+1201, ropeStride); err != nil {
		return nil, d.Fatal(err)
	}

	if cm.Checksum, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}

	return cm, nil
}
