package xmodel

import (
	"fmt"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/techset"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// MaxModelLods bounds the fixed level-of-detail table every XModel carries.
const MaxModelLods = 4

// XModelLodInfo is one LOD tier's surface range and distance threshold.
type XModelLodInfo struct {
	Dist      float32
	NumSurfs  uint16
	SurfIndex uint16
	PartBits  [5]int32
	Lod       uint8
}

// XModelStreamInfo is the packed streamed-mesh budget the engine checks
// before loading a model's high-detail geometry.
type XModelStreamInfo struct {
	Packed uint32
}

// Per-element byte strides for XModel's bone/surface/collision tables, and
// ScriptString's wire size (a u16 handle into the script-string table).
const (
	scriptStringSize  = 2
	dObjAnimMatStride = 32 // DObjAnimMatRaw
	xSurfaceStride    = 68 // XSurfaceRaw
	xBoneInfoStride   = 44 // XBoneInfoRaw
	collSurfStride    = 44 // XModelCollSurfRaw
	collmapStride     = 4  // CollmapRaw
)

// XModel is a skeletal mesh: its bone hierarchy, surface and material-handle
// tables, LOD set, bounds, and optional physics preset/collision/constraint
// links. The bone-name/parent/quat/translation/part-classification/surface/
// bone-info tables are walked far enough to consume their inline bytes
// (their element strides are fixed but their internals cross-reference each
// other by array index with no further named-asset references, so they are
// kept as opaque raw bytes rather than decoded field-by-field); the
// material-handle table's entries are themselves Material pointers and are
// fully resolved like any other asset reference. See DESIGN.md.
type XModel struct {
	Name               string
	NumBones           uint8
	NumRootBones       uint8
	NumSurfaces        uint8
	LodRampType        uint8
	BoneNames          []byte // Ptr32<ScriptString[num_bones]>
	ParentList         []byte // Ptr32<u8[num_bones]>
	Quats              []byte // Ptr32<i16[num_bones*4]>
	Trans              []byte // Ptr32<f32[num_bones*3]>
	PartClassification []byte // Ptr32<u8[num_bones]>
	BaseMat            []byte // Ptr32<DObjAnimMatRaw[num_bones]>
	Surfaces           []byte // Ptr32<XSurfaceRaw[numsurfs]>
	MaterialHandles    []*techset.Material
	LodInfo            [MaxModelLods]XModelLodInfo
	LoadDistAutoGen    bool
	CollSurfs          []byte // FatPointerCountLastU32<XModelCollSurfRaw>
	Contents           int32
	BoneInfo           []byte // Ptr32<XBoneInfoRaw[num_bones]>
	Radius             float32
	Mins               [3]float32
	Maxs               [3]float32
	NumLods            int16
	CollLod            int16
	StreamInfo         XModelStreamInfo
	MemUsage           int32
	Flags              int32
	Bad                bool
	PhysPreset         *PhysPreset
	Collmaps           []byte // FatPointerCountFirstU32<CollmapRaw>: collision-brush geometry
	PhysConstraints    *PhysConstraints
}

func init() {
	assets.Register(assets.KindXModel, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeXModel(s, reg, pool, d)
	})
}

// DecodeXModel decodes one XModel record in engine declaration order.
func DecodeXModel(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*XModel, error) {
	d.Push("XModel")
	defer d.Pop()

	m := &XModel{}
	var err error

	if m.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	counts, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.NumBones = counts[0]
	m.NumRootBones = counts[1]
	m.NumSurfaces = counts[2]
	m.LodRampType = counts[3]

	boneSlots := int(m.NumBones)
	surfSlots := int(m.NumSurfaces)
	base := uint32(assets.KindXModel) + 1000

	m.BoneNames, _, err = registry.ResolvePointer(s, reg, base+0, nil, func() ([]byte, error) {
		return s.ReadBytes(boneSlots * scriptStringSize)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.ParentList, _, err = registry.ResolvePointer(s, reg, base+1, nil, func() ([]byte, error) {
		return s.ReadBytes(boneSlots)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.Quats, _, err = registry.ResolvePointer(s, reg, base+2, nil, func() ([]byte, error) {
		return s.ReadBytes(boneSlots * 4 * 2)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.Trans, _, err = registry.ResolvePointer(s, reg, base+3, nil, func() ([]byte, error) {
		return s.ReadBytes(boneSlots * 3 * 4)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.PartClassification, _, err = registry.ResolvePointer(s, reg, base+4, nil, func() ([]byte, error) {
		return s.ReadBytes(boneSlots)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.BaseMat, _, err = registry.ResolvePointer(s, reg, base+5, nil, func() ([]byte, error) {
		return s.ReadBytes(boneSlots * dObjAnimMatStride)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.Surfaces, _, err = registry.ResolvePointer(s, reg, base+6, nil, func() ([]byte, error) {
		return s.ReadBytes(surfSlots * xSurfaceStride)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	// material_handles is an array of surfCount pointer words, each itself
	// a Material pointer-sentinel resolved independently (not a single fat
	// pointer over a fixed-stride element type).
	materialHandles, _, err := registry.ResolvePointer(s, reg, base+7, nil, func() ([]*techset.Material, error) {
		return stream.ReadArray(surfSlots, func() (*techset.Material, error) {
			mat, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindMaterial), nil, func() (*techset.Material, error) {
				return techset.DecodeMaterial(s, reg, pool, d)
			})
			return mat, err
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.MaterialHandles = materialHandles

	for i := range m.LodInfo {
		if m.LodInfo[i], err = decodeXModelLodInfo(s); err != nil {
			return nil, d.Fatal(err)
		}
	}

	loadDist, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.LoadDistAutoGen = loadDist[0] != 0

	// coll_surfs is a FatPointerCountLastU32<XModelCollSurfRaw>: the pointer
	// word precedes its element count, and the count is a plain trailing
	// field not itself sentinel-gated.
	collSurfsPtr, err := s.ReadPointer()
	if err != nil {
		return nil, d.Fatal(err)
	}
	collSurfCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	switch collSurfsPtr {
	case stream.SentinelInline:
		if m.CollSurfs, err = s.ReadBytes(int(collSurfCount) * collSurfStride); err != nil {
			return nil, d.Fatal(err)
		}
	case stream.SentinelAlreadyLoaded:
		return nil, d.Fatal(fmt.Errorf("%w: already-loaded sentinel for identity-less collision surface table", xfileerr.ErrIllegalSentinel))
	default:
	}

	if m.Contents, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	m.BoneInfo, _, err = registry.ResolvePointer(s, reg, base+8, nil, func() ([]byte, error) {
		return s.ReadBytes(boneSlots * xBoneInfoStride)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	if m.Radius, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	for i := range m.Mins {
		if m.Mins[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	for i := range m.Maxs {
		if m.Maxs[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	if m.NumLods, err = s.ReadI16(); err != nil {
		return nil, d.Fatal(err)
	}
	if m.CollLod, err = s.ReadI16(); err != nil {
		return nil, d.Fatal(err)
	}
	streamInfo, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.StreamInfo = XModelStreamInfo{Packed: streamInfo}
	if m.MemUsage, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if m.Flags, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	badAndPad, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.Bad = badAndPad[0] != 0

	physPreset, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindPhysPreset), nil, func() (*PhysPreset, error) {
		return DecodePhysPreset(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.PhysPreset = physPreset

	// collmaps is a FatPointerCountFirstU32<CollmapRaw>: count precedes the
	// pointer word.
	collmapCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.Collmaps, _, err = registry.ResolvePointer(s, reg, base+9, nil, func() ([]byte, error) {
		return s.ReadBytes(int(collmapCount) * collmapStride)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	physConstraints, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindPhysConstraints), nil, func() (*PhysConstraints, error) {
		return DecodePhysConstraints(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.PhysConstraints = physConstraints

	return m, nil
}

func decodeXModelLodInfo(s *stream.Stream) (XModelLodInfo, error) {
	var l XModelLodInfo
	var err error
	if l.Dist, err = s.ReadF32(); err != nil {
		return l, err
	}
	if l.NumSurfs, err = s.ReadU16(); err != nil {
		return l, err
	}
	if l.SurfIndex, err = s.ReadU16(); err != nil {
		return l, err
	}
	for i := range l.PartBits {
		if l.PartBits[i], err = s.ReadI32(); err != nil {
			return l, err
		}
	}
	lodByte, err := s.ReadBytes(4)
	if err != nil {
		return l, err
	}
	l.Lod = lodByte[0]
	return l, nil
}
