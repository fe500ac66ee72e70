// Package fx decodes the particle-effect asset family: FxEffectDef and
// FxImpactTable. Grounded on fx.rs.
package fx

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// NonfleshImpactSlots and FleshImpactSlots size the two fixed impact-entry
// arrays of a FxImpactTable: one slot per surface-type enum value.
const (
	NonfleshImpactSlots = 31
	FleshImpactSlots    = 4
)

// FxEffectDefFlags bits.
const (
	FxFlagNeedsLighting  uint8 = 0x01
	FxFlagIsSeeThruDecal uint8 = 0x02
)

// fxElemDefStride is FxElemDefRaw's fixed wire size (a 292-byte tagged union
// describing sprite/model/sound/decal/trail emission).
const fxElemDefStride = 292

// FxEffectDef is a particle-effect definition: its looping/one-shot/emission
// element counts and bounding volume. The element table itself (FxElemDef)
// is walked far enough to consume its inline bytes through the pointer-
// sentinel protocol, but kept as an opaque raw blob rather than decoded
// field-by-field - its per-element-type payload union has no further asset
// references this decoder's scope needs to expose. See DESIGN.md.
type FxEffectDef struct {
	Name                 string
	Flags                uint8
	EfPriority           uint8
	TotalSize            int32
	MsecLoopingLife      int32
	ElemDefCountLooping  int32
	ElemDefCountOneShot  int32
	ElemDefCountEmission int32
	ElemDefs             []byte // Ptr32<FxElemDefRaw[looping+one_shot+emission]>, opaque
	BoundingBoxDim       [3]float32
	BoundingSphere       [4]float32
}

func init() {
	assets.Register(assets.KindFx, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeFxEffectDef(s, reg, pool, d)
	})
	assets.Register(assets.KindImpactFx, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeFxImpactTable(s, reg, pool, d)
	})
}

// DecodeFxEffectDef decodes one FxEffectDef record in engine declaration
// order.
func DecodeFxEffectDef(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*FxEffectDef, error) {
	d.Push("FxEffectDef")
	defer d.Pop()

	e := &FxEffectDef{}
	var err error

	if e.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	flagsBytes, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	e.Flags = flagsBytes[0]
	e.EfPriority = flagsBytes[1]

	if e.TotalSize, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if e.MsecLoopingLife, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if e.ElemDefCountLooping, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if e.ElemDefCountOneShot, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if e.ElemDefCountEmission, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	elemCount := int(e.ElemDefCountLooping) + int(e.ElemDefCountOneShot) + int(e.ElemDefCountEmission)
	e.ElemDefs, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindFx)+1000, nil, func() ([]byte, error) {
		return s.ReadBytes(elemCount * fxElemDefStride)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	for i := range e.BoundingBoxDim {
		if e.BoundingBoxDim[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	for i := range e.BoundingSphere {
		if e.BoundingSphere[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}

	return e, nil
}

// FxImpactEntry maps one surface-type enum value to the nonflesh/flesh
// effect pair played on bullet impact.
type FxImpactEntry struct {
	Nonflesh [NonfleshImpactSlots]*FxEffectDef
	Flesh    [FleshImpactSlots]*FxEffectDef
}

// FxImpactTable is the fixed 21-row surface-type-to-effect lookup table
// used by the weapon impact system.
type FxImpactTable struct {
	Name  string
	Table []FxImpactEntry
}

// MaxImpactRows bounds the fixed row count of a FxImpactTable.
const MaxImpactRows = 21

// DecodeFxImpactTable decodes the name followed by the fixed 21-row table.
func DecodeFxImpactTable(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*FxImpactTable, error) {
	d.Push("FxImpactTable")
	defer d.Pop()

	t := &FxImpactTable{}
	var err error
	if t.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	t.Table, err = stream.ReadArray(MaxImpactRows, func() (FxImpactEntry, error) {
		return decodeFxImpactEntry(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	return t, nil
}

func decodeFxImpactEntry(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (FxImpactEntry, error) {
	var e FxImpactEntry
	for i := range e.Nonflesh {
		fx, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindFx), nil, func() (*FxEffectDef, error) {
			return DecodeFxEffectDef(s, reg, pool, d)
		})
		if err != nil {
			return e, err
		}
		e.Nonflesh[i] = fx
	}
	for i := range e.Flesh {
		fx, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindFx), nil, func() (*FxEffectDef, error) {
			return DecodeFxEffectDef(s, reg, pool, d)
		})
		if err != nil {
			return e, err
		}
		e.Flesh[i] = fx
	}
	return e, nil
}
