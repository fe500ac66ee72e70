// Package destructible decodes DestructibleDef, the breakable-prop asset:
// a set of staged pieces, each stage carrying its own break effects, sounds
// and spawned debris model. Grounded on destructible.rs.
package destructible

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/fx"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/xmodel"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// MaxDestructionStages bounds the fixed stage array every piece carries,
// and MaxSpawnModels bounds each stage's debris-model choices.
const (
	MaxDestructionStages = 5
	MaxSpawnModels       = 3
)

// DestructibleStage is one breakage threshold: the bone it hides, the
// effect/sounds it triggers, and the debris model it may spawn.
type DestructibleStage struct {
	ShowBone    uint16 // ScriptString
	BreakHealth float32
	MaxTime     float32
	Flags       uint32
	BreakEffect *fx.FxEffectDef
	BreakSound  string
	BreakNotify string
	LoopSound   string
	SpawnModel  [MaxSpawnModels]*xmodel.XModel
	PhysPreset  *xmodel.PhysPreset
}

// DestructiblePiece is one independently breakable chunk of a destructible
// object, with its own five-stage breakage ramp.
type DestructiblePiece struct {
	Stages                [MaxDestructionStages]DestructibleStage
	ParentPiece           uint8
	ParentDamagePercent   float32
	BulletDamageScale     float32
	ExplosiveDamageScale  float32
	MeleeDamageScale      float32
	ImpactDamageScale     float32
	EntityDamageTransfer  float32
	PhysConstraints       *xmodel.PhysConstraints
	Health                int32
	DamageSound           string
	BurnEffect            *fx.FxEffectDef
	BurnSound             string
	EnableLabel           uint16
	HideBones             [5]int32
}

// DestructibleDef is the full breakable object: its intact and pristine
// (undamaged, for cinematic reset) models, and its piece table.
type DestructibleDef struct {
	Name           string
	Model          *xmodel.XModel
	PristineModel  *xmodel.XModel
	Pieces         []DestructiblePiece
	ClientOnly     bool
}

func init() {
	assets.Register(assets.KindDestructibleDef, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeDestructibleDef(s, reg, pool, d)
	})
}

// DecodeDestructibleDef decodes one DestructibleDef record in engine
// declaration order.
func DecodeDestructibleDef(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*DestructibleDef, error) {
	d.Push("DestructibleDef")
	defer d.Pop()

	def := &DestructibleDef{}
	var err error

	if def.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	model, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindXModel), nil, func() (*xmodel.XModel, error) {
		return xmodel.DecodeXModel(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	def.Model = model

	pristine, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindXModel), nil, func() (*xmodel.XModel, error) {
		return xmodel.DecodeXModel(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	def.PristineModel = pristine

	pieceCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	pieces, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindDestructibleDef), nil, func() ([]DestructiblePiece, error) {
		return stream.ReadArray(int(pieceCount), func() (DestructiblePiece, error) {
			return decodeDestructiblePiece(s, reg, pool, d)
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	def.Pieces = pieces

	clientOnly, err := s.ReadI32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	def.ClientOnly = clientOnly != 0

	return def, nil
}

func decodeDestructiblePiece(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (DestructiblePiece, error) {
	var p DestructiblePiece
	var err error

	for i := range p.Stages {
		if p.Stages[i], err = decodeDestructibleStage(s, reg, pool, d); err != nil {
			return p, err
		}
	}

	parentAndPad, err := s.ReadBytes(4)
	if err != nil {
		return p, err
	}
	p.ParentPiece = parentAndPad[0]

	if p.ParentDamagePercent, err = s.ReadF32(); err != nil {
		return p, err
	}
	if p.BulletDamageScale, err = s.ReadF32(); err != nil {
		return p, err
	}
	if p.ExplosiveDamageScale, err = s.ReadF32(); err != nil {
		return p, err
	}
	if p.MeleeDamageScale, err = s.ReadF32(); err != nil {
		return p, err
	}
	if p.ImpactDamageScale, err = s.ReadF32(); err != nil {
		return p, err
	}
	if p.EntityDamageTransfer, err = s.ReadF32(); err != nil {
		return p, err
	}

	physConstraints, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindPhysConstraints), nil, func() (*xmodel.PhysConstraints, error) {
		return xmodel.DecodePhysConstraints(s, reg, pool, d)
	})
	if err != nil {
		return p, err
	}
	p.PhysConstraints = physConstraints

	if p.Health, err = s.ReadI32(); err != nil {
		return p, err
	}
	if p.DamageSound, err = pool.ReadXString(s); err != nil {
		return p, err
	}

	burnEffect, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindFx), nil, func() (*fx.FxEffectDef, error) {
		return fx.DecodeFxEffectDef(s, reg, pool, d)
	})
	if err != nil {
		return p, err
	}
	p.BurnEffect = burnEffect

	if p.BurnSound, err = pool.ReadXString(s); err != nil {
		return p, err
	}
	if p.EnableLabel, err = s.ReadU16(); err != nil {
		return p, err
	}
	if _, err = s.ReadBytes(2); err != nil {
		return p, err
	}
	for i := range p.HideBones {
		if p.HideBones[i], err = s.ReadI32(); err != nil {
			return p, err
		}
	}

	return p, nil
}

func decodeDestructibleStage(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (DestructibleStage, error) {
	var st DestructibleStage
	var err error

	if st.ShowBone, err = s.ReadU16(); err != nil {
		return st, err
	}
	if _, err = s.ReadBytes(2); err != nil {
		return st, err
	}
	if st.BreakHealth, err = s.ReadF32(); err != nil {
		return st, err
	}
	if st.MaxTime, err = s.ReadF32(); err != nil {
		return st, err
	}
	if st.Flags, err = s.ReadU32(); err != nil {
		return st, err
	}

	breakEffect, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindFx), nil, func() (*fx.FxEffectDef, error) {
		return fx.DecodeFxEffectDef(s, reg, pool, d)
	})
	if err != nil {
		return st, err
	}
	st.BreakEffect = breakEffect

	if st.BreakSound, err = pool.ReadXString(s); err != nil {
		return st, err
	}
	if st.BreakNotify, err = pool.ReadXString(s); err != nil {
		return st, err
	}
	if st.LoopSound, err = pool.ReadXString(s); err != nil {
		return st, err
	}

	for i := range st.SpawnModel {
		model, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindXModel), nil, func() (*xmodel.XModel, error) {
			return xmodel.DecodeXModel(s, reg, pool, d)
		})
		if err != nil {
			return st, err
		}
		st.SpawnModel[i] = model
	}

	physPreset, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindPhysPreset), nil, func() (*xmodel.PhysPreset, error) {
		return xmodel.DecodePhysPreset(s, reg, pool, d)
	})
	if err != nil {
		return st, err
	}
	st.PhysPreset = physPreset

	return st, nil
}
