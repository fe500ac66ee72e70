// Package xmodel decodes the skeletal-mesh and rigid-body asset family:
// XModel, PhysPreset and PhysConstraints. Grounded on xmodel.rs.
package xmodel

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// PhysPreset is one named rigid-body material preset: mass, friction,
// restitution and the buoyancy box used by ragdoll and debris physics.
type PhysPreset struct {
	Name                  string
	Flags                 int32
	Mass                  float32
	Bounce                float32
	Friction              float32
	BulletForceScale      float32
	ExplosiveForceScale   float32
	SndAliasPrefix        string
	PiecesSpreadFraction  float32
	PiecesUpwardVelocity  float32
	CanFloat              int32
	GravityScale          float32
	CenterOfMassOffset    [3]float32
	BuoyancyBoxMin        [3]float32
	BuoyancyBoxMax        [3]float32
}

func init() {
	assets.Register(assets.KindPhysPreset, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodePhysPreset(s, reg, pool, d)
	})
}

// DecodePhysPreset decodes one PhysPreset record in engine declaration
// order.
func DecodePhysPreset(s *stream.Stream, _ *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*PhysPreset, error) {
	d.Push("PhysPreset")
	defer d.Pop()

	p := &PhysPreset{}
	var err error

	if p.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if p.Flags, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.Mass, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.Bounce, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.Friction, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.BulletForceScale, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.ExplosiveForceScale, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.SndAliasPrefix, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if p.PiecesSpreadFraction, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.PiecesUpwardVelocity, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.CanFloat, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if p.GravityScale, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	for i := range p.CenterOfMassOffset {
		if p.CenterOfMassOffset[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	for i := range p.BuoyancyBoxMin {
		if p.BuoyancyBoxMin[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	for i := range p.BuoyancyBoxMax {
		if p.BuoyancyBoxMax[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}

	return p, nil
}
