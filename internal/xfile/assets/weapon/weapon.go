// Package weapon decodes WeaponVariantDef, the weapon asset kind.
//
// weapon.rs was not retrieved alongside the rest of original_source, so
// this decoder's field set is not grounded on a verified wire layout.
// xasset.rs confirms only that the type carries an internal_name string
// used for display and a material reference among its sub-tables; beyond
// that it is decoded as the minimal shape every other named, variant-style
// asset in the catalogue shares: an identity string, a fixed-size header
// of weapon tuning scalars, and two pointer-sentineled named-asset
// references (a world XModel and an icon Material). This is a deliberate, documented approximation rather than
// a verified layout. See DESIGN.md.
package weapon

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/techset"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/xmodel"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// headerBlobSize is an approximated fixed-header size standing in for the
// block of rate-of-fire/damage/ammo tuning scalars every weapon variant
// carries. Picked to be comfortably larger than a handful of named fields
// without claiming to match a verified total.
const headerBlobSize = 128

// WeaponVariantDef is the approximated weapon asset shape: an identity
// string, an opaque tuning-scalar header, and the two named-asset
// references (world model, icon material) every weapon variant needs to
// render.
type WeaponVariantDef struct {
	InternalName string
	DisplayName  string
	Header       []byte
	WorldModel   *xmodel.XModel
	IconMaterial *techset.Material
}

func init() {
	assets.Register(assets.KindWeapon, decode)
	assets.Register(assets.KindWeaponDef, decode)
	assets.Register(assets.KindWeaponVariant, decode)
}

func decode(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
	return DecodeWeaponVariantDef(s, reg, pool, d)
}

// DecodeWeaponVariantDef decodes one WeaponVariantDef record per the
// approximated shape described in the package doc comment.
func DecodeWeaponVariantDef(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*WeaponVariantDef, error) {
	d.Push("WeaponVariantDef")
	defer d.Pop()

	w := &WeaponVariantDef{}
	var err error
	if w.InternalName, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if w.DisplayName, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if w.Header, err = s.ReadBytes(headerBlobSize); err != nil {
		return nil, d.Fatal(err)
	}

	worldModel, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindXModel), nil, func() (*xmodel.XModel, error) {
		return xmodel.DecodeXModel(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.WorldModel = worldModel

	iconMaterial, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindMaterial), nil, func() (*techset.Material, error) {
		return techset.DecodeMaterial(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.IconMaterial = iconMaterial

	return w, nil
}
