// Package font decodes Font, the bitmap-font asset used by the UI and HUD
// renderer. Grounded on font.rs.
package font

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/techset"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// Glyph is one character cell in a Font's atlas: its advance width, pixel
// box, and UV rectangle into the font's glyph atlas image.
type Glyph struct {
	Letter      uint16
	X0, Y0      int8
	Dx          uint8
	PixelWidth  uint8
	PixelHeight uint8
	S0, T0      float32
	S1, T1      float32
}

// Font is a fixed-pixel-height bitmap font: its glyph table and the two
// atlas materials (normal and glow-pass) the glyphs are drawn from.
type Font struct {
	Name          string
	PixelHeight   int32
	GlyphCount    int32
	Material      *techset.Material
	GlowMaterial  *techset.Material
	Glyphs        []Glyph
}

func init() {
	assets.Register(assets.KindFont, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeFont(s, reg, pool, d)
	})
}

// DecodeFont decodes one Font record in engine declaration order.
func DecodeFont(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*Font, error) {
	d.Push("Font")
	defer d.Pop()

	f := &Font{}
	var err error

	if f.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if f.PixelHeight, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if f.GlyphCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}

	material, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindMaterial), nil, func() (*techset.Material, error) {
		return techset.DecodeMaterial(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	f.Material = material

	glowMaterial, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindMaterial), nil, func() (*techset.Material, error) {
		return techset.DecodeMaterial(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	f.GlowMaterial = glowMaterial

	glyphs, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindFont), nil, func() ([]Glyph, error) {
		return stream.ReadArray(int(f.GlyphCount), func() (Glyph, error) {
			return decodeGlyph(s)
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	f.Glyphs = glyphs

	return f, nil
}

func decodeGlyph(s *stream.Stream) (Glyph, error) {
	var g Glyph
	var err error
	if g.Letter, err = s.ReadU16(); err != nil {
		return g, err
	}
	bounds, err := s.ReadBytes(4)
	if err != nil {
		return g, err
	}
	g.X0 = int8(bounds[0])
	g.Y0 = int8(bounds[1])
	g.Dx = bounds[2]
	g.PixelWidth = bounds[3]
	pixelHeight, err := s.ReadU8()
	if err != nil {
		return g, err
	}
	g.PixelHeight = pixelHeight
	if _, err = s.ReadBytes(3); err != nil {
		return g, err
	}
	if g.S0, err = s.ReadF32(); err != nil {
		return g, err
	}
	if g.T0, err = s.ReadF32(); err != nil {
		return g, err
	}
	if g.S1, err = s.ReadF32(); err != nil {
		return g, err
	}
	if g.T1, err = s.ReadF32(); err != nil {
		return g, err
	}
	return g, nil
}
