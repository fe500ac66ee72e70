// Package techset decodes the shader/material/image family of asset
// kinds, grounded on techset.rs: Material, MaterialTechniqueSet,
// MaterialTechnique, MaterialPass and GfxImage.
package techset

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// Picmip is the texture's min/max mip-bias pair.
type Picmip struct {
	Min, Max int8
}

// CardMemory is the platform texture-memory usage pair.
type CardMemory struct {
	PlatformLoadSize, PlatformInfo uint32
}

// GfxImage is a loaded texture and its streaming/quality metadata. The
// pixel data itself is never embedded in the XFile - only the GfxTexture
// union token that names which renderer resource type owns it - so the
// actual bitmap bytes are out of scope.
type GfxImage struct {
	Texture          uint32 // opaque GfxTexture union discriminant/handle
	MapType          uint8
	Semantic         uint8
	Category         uint8
	DelayLoadPixels  bool
	Picmip           Picmip
	NoPicmip         bool
	Track            uint8
	CardMemory       CardMemory
	Width            uint16
	Height           uint16
	Depth            uint16
	LevelCount       uint8
	Streaming        bool
	BaseSize         uint32
	LoadedSize       uint32
	SkippedMipLevels uint8
	Name             string
	Hash             uint32
}

func init() {
	assets.Register(assets.KindImage, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeGfxImage(s, reg, pool, d)
	})
}

// DecodeGfxImage decodes one GfxImage record in engine declaration order.
func DecodeGfxImage(s *stream.Stream, _ *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*GfxImage, error) {
	d.Push("GfxImage")
	defer d.Pop()

	img := &GfxImage{}

	texture, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	img.Texture = texture

	bytes6, err := s.ReadBytes(6)
	if err != nil {
		return nil, d.Fatal(err)
	}
	img.MapType = bytes6[0]
	img.Semantic = bytes6[1]
	img.Category = bytes6[2]
	img.DelayLoadPixels = bytes6[3] != 0
	img.Picmip = Picmip{Min: int8(bytes6[4]), Max: 0}
	img.NoPicmip = bytes6[5] != 0

	track, err := s.ReadU8()
	if err != nil {
		return nil, d.Fatal(err)
	}
	img.Track = track

	cardMem, err := s.ReadBytes(8)
	if err != nil {
		return nil, d.Fatal(err)
	}
	img.CardMemory = CardMemory{
		PlatformLoadSize: uint32(cardMem[0]) | uint32(cardMem[1])<<8 | uint32(cardMem[2])<<16 | uint32(cardMem[3])<<24,
		PlatformInfo:     uint32(cardMem[4]) | uint32(cardMem[5])<<8 | uint32(cardMem[6])<<16 | uint32(cardMem[7])<<24,
	}

	if img.Width, err = s.ReadU16(); err != nil {
		return nil, d.Fatal(err)
	}
	if img.Height, err = s.ReadU16(); err != nil {
		return nil, d.Fatal(err)
	}
	if img.Depth, err = s.ReadU16(); err != nil {
		return nil, d.Fatal(err)
	}

	levelAndStream, err := s.ReadBytes(2)
	if err != nil {
		return nil, d.Fatal(err)
	}
	img.LevelCount = levelAndStream[0]
	img.Streaming = levelAndStream[1] != 0

	if img.BaseSize, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	// pixels Ptr32<u8>: never embedded inline on PC, consumed and discarded.
	if _, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if img.LoadedSize, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	skippedAndPad, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	img.SkippedMipLevels = skippedAndPad[0]

	if img.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if img.Hash, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}

	return img, nil
}
