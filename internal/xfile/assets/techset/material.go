package techset

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// MaxTechniques bounds the fixed techniques array carried by every
// MaterialTechniqueSet.
const MaxTechniques = 130

// GfxDrawSurf is an opaque 64-bit packed sort/surface key; the engine packs
// render-sort order and surface type into its bits, but nothing in this
// decoder's scope needs the individual fields.
type GfxDrawSurf struct {
	Fields uint64
}

// MaterialInfo is the fixed header every Material carries ahead of its
// texture/constant/state-bits tables.
type MaterialInfo struct {
	Name                      string
	GameFlags                 uint32
	SortKey                   uint8
	TextureAtlasRowCount      uint8
	TextureAtlasColumnCount   uint8
	DrawSurf                  GfxDrawSurf
	SurfaceTypeBits           uint32
	LayeredSurfaceTypes       uint32
	HashIndex                 uint16
}

// semanticWaterMap is the MaterialTextureDef.Semantic value that selects the
// Water variant of the texture slot's info pointer instead of GfxImage.
const semanticWaterMap = 0x0B

// Water is a simulated water surface's FFT wave state and backing image.
type Water struct {
	FloatTime    float32
	H0           []byte // Ptr32<Complex[m*n]>, opaque, 8-byte stride
	WTerm        []byte // Ptr32<f32[m*n]>
	M, N         int32
	Lx, Ly       float32
	Gravity      float32
	Windvel      float32
	WindDir      [2]float32
	Amplitude    float32
	CodeConstant [4]float32
	Image        *GfxImage
}

// MaterialTextureDef binds one texture sampler slot to either a GfxImage or,
// for the water-map semantic, a Water simulation record.
type MaterialTextureDef struct {
	NameHash        uint32
	NameStart       int8
	NameEnd         int8
	SamplerState    uint8
	Semantic        uint8
	IsMatureContent bool
	Image           *GfxImage
	Water           *Water
}

// MaterialConstantDef is one named shader constant literal.
type MaterialConstantDef struct {
	NameHash uint32
	Name     [12]byte
	Literal  [4]float32
}

// GfxStateBits is the packed blend/depth/alpha-test render-state word pair.
type GfxStateBits struct {
	LoadBits [2]uint32
}

// Material is a fully resolved shader material: its fixed info header, the
// per-technique state-bits lookup table, and its texture/constant/state
// tables.
type Material struct {
	Info             MaterialInfo
	StateBitsEntry   [MaxTechniques]uint8
	Textures         []MaterialTextureDef
	Constants        []MaterialConstantDef
	StateBits        []GfxStateBits
	StateFlags       uint8
	CameraRegion     uint8
	MaxStreamedMips  uint8
	TechniqueSetName string
	TechniqueSet     *MaterialTechniqueSet
}

func init() {
	assets.Register(assets.KindMaterial, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeMaterial(s, reg, pool, d)
	})
}

func decodeMaterialInfo(s *stream.Stream, pool *strpool.Pool, d *diag.Diagnostics) (MaterialInfo, error) {
	d.Push("MaterialInfo")
	defer d.Pop()

	var info MaterialInfo
	var err error
	if info.Name, err = pool.ReadXString(s); err != nil {
		return info, err
	}
	if info.GameFlags, err = s.ReadU32(); err != nil {
		return info, err
	}
	// pad u8, sort_key u8, row_count u8, column_count u8
	b, err := s.ReadBytes(4)
	if err != nil {
		return info, err
	}
	info.SortKey = b[1]
	info.TextureAtlasRowCount = b[2]
	info.TextureAtlasColumnCount = b[3]

	drawSurf, err := s.ReadU64()
	if err != nil {
		return info, err
	}
	info.DrawSurf = GfxDrawSurf{Fields: drawSurf}

	if info.SurfaceTypeBits, err = s.ReadU32(); err != nil {
		return info, err
	}
	if info.LayeredSurfaceTypes, err = s.ReadU32(); err != nil {
		return info, err
	}
	hashAndPad, err := s.ReadBytes(8)
	if err != nil {
		return info, err
	}
	info.HashIndex = uint16(hashAndPad[0]) | uint16(hashAndPad[1])<<8

	return info, nil
}

// DecodeMaterial decodes one Material record. Each texture slot's
// GfxImage/Water is resolved inline here rather than through the top-level
// asset-list dispatch, since it is never itself a top-level asset entry.
func DecodeMaterial(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*Material, error) {
	d.Push("Material")
	defer d.Pop()

	m := &Material{}
	var err error

	if m.Info, err = decodeMaterialInfo(s, pool, d); err != nil {
		return nil, d.Fatal(err)
	}

	stateBitsEntry, err := s.ReadBytes(MaxTechniques)
	if err != nil {
		return nil, d.Fatal(err)
	}
	copy(m.StateBitsEntry[:], stateBitsEntry)

	counts, err := s.ReadBytes(6)
	if err != nil {
		return nil, d.Fatal(err)
	}
	textureCount := int(counts[0])
	constantCount := int(counts[1])
	stateBitsCount := int(counts[2])
	m.StateFlags = counts[3]
	m.CameraRegion = counts[4]
	m.MaxStreamedMips = counts[5]

	// The engine writes the technique set's name as a sibling field ahead of
	// the technique set pointer itself, specifically so that an already-loaded
	// sentinel on the pointer has something to look the referent up by; it
	// must be read before ResolvePointer touches the pointer word.
	if m.TechniqueSetName, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	techSet, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindTechniqueSet), techniqueSetIdentity(m.TechniqueSetName), func() (*MaterialTechniqueSet, error) {
		return decodeMaterialTechniqueSet(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	m.TechniqueSet = techSet

	m.Textures, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindImage), nil, func() ([]MaterialTextureDef, error) {
		return stream.ReadArray(textureCount, func() (MaterialTextureDef, error) {
			return decodeMaterialTextureDef(s, reg, pool, d)
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	m.Constants, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindMaterial), nil, func() ([]MaterialConstantDef, error) {
		return stream.ReadArray(constantCount, func() (MaterialConstantDef, error) {
			return decodeMaterialConstantDef(s)
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	m.StateBits, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindMaterial), nil, func() ([]GfxStateBits, error) {
		return stream.ReadArray(stateBitsCount, func() (GfxStateBits, error) {
			a, err := s.ReadU32()
			if err != nil {
				return GfxStateBits{}, err
			}
			b, err := s.ReadU32()
			if err != nil {
				return GfxStateBits{}, err
			}
			return GfxStateBits{LoadBits: [2]uint32{a, b}}, nil
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	return m, nil
}

// techniqueSetIdentity carries the name read from the Material's own
// TechniqueSetName sibling field as the registry identity for its technique
// set pointer, on both the inline-register and already-loaded-lookup paths.
func techniqueSetIdentity(name string) func() (string, error) {
	return func() (string, error) { return name, nil }
}

func decodeMaterialTextureDef(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (MaterialTextureDef, error) {
	var t MaterialTextureDef
	var err error
	if t.NameHash, err = s.ReadU32(); err != nil {
		return t, err
	}
	b, err := s.ReadBytes(4)
	if err != nil {
		return t, err
	}
	t.NameStart = int8(b[0])
	t.NameEnd = int8(b[1])
	t.SamplerState = b[2]
	t.Semantic = b[3]
	matureAndPad, err := s.ReadBytes(4)
	if err != nil {
		return t, err
	}
	t.IsMatureContent = matureAndPad[0] != 0

	// u is a bare Ptr32<()>, cast to GfxImageRaw or WaterRaw depending on
	// the semantic read just above.
	if t.Semantic == semanticWaterMap {
		t.Water, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindImage)+1, nil, func() (*Water, error) {
			return decodeWater(s, reg, pool, d)
		})
	} else {
		t.Image, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindImage), nil, func() (*GfxImage, error) {
			return DecodeGfxImage(s, reg, pool, d)
		})
	}
	if err != nil {
		return t, err
	}
	return t, nil
}

func decodeWater(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*Water, error) {
	w := &Water{}
	var err error
	if w.FloatTime, err = s.ReadF32(); err != nil {
		return nil, err
	}

	h0Ptr, err := s.ReadPointer()
	if err != nil {
		return nil, err
	}
	wTermPtr, err := s.ReadPointer()
	if err != nil {
		return nil, err
	}
	if w.M, err = s.ReadI32(); err != nil {
		return nil, err
	}
	if w.N, err = s.ReadI32(); err != nil {
		return nil, err
	}
	elems := int(w.M) * int(w.N)

	switch h0Ptr {
	case stream.SentinelInline:
		if w.H0, err = s.ReadBytes(elems * 8); err != nil {
			return nil, err
		}
	case stream.SentinelAlreadyLoaded:
		return nil, xfileerr.ErrIllegalSentinel
	default:
	}
	switch wTermPtr {
	case stream.SentinelInline:
		if w.WTerm, err = s.ReadBytes(elems * 4); err != nil {
			return nil, err
		}
	case stream.SentinelAlreadyLoaded:
		return nil, xfileerr.ErrIllegalSentinel
	default:
	}

	if w.Lx, err = s.ReadF32(); err != nil {
		return nil, err
	}
	if w.Ly, err = s.ReadF32(); err != nil {
		return nil, err
	}
	if w.Gravity, err = s.ReadF32(); err != nil {
		return nil, err
	}
	if w.Windvel, err = s.ReadF32(); err != nil {
		return nil, err
	}
	for i := range w.WindDir {
		if w.WindDir[i], err = s.ReadF32(); err != nil {
			return nil, err
		}
	}
	if w.Amplitude, err = s.ReadF32(); err != nil {
		return nil, err
	}
	for i := range w.CodeConstant {
		if w.CodeConstant[i], err = s.ReadF32(); err != nil {
			return nil, err
		}
	}

	w.Image, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindImage), nil, func() (*GfxImage, error) {
		return DecodeGfxImage(s, reg, pool, d)
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

func decodeMaterialConstantDef(s *stream.Stream) (MaterialConstantDef, error) {
	var c MaterialConstantDef
	var err error
	if c.NameHash, err = s.ReadU32(); err != nil {
		return c, err
	}
	name, err := s.ReadBytes(12)
	if err != nil {
		return c, err
	}
	copy(c.Name[:], name)
	for i := range c.Literal {
		v, err := s.ReadF32()
		if err != nil {
			return c, err
		}
		c.Literal[i] = v
	}
	return c, nil
}
