package techset

import (
	"fmt"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// MaterialVertexDecl is the fixed-shape vertex declaration record a pass's
// vertex_decl pointer leads to. It is read as a raw struct with no further
// transform, same as the engine's own Ptr32::xfile_get.
type MaterialVertexDecl struct {
	Raw []byte
}

// MaterialVertexShader is a named vertex shader binding: its GPU program
// handle (opaque, never walked) and its microcode word count.
type MaterialVertexShader struct {
	Name         string
	ProgramWords uint32
}

// MaterialPixelShader mirrors MaterialVertexShader for the pixel stage.
type MaterialPixelShader struct {
	Name         string
	ProgramWords uint32
}

// MaterialShaderArgument is one inline shader-constant binding: which
// argument slot (dest) gets which source (u), tagged by arg_type.
type MaterialShaderArgument struct {
	ArgType uint16
	Dest    uint16
	U       uint32
}

// MaterialPass binds one render pass's vertex declaration and shader
// pointers plus its inline shader-argument table. The GPU program handle
// word inside each shader record is an opaque driver handle with no
// further structure this decoder needs to expose, but the vertex
// declaration and shader records are genuine pointer-sentinel fields and
// are walked like every other asset reference. The argument records are
// not pointer-indirected: a plain flag word says whether they follow inline.
type MaterialPass struct {
	VertexDecl         *MaterialVertexDecl
	VertexShader       *MaterialVertexShader
	PixelShader        *MaterialPixelShader
	PerPrimArgCount    uint8
	PerObjArgCount     uint8
	StableArgCount     uint8
	CustomSamplerFlags uint8
	Args               []MaterialShaderArgument
}

// MaterialTechnique is one named rendering technique: a flexible array of
// passes, declared inline (not pointer-indirected) after the technique's
// name, flags and pass count on the wire.
type MaterialTechnique struct {
	Name  string
	Flags uint16
	Passes []MaterialPass
}

// MaterialTechniqueSet is the fixed-size (MaxTechniques) technique lookup
// table every Material points at.
type MaterialTechniqueSet struct {
	Name             string
	WorldVertFormat  uint8
	TechsetFlags     uint16
	Techniques       []*MaterialTechnique
}

func init() {
	assets.Register(assets.KindTechniqueSet, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return decodeMaterialTechniqueSet(s, reg, pool, d)
	})
}

func decodeMaterialTechniqueSet(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*MaterialTechniqueSet, error) {
	d.Push("MaterialTechniqueSet")
	defer d.Pop()

	ts := &MaterialTechniqueSet{}
	var err error
	if ts.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	flagsBytes, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	ts.WorldVertFormat = flagsBytes[0]
	ts.TechsetFlags = uint16(flagsBytes[2]) | uint16(flagsBytes[3])<<8

	ts.Techniques = make([]*MaterialTechnique, 0, MaxTechniques)
	for i := 0; i < MaxTechniques; i++ {
		tech, ok, err := registry.ResolvePointer(s, reg, uint32(assets.KindTechniqueSet)+1000, nil, func() (*MaterialTechnique, error) {
			return decodeMaterialTechnique(s, reg, pool)
		})
		if err != nil {
			return nil, d.Fatal(err)
		}
		if ok {
			ts.Techniques = append(ts.Techniques, tech)
		}
	}

	return ts, nil
}

func decodeMaterialTechnique(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool) (*MaterialTechnique, error) {
	t := &MaterialTechnique{}
	var err error

	if t.Name, err = pool.ReadXString(s); err != nil {
		return nil, err
	}

	flags, err := s.ReadU16()
	if err != nil {
		return nil, err
	}
	t.Flags = flags

	passCount, err := s.ReadU16()
	if err != nil {
		return nil, err
	}

	t.Passes, err = stream.ReadArray(int(passCount), func() (MaterialPass, error) {
		return decodeMaterialPass(s, reg, pool)
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// materialVertexDeclSize is MaterialVertexDeclaration's fixed wire size
// (stream_count, has_optional_source, is_loaded, unused padding, and the
// per-stream routing table) when decoded inline.
const materialVertexDeclSize = 108

func decodeMaterialVertexDecl(s *stream.Stream) (*MaterialVertexDecl, error) {
	raw, err := s.ReadBytes(materialVertexDeclSize)
	if err != nil {
		return nil, err
	}
	return &MaterialVertexDecl{Raw: raw}, nil
}

// decodeGfxShaderLoadDef reads a GfxVertexShaderLoadDefRaw/
// GfxPixelShaderLoadDefRaw: a bare, never-walked GPU program handle word
// followed by a FatPointerCountLastU32<u32> program table (pointer word
// first, word count second; count is a plain trailing field, not itself
// sentinel-gated). When the pointer is inline, its referent is the
// microcode's program-word array immediately following the count.
func decodeGfxShaderLoadDef(s *stream.Stream) (uint32, error) {
	if _, err := s.ReadU32(); err != nil { // vs/ps: opaque GPU handle, never walked
		return 0, err
	}
	ptr, err := s.ReadPointer()
	if err != nil {
		return 0, err
	}
	count, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	switch ptr {
	case stream.SentinelInline:
		if err := s.AlignTo(4); err != nil {
			return 0, err
		}
		if _, err := s.ReadBytes(int(count) * 4); err != nil {
			return 0, err
		}
	case stream.SentinelAlreadyLoaded:
		return 0, fmt.Errorf("%w: already-loaded sentinel for identity-less shader program table", xfileerr.ErrIllegalSentinel)
	default:
	}
	return count, nil
}

func decodeMaterialVertexShader(s *stream.Stream, pool *strpool.Pool) (*MaterialVertexShader, error) {
	vs := &MaterialVertexShader{}
	var err error
	if vs.Name, err = pool.ReadXString(s); err != nil {
		return nil, err
	}
	if vs.ProgramWords, err = decodeGfxShaderLoadDef(s); err != nil {
		return nil, err
	}
	return vs, nil
}

func decodeMaterialPixelShader(s *stream.Stream, pool *strpool.Pool) (*MaterialPixelShader, error) {
	ps := &MaterialPixelShader{}
	var err error
	if ps.Name, err = pool.ReadXString(s); err != nil {
		return nil, err
	}
	if ps.ProgramWords, err = decodeGfxShaderLoadDef(s); err != nil {
		return nil, err
	}
	return ps, nil
}

func decodeMaterialShaderArgument(s *stream.Stream) (MaterialShaderArgument, error) {
	var a MaterialShaderArgument
	var err error
	if a.ArgType, err = s.ReadU16(); err != nil {
		return a, err
	}
	if a.Dest, err = s.ReadU16(); err != nil {
		return a, err
	}
	if a.U, err = s.ReadU32(); err != nil {
		return a, err
	}
	return a, nil
}

func decodeMaterialPass(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool) (MaterialPass, error) {
	var p MaterialPass
	var err error

	p.VertexDecl, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindTechniqueSet)+1002, nil, func() (*MaterialVertexDecl, error) {
		return decodeMaterialVertexDecl(s)
	})
	if err != nil {
		return p, err
	}

	p.VertexShader, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindTechniqueSet)+1003, nil, func() (*MaterialVertexShader, error) {
		return decodeMaterialVertexShader(s, pool)
	})
	if err != nil {
		return p, err
	}

	p.PixelShader, _, err = registry.ResolvePointer(s, reg, uint32(assets.KindTechniqueSet)+1004, nil, func() (*MaterialPixelShader, error) {
		return decodeMaterialPixelShader(s, pool)
	})
	if err != nil {
		return p, err
	}

	counts, err := s.ReadBytes(4)
	if err != nil {
		return p, err
	}
	p.PerPrimArgCount = counts[0]
	p.PerObjArgCount = counts[1]
	p.StableArgCount = counts[2]
	p.CustomSamplerFlags = counts[3]

	// args is not a pointer sentinel: it is a plain nonzero/zero flag. When
	// set, per_prim/per_obj/stable arg counts give the number of inline
	// MaterialShaderArgumentRaw records that follow directly, with no
	// pointer word of their own.
	args, err := s.ReadU32()
	if err != nil {
		return p, err
	}
	if args != 0 {
		argc := int(p.PerPrimArgCount) + int(p.PerObjArgCount) + int(p.StableArgCount)
		p.Args, err = stream.ReadArray(argc, func() (MaterialShaderArgument, error) {
			return decodeMaterialShaderArgument(s)
		})
		if err != nil {
			return p, err
		}
	}

	return p, nil
}
