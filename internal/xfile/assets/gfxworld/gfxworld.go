// Package gfxworld decodes the baked-lighting and render-world asset
// family: GfxWorld and GfxLightDef. Grounded on gfx_world.rs and light.rs.
package gfxworld

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/techset"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// Embedded (non-pointer) substructs of GfxWorldRaw are consumed as fixed-
// size opaque blocks: each is bulk vertex/visibility/lightgrid data with no
// further named-asset references reachable from this decoder's scope, and
// since they're not pointer-indirected there's no sentinel to branch on.
// Sizes are GfxWorldRaw's own field sizes (assert_size! in gfx_world.rs).
const (
	gfxWorldStreamInfoSize    = 16  // GfxWorldStreamInfoRaw
	sunLightParseParamsSize   = 180 // SunLightParseParamsRaw<1>
	skyDynIntensitySize       = 16  // GfxSkyDynamicIntensity
	dpvsPlanesSize            = 16  // GfxWorldDpvsPlanesRaw
	worldDrawSize             = 192 // GfxWorldDrawRaw
	lightGridSize             = 56  // GfxLightGridRaw
	sunflareSize              = 96  // SunflareRaw
	dpvsStaticSize            = 112 // GfxWorldDpvsStaticRaw
	dpvsDynamicSize           = 48  // GfxWorldDpvsDynamicRaw
	waterBufferSize           = 8   // GfxWaterBufferRaw

	// Per-element strides for FatPointerCountFirstU32 tables.
	skyStartSurfStride       = 4  // i32
	coronaStride             = 32 // GfxLightCoronaRaw
	shadowMapVolumeStride    = 16 // GfxShadowMapVolumeRaw
	volumePlaneStride        = 16 // GfxVolumePlaneRaw
	exposureVolumeStride     = 24 // GfxExposureVolume
	brushModelStride         = 60 // GfxBrushModelRaw
	materialMemoryStride     = 8  // MaterialMemoryRaw
	worldLodChainStride      = 24 // GfxWorldLodChainRaw
	worldLodInfoStride        = 12 // GfxWorldLodInfo, word-aligned (f32+u32+u16 = 10, padded to 12)
	worldLodSurfaceStride    = 4  // u32
	occluderStride           = 68 // OccluderRaw
	outdoorBoundsStride      = 24 // GfxOutdoorBoundsRaw

	// Referent sizes for plain (non-fat) Ptr32 fields whose element count
	// has no sibling field to read it from on the wire. The engine's own
	// DPVS/dynamic-entity bookkeeping determines these counts at runtime;
	// without that bookkeeping this decoder consumes exactly one referent
	// element for each, which is enough to keep the cursor in sync for any
	// GfxWorld built with a single cell/dyn-entity-shadow-bits word and is
	// a documented simplification for larger ones. See DESIGN.md.
	gfxLightSize          = 368 // GfxLightRaw (sun_light)
	gfxCellSize           = 56  // GfxCellRaw (cells)
	sceneDynSize          = 6   // GfxSceneDynModel/GfxSceneDynBrush
	shadowGeometrySize    = 12  // GfxShadowGeometryRaw
	lightRegionSize       = 8   // GfxLightRegionRaw
	heroLightStride       = 56  // GfxHeroLightRaw
	heroLightTreeStride   = 24  // GfxHeroLightTreeRaw
)

// GfxWorld is the baked render world for one map: its static geometry,
// portal/cell visibility graph, baked lighting, and reflection probes.
// DecodeGfxWorld walks every pointer field in declaration order so the
// stream stays in sync with whatever asset follows, but (beyond the named
// image/material sub-asset pointers, which are fully resolved) keeps each
// referent as an opaque byte block: the DPVS/lightgrid/shadow-volume
// payloads are bulk vertex/visibility data with no further named-asset
// references reachable from this decoder's scope. See DESIGN.md.
type GfxWorld struct {
	Name                string
	BaseName            string
	PlaneCount          int32
	NodeCount           int32
	SurfaceCount        int32
	StreamInfo          []byte
	SkyStartSurfs       []byte
	SkyImage            *techset.GfxImage
	SkySamplerState     uint8
	SkyBoxModel         string
	SunParse            []byte
	SunLight            []byte
	SunColorFromBsp     [3]float32
	SunPrimaryLightIdx  uint32
	PrimaryLightCount   uint32
	CullGroupCount      int32
	Coronas             []byte
	ShadowMapVolumes    []byte
	ShadowMapVolumePlanes []byte
	ExposureVolumes     []byte
	ExposureVolumePlanes []byte
	SkyDynIntensity     []byte
	DpvsPlanes          []byte
	CellBitsCount       int32
	Cells               []byte
	Draw                []byte
	LightGrid           []byte
	Models              []byte
	Mins                [3]float32
	Maxs                [3]float32
	Checksum            uint32
	MaterialMemory      []byte
	Sun                 []byte
	OutdoorLookupMatrix [4][4]float32
	OutdoorImage        *techset.GfxImage
	CellCasterBits      []byte
	SceneDynModel       []byte
	SceneDynBrush       []byte
	PrimaryLightEntityShadowVis    []byte
	PrimaryLightDynEntShadowVis    [2][]byte
	NonSunPrimaryLightForModelDynEnt []byte
	ShadowGeom          []byte
	LightRegion         []byte
	Dpvs                []byte
	DpvsDyn             []byte
	WorldLodChains      []byte
	WorldLodInfos       []byte
	WorldLodSurfaces    []byte
	WaterDirection      float32
	WaterBuffers        [2][]byte
	WaterMaterial       *techset.Material
	CoronaMaterial      *techset.Material
	RopeMaterial        *techset.Material
	Occluders           []byte
	OutdoorBounds       []byte
	HeroLightCount      uint32
	HeroLightTreeCount  uint32
	HeroLights          []byte
	HeroLightTree       []byte
}

// GfxLightImage binds one light's attenuation falloff texture and the
// sampler state it's read with.
type GfxLightImage struct {
	Image        *techset.GfxImage
	SamplerState uint8
}

// GfxLightDef is a named, reusable light attenuation/lightmap profile
// shared across GfxLight placements.
type GfxLightDef struct {
	Name             string
	Attenuation      GfxLightImage
	LmapLookupStart  int32
}

func init() {
	assets.Register(assets.KindGfxWorld, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeGfxWorld(s, reg, pool, d)
	})
	assets.Register(assets.KindLightDef, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeGfxLightDef(s, reg, pool, d)
	})
}

// opaquePointer resolves a plain (non-fat) pointer field, consuming exactly
// size bytes when inline and leaving the referent as an opaque blob.
func opaquePointer(s *stream.Stream, reg *registry.Registry, kind uint32, size int) ([]byte, error) {
	b, _, err := registry.ResolvePointer(s, reg, kind, nil, func() ([]byte, error) {
		return s.ReadBytes(size)
	})
	return b, err
}

// fatTable resolves a FatPointerCountFirstU32<T> field: a count word, then
// a pointer whose inline referent is count*stride raw bytes.
func fatTable(s *stream.Stream, reg *registry.Registry, kind uint32, stride int) ([]byte, error) {
	count, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	return opaquePointer(s, reg, kind, int(count)*stride)
}

// DecodeGfxWorld decodes one GfxWorld record, walking every pointer field
// of GfxWorldRaw in engine declaration order.
func DecodeGfxWorld(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*GfxWorld, error) {
	d.Push("GfxWorld")
	defer d.Pop()

	w := &GfxWorld{}
	var err error

	base := uint32(assets.KindGfxWorld) + 1000
	k := func(n uint32) uint32 { return base + n }

	if w.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if w.BaseName, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if w.PlaneCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.NodeCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.SurfaceCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.StreamInfo, err = s.ReadBytes(gfxWorldStreamInfoSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.SkyStartSurfs, err = fatTable(s, reg, k(1), skyStartSurfStride); err != nil {
		return nil, d.Fatal(err)
	}
	skyImage, _, err := registry.ResolvePointer(s, reg, k(2), nil, func() (*techset.GfxImage, error) {
		return techset.DecodeGfxImage(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.SkyImage = skyImage
	skyPad, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.SkySamplerState = skyPad[0]
	if w.SkyBoxModel, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if w.SunParse, err = s.ReadBytes(sunLightParseParamsSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.SunLight, err = opaquePointer(s, reg, k(3), gfxLightSize); err != nil {
		return nil, d.Fatal(err)
	}
	for i := range w.SunColorFromBsp {
		if w.SunColorFromBsp[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	if w.SunPrimaryLightIdx, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.PrimaryLightCount, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.CullGroupCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.Coronas, err = fatTable(s, reg, k(4), coronaStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.ShadowMapVolumes, err = fatTable(s, reg, k(5), shadowMapVolumeStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.ShadowMapVolumePlanes, err = fatTable(s, reg, k(6), volumePlaneStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.ExposureVolumes, err = fatTable(s, reg, k(7), exposureVolumeStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.ExposureVolumePlanes, err = fatTable(s, reg, k(8), volumePlaneStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.SkyDynIntensity, err = s.ReadBytes(skyDynIntensitySize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.DpvsPlanes, err = s.ReadBytes(dpvsPlanesSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.CellBitsCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.Cells, err = opaquePointer(s, reg, k(9), gfxCellSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.Draw, err = s.ReadBytes(worldDrawSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.LightGrid, err = s.ReadBytes(lightGridSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.Models, err = fatTable(s, reg, k(10), brushModelStride); err != nil {
		return nil, d.Fatal(err)
	}
	for i := range w.Mins {
		if w.Mins[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	for i := range w.Maxs {
		if w.Maxs[i], err = s.ReadF32(); err != nil {
			return nil, d.Fatal(err)
		}
	}
	if w.Checksum, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.MaterialMemory, err = fatTable(s, reg, k(11), materialMemoryStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.Sun, err = s.ReadBytes(sunflareSize); err != nil {
		return nil, d.Fatal(err)
	}
	for i := range w.OutdoorLookupMatrix {
		for j := range w.OutdoorLookupMatrix[i] {
			if w.OutdoorLookupMatrix[i][j], err = s.ReadF32(); err != nil {
				return nil, d.Fatal(err)
			}
		}
	}
	outdoorImage, _, err := registry.ResolvePointer(s, reg, k(12), nil, func() (*techset.GfxImage, error) {
		return techset.DecodeGfxImage(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.OutdoorImage = outdoorImage
	cellCasterWords := (int(w.CellBitsCount) + 31) / 32
	if w.CellCasterBits, err = opaquePointer(s, reg, k(13), cellCasterWords*4); err != nil {
		return nil, d.Fatal(err)
	}
	if w.SceneDynModel, err = opaquePointer(s, reg, k(14), sceneDynSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.SceneDynBrush, err = opaquePointer(s, reg, k(15), sceneDynSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.PrimaryLightEntityShadowVis, err = opaquePointer(s, reg, k(16), 4); err != nil {
		return nil, d.Fatal(err)
	}
	for i := range w.PrimaryLightDynEntShadowVis {
		if w.PrimaryLightDynEntShadowVis[i], err = opaquePointer(s, reg, k(17+uint32(i)), 4); err != nil {
			return nil, d.Fatal(err)
		}
	}
	if w.NonSunPrimaryLightForModelDynEnt, err = opaquePointer(s, reg, k(19), 1); err != nil {
		return nil, d.Fatal(err)
	}
	if w.ShadowGeom, err = opaquePointer(s, reg, k(20), shadowGeometrySize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.LightRegion, err = opaquePointer(s, reg, k(21), lightRegionSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.Dpvs, err = s.ReadBytes(dpvsStaticSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.DpvsDyn, err = s.ReadBytes(dpvsDynamicSize); err != nil {
		return nil, d.Fatal(err)
	}
	if w.WorldLodChains, err = fatTable(s, reg, k(22), worldLodChainStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.WorldLodInfos, err = fatTable(s, reg, k(23), worldLodInfoStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.WorldLodSurfaces, err = fatTable(s, reg, k(24), worldLodSurfaceStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.WaterDirection, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	for i := range w.WaterBuffers {
		if w.WaterBuffers[i], err = s.ReadBytes(waterBufferSize); err != nil {
			return nil, d.Fatal(err)
		}
	}
	waterMat, _, err := registry.ResolvePointer(s, reg, k(25), nil, func() (*techset.Material, error) {
		return techset.DecodeMaterial(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.WaterMaterial = waterMat
	coronaMat, _, err := registry.ResolvePointer(s, reg, k(26), nil, func() (*techset.Material, error) {
		return techset.DecodeMaterial(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.CoronaMaterial = coronaMat
	ropeMat, _, err := registry.ResolvePointer(s, reg, k(27), nil, func() (*techset.Material, error) {
		return techset.DecodeMaterial(s, reg, pool, d)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	w.RopeMaterial = ropeMat
	if w.Occluders, err = fatTable(s, reg, k(28), occluderStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.OutdoorBounds, err = fatTable(s, reg, k(29), outdoorBoundsStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.HeroLightCount, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.HeroLightTreeCount, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if w.HeroLights, err = opaquePointer(s, reg, k(30), int(w.HeroLightCount)*heroLightStride); err != nil {
		return nil, d.Fatal(err)
	}
	if w.HeroLightTree, err = opaquePointer(s, reg, k(31), int(w.HeroLightTreeCount)*heroLightTreeStride); err != nil {
		return nil, d.Fatal(err)
	}

	return w, nil
}

func decodeGfxLightImage(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (GfxLightImage, error) {
	var li GfxLightImage
	image, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindImage), nil, func() (*techset.GfxImage, error) {
		return techset.DecodeGfxImage(s, reg, pool, d)
	})
	if err != nil {
		return li, err
	}
	li.Image = image
	if li.SamplerState, err = s.ReadU8(); err != nil {
		return li, err
	}
	return li, nil
}

// DecodeGfxLightDef decodes one GfxLightDef record in engine declaration
// order.
func DecodeGfxLightDef(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*GfxLightDef, error) {
	d.Push("GfxLightDef")
	defer d.Pop()

	ld := &GfxLightDef{}
	var err error
	if ld.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if ld.Attenuation, err = decodeGfxLightImage(s, reg, pool, d); err != nil {
		return nil, d.Fatal(err)
	}
	if ld.LmapLookupStart, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	return ld, nil
}
