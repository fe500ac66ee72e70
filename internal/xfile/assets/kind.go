// Package assets holds the XAssetType enumeration shared by every decoder
// sub-package, the kind -> decoder dispatch table those sub-packages
// register themselves into via init(), and the cross-cutting
// MaxLocalClients constant.
package assets

import "fmt"

// Kind is the wire-format XAssetType tag (spec.md §3.1), closed and fixed
// by the engine.
type Kind uint32

const (
	KindXModelPieces     Kind = 0x00
	KindPhysPreset       Kind = 0x01
	KindPhysConstraints  Kind = 0x02
	KindDestructibleDef  Kind = 0x03
	KindXAnimParts       Kind = 0x04
	KindXModel           Kind = 0x05
	KindMaterial         Kind = 0x06
	KindTechniqueSet     Kind = 0x07
	KindImage            Kind = 0x08
	KindSound            Kind = 0x09
	KindSoundPatch       Kind = 0x0A
	KindClipMap          Kind = 0x0B
	KindClipMapPVS       Kind = 0x0C
	KindComWorld         Kind = 0x0D
	KindGameWorldSp      Kind = 0x0E
	KindGameWorldMp      Kind = 0x0F
	KindMapEnts          Kind = 0x10
	KindGfxWorld         Kind = 0x11
	KindLightDef         Kind = 0x12
	KindUIMap            Kind = 0x13
	KindFont             Kind = 0x14
	KindMenuList         Kind = 0x15
	KindMenu             Kind = 0x16
	KindLocalizeEntry    Kind = 0x17
	KindWeapon           Kind = 0x18
	KindWeaponDef        Kind = 0x19
	KindWeaponVariant    Kind = 0x1A
	KindSndDriverGlobals Kind = 0x1B
	KindFx               Kind = 0x1C
	KindImpactFx         Kind = 0x1D
	KindAIType           Kind = 0x1E
	KindMPType           Kind = 0x1F
	KindMPBody           Kind = 0x20
	KindMPHead           Kind = 0x21
	KindCharacter        Kind = 0x22
	KindXModelAlias      Kind = 0x23
	KindRawFile          Kind = 0x24
	KindStringTable      Kind = 0x25
	KindPackIndex        Kind = 0x26
	KindXGlobals         Kind = 0x27
	KindDdl              Kind = 0x28
	KindGlasses          Kind = 0x29
	KindEmblemSet        Kind = 0x2A
	KindString           Kind = 0x2B
	KindAssetList        Kind = 0x2C
)

var kindNames = map[Kind]string{
	KindXModelPieces:     "xmodelpieces",
	KindPhysPreset:       "physpreset",
	KindPhysConstraints:  "physconstraints",
	KindDestructibleDef:  "destructibledef",
	KindXAnimParts:       "xanimparts",
	KindXModel:           "xmodel",
	KindMaterial:         "material",
	KindTechniqueSet:     "techniqueset",
	KindImage:            "image",
	KindSound:            "sound",
	KindSoundPatch:       "soundpatch",
	KindClipMap:          "clipmap",
	KindClipMapPVS:       "clipmappvs",
	KindComWorld:         "comworld",
	KindGameWorldSp:      "gameworldsp",
	KindGameWorldMp:      "gameworldmp",
	KindMapEnts:          "mapents",
	KindGfxWorld:         "gfxworld",
	KindLightDef:         "lightdef",
	KindUIMap:            "ui_map",
	KindFont:             "font",
	KindMenuList:         "menulist",
	KindMenu:             "menu",
	KindLocalizeEntry:    "localizeentry",
	KindWeapon:           "weapon",
	KindWeaponDef:        "weapondef",
	KindWeaponVariant:    "weaponvariant",
	KindSndDriverGlobals: "snddriverglobals",
	KindFx:               "fx",
	KindImpactFx:         "impactfx",
	KindAIType:           "aitype",
	KindMPType:           "mptype",
	KindMPBody:           "mpbody",
	KindMPHead:           "mphead",
	KindCharacter:        "character",
	KindXModelAlias:      "xmodelalias",
	KindRawFile:          "rawfile",
	KindStringTable:      "stringtable",
	KindPackIndex:        "packindex",
	KindXGlobals:         "xglobals",
	KindDdl:              "ddl",
	KindGlasses:          "glasses",
	KindEmblemSet:        "emblemset",
	KindString:           "string",
	KindAssetList:        "assetlist",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(0x%02X)", uint32(k))
}

// KindFromName resolves a --dump-kind CLI flag value (case-sensitive,
// matching the wire names above) to a Kind.
func KindFromName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// MaxLocalClients is the PC build's MAX_LOCAL_CLIENTS constant. No decoder
// references it: gfxworld sizes its sun-parse parameter block for the PC
// value with its own byte-count literal, so changing this constant alone
// does not resize any decoded field.
const MaxLocalClients = 1
