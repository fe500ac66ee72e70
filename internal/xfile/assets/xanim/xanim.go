// Package xanim decodes XAnimParts, the compressed bone-animation curve
// asset. Grounded on xanim.rs.
package xanim

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// MaxPartTypes bounds the per-bone-type count table every XAnimParts
// carries.
const MaxPartTypes = 10

// XAnimNotifyInfo is one named playback-time event fired while the
// animation plays (footstep sounds, gameplay script hooks, and similar).
type XAnimNotifyInfo struct {
	Name uint16 // ScriptString
	Time float32
}

// scriptStringSize is ScriptString's wire size: a u16 handle into the
// script-string table.
const scriptStringSize = 2

// XAnimParts is one compressed skeletal animation clip. The actual curve
// data (data_byte/data_short/data_int/random_data_*, the bone-name table,
// and the frame index list) is a quantized compression format with no
// further asset references inside it, so each pointer is walked only far
// enough to consume its inline element bytes (through the sentinel
// protocol) and kept as an opaque raw blob rather than decoded
// field-by-field. delta_part is a further nested pair of pointers
// (translation curve, rotation curve) whose own payload shape depends on
// numframes and two more per-field flags; only its immediate 8-byte
// trans/quat pointer-word pair is consumed when delta_part itself is
// inline - the nested trans/quat pointers' own inline payloads are a known
// remaining gap. See DESIGN.md.
type XAnimParts struct {
	Name                string
	NumFrames           uint16
	Loop                bool
	Delta               bool
	LeftHandGripIK      bool
	Streamable          bool
	StreamedFileSize    uint32
	BoneCount           [MaxPartTypes]uint8
	NotifyCount         uint8
	AssetType           uint8
	IsDefault           bool
	IndexCount          uint32
	Framerate           float32
	Frequency           float32
	PrimedLength        float32
	LoopEntryTime       float32
	Names               []byte // Ptr32<ScriptString[bone_count[PART_TYPE_ALL]]>, opaque
	DataByte            []byte // Ptr32<u8[data_byte_count]>, opaque
	DataShort           []byte // Ptr32<i16[data_short_count]>, opaque
	DataInt             []byte // Ptr32<i32[data_int_count]>, opaque
	RandomDataShort     []byte // Ptr32<i16[random_data_short_count]>, opaque
	RandomDataByte      []byte // Ptr32<u8[random_data_byte_count]>, opaque
	RandomDataInt       []byte // Ptr32<i32[random_data_int_count]>, opaque
	Indices             []byte // Ptr32<()>, opaque: u8 or u16 frame index list, width keyed on NumFrames<256
	Notify              []XAnimNotifyInfo
	DeltaPart           []byte // Ptr32<XAnimDeltaPartRaw>, opaque; see doc comment
}

func init() {
	assets.Register(assets.KindXAnimParts, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeXAnimParts(s, reg, pool, d)
	})
}

// DecodeXAnimParts decodes one XAnimParts record in engine declaration
// order.
func DecodeXAnimParts(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*XAnimParts, error) {
	d.Push("XAnimParts")
	defer d.Pop()

	a := &XAnimParts{}
	var err error

	if a.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	counts, err := s.ReadBytes(10)
	if err != nil {
		return nil, d.Fatal(err)
	}
	dataByteCount := uint16(counts[0]) | uint16(counts[1])<<8
	dataShortCount := uint16(counts[2]) | uint16(counts[3])<<8
	dataIntCount := uint16(counts[4]) | uint16(counts[5])<<8
	randomDataByteCount := uint16(counts[6]) | uint16(counts[7])<<8
	randomDataIntCount := uint16(counts[8]) | uint16(counts[9])<<8

	if a.NumFrames, err = s.ReadU16(); err != nil {
		return nil, d.Fatal(err)
	}
	flags, err := s.ReadBytes(4)
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.Loop = flags[0] != 0
	a.Delta = flags[1] != 0
	a.LeftHandGripIK = flags[2] != 0
	a.Streamable = flags[3] != 0

	if a.StreamedFileSize, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	boneCount, err := s.ReadBytes(MaxPartTypes)
	if err != nil {
		return nil, d.Fatal(err)
	}
	copy(a.BoneCount[:], boneCount)

	typeBits, err := s.ReadBytes(3)
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.NotifyCount = typeBits[0]
	a.AssetType = typeBits[1]
	a.IsDefault = typeBits[2] != 0

	randomDataShortCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	if a.IndexCount, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if a.Framerate, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if a.Frequency, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if a.PrimedLength, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}
	if a.LoopEntryTime, err = s.ReadF32(); err != nil {
		return nil, d.Fatal(err)
	}

	base := uint32(assets.KindXAnimParts) + 1000
	nameSlots := int(a.BoneCount[MaxPartTypes-1]) // bone_count[PART_TYPE_ALL]

	a.Names, _, err = registry.ResolvePointer(s, reg, base+0, nil, func() ([]byte, error) {
		return s.ReadBytes(nameSlots * scriptStringSize)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.DataByte, _, err = registry.ResolvePointer(s, reg, base+1, nil, func() ([]byte, error) {
		return s.ReadBytes(int(dataByteCount))
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.DataShort, _, err = registry.ResolvePointer(s, reg, base+2, nil, func() ([]byte, error) {
		return s.ReadBytes(int(dataShortCount) * 2)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.DataInt, _, err = registry.ResolvePointer(s, reg, base+3, nil, func() ([]byte, error) {
		return s.ReadBytes(int(dataIntCount) * 4)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.RandomDataShort, _, err = registry.ResolvePointer(s, reg, base+4, nil, func() ([]byte, error) {
		return s.ReadBytes(int(randomDataShortCount) * 2)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.RandomDataByte, _, err = registry.ResolvePointer(s, reg, base+5, nil, func() ([]byte, error) {
		return s.ReadBytes(int(randomDataByteCount))
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.RandomDataInt, _, err = registry.ResolvePointer(s, reg, base+6, nil, func() ([]byte, error) {
		return s.ReadBytes(int(randomDataIntCount) * 4)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	// indices is a bare Ptr32<()>: its element width is u8 when numframes
	// is small enough to fit an 8-bit frame index, u16 otherwise.
	indexWidth := 2
	if a.NumFrames < 256 {
		indexWidth = 1
	}
	a.Indices, _, err = registry.ResolvePointer(s, reg, base+7, nil, func() ([]byte, error) {
		return s.ReadBytes(int(a.IndexCount) * indexWidth)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	notify, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindXAnimParts), nil, func() ([]XAnimNotifyInfo, error) {
		return stream.ReadArray(int(a.NotifyCount), decodeXAnimNotifyInfo(s))
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	a.Notify = notify

	// delta_part is Ptr32<XAnimDeltaPartRaw>: an 8-byte struct of two more
	// pointers (translation curve, rotation curve). Only that immediate
	// pair of pointer words is consumed here; see the type doc comment for
	// why their own nested payloads aren't walked further.
	a.DeltaPart, _, err = registry.ResolvePointer(s, reg, base+8, nil, func() ([]byte, error) {
		return s.ReadBytes(8)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	return a, nil
}

func decodeXAnimNotifyInfo(s *stream.Stream) func() (XAnimNotifyInfo, error) {
	return func() (XAnimNotifyInfo, error) {
		var n XAnimNotifyInfo
		var err error
		if n.Name, err = s.ReadU16(); err != nil {
			return n, err
		}
		if n.Time, err = s.ReadF32(); err != nil {
			return n, err
		}
		return n, nil
	}
}
