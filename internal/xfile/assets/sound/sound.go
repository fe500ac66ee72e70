// Package sound decodes the audio-engine asset family: SndBank, SndPatch
// and SndDriverGlobals. Grounded on sound.rs. The per-record tables each
// asset owns (aliases, radverbs, snapshots, mixer groups/curves/pans/
// contexts/masters) are kept as opaque fixed-stride byte blocks rather than
// walked field-by-field: none of their fields carry further pointer
// references this decoder's scope needs to resolve, and their row layouts
// are mixer tuning data with no asset-graph significance. See DESIGN.md.
package sound

import (
	"fmt"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

const (
	sndAliasSize         = 84
	sndIndexEntrySize    = 4
	sndRadverbSize       = 96
	sndSnapshotSize      = 348
	soundFileSize        = 8
	sndGroupSize         = 80
	sndCurveSize         = 100
	sndPanSize           = 60
	sndSnapshotGroupSize = 32
	sndContextSize       = 40
	sndMasterSize        = 176
)

// SndBank is one loaded sound bank: its alias table, per-alias lookup
// index, and the radverb/snapshot tuning tables it carries.
type SndBank struct {
	Name         string
	Aliases      []byte
	AliasIndex   []byte
	PackHash     uint32
	PackLocation uint32
	Radverbs     []byte
	Snapshots    []byte
}

func init() {
	assets.Register(assets.KindSound, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeSndBank(s, reg, pool, d)
	})
	assets.Register(assets.KindSoundPatch, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeSndPatch(s, reg, pool, d)
	})
	assets.Register(assets.KindSndDriverGlobals, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeSndDriverGlobals(s, reg, pool, d)
	})
}

func readBlob(s *stream.Stream, reg *registry.Registry, kind uint32, count, stride int) ([]byte, error) {
	blob, _, err := registry.ResolvePointer(s, reg, kind, nil, func() ([]byte, error) {
		return s.ReadBytes(count * stride)
	})
	return blob, err
}

// readBlobCountLast reads a FatPointerCountLastU32 table: the pointer word
// comes first, followed unconditionally by the element count, followed by
// the element data itself only when the pointer is the inline sentinel.
func readBlobCountLast(s *stream.Stream, stride int) ([]byte, error) {
	ptr, err := s.ReadPointer()
	if err != nil {
		return nil, err
	}
	count, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	switch ptr {
	case stream.SentinelInline:
		return s.ReadBytes(int(count) * stride)
	case stream.SentinelAlreadyLoaded:
		return nil, fmt.Errorf("%w: already-loaded sentinel for identity-less table", xfileerr.ErrIllegalSentinel)
	default:
		return nil, nil
	}
}

// DecodeSndBank decodes one SndBank record in engine declaration order.
func DecodeSndBank(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*SndBank, error) {
	d.Push("SndBank")
	defer d.Pop()

	b := &SndBank{}
	var err error

	if b.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	aliasCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	if b.Aliases, err = readBlob(s, reg, uint32(assets.KindSound), int(aliasCount), sndAliasSize); err != nil {
		return nil, d.Fatal(err)
	}
	if b.AliasIndex, err = readBlob(s, reg, uint32(assets.KindSound), int(aliasCount), sndIndexEntrySize); err != nil {
		return nil, d.Fatal(err)
	}
	if b.PackHash, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}
	if b.PackLocation, err = s.ReadU32(); err != nil {
		return nil, d.Fatal(err)
	}

	radverbCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	if b.Radverbs, err = readBlob(s, reg, uint32(assets.KindSound), int(radverbCount), sndRadverbSize); err != nil {
		return nil, d.Fatal(err)
	}

	// snapshots is a FatPointerCountLastU32: the pointer word precedes its
	// count, the reverse of every other table here.
	if b.Snapshots, err = readBlobCountLast(s, sndSnapshotSize); err != nil {
		return nil, d.Fatal(err)
	}

	return b, nil
}

// SndPatch is a named remap of sound elements to a set of loaded files.
type SndPatch struct {
	Name     string
	Elements []uint32
	Files    []byte
}

// DecodeSndPatch decodes one SndPatch record in engine declaration order.
func DecodeSndPatch(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*SndPatch, error) {
	d.Push("SndPatch")
	defer d.Pop()

	p := &SndPatch{}
	var err error

	if p.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	elemCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	elements, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindSoundPatch), nil, func() ([]uint32, error) {
		return stream.ReadArray(int(elemCount), s.ReadU32)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	p.Elements = elements

	fileCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	if p.Files, err = readBlob(s, reg, uint32(assets.KindSoundPatch), int(fileCount), soundFileSize); err != nil {
		return nil, d.Fatal(err)
	}

	return p, nil
}

// SndDriverGlobals is the mixer-wide configuration asset: groups, curves,
// pans, snapshot groups, contexts and masters.
type SndDriverGlobals struct {
	Name           string
	Groups         []byte
	Curves         []byte
	Pans           []byte
	SnapshotGroups []byte
	Contexts       []byte
	Masters        []byte
}

// DecodeSndDriverGlobals decodes one SndDriverGlobals record in engine
// declaration order.
func DecodeSndDriverGlobals(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*SndDriverGlobals, error) {
	d.Push("SndDriverGlobals")
	defer d.Pop()

	g := &SndDriverGlobals{}
	var err error

	if g.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}

	for _, f := range []struct {
		dst    *[]byte
		stride int
	}{
		{&g.Groups, sndGroupSize},
		{&g.Curves, sndCurveSize},
		{&g.Pans, sndPanSize},
		{&g.SnapshotGroups, sndSnapshotGroupSize},
		{&g.Contexts, sndContextSize},
		{&g.Masters, sndMasterSize},
	} {
		count, err := s.ReadU32()
		if err != nil {
			return nil, d.Fatal(err)
		}
		if *f.dst, err = readBlob(s, reg, uint32(assets.KindSndDriverGlobals), int(count), f.stride); err != nil {
			return nil, d.Fatal(err)
		}
	}

	return g, nil
}
