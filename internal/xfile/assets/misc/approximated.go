package misc

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// Glasses, EmblemSet and DdlRoot have no surviving field-layout reference
// anywhere in the source this decoder was grounded on. Each is decoded as
// the minimal shape every other named, no-sub-table asset in the catalogue
// shares: a name followed by a count-first byte blob, which at least lets
// the dispatcher consume exactly the bytes the asset occupies without
// guessing at internal structure it has no grounding for. See DESIGN.md.

// Glasses is the minimal-shape decode of the GLASSES asset kind.
type Glasses struct {
	Name string
	Blob []byte
}

// EmblemSet is the minimal-shape decode of the EMBLEMSET asset kind.
type EmblemSet struct {
	Name string
	Blob []byte
}

// DdlRoot is the minimal-shape decode of the DDL asset kind (compiled
// "data definition language" schema blobs).
type DdlRoot struct {
	Name string
	Blob []byte
}

func init() {
	assets.Register(assets.KindGlasses, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		name, blob, err := decodeNameAndBlob(s, reg, pool, d, "Glasses", assets.KindGlasses)
		if err != nil {
			return nil, err
		}
		return &Glasses{Name: name, Blob: blob}, nil
	})
	assets.Register(assets.KindEmblemSet, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		name, blob, err := decodeNameAndBlob(s, reg, pool, d, "EmblemSet", assets.KindEmblemSet)
		if err != nil {
			return nil, err
		}
		return &EmblemSet{Name: name, Blob: blob}, nil
	})
	assets.Register(assets.KindDdl, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		name, blob, err := decodeNameAndBlob(s, reg, pool, d, "DdlRoot", assets.KindDdl)
		if err != nil {
			return nil, err
		}
		return &DdlRoot{Name: name, Blob: blob}, nil
	})
}

func decodeNameAndBlob(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics, frame string, kind assets.Kind) (string, []byte, error) {
	d.Push(frame)
	defer d.Pop()

	name, err := pool.ReadXString(s)
	if err != nil {
		return "", nil, d.Fatal(err)
	}
	count, err := s.ReadU32()
	if err != nil {
		return "", nil, d.Fatal(err)
	}
	blob, _, err := registry.ResolvePointer(s, reg, uint32(kind), nil, func() ([]byte, error) {
		return s.ReadBytes(int(count))
	})
	if err != nil {
		return "", nil, d.Fatal(err)
	}
	return name, blob, nil
}
