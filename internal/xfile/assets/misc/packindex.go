package misc

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// PackIndexHeader is the fixed-size header preceding a PackIndex's entries.
type PackIndexHeader struct {
	Magic     uint32
	Timestamp uint32
	Count     uint32
	Alignment uint32
	DataStart uint32
}

// PackIndexEntry maps a content hash to an (offset, size) span in the
// associated .pak data file.
type PackIndexEntry struct {
	Hash   uint32
	Offset uint32
	Size   uint32
}

// PackIndex is the directory record for a .pak sibling data file.
type PackIndex struct {
	Name    string
	Header  PackIndexHeader
	Entries []PackIndexEntry
}

func init() {
	assets.Register(assets.KindPackIndex, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodePackIndex(s, reg, pool, d)
	})
}

// DecodePackIndex decodes name, the fixed header, then header.Count entries.
func DecodePackIndex(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*PackIndex, error) {
	d.Push("PackIndex")
	defer d.Pop()

	name, err := pool.ReadXString(s)
	if err != nil {
		return nil, d.Fatal(err)
	}

	var hdr PackIndexHeader
	for _, dst := range []*uint32{&hdr.Magic, &hdr.Timestamp, &hdr.Count, &hdr.Alignment, &hdr.DataStart} {
		v, err := s.ReadU32()
		if err != nil {
			return nil, d.Fatal(err)
		}
		*dst = v
	}

	entries, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindPackIndex), nil, func() ([]PackIndexEntry, error) {
		return stream.ReadArray(int(hdr.Count), func() (PackIndexEntry, error) {
			hash, err := s.ReadU32()
			if err != nil {
				return PackIndexEntry{}, err
			}
			offset, err := s.ReadU32()
			if err != nil {
				return PackIndexEntry{}, err
			}
			size, err := s.ReadU32()
			if err != nil {
				return PackIndexEntry{}, err
			}
			return PackIndexEntry{Hash: hash, Offset: offset, Size: size}, nil
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	return &PackIndex{Name: name, Header: hdr, Entries: entries}, nil
}
