// Package misc decodes the small, self-contained asset kinds that don't
// warrant their own sub-package, grounded on misc.rs: RawFile, StringTable,
// PackIndex, XGlobals, LocalizeEntry, plus the Glasses/EmblemSet/DdlRoot
// kinds for which original_source carried no field layout at all (see
// DESIGN.md for the minimal-shape approximation used for those three).
package misc

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// RawFile is an opaque named byte blob (a raw text/script file baked into
// the fastfile verbatim).
type RawFile struct {
	Name   string
	Buffer []byte
}

func init() {
	assets.Register(assets.KindRawFile, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeRawFile(s, reg, pool, d)
	})
}

// DecodeRawFile decodes a RawFile record: name, then a count-first fat
// pointer to the raw byte buffer.
func DecodeRawFile(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*RawFile, error) {
	d.Push("RawFile")
	defer d.Pop()

	name, err := pool.ReadXString(s)
	if err != nil {
		return nil, d.Fatal(err)
	}

	count, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	buf, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindRawFile), nil, func() ([]byte, error) {
		return s.ReadBytes(int(count))
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	return &RawFile{Name: name, Buffer: buf}, nil
}
