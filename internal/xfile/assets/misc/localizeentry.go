package misc

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// LocalizeEntry is one localized-string table row: value first, name
// second, on the wire (the reverse of every other named asset).
type LocalizeEntry struct {
	Value string
	Name  string
}

func init() {
	assets.Register(assets.KindLocalizeEntry, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeLocalizeEntry(s, reg, pool, d)
	})
}

// DecodeLocalizeEntry decodes the value/name pair in that wire order.
func DecodeLocalizeEntry(s *stream.Stream, _ *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*LocalizeEntry, error) {
	d.Push("LocalizeEntry")
	defer d.Pop()

	value, err := pool.ReadXString(s)
	if err != nil {
		return nil, d.Fatal(err)
	}
	name, err := pool.ReadXString(s)
	if err != nil {
		return nil, d.Fatal(err)
	}
	return &LocalizeEntry{Value: value, Name: name}, nil
}
