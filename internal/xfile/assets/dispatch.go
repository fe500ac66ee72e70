package assets

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// Decoder decodes one asset of a given kind from s, returning the decoded
// value as any (the dispatcher doesn't need its static type; callers that
// care can type-assert).
type Decoder func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error)

var decoders = make(map[Kind]Decoder)

// Register adds a decoder for kind to the dispatch table. Called from each
// decoder sub-package's init().
func Register(kind Kind, fn Decoder) {
	if _, exists := decoders[kind]; exists {
		panic("assets: duplicate decoder registration for " + kind.String())
	}
	decoders[kind] = fn
}

// Lookup returns the registered decoder for kind, if any.
func Lookup(kind Kind) (Decoder, bool) {
	fn, ok := decoders[kind]
	return fn, ok
}
