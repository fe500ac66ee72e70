// Package registry implements the shared-referent protocol: the
// inline/already-loaded/opaque-token pointer trichotomy and the
// write-once map that lets two records point at the same decoded asset.
package registry

import (
	"fmt"

	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// Key identifies a referent by its kind and identity. Identity is either a
// canonical name (named assets/strings) or a synthetic "#<n>" token
// (unnamed internals, in first-seen order).
type Key struct {
	Kind     uint32
	Identity string
}

// Registry is the write-once (kind, identity) -> decoded-value map that
// backs the already-loaded pointer sentinel. Because a referent is only
// ever registered after it has been fully decoded, the referent graph is
// structurally a DAG: nothing can point back to something still being
// decoded.
type Registry struct {
	entries map[Key]any
	next    int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[Key]any)}
}

// NextSyntheticIdentity returns the next "#<n>" identity for an unnamed
// internal referent, in first-seen order.
func (r *Registry) NextSyntheticIdentity() string {
	id := fmt.Sprintf("#%d", r.next)
	r.next++
	return id
}

func (r *Registry) register(key Key, value any) error {
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: kind=%d identity=%q", xfileerr.ErrDuplicateInline, key.Kind, key.Identity)
	}
	r.entries[key] = value
	return nil
}

func (r *Registry) lookup(key Key) (any, bool) {
	v, ok := r.entries[key]
	return v, ok
}

// ResolvePointer implements the pointer trichotomy for one field: reads a
// pointer word, then either decodes an inline referent and registers it,
// looks up an already-loaded referent by identity, or hands the opaque
// token back to the caller (ok == false, value is the zero value).
//
// identity may be nil when the referent kind has no natural identity (it is
// always decoded inline, never already-loaded); decode may be nil only when
// identity is also never consulted, which is not a supported combination in
// practice but is not statically enforced here.
func ResolvePointer[T any](
	s *stream.Stream,
	reg *Registry,
	kind uint32,
	identity func() (string, error),
	decode func() (T, error),
) (T, bool, error) {
	var zero T

	word, err := s.ReadPointer()
	if err != nil {
		return zero, false, err
	}

	switch word {
	case stream.SentinelInline:
		if err := s.AlignTo(4); err != nil {
			return zero, false, err
		}
		v, err := decode()
		if err != nil {
			return zero, false, err
		}
		if identity != nil {
			id, err := identity()
			if err != nil {
				return zero, false, err
			}
			if err := reg.register(Key{Kind: kind, Identity: id}, v); err != nil {
				return zero, false, err
			}
		}
		return v, true, nil

	case stream.SentinelAlreadyLoaded:
		if identity == nil {
			return zero, false, fmt.Errorf("%w: already-loaded sentinel for identity-less kind %d", xfileerr.ErrIllegalSentinel, kind)
		}
		id, err := identity()
		if err != nil {
			return zero, false, err
		}
		v, ok := reg.lookup(Key{Kind: kind, Identity: id})
		if !ok {
			return zero, false, fmt.Errorf("%w: kind=%d identity=%q", xfileerr.ErrDanglingReference, kind, id)
		}
		typed, ok := v.(T)
		if !ok {
			return zero, false, fmt.Errorf("%w: kind=%d identity=%q type mismatch", xfileerr.ErrInvariantViolation, kind, id)
		}
		return typed, true, nil

	default:
		return zero, false, nil
	}
}

// RegisterValue registers a value that was decoded outside ResolvePointer.
// Decode does not call it, so the top-level asset-list entries are not
// entered into the registry.
func (r *Registry) RegisterValue(kind uint32, identity string, value any) error {
	return r.register(Key{Kind: kind, Identity: identity}, value)
}

// Lookup exposes the already-loaded lookup for callers outside ResolvePointer.
func (r *Registry) Lookup(kind uint32, identity string) (any, bool) {
	return r.lookup(Key{Kind: kind, Identity: identity})
}
