package assets

import (
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

func TestLookupUnregisteredKindFails(t *testing.T) {
	if _, ok := Lookup(Kind(0x9999)); ok {
		t.Fatal("expected no decoder registered for an arbitrary unused kind")
	}
}

func TestRegisterAndLookupRoundTrips(t *testing.T) {
	k := Kind(0x8888)
	called := false
	Register(k, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		called = true
		return nil, nil
	})

	fn, ok := Lookup(k)
	if !ok {
		t.Fatal("expected the just-registered decoder to be found")
	}
	if _, err := fn(nil, nil, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("decoder was not actually invoked")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	k := Kind(0x7777)
	Register(k, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return nil, nil
	})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on duplicate registration")
		}
	}()
	Register(k, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return nil, nil
	})
}

func TestKindFromName(t *testing.T) {
	k, ok := KindFromName("material")
	if !ok || k != KindMaterial {
		t.Fatalf("got %v, %v; want KindMaterial, true", k, ok)
	}
	if _, ok := KindFromName("not-a-real-kind"); ok {
		t.Fatal("expected KindFromName to fail for an unknown name")
	}
}
