package registry

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

func u32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestResolvePointerInlineDecodesAndRegisters(t *testing.T) {
	buf := append(u32(uint32(stream.SentinelInline)), []byte{0x2A, 0, 0, 0}...)
	s := stream.New(bytes.NewReader(buf))
	reg := New()

	v, ok, err := ResolvePointer(s, reg, 1, func() (string, error) { return "foo", nil }, func() (uint32, error) {
		return s.ReadU32()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != 0x2A {
		t.Fatalf("got %v, %v; want 0x2A, true", v, ok)
	}
	stored, found := reg.Lookup(1, "foo")
	if !found || stored.(uint32) != 0x2A {
		t.Fatalf("inline referent was not registered: %v, %v", stored, found)
	}
}

func TestResolvePointerAlreadyLoadedLooksUp(t *testing.T) {
	reg := New()
	if err := reg.RegisterValue(1, "bar", uint32(99)); err != nil {
		t.Fatalf("RegisterValue: %v", err)
	}

	buf := u32(uint32(stream.SentinelAlreadyLoaded))
	s := stream.New(bytes.NewReader(buf))

	v, ok, err := ResolvePointer(s, reg, 1, func() (string, error) { return "bar", nil }, func() (uint32, error) {
		t.Fatal("decode should not be called for an already-loaded referent")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != 99 {
		t.Fatalf("got %v, %v; want 99, true", v, ok)
	}
}

func TestResolvePointerDanglingReference(t *testing.T) {
	reg := New()
	buf := u32(uint32(stream.SentinelAlreadyLoaded))
	s := stream.New(bytes.NewReader(buf))

	_, _, err := ResolvePointer(s, reg, 1, func() (string, error) { return "missing", nil }, func() (uint32, error) {
		return 0, nil
	})
	if !errors.Is(err, xfileerr.ErrDanglingReference) {
		t.Fatalf("got %v, want ErrDanglingReference", err)
	}
}

func TestResolvePointerOpaqueToken(t *testing.T) {
	reg := New()
	buf := u32(0xABCD1234)
	s := stream.New(bytes.NewReader(buf))

	v, ok, err := ResolvePointer(s, reg, 1, func() (string, error) { return "x", nil }, func() (uint32, error) {
		t.Fatal("decode should not be called for an opaque token")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || v != 0 {
		t.Fatalf("got %v, %v; want zero value, false", v, ok)
	}
}

func TestDuplicateInlineRegistrationIsRejected(t *testing.T) {
	reg := New()
	if err := reg.RegisterValue(1, "dup", uint32(1)); err != nil {
		t.Fatalf("first RegisterValue: %v", err)
	}
	err := reg.RegisterValue(1, "dup", uint32(2))
	if !errors.Is(err, xfileerr.ErrDuplicateInline) {
		t.Fatalf("got %v, want ErrDuplicateInline", err)
	}
}

func TestNextSyntheticIdentityIsSequential(t *testing.T) {
	reg := New()
	a := reg.NextSyntheticIdentity()
	b := reg.NextSyntheticIdentity()
	if a != "#0" || b != "#1" {
		t.Fatalf("got %q, %q; want #0, #1", a, b)
	}
}
