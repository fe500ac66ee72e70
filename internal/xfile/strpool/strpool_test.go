package strpool

import (
	"bytes"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

func TestInternBytesDedupesByContent(t *testing.T) {
	p := New()
	a := p.InternBytes([]byte("hello"))
	b := p.InternBytes([]byte("hello"))
	c := p.InternBytes([]byte("world"))
	if a != b {
		t.Fatalf("identical content got distinct handles: %d, %d", a, b)
	}
	if c == a {
		t.Fatalf("distinct content got the same handle: %d", c)
	}
	if p.Get(a) != "hello" || p.Get(c) != "world" {
		t.Fatalf("Get returned wrong content")
	}
}

func TestReadInlineNulTerminatedAndAligned(t *testing.T) {
	buf := append([]byte("hi"), 0, 0) // "hi\0" padded to 4 bytes
	s := stream.New(bytes.NewReader(buf))
	p := New()

	h, err := p.ReadInline(s)
	if err != nil {
		t.Fatalf("ReadInline: %v", err)
	}
	if p.Get(h) != "hi" {
		t.Fatalf("got %q, want %q", p.Get(h), "hi")
	}
	if s.Position()%4 != 0 {
		t.Fatalf("Position() = %d, not 4-aligned after ReadInline", s.Position())
	}
}

func TestReadXStringInlineSentinel(t *testing.T) {
	buf := append(u32(uint32(stream.SentinelInline)), append([]byte("tag"), 0)...)
	s := stream.New(bytes.NewReader(buf))
	p := New()

	got, err := p.ReadXString(s)
	if err != nil {
		t.Fatalf("ReadXString: %v", err)
	}
	if got != "tag" {
		t.Fatalf("got %q, want %q", got, "tag")
	}
}

func TestReadXStringNonInlineDegradesToEmpty(t *testing.T) {
	buf := u32(uint32(stream.SentinelAlreadyLoaded))
	s := stream.New(bytes.NewReader(buf))
	p := New()

	got, err := p.ReadXString(s)
	if err != nil {
		t.Fatalf("ReadXString: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func u32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
