// Package xfiletest builds synthetic, valid XFile containers in-process for
// the rest of the xfile tree's tests, rather than committing binary fixture
// files - grounded on the teacher's preference for programmatically-built
// fixtures (apfs/pkg/util/io_test.go constructs its test files with
// os.CreateTemp and WriteAt instead of loading a checked-in blob).
package xfiletest

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
)

// Magic is the default unsigned-fastfile magic used by Builder.Container.
const Magic = "IWffu100"

// Version is the T5 PC fastfile version, matching container.Version.
const Version uint32 = 0x000001D9

// AssetSpec is one entry in the asset list: its kind and the already-encoded
// record bytes that should appear inline for it (everything after the
// asset's own (kind, ptr) placeholder pair).
type AssetSpec struct {
	Kind  assets.Kind
	Bytes []byte
}

// Builder assembles an XFile payload (and, via Container, a full container)
// from a list of interned strings and asset records.
type Builder struct {
	Strings []string
	Assets  []AssetSpec
}

func u32le(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

const (
	sentinelInline uint32 = 0xFFFFFFFF
)

// padTo4 appends zero bytes until len(b) is a multiple of 4.
func padTo4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

// InlineString returns the NUL-terminated, 4-byte-padded encoding of s, as
// it appears in the payload body for an inline string placeholder.
func InlineString(s string) []byte {
	b := append([]byte(s), 0)
	return padTo4(b)
}

// Payload assembles the full decompressed payload: the asset-list preamble
// (counts and placeholders), followed by every string's inline bytes in
// order, followed by every asset's inline record bytes in order.
func (b *Builder) Payload() []byte {
	var buf bytes.Buffer

	buf.Write(u32le(uint32(len(b.Assets))))
	buf.Write(u32le(uint32(len(b.Strings))))

	for range b.Strings {
		buf.Write(u32le(sentinelInline))
	}
	for _, a := range b.Assets {
		buf.Write(u32le(uint32(a.Kind)))
		buf.Write(u32le(sentinelInline))
	}

	for _, s := range b.Strings {
		buf.Write(InlineString(s))
	}
	for _, a := range b.Assets {
		buf.Write(a.Bytes)
	}

	return buf.Bytes()
}

// Container wraps Payload in a valid 16-byte header and zlib-compresses it,
// producing bytes readable end-to-end by container.Open + inflate.NewReader.
func (b *Builder) Container() []byte {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte(0) // platform: PC
	buf.Write([]byte{0, 0, 0})
	buf.Write(u32le(Version))

	zw := zlib.NewWriter(&buf)
	zw.Write(b.Payload())
	zw.Close()

	return buf.Bytes()
}

// ScalarU32 encodes one little-endian uint32, for hand-assembling raw asset
// record bytes field-by-field in tests.
func ScalarU32(v uint32) []byte { return u32le(v) }

// Pointer returns the wire bytes for a pointer word: SentinelInline,
// SentinelAlreadyLoaded, or an arbitrary opaque token.
func Pointer(word uint32) []byte { return u32le(word) }
