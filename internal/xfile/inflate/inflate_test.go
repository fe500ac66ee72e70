package inflate

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

func TestNewReaderRoundTrips(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write([]byte("hello fastfile")); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	zr, err := NewReader(bytes.NewReader(compressed.Bytes()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer zr.Close()

	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello fastfile" {
		t.Fatalf("got %q, want %q", got, "hello fastfile")
	}
}

func TestNewReaderRejectsGarbage(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}))
	if !errors.Is(err, xfileerr.ErrDecompressError) {
		t.Fatalf("got %v, want ErrDecompressError", err)
	}
}
