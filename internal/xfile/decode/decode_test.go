package decode

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/misc"
	"github.com/kestrel-tools/xfiledump/internal/xfile/container"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/inflate"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfiletest"
)

func TestDecodeEndToEndThroughContainer(t *testing.T) {
	b := &xfiletest.Builder{
		Assets: []xfiletest.AssetSpec{
			{Kind: assets.KindRawFile, Bytes: rawFileRecord("scripts/foo.gsc", []byte("main() {}"))},
		},
	}

	d := diag.New(nil)
	cctx, err := container.Open(bytes.NewReader(b.Container()), true, d)
	if err != nil {
		t.Fatalf("container.Open: %v", err)
	}
	if cctx.Platform != container.PlatformPC {
		t.Fatalf("got platform %v, want pc", cctx.Platform)
	}

	zr, err := inflate.NewReader(bytes.NewReader(b.Container()[16:]))
	if err != nil {
		t.Fatalf("inflate.NewReader: %v", err)
	}
	defer zr.Close()

	s := stream.New(zr)
	result, err := Decode(context.Background(), s, Config{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(result.Assets) != 1 || result.Assets[0].Kind != assets.KindRawFile {
		t.Fatalf("got %+v, want a single rawfile asset", result.Assets)
	}
}

func TestDecodeEmptyCatalogue(t *testing.T) {
	b := &xfiletest.Builder{}
	s := stream.New(bytes.NewReader(b.Payload()))

	result, err := Decode(context.Background(), s, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assets) != 0 {
		t.Fatalf("got %d assets, want 0", len(result.Assets))
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("got warnings %v, want none", result.Warnings)
	}
}

func rawFileRecord(name string, data []byte) []byte {
	var buf bytes.Buffer
	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // XString: inline sentinel
	buf.Write(xfiletest.InlineString(name))
	buf.Write(xfiletest.ScalarU32(uint32(len(data))))
	buf.Write(xfiletest.Pointer(0xFFFFFFFF)) // fat-pointer buffer: inline sentinel
	buf.Write(data)
	return buf.Bytes()
}

func TestDecodeSingleRawFile(t *testing.T) {
	b := &xfiletest.Builder{
		Assets: []xfiletest.AssetSpec{
			{Kind: assets.KindRawFile, Bytes: rawFileRecord("scripts/foo.gsc", []byte("main() {}"))},
		},
	}
	s := stream.New(bytes.NewReader(b.Payload()))

	result, err := Decode(context.Background(), s, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(result.Assets))
	}
	if result.Assets[0].Kind != assets.KindRawFile {
		t.Fatalf("got kind %v, want rawfile", result.Assets[0].Kind)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("got warnings %v, want none", result.Warnings)
	}
}

func TestDecodeUnknownKindIsAlwaysFatal(t *testing.T) {
	b := &xfiletest.Builder{
		Assets: []xfiletest.AssetSpec{
			{Kind: assets.Kind(0xDEADBEEF), Bytes: nil},
		},
	}
	s := stream.New(bytes.NewReader(b.Payload()))

	_, err := Decode(context.Background(), s, Config{StrictUnknownKinds: false})
	if !errors.Is(err, xfileerr.ErrUnknownAssetKind) {
		t.Fatalf("got %v, want ErrUnknownAssetKind (permissive mode must still abort)", err)
	}
}

func TestDecodeUnknownKindFatalUnderStrictToo(t *testing.T) {
	b := &xfiletest.Builder{
		Assets: []xfiletest.AssetSpec{
			{Kind: assets.Kind(0xDEADBEEF), Bytes: nil},
		},
	}
	s := stream.New(bytes.NewReader(b.Payload()))

	_, err := Decode(context.Background(), s, Config{StrictUnknownKinds: true})
	if !errors.Is(err, xfileerr.ErrUnknownAssetKind) {
		t.Fatalf("got %v, want ErrUnknownAssetKind", err)
	}
}

func TestDecodeTrailingBytesWarnsInPermissiveMode(t *testing.T) {
	b := &xfiletest.Builder{}
	payload := append(b.Payload(), 0xFF)
	s := stream.New(bytes.NewReader(payload))

	result, err := Decode(context.Background(), s, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != diag.WarnTrailingBytes {
		t.Fatalf("got warnings %v, want a single TrailingBytes warning", result.Warnings)
	}
}

func TestDecodeTrailingBytesFatalUnderStrict(t *testing.T) {
	b := &xfiletest.Builder{}
	payload := append(b.Payload(), 0xFF)
	s := stream.New(bytes.NewReader(payload))

	_, err := Decode(context.Background(), s, Config{StrictUnknownKinds: true})
	if !errors.Is(err, xfileerr.ErrStrictModeWarning) {
		t.Fatalf("got %v, want ErrStrictModeWarning", err)
	}
}

func TestDecodeNoTrailingBytesNoWarning(t *testing.T) {
	b := &xfiletest.Builder{}
	s := stream.New(bytes.NewReader(b.Payload()))

	result, err := Decode(context.Background(), s, Config{StrictUnknownKinds: true})
	if err != nil {
		t.Fatalf("unexpected error under strict mode with a clean payload: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("got warnings %v, want none", result.Warnings)
	}
}

func TestDecodeRespectsCancellation(t *testing.T) {
	b := &xfiletest.Builder{
		Assets: []xfiletest.AssetSpec{
			{Kind: assets.KindRawFile, Bytes: rawFileRecord("a", []byte("x"))},
		},
	}
	s := stream.New(bytes.NewReader(b.Payload()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Decode(ctx, s, Config{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
