package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

func validHeader() []byte {
	var buf bytes.Buffer
	buf.WriteString("IWffu100")
	buf.WriteByte(byte(PlatformPC))
	buf.Write([]byte{0, 0, 0})
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], Version)
	buf.Write(v[:])
	return buf.Bytes()
}

func TestOpenRejectsBadMagic(t *testing.T) {
	hdr := validHeader()
	copy(hdr[0:8], "NOTAMAGC")
	_, err := Open(bytes.NewReader(hdr), true, diag.New(nil))
	if !errors.Is(err, xfileerr.ErrBadMagic) {
		t.Fatalf("got %v, want ErrBadMagic", err)
	}
}

func TestOpenRejectsBadVersion(t *testing.T) {
	hdr := validHeader()
	binary.LittleEndian.PutUint32(hdr[12:16], Version+1)
	_, err := Open(bytes.NewReader(hdr), true, diag.New(nil))
	if !errors.Is(err, xfileerr.ErrUnsupportedVersion) {
		t.Fatalf("got %v, want ErrUnsupportedVersion", err)
	}
}

func TestOpenAcceptsValidHeader(t *testing.T) {
	d := diag.New(nil)
	ctx, err := Open(bytes.NewReader(validHeader()), true, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Platform != PlatformPC || ctx.Signed {
		t.Fatalf("unexpected context: %+v", ctx)
	}
	if len(d.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", d.Warnings())
	}
}

func TestOpenNonPCPlatformWarns(t *testing.T) {
	hdr := validHeader()
	hdr[8] = byte(PlatformXbox360)
	d := diag.New(nil)
	ctx, err := Open(bytes.NewReader(hdr), true, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Platform != PlatformXbox360 {
		t.Fatalf("unexpected platform: %v", ctx.Platform)
	}
	if len(d.Warnings()) != 1 || d.Warnings()[0].Kind != diag.WarnNonPCPlatform {
		t.Fatalf("expected a single NonPCPlatform warning, got %v", d.Warnings())
	}
}

func TestOpenNonPCPlatformFatalWhenDisallowed(t *testing.T) {
	hdr := validHeader()
	hdr[8] = byte(PlatformPS3)
	_, err := Open(bytes.NewReader(hdr), false, diag.New(nil))
	if !errors.Is(err, xfileerr.ErrUnsupportedPlatform) {
		t.Fatalf("got %v, want ErrUnsupportedPlatform", err)
	}
}

func TestOpenSignedMagicWarnsUnchecked(t *testing.T) {
	hdr := validHeader()
	copy(hdr[0:8], "IWffs100")
	d := diag.New(nil)
	ctx, err := Open(bytes.NewReader(hdr), true, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctx.Signed {
		t.Fatal("expected Signed to be true")
	}
	if len(d.Warnings()) != 1 || d.Warnings()[0].Kind != diag.WarnSignatureUnchecked {
		t.Fatalf("expected a single SignatureUnchecked warning, got %v", d.Warnings())
	}
}

func TestOpenTruncatedHeaderIsFatal(t *testing.T) {
	hdr := validHeader()[:10]
	_, err := Open(bytes.NewReader(hdr), true, diag.New(nil))
	if !errors.Is(err, xfileerr.ErrTruncatedContainer) {
		t.Fatalf("got %v, want ErrTruncatedContainer", err)
	}
}
