// Package container validates the 16-byte Fastfile header and exposes the
// platform/signature context the rest of the decode pipeline needs.
package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// Version is the T5 PC fastfile version. Little-endian only; no console
// endian-swap path is implemented because only PC is in scope.
const Version uint32 = 0x000001D9

// Platform identifies the platform tag at byte offset 8 of the header.
type Platform uint8

const (
	PlatformPC      Platform = 0
	PlatformXbox360 Platform = 1
	PlatformPS3     Platform = 2
)

func (p Platform) String() string {
	switch p {
	case PlatformPC:
		return "pc"
	case PlatformXbox360:
		return "xbox360"
	case PlatformPS3:
		return "ps3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

var magics = map[string]bool{
	"IWffu100": false, // unsigned
	"IWffs100": true,  // signed
}

// Context carries the header-derived facts the decoder needs downstream.
type Context struct {
	Platform Platform
	Signed   bool
	Version  uint32
}

// Open reads and validates the 16-byte header from r. AllowNonPC controls
// whether a non-PC platform byte is a warning (true) or a fatal error
// (false).
func Open(r io.Reader, allowNonPC bool, d *diag.Diagnostics) (*Context, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, d.Fatal(fmt.Errorf("%w: %v", xfileerr.ErrTruncatedContainer, err))
	}

	magic := string(hdr[0:8])
	signed, ok := magics[magic]
	if !ok {
		return nil, d.Fatal(fmt.Errorf("%w: %q", xfileerr.ErrBadMagic, magic))
	}

	platform := Platform(hdr[8])
	if platform != PlatformPC {
		if !allowNonPC {
			return nil, d.Fatal(fmt.Errorf("%w: %s", xfileerr.ErrUnsupportedPlatform, platform))
		}
		d.Warn(diag.WarnNonPCPlatform, fmt.Sprintf("platform byte %s, decoding as PC layout", platform))
	}

	version := binary.LittleEndian.Uint32(hdr[12:16])
	if version != Version {
		return nil, d.Fatal(fmt.Errorf("%w: got 0x%08X, want 0x%08X", xfileerr.ErrUnsupportedVersion, version, Version))
	}

	if signed {
		d.Warn(diag.WarnSignatureUnchecked, "signed fastfile: RSA signature block present but not verified")
	}

	return &Context{Platform: platform, Signed: signed, Version: version}, nil
}
