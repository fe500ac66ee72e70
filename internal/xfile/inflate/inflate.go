// Package inflate wraps the zlib/deflate decompression of a Fastfile's
// payload, following the container header.
package inflate

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// NewReader wraps r (positioned just past the 16-byte header) in a zlib
// reader. The XFile payload is zlib-wrapped deflate, not raw gzip/xz/bzip2.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xfileerr.ErrDecompressError, err)
	}
	return zr, nil
}
