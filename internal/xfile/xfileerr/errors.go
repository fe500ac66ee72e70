// Package xfileerr holds the XFile decoder's flat error taxonomy and the
// context-trail wrapper attached to fatal errors as they propagate out of a
// decode.
package xfileerr

import (
	"errors"
	"fmt"
)

var (
	// Container errors (C1/C2)
	ErrBadMagic             = errors.New("xfile: bad header magic")
	ErrUnsupportedVersion   = errors.New("xfile: unsupported version")
	ErrUnsupportedPlatform  = errors.New("xfile: unsupported platform")
	ErrTruncatedContainer   = errors.New("xfile: truncated container")
	ErrDecompressError      = errors.New("xfile: decompress error")

	// Stream errors (C3)
	ErrUnexpectedEOF = errors.New("xfile: unexpected EOF")
	ErrMisaligned    = errors.New("xfile: misaligned read")

	// Pointer protocol errors (C4)
	ErrDanglingReference = errors.New("xfile: dangling reference")
	ErrDuplicateInline   = errors.New("xfile: duplicate inline referent")
	ErrIllegalSentinel   = errors.New("xfile: illegal pointer sentinel")

	// Schema errors (C6/C7)
	ErrUnknownAssetKind  = errors.New("xfile: unknown asset kind")
	ErrUnknownSubKind    = errors.New("xfile: unknown sub-kind")
	ErrRangeViolation    = errors.New("xfile: range violation")
	ErrInvariantViolation = errors.New("xfile: invariant violation")

	// Strict-mode escalation (C8)
	ErrStrictModeWarning = errors.New("xfile: warning promoted to fatal under strict mode")
)

// ContextError wraps a sentinel error with the asset kind / record type /
// field name trail that was active when the error occurred.
type ContextError struct {
	Err   error
	Trail []string
}

func (e *ContextError) Error() string {
	if len(e.Trail) == 0 {
		return e.Err.Error()
	}
	trail := e.Trail[0]
	for _, t := range e.Trail[1:] {
		trail += " -> " + t
	}
	return fmt.Sprintf("%s: %v", trail, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }

// WithTrail wraps err with a context trail, unless err is already nil.
func WithTrail(err error, trail []string) error {
	if err == nil {
		return nil
	}
	cp := make([]string, len(trail))
	copy(cp, trail)
	return &ContextError{Err: err, Trail: cp}
}

func IsContainerError(err error) bool {
	return errors.Is(err, ErrBadMagic) || errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrUnsupportedPlatform) || errors.Is(err, ErrTruncatedContainer) ||
		errors.Is(err, ErrDecompressError)
}

func IsPointerProtocolError(err error) bool {
	return errors.Is(err, ErrDanglingReference) || errors.Is(err, ErrDuplicateInline) ||
		errors.Is(err, ErrIllegalSentinel)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrUnknownAssetKind) || errors.Is(err, ErrUnknownSubKind) ||
		errors.Is(err, ErrRangeViolation) || errors.Is(err, ErrInvariantViolation)
}
