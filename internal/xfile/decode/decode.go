// Package decode implements the asset dispatcher: it reads the payload's
// asset-list preamble and drives the per-kind decoders registered in
// internal/xfile/assets, producing the decoded asset list and its
// accompanying warnings.
package decode

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// Config selects the dispatcher's per-decode behavior.
type Config struct {
	// StrictUnknownKinds promotes any warning still recorded when the decode
	// finishes (trailing bytes) to ErrStrictModeWarning. An unknown asset
	// kind aborts the decode in either mode - an unknown record's length
	// isn't self-describing, so there is no way to skip past it and keep
	// decoding - and the UnknownAssetKind warning is recorded first.
	StrictUnknownKinds bool
	// Log receives structured diagnostics as the decode proceeds. May be nil.
	Log *zap.SugaredLogger
}

// Asset is one decoded entry from the asset list, in input order.
type Asset struct {
	Kind  assets.Kind
	Value any
}

// Result is the full output of one Decode call.
type Result struct {
	Assets              []Asset
	Warnings            []diag.Warning
	FlaggedAssetIndices []int
}

// Decode reads the asset-list preamble from s and dispatches every
// descriptor to its registered decoder, in declaration order.
func Decode(ctx context.Context, s *stream.Stream, cfg Config) (*Result, error) {
	d := diag.New(cfg.Log)
	reg := registry.New()
	pool := strpool.New()

	assetCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	stringCount, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}

	for i := uint32(0); i < stringCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ptr, err := s.ReadPointer()
		if err != nil {
			return nil, d.Fatal(err)
		}
		if ptr != stream.SentinelInline {
			return nil, d.Fatal(fmt.Errorf("%w: string placeholder %d is not the inline sentinel", xfileerr.ErrIllegalSentinel, i))
		}
	}

	kinds := make([]assets.Kind, assetCount)
	for i := range kinds {
		kindWord, err := s.ReadU32()
		if err != nil {
			return nil, d.Fatal(err)
		}
		ptr, err := s.ReadPointer()
		if err != nil {
			return nil, d.Fatal(err)
		}
		if ptr != stream.SentinelInline {
			return nil, d.Fatal(fmt.Errorf("%w: asset placeholder %d is not the inline sentinel", xfileerr.ErrIllegalSentinel, i))
		}
		kinds[i] = assets.Kind(kindWord)
	}

	for i := uint32(0); i < stringCount; i++ {
		if _, err := pool.ReadInline(s); err != nil {
			return nil, d.Fatal(err)
		}
	}

	result := &Result{Assets: make([]Asset, 0, len(kinds))}
	for i, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.SetAssetIndex(i)
		d.Push(kind.String())

		decoder, ok := assets.Lookup(kind)
		if !ok {
			d.Warn(diag.WarnUnknownAssetKind, fmt.Sprintf("kind 0x%02X at index %d has no registered decoder", uint32(kind), i))
			d.Pop()
			return nil, d.Fatal(fmt.Errorf("%w: 0x%02X at index %d (cannot continue past an undescribed record)", xfileerr.ErrUnknownAssetKind, uint32(kind), i))
		}

		value, err := decoder(s, reg, pool, d)
		d.Pop()
		if err != nil {
			return nil, err
		}
		result.Assets = append(result.Assets, Asset{Kind: kind, Value: value})
	}

	if _, err := s.ReadBytes(1); err == nil {
		d.Warn(diag.WarnTrailingBytes, fmt.Sprintf("unread bytes remain past offset %d", s.Position()))
	} else if !errors.Is(err, xfileerr.ErrUnexpectedEOF) {
		return nil, d.Fatal(err)
	}

	result.Warnings = d.Warnings()
	result.FlaggedAssetIndices = d.FlaggedAssetIndices()

	// An unknown asset kind always aborts the decode above, strict or not,
	// because its record length isn't self-describing. The only warning
	// that can still be sitting on the sidecar list at this point is
	// TrailingBytes; strict mode promotes it to fatal here.
	if cfg.StrictUnknownKinds && len(result.Warnings) > 0 {
		w := result.Warnings[0]
		return nil, d.Fatal(fmt.Errorf("%w: %s: %s", xfileerr.ErrStrictModeWarning, w.Kind, w.Detail))
	}

	return result, nil
}
