// Package diag implements the decode-time diagnostics sidecar: a push/pop
// context trail for error reporting and a warnings list that either
// accumulates (permissive mode) or escalates to a fatal error (strict mode).
package diag

import (
	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/kestrel-tools/xfiledump/internal/xfile/xfileerr"
)

// WarningKind enumerates the permissive-mode warnings of spec §7.
type WarningKind int

const (
	WarnNonPCPlatform WarningKind = iota
	WarnSignatureUnchecked
	WarnTrailingBytes
	WarnUnknownAssetKind
)

func (k WarningKind) String() string {
	switch k {
	case WarnNonPCPlatform:
		return "NonPCPlatform"
	case WarnSignatureUnchecked:
		return "SignatureUnchecked"
	case WarnTrailingBytes:
		return "TrailingBytes"
	case WarnUnknownAssetKind:
		return "UnknownAssetKind"
	default:
		return "Unknown"
	}
}

// Warning is one recorded non-fatal condition.
type Warning struct {
	Kind       WarningKind
	Detail     string
	AssetIndex int // -1 if not associated with a specific asset
}

// Diagnostics carries the mutable, per-decode diagnostic state threaded
// through the whole call graph (spec §5: no global state).
type Diagnostics struct {
	trail            []string
	warnings         []Warning
	flaggedIndices   *roaring.Bitmap
	currentAssetIdx  int
	log              *zap.SugaredLogger
}

// New creates an empty Diagnostics. log may be nil to disable logging.
func New(log *zap.SugaredLogger) *Diagnostics {
	return &Diagnostics{
		flaggedIndices:  roaring.New(),
		currentAssetIdx: -1,
		log:             log,
	}
}

// SetAssetIndex records which asset-list index is currently being decoded, so
// that Warn can tag the roaring bitmap used by FlaggedAssetIndices.
func (d *Diagnostics) SetAssetIndex(idx int) { d.currentAssetIdx = idx }

// Push enters a new context frame (e.g. "Material", "techniqueSet", "name").
func (d *Diagnostics) Push(label string) {
	d.trail = append(d.trail, label)
}

// Pop leaves the most recently pushed frame.
func (d *Diagnostics) Pop() {
	if len(d.trail) > 0 {
		d.trail = d.trail[:len(d.trail)-1]
	}
}

// Trail returns a defensive copy of the current context trail.
func (d *Diagnostics) Trail() []string {
	cp := make([]string, len(d.trail))
	copy(cp, d.trail)
	return cp
}

// Fatal wraps err with the current context trail and logs it.
func (d *Diagnostics) Fatal(err error) error {
	if err == nil {
		return nil
	}
	wrapped := xfileerr.WithTrail(err, d.trail)
	if d.log != nil {
		d.log.With("trail", d.trail).Errorw("fatal decode error", "error", err)
	}
	return wrapped
}

// Warn records a non-fatal warning on the sidecar list.
func (d *Diagnostics) Warn(kind WarningKind, detail string) {
	w := Warning{Kind: kind, Detail: detail, AssetIndex: d.currentAssetIdx}
	d.warnings = append(d.warnings, w)
	if d.currentAssetIdx >= 0 {
		d.flaggedIndices.Add(uint32(d.currentAssetIdx))
	}
	if d.log != nil {
		d.log.With("trail", d.trail, "asset_index", d.currentAssetIdx).Warnw(detail, "kind", kind.String())
	}
}

// Warnings returns the accumulated sidecar warning list.
func (d *Diagnostics) Warnings() []Warning { return d.warnings }

// FlaggedAssetIndices returns the sorted set of asset-list indices that
// produced at least one warning.
func (d *Diagnostics) FlaggedAssetIndices() []int {
	out := make([]int, 0, d.flaggedIndices.GetCardinality())
	it := d.flaggedIndices.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
