package misc

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// XGlobals holds the handful of engine-wide tunables that were serialized
// as their own top-level asset rather than baked into code.
type XGlobals struct {
	Name                  string
	XAnimStreamBufferSize int32
	CinematicMaxWidth     int32
	CinematicMaxHeight    int32
	ExtracamResolution    int32
	GumpReserve           int32
	ScreenClearColor      [4]float32
}

func init() {
	assets.Register(assets.KindXGlobals, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeXGlobals(s, reg, pool, d)
	})
}

// DecodeXGlobals decodes XGlobals' fixed, pointer-free field list.
func DecodeXGlobals(s *stream.Stream, _ *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*XGlobals, error) {
	d.Push("XGlobals")
	defer d.Pop()

	g := &XGlobals{}
	var err error
	if g.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	fields := []*int32{
		&g.XAnimStreamBufferSize, &g.CinematicMaxWidth, &g.CinematicMaxHeight,
		&g.ExtracamResolution, &g.GumpReserve,
	}
	for _, f := range fields {
		v, err := s.ReadI32()
		if err != nil {
			return nil, d.Fatal(err)
		}
		*f = v
	}
	for i := range g.ScreenClearColor {
		v, err := s.ReadF32()
		if err != nil {
			return nil, d.Fatal(err)
		}
		g.ScreenClearColor[i] = v
	}
	return g, nil
}
