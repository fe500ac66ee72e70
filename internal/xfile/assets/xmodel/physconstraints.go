package xmodel

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets/techset"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// MaxConstraints bounds the fixed constraint array every PhysConstraints
// asset carries.
const MaxConstraints = 16

// PhysConstraint is one rope/rigid/hinge joint binding two entities (or an
// entity and a fixed point) together.
type PhysConstraint struct {
	TargetName       uint16 // ScriptString: index into the container's script-string table
	Type             int32
	AttachPointType1 int32
	TargetIndex1     int32
	TargetEnt1       uint16 // ScriptString
	TargetBone1      string
	AttachPointType2 int32
	TargetIndex2     int32
	TargetEnt2       uint16 // ScriptString
	TargetBone2      string
	Offset           [3]float32
	Pos              [3]float32
	Pos2             [3]float32
	Dir              [3]float32
	Flags            int32
	Timeout          int32
	MinHealth        int32
	MaxHealth        int32
	Distance         float32
	Damp             float32
	Power            float32
	Scale            [3]float32
	SpinScale        float32
	MinAngle         float32
	MaxAngle         float32
	Material         *techset.Material
	ConstraintHandle int32
	RopeIndex        int32
	CentityNum       [4]int32
}

// PhysConstraints is a named table of up to MaxConstraints joints, used by
// ragdoll and breakable-prop rigs.
type PhysConstraints struct {
	Name        string
	Constraints []PhysConstraint
}

func init() {
	assets.Register(assets.KindPhysConstraints, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodePhysConstraints(s, reg, pool, d)
	})
}

// DecodePhysConstraints decodes the name, the live-count header, then the
// full MaxConstraints-sized inline array (only the first count entries are
// meaningful; the rest is padding the engine leaves in the buffer).
func DecodePhysConstraints(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*PhysConstraints, error) {
	d.Push("PhysConstraints")
	defer d.Pop()

	pc := &PhysConstraints{}
	var err error

	if pc.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	count, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}

	all := make([]PhysConstraint, MaxConstraints)
	for i := 0; i < MaxConstraints; i++ {
		c, err := decodePhysConstraint(s, reg, pool, d)
		if err != nil {
			return nil, d.Fatal(err)
		}
		all[i] = c
	}

	if int(count) > MaxConstraints {
		d.Warn(diag.WarnTrailingBytes, "PhysConstraints count exceeds fixed array size")
		count = MaxConstraints
	}
	pc.Constraints = all[:count]

	return pc, nil
}

func decodePhysConstraint(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (PhysConstraint, error) {
	var c PhysConstraint
	var err error

	if c.TargetName, err = readScriptString(s); err != nil {
		return c, err
	}
	if c.Type, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.AttachPointType1, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.TargetIndex1, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.TargetEnt1, err = readScriptString(s); err != nil {
		return c, err
	}
	if c.TargetBone1, err = pool.ReadXString(s); err != nil {
		return c, err
	}
	if c.AttachPointType2, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.TargetIndex2, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.TargetEnt2, err = readScriptString(s); err != nil {
		return c, err
	}
	if c.TargetBone2, err = pool.ReadXString(s); err != nil {
		return c, err
	}
	for i := range c.Offset {
		if c.Offset[i], err = s.ReadF32(); err != nil {
			return c, err
		}
	}
	for i := range c.Pos {
		if c.Pos[i], err = s.ReadF32(); err != nil {
			return c, err
		}
	}
	for i := range c.Pos2 {
		if c.Pos2[i], err = s.ReadF32(); err != nil {
			return c, err
		}
	}
	for i := range c.Dir {
		if c.Dir[i], err = s.ReadF32(); err != nil {
			return c, err
		}
	}
	if c.Flags, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.Timeout, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.MinHealth, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.MaxHealth, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.Distance, err = s.ReadF32(); err != nil {
		return c, err
	}
	if c.Damp, err = s.ReadF32(); err != nil {
		return c, err
	}
	if c.Power, err = s.ReadF32(); err != nil {
		return c, err
	}
	for i := range c.Scale {
		if c.Scale[i], err = s.ReadF32(); err != nil {
			return c, err
		}
	}
	if c.SpinScale, err = s.ReadF32(); err != nil {
		return c, err
	}
	if c.MinAngle, err = s.ReadF32(); err != nil {
		return c, err
	}
	if c.MaxAngle, err = s.ReadF32(); err != nil {
		return c, err
	}

	mat, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindMaterial), nil, func() (*techset.Material, error) {
		return techset.DecodeMaterial(s, reg, pool, d)
	})
	if err != nil {
		return c, err
	}
	c.Material = mat

	if c.ConstraintHandle, err = s.ReadI32(); err != nil {
		return c, err
	}
	if c.RopeIndex, err = s.ReadI32(); err != nil {
		return c, err
	}
	for i := range c.CentityNum {
		if c.CentityNum[i], err = s.ReadI32(); err != nil {
			return c, err
		}
	}

	return c, nil
}

// readScriptString reads a ScriptString field: a 16-bit index into the
// container's script-string table, followed by its 2-byte alignment pad.
// The table itself lives outside any single asset record, so the raw index
// is kept rather than resolved against it.
func readScriptString(s *stream.Stream) (uint16, error) {
	v, err := s.ReadU16()
	if err != nil {
		return 0, err
	}
	if _, err := s.ReadBytes(2); err != nil {
		return 0, err
	}
	return v, nil
}
