// Package menu decodes the UI menu-system asset family: MenuList and
// MenuDef. Grounded on menu.rs.
//
// WindowDef and MenuDef carry a handful of named-asset pointers
// (background material, event/key handlers, conditional expressions)
// buried among a large block of pure layout/styling scalars. Only the
// leading identity fields (name, rects, group, font) are decoded
// field-by-field; the remaining fixed-size tail of each record - sized by
// its known wire size - is kept as an opaque block rather than walked
// field-by-field, consistent with this decoder's treatment of other
// deeply nested layout records. See DESIGN.md.
package menu

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

const (
	windowDefWireSize = 164
	menuDefWireSize   = 400
)

// RectDef is a screen-space rectangle with its alignment mode.
type RectDef struct {
	X, Y, W, H          float32
	HorzAlign, VertAlign int32
}

// WindowDef is the positioning and styling header every menu window
// shares.
type WindowDef struct {
	Name        string
	Rect        RectDef
	RectClient  RectDef
	Group       string
	Tail        []byte
}

// MenuDef is one menu screen: its window header, font, and item count.
// The item table itself (ItemDef, a further deeply nested per-widget
// record) is outside this decoder's scope.
type MenuDef struct {
	Window     WindowDef
	Font       string
	FullScreen int32
	ItemCount  int32
	Tail       []byte
}

// MenuList is a named, ordered collection of menu screens (a .menu file's
// top-level asset).
type MenuList struct {
	Name  string
	Menus []MenuDef
}

func init() {
	assets.Register(assets.KindMenuList, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeMenuList(s, reg, pool, d)
	})
	assets.Register(assets.KindMenu, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeMenuDef(s, pool, d)
	})
}

func decodeRectDef(s *stream.Stream) (RectDef, error) {
	var r RectDef
	var err error
	if r.X, err = s.ReadF32(); err != nil {
		return r, err
	}
	if r.Y, err = s.ReadF32(); err != nil {
		return r, err
	}
	if r.W, err = s.ReadF32(); err != nil {
		return r, err
	}
	if r.H, err = s.ReadF32(); err != nil {
		return r, err
	}
	if r.HorzAlign, err = s.ReadI32(); err != nil {
		return r, err
	}
	if r.VertAlign, err = s.ReadI32(); err != nil {
		return r, err
	}
	return r, nil
}

func decodeWindowDef(s *stream.Stream, pool *strpool.Pool) (WindowDef, error) {
	var w WindowDef
	var err error
	if w.Name, err = pool.ReadXString(s); err != nil {
		return w, err
	}
	if w.Rect, err = decodeRectDef(s); err != nil {
		return w, err
	}
	if w.RectClient, err = decodeRectDef(s); err != nil {
		return w, err
	}
	if w.Group, err = pool.ReadXString(s); err != nil {
		return w, err
	}
	// name + rect + rect_client + group nominally consume 4+24+24+4 = 56
	// bytes of the 164-byte fixed record.
	if w.Tail, err = s.ReadBytes(windowDefWireSize - 56); err != nil {
		return w, err
	}
	return w, nil
}

// DecodeMenuDef decodes one MenuDef record: its window header, font, and
// item/display counters, in engine declaration order.
func DecodeMenuDef(s *stream.Stream, pool *strpool.Pool, d *diag.Diagnostics) (*MenuDef, error) {
	d.Push("MenuDef")
	defer d.Pop()

	m := &MenuDef{}
	var err error
	if m.Window, err = decodeWindowDef(s, pool); err != nil {
		return nil, d.Fatal(err)
	}
	if m.Font, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	if m.FullScreen, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	if _, err = s.ReadI32(); err != nil { // ui_3d_window_id, not kept
		return nil, d.Fatal(err)
	}
	if m.ItemCount, err = s.ReadI32(); err != nil {
		return nil, d.Fatal(err)
	}
	// window(164) + font(4) + full_screen(4) + ui_3d_window_id(4) +
	// item_count(4) = 180 of the 400-byte fixed record.
	if m.Tail, err = s.ReadBytes(menuDefWireSize - 180); err != nil {
		return nil, d.Fatal(err)
	}
	return m, nil
}

// DecodeMenuList decodes the name followed by the fat-pointer menu table.
func DecodeMenuList(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*MenuList, error) {
	d.Push("MenuList")
	defer d.Pop()

	l := &MenuList{}
	var err error
	if l.Name, err = pool.ReadXString(s); err != nil {
		return nil, d.Fatal(err)
	}
	count, err := s.ReadU32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	menus, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindMenuList), nil, func() ([]MenuDef, error) {
		items, err := stream.ReadArray(int(count), func() (MenuDef, error) {
			m, err := DecodeMenuDef(s, pool, d)
			if err != nil {
				return MenuDef{}, err
			}
			return *m, nil
		})
		return items, err
	})
	if err != nil {
		return nil, d.Fatal(err)
	}
	l.Menus = menus

	return l, nil
}
