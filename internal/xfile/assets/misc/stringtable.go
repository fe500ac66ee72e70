package misc

import (
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/registry"
	"github.com/kestrel-tools/xfiledump/internal/xfile/strpool"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// StringTableCell is one cell of a StringTable's flattened column*row grid.
type StringTableCell struct {
	Name string
	Hash int32
}

// StringTable is a spreadsheet-shaped CSV-like asset: a flat grid of cells
// plus a secondary cell-index array.
type StringTable struct {
	Name        string
	ColumnCount int
	RowCount    int
	Values      []StringTableCell
	CellIndex   []int16
}

func init() {
	assets.Register(assets.KindStringTable, func(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (any, error) {
		return DecodeStringTable(s, reg, pool, d)
	})
}

// DecodeStringTable decodes name, column/row counts, then the
// column*row-sized values and cell-index arrays.
func DecodeStringTable(s *stream.Stream, reg *registry.Registry, pool *strpool.Pool, d *diag.Diagnostics) (*StringTable, error) {
	d.Push("StringTable")
	defer d.Pop()

	name, err := pool.ReadXString(s)
	if err != nil {
		return nil, d.Fatal(err)
	}
	columnCount, err := s.ReadI32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	rowCount, err := s.ReadI32()
	if err != nil {
		return nil, d.Fatal(err)
	}
	size := int(columnCount) * int(rowCount)

	values, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindStringTable), nil, func() ([]StringTableCell, error) {
		return stream.ReadArray(size, func() (StringTableCell, error) {
			cellName, err := pool.ReadXString(s)
			if err != nil {
				return StringTableCell{}, err
			}
			hash, err := s.ReadI32()
			if err != nil {
				return StringTableCell{}, err
			}
			return StringTableCell{Name: cellName, Hash: hash}, nil
		})
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	cellIndex, _, err := registry.ResolvePointer(s, reg, uint32(assets.KindStringTable), nil, func() ([]int16, error) {
		return stream.ReadArray(size, s.ReadI16)
	})
	if err != nil {
		return nil, d.Fatal(err)
	}

	return &StringTable{
		Name:        name,
		ColumnCount: int(columnCount),
		RowCount:    int(rowCount),
		Values:      values,
		CellIndex:   cellIndex,
	}, nil
}
