package memory

import (
	"fmt"
	"time"

	"bridge-metrics/internal/storage"
)

// rows is a storage.Rows over materialized values.
type rows struct {
	columns []string
	data    [][]any
	pos     int // 1-based index of the current row
	closed  bool
}

var _ storage.Rows = (*rows)(nil)

func newRows(columns []string, data [][]any) *rows {
	return &rows{columns: columns, data: data}
}

func (r *rows) Columns() []string { return r.columns }

func (r *rows) Next() bool {
	if r.closed || r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *rows) Scan(dest ...any) error {
	if r.closed || r.pos == 0 || r.pos > len(r.data) {
		return fmt.Errorf("scan: no current row")
	}
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d destinations, got %d", len(row), len(dest))
	}
	for i, v := range row {
		if err := assign(dest[i], v); err != nil {
			return fmt.Errorf("scan column %s: %w", r.columns[i], err)
		}
	}
	return nil
}

func (r *rows) Err() error { return nil }

func (r *rows) Close() error {
	r.closed = true
	return nil
}

// assign copies v into dest, which must point to v's type.
func assign(dest, v any) error {
	switch d := dest.(type) {
	case *int64:
		x, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int64", v)
		}
		*d = x
	case *float64:
		x, ok := v.(float64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *float64", v)
		}
		*d = x
	case *string:
		x, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", v)
		}
		*d = x
	case *time.Time:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("cannot scan %T into *time.Time", v)
		}
		*d = x
	case *any:
		*d = v
	default:
		return fmt.Errorf("unsupported destination %T", dest)
	}
	return nil
}
