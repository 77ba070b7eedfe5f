package frame

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the declared type of a column. Cells hold any; nil means null.
type Kind int

const (
	String Kind = iota
	Float
	Int
	Bool
	Time
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Time:
		return "time"
	default:
		return "string"
	}
}

// KindOf resolves a config-supplied type name.
func KindOf(name string) (Kind, bool) {
	switch strings.ToLower(name) {
	case "string", "str", "varchar":
		return String, true
	case "float", "float64", "double":
		return Float, true
	case "int", "int64", "bigint":
		return Int, true
	case "bool", "boolean":
		return Bool, true
	case "time", "datetime", "timestamp":
		return Time, true
	}
	return String, false
}

// Frame is an ordered, typed, nullable in-memory table.
type Frame struct {
	Columns []string
	Kinds   []Kind
	Rows    [][]any
}

func New(columns []string, kinds []Kind) *Frame {
	if kinds == nil {
		kinds = make([]Kind, len(columns))
	}
	return &Frame{Columns: columns, Kinds: kinds}
}

func (f *Frame) Width() int  { return len(f.Columns) }
func (f *Frame) Height() int { return len(f.Rows) }

// ColumnIndex returns the position of a named column.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	for i, c := range f.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// AppendRow adds one row. The row must match the frame width.
func (f *Frame) AppendRow(row []any) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("row width %d does not match frame width %d", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Kinds:   append([]Kind(nil), f.Kinds...),
		Rows:    make([][]any, len(f.Rows)),
	}
	for i, row := range f.Rows {
		c.Rows[i] = append([]any(nil), row...)
	}
	return c
}

// ForwardFill propagates the last non-null value down the named column.
func (f *Frame) ForwardFill(column string) error {
	idx, ok := f.ColumnIndex(column)
	if !ok {
		return fmt.Errorf("column %q not found", column)
	}
	var last any
	for _, row := range f.Rows {
		if row[idx] != nil {
			last = row[idx]
		} else if last != nil {
			row[idx] = last
		}
	}
	return nil
}

// NullCounts returns the number of null cells per column.
func (f *Frame) NullCounts() map[string]int {
	counts := make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		n := 0
		for _, row := range f.Rows {
			if row[i] == nil {
				n++
			}
		}
		counts[c] = n
	}
	return counts
}

// DuplicateRows counts rows that are exact repeats of an earlier row.
func (f *Frame) DuplicateRows() int {
	seen := make(map[string]bool, len(f.Rows))
	dups := 0
	for _, row := range f.Rows {
		key := fingerprint(row)
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}

// NumericRange returns min and max of a numeric column, ignoring nulls.
// ok is false when the column has no numeric values.
func (f *Frame) NumericRange(column string) (min, max float64, ok bool) {
	idx, found := f.ColumnIndex(column)
	if !found {
		return 0, 0, false
	}
	for _, row := range f.Rows {
		v, isNum := AsFloat(row[idx])
		if !isNum {
			continue
		}
		if !ok || v < min {
			min = v
		}
		if !ok || v > max {
			max = v
		}
		ok = true
	}
	return min, max, ok
}

// AsFloat converts a numeric cell to float64.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

func fingerprint(row []any) string {
	var b strings.Builder
	for _, v := range row {
		switch x := v.(type) {
		case nil:
			b.WriteString("\x00")
		case time.Time:
			b.WriteString(x.UTC().Format(time.RFC3339Nano))
		default:
			fmt.Fprintf(&b, "%v", x)
		}
		b.WriteString("\x1f")
	}
	return b.String()
}
