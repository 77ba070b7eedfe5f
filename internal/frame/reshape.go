package frame

import "fmt"

// Melt reshapes wide data to long form: one output row per input row and value
// column, with the value column's name under varName and its cell under valueName.
func (f *Frame) Melt(idVars, valueVars []string, varName, valueName string) (*Frame, error) {
	idIdx := make([]int, len(idVars))
	for i, c := range idVars {
		idx, ok := f.ColumnIndex(c)
		if !ok {
			return nil, fmt.Errorf("melt id column %q not found", c)
		}
		idIdx[i] = idx
	}
	valIdx := make([]int, len(valueVars))
	for i, c := range valueVars {
		idx, ok := f.ColumnIndex(c)
		if !ok {
			return nil, fmt.Errorf("melt value column %q not found", c)
		}
		valIdx[i] = idx
	}

	columns := append(append([]string(nil), idVars...), varName, valueName)
	kinds := make([]Kind, 0, len(columns))
	for _, idx := range idIdx {
		kinds = append(kinds, f.Kinds[idx])
	}
	valueKind := String
	if len(valIdx) > 0 {
		valueKind = f.Kinds[valIdx[0]]
	}
	kinds = append(kinds, String, valueKind)

	out := New(columns, kinds)
	for _, row := range f.Rows {
		for i, vi := range valIdx {
			melted := make([]any, 0, len(columns))
			for _, ii := range idIdx {
				melted = append(melted, row[ii])
			}
			melted = append(melted, valueVars[i], row[vi])
			out.Rows = append(out.Rows, melted)
		}
	}
	return out, nil
}
