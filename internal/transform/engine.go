package transform

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tracker-etl/internal/config"
	"tracker-etl/internal/frame"
	"tracker-etl/internal/store"
)

// TransformError reports a failed operator. A failing operator aborts the
// sheet; a half-applied chain is never loaded.
type TransformError struct {
	Op     string
	Reason string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %s", e.Op, e.Reason)
}

func opErr(op, format string, args ...any) error {
	return &TransformError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Engine applies the operator chain. Operators run in a fixed sequence
// regardless of how they are ordered in configuration; each one is a no-op
// when its key is absent.
type Engine struct {
	store *store.Store
	log   *slog.Logger
}

func NewEngine(st *store.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: st, log: log}
}

type operator struct {
	name  string
	apply func(*frame.Frame, config.TransformSpec) (*frame.Frame, bool, error)
}

// Apply runs the chain and returns the transformed frame together with the
// names of the operators that actually fired.
func (e *Engine) Apply(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, []string, error) {
	chain := []operator{
		{"replace_values", e.replaceValues},
		{"forward_fill", e.forwardFill},
		{"corrections", e.applyCorrections},
		{"datatypes", e.coerceDatatypes},
		{"datetime", e.parseDatetimes},
		{"rename", e.renameColumns},
		{"clean_column_names", e.cleanColumnNames},
		{"melt", e.reshape},
		{"add_columns", e.addColumnsFromSQL},
	}

	var applied []string
	for _, op := range chain {
		next, fired, err := op.apply(f, spec)
		if err != nil {
			return nil, applied, err
		}
		if fired {
			applied = append(applied, op.name)
			e.log.Debug("operator applied", "op", op.name, "rows", next.Height(), "cols", next.Width())
		}
		f = next
	}
	return f, applied, nil
}

// replaceValues maps configured raw values per column, passes unmapped values
// through, and casts the column to floating point.
func (e *Engine) replaceValues(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	if len(spec.ReplaceValues) == 0 {
		return f, false, nil
	}
	for column, mapping := range spec.ReplaceValues {
		idx, ok := f.ColumnIndex(column)
		if !ok {
			return nil, false, opErr("replace_values", "column %q not found", column)
		}
		for r := range f.Rows {
			v := f.Rows[r][idx]
			if v == nil {
				continue
			}
			if s, isStr := v.(string); isStr {
				if repl, mapped := mapping[s]; mapped {
					f.Rows[r][idx] = repl
					continue
				}
			}
			fv, err := toFloat(v)
			if err != nil {
				return nil, false, opErr("replace_values", "column %q row %d: %v", column, r, err)
			}
			f.Rows[r][idx] = fv
		}
		f.Kinds[idx] = frame.Float
	}
	return f, true, nil
}

func (e *Engine) forwardFill(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	if spec.ForwardFillColumn == "" {
		return f, false, nil
	}
	if err := f.ForwardFill(spec.ForwardFillColumn); err != nil {
		return nil, false, opErr("forward_fill", "%v", err)
	}
	return f, true, nil
}

func (e *Engine) coerceDatatypes(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	if len(spec.Datatypes) == 0 {
		return f, false, nil
	}
	for column, typeName := range spec.Datatypes {
		kind, known := frame.KindOf(typeName)
		if !known {
			return nil, false, opErr("datatypes", "unknown datatype %q for column %q", typeName, column)
		}
		idx, ok := f.ColumnIndex(column)
		if !ok {
			return nil, false, opErr("datatypes", "column %q not found", column)
		}
		for r := range f.Rows {
			coerced, err := coerce(f.Rows[r][idx], kind)
			if err != nil {
				return nil, false, opErr("datatypes", "column %q row %d: %v", column, r, err)
			}
			f.Rows[r][idx] = coerced
		}
		f.Kinds[idx] = kind
	}
	return f, true, nil
}

// parseDatetimes converts column values against a caller-supplied Go layout.
// Parsing is strict: an unparsable value fails the sheet.
func (e *Engine) parseDatetimes(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	if len(spec.Datetime) == 0 {
		return f, false, nil
	}
	for column, layout := range spec.Datetime {
		idx, ok := f.ColumnIndex(column)
		if !ok {
			return nil, false, opErr("datetime", "column %q not found", column)
		}
		for r := range f.Rows {
			v := f.Rows[r][idx]
			switch x := v.(type) {
			case nil, time.Time:
				continue
			case string:
				t, err := time.Parse(layout, x)
				if err != nil {
					return nil, false, opErr("datetime", "column %q row %d: cannot parse %q with layout %q", column, r, x, layout)
				}
				f.Rows[r][idx] = t
			default:
				return nil, false, opErr("datetime", "column %q row %d: cannot parse %T value", column, r, v)
			}
		}
		f.Kinds[idx] = frame.Time
	}
	return f, true, nil
}

// renameColumns maps configured names; unmapped names pass through.
func (e *Engine) renameColumns(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	if len(spec.ColumnNames) == 0 {
		return f, false, nil
	}
	for i, c := range f.Columns {
		if renamed, ok := spec.ColumnNames[c]; ok {
			f.Columns[i] = renamed
		}
	}
	return f, true, nil
}

var nonIdentifier = regexp.MustCompile(`[^a-z0-9_]`)

// CleanColumnName lowercases, collapses whitespace to underscores, strips
// characters outside [a-z0-9_] and trims leading/trailing underscores.
func CleanColumnName(name string) string {
	cleaned := strings.ToLower(name)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, "_")
	cleaned = nonIdentifier.ReplaceAllString(cleaned, "")
	return strings.Trim(cleaned, "_")
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func (e *Engine) cleanColumnNames(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	if !spec.CleanColumnNames {
		return f, false, nil
	}
	for i, c := range f.Columns {
		f.Columns[i] = CleanColumnName(c)
	}
	return f, true, nil
}

func (e *Engine) reshape(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	r := spec.Reshape
	if r == nil {
		return f, false, nil
	}
	if r.Type != "melt" {
		return nil, false, opErr("melt", "unsupported reshape type %q", r.Type)
	}
	melted, err := f.Melt(r.IDVars, r.ValueVars, r.VarName, r.ValueName)
	if err != nil {
		return nil, false, opErr("melt", "%v", err)
	}
	return melted, true, nil
}

// addColumnsFromSQL registers the current frame under the store's fixed
// temporary alias, runs each query in order and replaces the frame with the
// last result. The alias is dropped on every exit path, including failure,
// so the next sheet can reuse it.
func (e *Engine) addColumnsFromSQL(f *frame.Frame, spec config.TransformSpec) (result *frame.Frame, fired bool, err error) {
	if len(spec.AddColumns) == 0 {
		return f, false, nil
	}
	if e.store == nil {
		return nil, false, opErr("add_columns", "no store attached to engine")
	}

	if err := e.store.RegisterTemp(f); err != nil {
		return nil, false, opErr("add_columns", "%v", err)
	}
	defer func() {
		if dropErr := e.store.DropTemp(); dropErr != nil && err == nil {
			err = opErr("add_columns", "failed to drop %s: %v", store.TempAlias, dropErr)
		}
	}()

	for _, step := range spec.AddColumns {
		out, qerr := e.store.Query(step.JoinQuery)
		if qerr != nil {
			return nil, false, opErr("add_columns", "query %q failed: %v", step.Name, qerr)
		}
		f = out
	}
	return f, true, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		fv, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to float", x)
		}
		return fv, nil
	}
	return 0, fmt.Errorf("cannot cast %T to float", v)
}

func coerce(v any, kind frame.Kind) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case frame.Float:
		return toFloat(v)
	case frame.Int:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot cast %q to int", x)
			}
			return i, nil
		}
		return nil, fmt.Errorf("cannot cast %T to int", v)
	case frame.Bool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("cannot cast %q to bool", x)
			}
			return b, nil
		}
		return nil, fmt.Errorf("cannot cast %T to bool", v)
	case frame.String:
		switch x := v.(type) {
		case string:
			return x, nil
		case time.Time:
			return x.Format(time.RFC3339), nil
		default:
			return fmt.Sprintf("%v", x), nil
		}
	case frame.Time:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		return nil, fmt.Errorf("cannot cast %T to time without a layout", v)
	}
	return v, nil
}
