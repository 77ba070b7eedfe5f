package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tracker-etl/internal/frame"
)

// TempAlias is the single fixed alias used by SQL augmentation. Only one
// augmentation may be in flight; the alias must be released on every exit
// path before the next sheet can reuse it.
const TempAlias = "temp_transform_table"

// LoadError reports a failed table write.
type LoadError struct {
	Table  string
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load table %q: %s", e.Table, e.Reason)
}

// Store wraps the embedded analytical database.
type Store struct {
	DB   *sql.DB
	Path string
}

// Open opens (or creates) the store file. The timeout applies only to
// acquiring the connection, never to query execution.
func Open(path string, timeout time.Duration) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to store %s: %w", path, err)
	}
	return &Store{DB: db, Path: path}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Load writes a frame into the store, replacing any prior table of the same
// name atomically as observed by readers.
func (s *Store) Load(name string, f *frame.Frame) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return &LoadError{Table: name, Reason: err.Error()}
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(name)); err != nil {
		return &LoadError{Table: name, Reason: err.Error()}
	}
	if _, err := tx.Exec(createTableQuery(name, f)); err != nil {
		return &LoadError{Table: name, Reason: err.Error()}
	}
	if err := insertRows(tx, name, f); err != nil {
		return &LoadError{Table: name, Reason: err.Error()}
	}
	if err := tx.Commit(); err != nil {
		return &LoadError{Table: name, Reason: err.Error()}
	}
	return nil
}

// RegisterTemp exposes a frame under the fixed augmentation alias.
func (s *Store) RegisterTemp(f *frame.Frame) error {
	if err := s.Load(TempAlias, f); err != nil {
		return fmt.Errorf("failed to register %s: %w", TempAlias, err)
	}
	return nil
}

// DropTemp releases the augmentation alias. Safe to call whether or not the
// alias exists; both the view and table forms are removed.
func (s *Store) DropTemp() error {
	if _, err := s.DB.Exec("DROP VIEW IF EXISTS " + TempAlias); err != nil {
		return err
	}
	_, err := s.DB.Exec("DROP TABLE IF EXISTS " + TempAlias)
	return err
}

// Query runs a read query and materializes the result as a frame.
func (s *Store) Query(query string) (*frame.Frame, error) {
	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	kinds := make([]frame.Kind, len(cols))
	for i, t := range types {
		kinds[i] = kindOfSQLType(t.DatabaseTypeName())
	}

	out := frame.New(cols, kinds)
	for rows.Next() {
		holders := make([]any, len(cols))
		for i := range holders {
			holders[i] = new(any)
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, err
		}
		row := make([]any, len(cols))
		for i, h := range holders {
			row[i] = normalizeValue(*h.(*any))
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}

// DropAll removes every table in the main schema.
func (s *Store) DropAll() error {
	tables, err := s.ListTables()
	if err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := s.DB.Exec("DROP TABLE IF EXISTS " + quoteIdent(t)); err != nil {
			return err
		}
	}
	return nil
}

func createTableQuery(name string, f *frame.Frame) string {
	defs := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		defs[i] = quoteIdent(c) + " " + sqlType(f.Kinds[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
}

const insertBatchSize = 500

func insertRows(tx *sql.Tx, name string, f *frame.Frame) error {
	if len(f.Rows) == 0 {
		return nil
	}
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(f.Columns)), ",") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s VALUES ", quoteIdent(name))

	for start := 0; start < len(f.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(f.Rows) {
			end = len(f.Rows)
		}
		batch := f.Rows[start:end]

		groups := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(f.Columns))
		for i, row := range batch {
			groups[i] = placeholders
			args = append(args, row...)
		}
		if _, err := tx.Exec(prefix+strings.Join(groups, ", "), args...); err != nil {
			return err
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(k frame.Kind) string {
	switch k {
	case frame.Float:
		return "DOUBLE"
	case frame.Int:
		return "BIGINT"
	case frame.Bool:
		return "BOOLEAN"
	case frame.Time:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func kindOfSQLType(name string) frame.Kind {
	switch strings.ToUpper(name) {
	case "DOUBLE", "FLOAT", "REAL", "DECIMAL":
		return frame.Float
	case "BIGINT", "INTEGER", "INT", "SMALLINT", "TINYINT", "HUGEINT", "UBIGINT", "UINTEGER":
		return frame.Int
	case "BOOLEAN":
		return frame.Bool
	case "TIMESTAMP", "DATE", "TIMESTAMP_NS", "TIMESTAMPTZ":
		return frame.Time
	default:
		return frame.String
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case time.Time:
		return x
	default:
		return x
	}
}
