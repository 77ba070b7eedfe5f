package store

// Store introspection used by post-load validation.

// ColumnInfo is one declared column of a stored table.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableStats summarizes one stored table.
type TableStats struct {
	RowCount    int          `json:"row_count"`
	ColumnCount int          `json:"column_count"`
	Columns     []ColumnInfo `json:"columns"`
}

// ListTables enumerates the tables of the main schema in name order.
func (s *Store) ListTables() ([]string, error) {
	rows, err := s.DB.Query(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Stats reports row count and declared columns for one table.
func (s *Store) Stats(table string) (*TableStats, error) {
	stats := &TableStats{}
	if err := s.DB.QueryRow("SELECT COUNT(*) FROM " + quoteIdent(table)).Scan(&stats.RowCount); err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position",
		table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		stats.Columns = append(stats.Columns, col)
	}
	stats.ColumnCount = len(stats.Columns)
	return stats, rows.Err()
}

// HasTable reports whether a table is queryable in the main schema.
func (s *Store) HasTable(name string) (bool, error) {
	var n int
	err := s.DB.QueryRow(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'main' AND table_name = ?",
		name).Scan(&n)
	return n > 0, err
}
