package store

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-etl/internal/frame"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.duckdb")
	s, err := Open(path, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func summaryFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New(
		[]string{"country_name", "total", "rank", "eu_member", "reported_at"},
		[]frame.Kind{frame.String, frame.Float, frame.Int, frame.Bool, frame.Time},
	)
	ts := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.AppendRow([]any{"Germany", 18.08, int64(1), true, ts}))
	require.NoError(t, f.AppendRow([]any{"Norway", nil, int64(2), false, nil}))
	return f
}

func TestLoadAndQueryRoundTrip(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Load("a_country_summary", summaryFrame(t)))

	out, err := s.Query(`SELECT * FROM a_country_summary ORDER BY rank`)
	require.NoError(t, err)

	assert.Equal(t, []string{"country_name", "total", "rank", "eu_member", "reported_at"}, out.Columns)
	require.Equal(t, 2, out.Height())

	assert.Equal(t, "Germany", out.Rows[0][0])
	assert.Equal(t, 18.08, out.Rows[0][1])
	assert.Equal(t, int64(1), out.Rows[0][2])
	assert.Equal(t, true, out.Rows[0][3])
	ts, ok := out.Rows[0][4].(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, out.Rows[1][1], "null float survives the round trip")
	assert.Nil(t, out.Rows[1][4], "null timestamp survives the round trip")
}

func TestLoadReplacesTable(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Load("t", summaryFrame(t)))

	replacement := frame.New([]string{"only"}, []frame.Kind{frame.Int})
	require.NoError(t, replacement.AppendRow([]any{int64(7)}))
	require.NoError(t, s.Load("t", replacement))

	out, err := s.Query(`SELECT * FROM t`)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, out.Columns)
	require.Equal(t, 1, out.Height())
	assert.Equal(t, int64(7), out.Rows[0][0])
}

func TestLoadEmptyFrameCreatesEmptyTable(t *testing.T) {
	s := openStore(t)
	f := frame.New([]string{"a"}, []frame.Kind{frame.String})
	require.NoError(t, s.Load("empty", f))

	stats, err := s.Stats("empty")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.RowCount)
	assert.Equal(t, 1, stats.ColumnCount)
}

func TestLoadBatchesLargeFrames(t *testing.T) {
	s := openStore(t)
	f := frame.New([]string{"n"}, []frame.Kind{frame.Int})
	for i := 0; i < insertBatchSize+13; i++ {
		require.NoError(t, f.AppendRow([]any{int64(i)}))
	}
	require.NoError(t, s.Load("big", f))

	stats, err := s.Stats("big")
	require.NoError(t, err)
	assert.Equal(t, insertBatchSize+13, stats.RowCount)
}

func TestRegisterAndDropTemp(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.RegisterTemp(summaryFrame(t)))

	out, err := s.Query(`SELECT count(*) AS n FROM ` + TempAlias)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Rows[0][0])

	require.NoError(t, s.DropTemp())
	_, err = s.Query(`SELECT * FROM ` + TempAlias)
	assert.Error(t, err, "alias must not be queryable once released")

	// Releasing an absent alias is fine.
	assert.NoError(t, s.DropTemp())
}

func TestListTablesAndHasTable(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Load("b_second", summaryFrame(t)))
	require.NoError(t, s.Load("a_first", summaryFrame(t)))

	tables, err := s.ListTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"a_first", "b_second"}, tables)

	ok, err := s.HasTable("a_first")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.HasTable("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Load("t", summaryFrame(t)))

	stats, err := s.Stats("t")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RowCount)
	assert.Equal(t, 5, stats.ColumnCount)
	require.Len(t, stats.Columns, 5)
	assert.Equal(t, "country_name", stats.Columns[0].Name)
	assert.Equal(t, "VARCHAR", stats.Columns[0].Type)
}

func TestDropAll(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Load("a", summaryFrame(t)))
	require.NoError(t, s.Load("b", summaryFrame(t)))

	require.NoError(t, s.DropAll())
	tables, err := s.ListTables()
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestQuotedIdentifiers(t *testing.T) {
	s := openStore(t)
	f := frame.New([]string{"weird column (€)"}, []frame.Kind{frame.Float})
	require.NoError(t, f.AppendRow([]any{1.5}))
	require.NoError(t, s.Load("weird table", f))

	out, err := s.Query(`SELECT "weird column (€)" FROM "weird table"`)
	require.NoError(t, err)
	assert.Equal(t, 1.5, out.Rows[0][0])
}
