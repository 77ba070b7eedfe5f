package validate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tracker-etl/internal/config"
	"tracker-etl/internal/frame"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "x")
	path := filepath.Join(t.TempDir(), "tracker.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestValidateSource(t *testing.T) {
	v := New("unused.yaml")
	path := writeWorkbook(t)

	meta, err := v.ValidateSource(path)
	require.NoError(t, err)
	assert.Equal(t, path, meta["file_path"])
	assert.NotEmpty(t, meta["file_hash"])
	assert.Contains(t, meta["available_sheets"], "Sheet1")
	require.Len(t, v.Entries(), 1)
	assert.Equal(t, "source_validation", v.Entries()[0].Step)
	assert.Equal(t, "passed", v.Entries()[0].Status)
}

func TestValidateSourceMissingFile(t *testing.T) {
	v := New("unused.yaml")

	_, err := v.ValidateSource(filepath.Join(t.TempDir(), "nope.xlsx"))
	var serr *SourceValidationError
	require.ErrorAs(t, err, &serr)
	assert.Empty(t, v.Entries(), "a failed check leaves no log entry")
}

func TestValidateSourceNotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	v := New("unused.yaml")
	_, err := v.ValidateSource(path)
	var serr *SourceValidationError
	assert.ErrorAs(t, err, &serr)
}

func TestValidateConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sheets: []"), 0644))

	v := New(cfgPath)
	p := &config.Pipeline{Sheets: []config.SheetSpec{
		{Read: true, Extract: config.ExtractSpec{Name: "A"}},
		{Read: false},
	}}

	meta, err := v.ValidateConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 2, meta["total_sheets_configured"])
	assert.Equal(t, 1, meta["sheets_to_process"])
}

func TestValidateExtractedEmptyTableFailsClosed(t *testing.T) {
	v := New("unused.yaml")
	f := frame.New([]string{"a"}, nil)

	_, err := v.ValidateExtracted("a_country_summary", f)
	var eerr *EmptyTableError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "a_country_summary", eerr.Table)
}

func TestValidateExtractedProfile(t *testing.T) {
	v := New("unused.yaml")
	f := frame.New([]string{"country", "total"}, []frame.Kind{frame.String, frame.Float})
	require.NoError(t, f.AppendRow([]any{"Germany", 18.08}))
	require.NoError(t, f.AppendRow([]any{"France", nil}))

	meta, err := v.ValidateExtracted("a_country_summary", f)
	require.NoError(t, err)
	assert.Equal(t, 2, meta["row_count"])
	assert.Equal(t, 2, meta["column_count"])
	assert.Equal(t, map[string]int{"country": 0, "total": 1}, meta["null_counts"])
	assert.Equal(t, map[string]string{"country": "string", "total": "float"}, meta["data_types"])
	assert.Equal(t, 0, meta["duplicate_rows"])
	assert.Equal(t, 18.08, meta["total_min"])
	assert.Equal(t, 18.08, meta["total_max"])
}

func TestSaveReport(t *testing.T) {
	v := New("unused.yaml")
	f := frame.New([]string{"a"}, nil)
	require.NoError(t, f.AppendRow([]any{"x"}))
	_, err := v.ValidateExtracted("t", f)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "validation_report.json")
	require.NoError(t, v.SaveReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	exec := report["pipeline_execution"]
	assert.EqualValues(t, 1, exec["total_validation_steps"])
	_, hasQuality := report["data_quality"]
	assert.False(t, hasQuality, "no quality section unless one was attached")
}

func TestSaveReportIncludesAttachedQuality(t *testing.T) {
	v := New("unused.yaml")
	q := NewQualityMonitor()
	f := frame.New([]string{"a"}, nil)
	require.NoError(t, f.AppendRow([]any{"x"}))
	q.CheckCompleteness(f, "t", nil)
	v.AttachQuality(q.Report())

	path := filepath.Join(t.TempDir(), "validation_report.json")
	require.NoError(t, v.SaveReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	quality := report["data_quality"]
	require.NotNil(t, quality)
	assert.EqualValues(t, 1, quality["quality_checks_performed"])
	checks, ok := quality["checks"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, checks, "t_completeness")
}
