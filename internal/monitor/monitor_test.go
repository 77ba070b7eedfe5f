package monitor

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	m, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return m
}

func TestStepLifecycle(t *testing.T) {
	m := newTestMonitor(t)

	step := m.Begin("data_extraction", map[string]any{"sheet": "Summary"})
	step.End(nil)

	failing := m.Begin("data_loading", nil)
	failing.End(errors.New("boom"))

	summary := m.Summary()
	assert.Equal(t, 2, summary.TotalSteps)
	assert.Equal(t, 1, summary.SuccessfulSteps)
	assert.Equal(t, 1, summary.FailedSteps)
}

func TestStepEndIsIdempotent(t *testing.T) {
	m := newTestMonitor(t)

	step := m.Begin("extract", nil)
	step.End(nil)
	step.End(errors.New("late failure must not overwrite"))

	summary := m.Summary()
	assert.Equal(t, 1, summary.SuccessfulSteps)
	assert.Equal(t, 0, summary.FailedSteps)
}

func TestFinalizeWritesExecutionLog(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, nil)
	require.NoError(t, err)

	step := m.Begin("extract", nil)
	step.End(nil)
	m.RecordMetric("rows_loaded", 42)
	m.RecordLineage("Summary", "a_country_summary", "corrections,clean_column_names", 19)

	path, err := m.Finalize(StatusCompleted)
	require.NoError(t, err)
	assert.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, StatusCompleted, record["status"])
	assert.Equal(t, m.RunID, record["run_id"])
	assert.Len(t, record["steps"], 1)
	assert.Len(t, record["data_lineage"], 1)

	metrics, ok := record["performance_metrics"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, metrics["rows_loaded"])
}

func TestFinalizeFailedStatus(t *testing.T) {
	m := newTestMonitor(t)

	step := m.Begin("extract", nil)
	step.End(errors.New("sheet missing"))

	path, err := m.Finalize(StatusFailed)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, StatusFailed, m.Summary().Status)
}

func TestNewCreatesLogDir(t *testing.T) {
	dir := t.TempDir() + "/nested/logs"
	_, err := New(dir, nil)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestRunIDsAreUnique(t *testing.T) {
	a := newTestMonitor(t)
	b := newTestMonitor(t)
	assert.NotEqual(t, a.RunID, b.RunID)
}
