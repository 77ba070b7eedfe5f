package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker-etl/internal/frame"
)

func qualityFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New([]string{"country", "total", "empty"}, []frame.Kind{frame.String, frame.Float, frame.Float})
	require.NoError(t, f.AppendRow([]any{"Germany", 18.08, nil}))
	require.NoError(t, f.AppendRow([]any{"France", -1.0, nil}))
	require.NoError(t, f.AppendRow([]any{nil, 2.0, nil}))
	require.NoError(t, f.AppendRow([]any{nil, 2.0, nil}))
	return f
}

func TestCheckCompleteness(t *testing.T) {
	q := NewQualityMonitor()
	report := q.CheckCompleteness(qualityFrame(t), "summary", []string{"country", "total", "absent"})

	assert.Equal(t, 4, report.TotalRows)
	assert.Equal(t, 50.0, report.NullPercentageByColumn["country"])
	assert.Equal(t, 0.0, report.NullPercentageByColumn["total"])
	assert.Equal(t, []string{"empty"}, report.CompletelyNullColumns)
	// Required columns missing from the frame are skipped, not flagged.
	assert.Equal(t, []string{"country"}, report.RequiredColumnViolations)
}

func TestCheckConsistency(t *testing.T) {
	q := NewQualityMonitor()
	min := 0.0
	report := q.CheckConsistency(qualityFrame(t), "summary", map[string]RangeRule{
		"non_negative_total": {Column: "total", Min: &min},
		"unknown_column":     {Column: "absent", Min: &min},
	})

	assert.Equal(t, 1, report.DuplicateRows)
	v := report.RuleViolations["non_negative_total"]
	assert.Equal(t, 1, v.ViolationCount)
	assert.Equal(t, []int{1}, v.ViolationRows)
	_, checked := report.RuleViolations["unknown_column"]
	assert.False(t, checked)
}

func TestQualityReportAggregates(t *testing.T) {
	q := NewQualityMonitor()
	q.CheckCompleteness(qualityFrame(t), "summary", nil)
	q.CheckConsistency(qualityFrame(t), "summary", nil)

	report := q.Report()
	assert.Equal(t, 2, report.ChecksPerformed)
	assert.Contains(t, report.Checks, "summary_completeness")
	assert.Contains(t, report.Checks, "summary_consistency")
	assert.NotEmpty(t, report.GeneratedAt)
}
