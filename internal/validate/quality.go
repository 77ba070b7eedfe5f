package validate

import (
	"math"
	"time"

	"tracker-etl/internal/frame"
)

// CompletenessReport summarizes missing data for one table.
type CompletenessReport struct {
	TableName                string             `json:"table_name"`
	TotalRows                int                `json:"total_rows"`
	TotalColumns             int                `json:"total_columns"`
	NullPercentageByColumn   map[string]float64 `json:"null_percentage_by_column"`
	CompletelyNullColumns    []string           `json:"completely_null_columns"`
	RequiredColumnViolations []string           `json:"required_column_violations"`
}

// RangeRule bounds a numeric column for consistency checking.
type RangeRule struct {
	Column string   `json:"column"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// RuleViolation records how many rows break one rule.
type RuleViolation struct {
	ViolationCount int   `json:"violation_count"`
	ViolationRows  []int `json:"violation_rows"`
}

// ConsistencyReport summarizes duplicates and rule violations for one table.
type ConsistencyReport struct {
	TableName      string                   `json:"table_name"`
	DuplicateRows  int                      `json:"duplicate_rows"`
	RuleViolations map[string]RuleViolation `json:"rule_violations"`
}

// QualityReport aggregates the quality checks performed in one run.
type QualityReport struct {
	ChecksPerformed int            `json:"quality_checks_performed"`
	Checks          map[string]any `json:"checks"`
	GeneratedAt     string         `json:"generated_at"`
}

// QualityMonitor accumulates per-table quality findings.
type QualityMonitor struct {
	checks map[string]any
}

func NewQualityMonitor() *QualityMonitor {
	return &QualityMonitor{checks: make(map[string]any)}
}

// CheckCompleteness reports null percentages per column, fully-null columns
// and required columns that contain any null.
func (q *QualityMonitor) CheckCompleteness(f *frame.Frame, table string, requiredColumns []string) CompletenessReport {
	report := CompletenessReport{
		TableName:                table,
		TotalRows:                f.Height(),
		TotalColumns:             f.Width(),
		NullPercentageByColumn:   make(map[string]float64, f.Width()),
		CompletelyNullColumns:    []string{},
		RequiredColumnViolations: []string{},
	}

	nulls := f.NullCounts()
	for _, c := range f.Columns {
		pct := 0.0
		if f.Height() > 0 {
			pct = float64(nulls[c]) / float64(f.Height()) * 100
		}
		report.NullPercentageByColumn[c] = math.Round(pct*100) / 100
		if f.Height() > 0 && nulls[c] == f.Height() {
			report.CompletelyNullColumns = append(report.CompletelyNullColumns, c)
		}
	}

	for _, c := range requiredColumns {
		if _, ok := f.ColumnIndex(c); ok && nulls[c] > 0 {
			report.RequiredColumnViolations = append(report.RequiredColumnViolations, c)
		}
	}

	q.checks[table+"_completeness"] = report
	return report
}

const maxReportedViolations = 10

// CheckConsistency reports duplicate rows and out-of-range values.
func (q *QualityMonitor) CheckConsistency(f *frame.Frame, table string, rules map[string]RangeRule) ConsistencyReport {
	report := ConsistencyReport{
		TableName:      table,
		DuplicateRows:  f.DuplicateRows(),
		RuleViolations: make(map[string]RuleViolation),
	}

	for name, rule := range rules {
		idx, ok := f.ColumnIndex(rule.Column)
		if !ok {
			continue
		}
		var rows []int
		for r, row := range f.Rows {
			v, isNum := frame.AsFloat(row[idx])
			if !isNum {
				continue
			}
			if (rule.Min != nil && v < *rule.Min) || (rule.Max != nil && v > *rule.Max) {
				rows = append(rows, r)
			}
		}
		violation := RuleViolation{ViolationCount: len(rows)}
		if len(rows) > maxReportedViolations {
			rows = rows[:maxReportedViolations]
		}
		violation.ViolationRows = rows
		report.RuleViolations[name] = violation
	}

	q.checks[table+"_consistency"] = report
	return report
}

// Report returns the aggregated quality report.
func (q *QualityMonitor) Report() QualityReport {
	return QualityReport{
		ChecksPerformed: len(q.checks),
		Checks:          q.checks,
		GeneratedAt:     time.Now().Format(time.RFC3339),
	}
}
