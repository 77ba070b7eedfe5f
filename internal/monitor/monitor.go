package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Step statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StepRecord captures one tracked pipeline step.
type StepRecord struct {
	StepName        string         `json:"step_name"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Status          string         `json:"status"`
	Error           string         `json:"error,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// LineageEdge records provenance of one transformation.
type LineageEdge struct {
	Source         string `json:"source"`
	Target         string `json:"target"`
	Transformation string `json:"transformation"`
	RowCount       int    `json:"row_count"`
	Timestamp      string `json:"timestamp"`
}

// Summary reports step outcomes after a run.
type Summary struct {
	ExecutionID     string         `json:"execution_id"`
	Status          string         `json:"status"`
	TotalSteps      int            `json:"total_steps"`
	SuccessfulSteps int            `json:"successful_steps"`
	FailedSteps     int            `json:"failed_steps"`
	Metrics         map[string]any `json:"performance_metrics"`
}

// Monitor tracks execution of one pipeline run and serializes the record to
// a timestamped JSON file on finalize.
type Monitor struct {
	logDir      string
	ExecutionID string
	RunID       string

	startTime time.Time
	status    string
	steps     []*StepRecord
	metrics   map[string]any
	lineage   []LineageEdge
	log       *slog.Logger
}

func New(logDir string, log *slog.Logger) (*Monitor, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", logDir, err)
	}
	if log == nil {
		log = slog.Default()
	}
	now := time.Now()
	return &Monitor{
		logDir:      logDir,
		ExecutionID: now.Format("20060102_150405"),
		RunID:       uuid.NewString(),
		startTime:   now,
		status:      StatusRunning,
		metrics:     make(map[string]any),
		log:         log,
	}, nil
}

// Step is a begin/end handle for one tracked step. End must run on every exit
// path; callers defer it immediately after Begin.
type Step struct {
	m      *Monitor
	record *StepRecord
	start  time.Time
	ended  bool
}

// Begin starts tracking a step with caller-supplied metadata.
func (m *Monitor) Begin(name string, metadata map[string]any) *Step {
	record := &StepRecord{
		StepName:  name,
		StartTime: time.Now().Format(time.RFC3339),
		Metadata:  metadata,
		Status:    StatusRunning,
	}
	m.steps = append(m.steps, record)
	m.log.Info("step started", "step", name, "run_id", m.RunID)
	return &Step{m: m, record: record, start: time.Now()}
}

// End closes the step. A non-nil err marks it failed and records the message;
// the error is never swallowed here, the caller still propagates it.
// Calling End more than once keeps the first outcome.
func (s *Step) End(err error) {
	if s.ended {
		return
	}
	s.ended = true
	s.record.DurationSeconds = time.Since(s.start).Seconds()
	s.record.EndTime = time.Now().Format(time.RFC3339)
	if err != nil {
		s.record.Status = StatusFailed
		s.record.Error = err.Error()
		s.m.log.Error("step failed", "step", s.record.StepName, "error", err)
		return
	}
	s.record.Status = StatusCompleted
	s.m.log.Info("step completed", "step", s.record.StepName,
		"duration_seconds", s.record.DurationSeconds)
}

// RecordMetric stores a named performance metric.
func (m *Monitor) RecordMetric(name string, value any) {
	m.metrics[name] = value
}

// RecordLineage appends one provenance edge.
func (m *Monitor) RecordLineage(source, target, transformation string, rowCount int) {
	m.lineage = append(m.lineage, LineageEdge{
		Source:         source,
		Target:         target,
		Transformation: transformation,
		RowCount:       rowCount,
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}

type executionLog struct {
	ExecutionID          string         `json:"execution_id"`
	RunID                string         `json:"run_id"`
	StartTime            string         `json:"start_time"`
	EndTime              string         `json:"end_time"`
	Status               string         `json:"status"`
	Steps                []*StepRecord  `json:"steps"`
	PerformanceMetrics   map[string]any `json:"performance_metrics"`
	DataLineage          []LineageEdge  `json:"data_lineage,omitempty"`
	TotalDurationSeconds float64        `json:"total_duration_seconds"`
}

// Finalize computes the total duration and writes the execution log to a
// timestamped JSON file inside the log dir, returning its path.
func (m *Monitor) Finalize(status string) (string, error) {
	m.status = status
	end := time.Now()

	record := executionLog{
		ExecutionID:          m.ExecutionID,
		RunID:                m.RunID,
		StartTime:            m.startTime.Format(time.RFC3339),
		EndTime:              end.Format(time.RFC3339),
		Status:               status,
		Steps:                m.steps,
		PerformanceMetrics:   m.metrics,
		DataLineage:          m.lineage,
		TotalDurationSeconds: end.Sub(m.startTime).Seconds(),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(m.logDir, fmt.Sprintf("pipeline_execution_%s.json", m.ExecutionID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	m.log.Info("execution log written", "path", path, "status", status)
	return path, nil
}

// Summary reports successful and failed step counts.
func (m *Monitor) Summary() Summary {
	failed := 0
	for _, s := range m.steps {
		if s.Status == StatusFailed {
			failed++
		}
	}
	return Summary{
		ExecutionID:     m.ExecutionID,
		Status:          m.status,
		TotalSteps:      len(m.steps),
		SuccessfulSteps: len(m.steps) - failed,
		FailedSteps:     failed,
		Metrics:         m.metrics,
	}
}
