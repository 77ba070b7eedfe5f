package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"tracker-etl/internal/config"
	"tracker-etl/internal/frame"
	"tracker-etl/internal/store"

	"github.com/xuri/excelize/v2"
)

// SourceValidationError reports an unreadable or missing source artifact.
type SourceValidationError struct {
	Path   string
	Reason string
}

func (e *SourceValidationError) Error() string {
	return fmt.Sprintf("source validation %s: %s", e.Path, e.Reason)
}

// EmptyTableError reports an extracted table with zero rows. The run fails
// closed: the corresponding load never occurs.
type EmptyTableError struct {
	Table string
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("table %q is empty", e.Table)
}

// StepEntry is one record of the append-only validation log.
type StepEntry struct {
	Step     string         `json:"step"`
	Table    string         `json:"table,omitempty"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata"`
}

// Validator runs the four integrity checks and accumulates the report.
// Each check may be invoked independently; any failure aborts the run.
type Validator struct {
	configPath string
	entries    []StepEntry
	quality    *QualityReport
}

func New(configPath string) *Validator {
	return &Validator{configPath: configPath}
}

// Entries returns the ordered validation log.
func (v *Validator) Entries() []StepEntry {
	return v.entries
}

// ValidateSource checks workbook existence, size, modification time, content
// hash and enumerates its sheets.
func (v *Validator) ValidateSource(workbookPath string) (map[string]any, error) {
	stat, err := os.Stat(workbookPath)
	if err != nil {
		return nil, &SourceValidationError{Path: workbookPath, Reason: "file not found"}
	}

	hash, err := fileHash(workbookPath)
	if err != nil {
		return nil, &SourceValidationError{Path: workbookPath, Reason: err.Error()}
	}

	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return nil, &SourceValidationError{Path: workbookPath, Reason: fmt.Sprintf("failed to read workbook: %v", err)}
	}
	sheets := f.GetSheetList()
	f.Close()

	metadata := map[string]any{
		"file_path":            workbookPath,
		"file_size":            stat.Size(),
		"modified_time":        stat.ModTime().Format(time.RFC3339),
		"file_hash":            hash,
		"available_sheets":     sheets,
		"validation_timestamp": time.Now().Format(time.RFC3339),
	}
	v.entries = append(v.entries, StepEntry{Step: "source_validation", Status: "passed", Metadata: metadata})
	return metadata, nil
}

// ValidateConfig checks the pipeline spec file and counts flagged sheets.
func (v *Validator) ValidateConfig(p *config.Pipeline) (map[string]any, error) {
	if _, err := os.Stat(v.configPath); err != nil {
		return nil, &SourceValidationError{Path: v.configPath, Reason: "config file not found"}
	}
	hash, err := fileHash(v.configPath)
	if err != nil {
		return nil, &SourceValidationError{Path: v.configPath, Reason: err.Error()}
	}

	metadata := map[string]any{
		"config_path":             v.configPath,
		"config_hash":             hash,
		"total_sheets_configured": len(p.Sheets),
		"sheets_to_process":       p.ReadCount(),
		"validation_timestamp":    time.Now().Format(time.RFC3339),
	}
	v.entries = append(v.entries, StepEntry{Step: "config_validation", Status: "passed", Metadata: metadata})
	return metadata, nil
}

// ValidateExtracted profiles an extracted frame: shape, per-column null
// counts and dtypes, duplicate rows and numeric ranges. Zero rows fail.
func (v *Validator) ValidateExtracted(table string, f *frame.Frame) (map[string]any, error) {
	if f.Height() == 0 {
		return nil, &EmptyTableError{Table: table}
	}

	dtypes := make(map[string]string, f.Width())
	for i, c := range f.Columns {
		dtypes[c] = f.Kinds[i].String()
	}

	metadata := map[string]any{
		"table_name":           table,
		"row_count":            f.Height(),
		"column_count":         f.Width(),
		"columns":              f.Columns,
		"null_counts":          f.NullCounts(),
		"data_types":           dtypes,
		"duplicate_rows":       f.DuplicateRows(),
		"validation_timestamp": time.Now().Format(time.RFC3339),
	}
	for _, c := range f.Columns {
		if min, max, ok := f.NumericRange(c); ok {
			metadata[c+"_min"] = min
			metadata[c+"_max"] = max
		}
	}

	v.entries = append(v.entries, StepEntry{
		Step: "data_extraction_validation", Table: table, Status: "passed", Metadata: metadata,
	})
	return metadata, nil
}

// ValidateStore enumerates store tables and profiles each one.
func (v *Validator) ValidateStore(st *store.Store) (map[string]any, error) {
	tables, err := st.ListTables()
	if err != nil {
		return nil, &SourceValidationError{Path: st.Path, Reason: fmt.Sprintf("failed to enumerate tables: %v", err)}
	}

	stats := make(map[string]*store.TableStats, len(tables))
	for _, t := range tables {
		s, err := st.Stats(t)
		if err != nil {
			return nil, &SourceValidationError{Path: st.Path, Reason: fmt.Sprintf("failed to profile table %q: %v", t, err)}
		}
		stats[t] = s
	}

	metadata := map[string]any{
		"store_path":           st.Path,
		"table_count":          len(tables),
		"tables":               tables,
		"table_statistics":     stats,
		"validation_timestamp": time.Now().Format(time.RFC3339),
	}
	v.entries = append(v.entries, StepEntry{Step: "store_validation", Status: "passed", Metadata: metadata})
	return metadata, nil
}

// AttachQuality includes an aggregated data-quality report in the saved
// document.
func (v *Validator) AttachQuality(q QualityReport) {
	v.quality = &q
}

// SaveReport writes the ordered validation log, plus any attached quality
// report, as one JSON document.
func (v *Validator) SaveReport(path string) error {
	report := map[string]any{
		"pipeline_execution": map[string]any{
			"execution_timestamp":    time.Now().Format(time.RFC3339),
			"total_validation_steps": len(v.entries),
			"validation_log":         v.entries,
		},
	}
	if v.quality != nil {
		report["data_quality"] = v.quality
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
