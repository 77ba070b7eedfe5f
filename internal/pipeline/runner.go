package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"tracker-etl/internal/config"
	"tracker-etl/internal/extract"
	"tracker-etl/internal/lookup"
	"tracker-etl/internal/monitor"
	"tracker-etl/internal/store"
	"tracker-etl/internal/transform"
	"tracker-etl/internal/validate"
)

// Run carries everything one execution needs. State is passed explicitly
// through the stages; there are no package-level singletons.
type Run struct {
	Pipeline     *config.Pipeline
	Taxonomy     *config.Taxonomy
	WorkbookPath string
	Store        *store.Store
	Monitor      *monitor.Monitor
	Validator    *validate.Validator
	Quality      *validate.QualityMonitor
	Log          *slog.Logger
}

// SheetResult is the per-sheet line of the final report.
type SheetResult struct {
	Sheet    string
	Table    string
	Rows     int
	Status   string
	ErrorMsg string
}

// Execute runs the full pipeline: source and config validation, country
// lookup rebuild, then extract/transform/load per flagged sheet, strictly
// sequential, with post-load store validation. onSheet fires once per
// processed sheet for progress display. The execution log is finalized on
// every exit path, so aborted runs still leave a diagnosable record.
func (r *Run) Execute(onSheet func()) (results []SheetResult, logPath string, err error) {
	if r.Log == nil {
		r.Log = slog.Default()
	}

	defer func() {
		status := "completed"
		if err != nil {
			status = "failed"
		}
		path, ferr := r.Monitor.Finalize(status)
		if ferr != nil {
			r.Log.Error("failed to write execution log", "error", ferr)
			if err == nil {
				err = ferr
			}
		}
		logPath = path
	}()

	if err = r.validateInputs(); err != nil {
		return results, logPath, err
	}
	if err = r.buildCountryLookup(); err != nil {
		return results, logPath, err
	}

	ex, err := extract.Open(r.WorkbookPath)
	if err != nil {
		return results, logPath, err
	}
	defer ex.Close()

	engine := transform.NewEngine(r.Store, r.Log)
	totalRows := 0

	for _, sheet := range r.Pipeline.Sheets {
		if !sheet.Read {
			continue
		}
		rows, sheetErr := r.processSheet(ex, engine, sheet)
		result := SheetResult{Sheet: sheet.Extract.Name, Table: sheet.Load.Name, Rows: rows, Status: "OK"}
		if sheetErr != nil {
			result.Status = "FAILED"
			result.ErrorMsg = sheetErr.Error()
			results = append(results, result)
			return results, logPath, sheetErr
		}
		totalRows += rows
		results = append(results, result)
		if onSheet != nil {
			onSheet()
		}
	}

	r.Monitor.RecordMetric("sheets_processed", len(results))
	r.Monitor.RecordMetric("rows_loaded", totalRows)
	if r.Quality != nil {
		r.Validator.AttachQuality(r.Quality.Report())
	}

	if err = r.validateStore(); err != nil {
		return results, logPath, err
	}
	return results, logPath, nil
}

func (r *Run) validateInputs() error {
	step := r.Monitor.Begin("source_validation", map[string]any{"workbook": r.WorkbookPath})
	meta, err := r.Validator.ValidateSource(r.WorkbookPath)
	step.End(err)
	if err != nil {
		return err
	}
	if sheets, ok := meta["available_sheets"].([]string); ok {
		r.Monitor.RecordMetric("workbook_sheets", len(sheets))
	}

	step = r.Monitor.Begin("config_validation", nil)
	_, err = r.Validator.ValidateConfig(r.Pipeline)
	step.End(err)
	return err
}

// buildCountryLookup rebuilds the reference table; it fully replaces the
// prior version before any sheet is processed.
func (r *Run) buildCountryLookup() error {
	step := r.Monitor.Begin("build_country_lookup", nil)
	f, err := lookup.Build(r.Taxonomy)
	if err == nil {
		err = r.Store.Load(lookup.TableName, f)
	}
	step.End(err)
	if err != nil {
		return err
	}
	r.Monitor.RecordLineage("country_taxonomy", lookup.TableName, "derive categories and ISO3 codes", f.Height())
	return nil
}

func (r *Run) processSheet(ex *extract.Extractor, engine *transform.Engine, sheet config.SheetSpec) (int, error) {
	name := sheet.Extract.Name

	step := r.Monitor.Begin("extract_"+name, map[string]any{
		"sheet":        name,
		"column_range": sheet.Extract.ColumnRange,
		"skip_rows":    sheet.Extract.SkipRows,
	})
	f, err := ex.Extract(sheet.Extract)
	if err == nil {
		_, err = r.Validator.ValidateExtracted(sheet.Load.Name, f)
	}
	step.End(err)
	if err != nil {
		return 0, err
	}
	if r.Quality != nil {
		r.Quality.CheckCompleteness(f, sheet.Load.Name, nil)
		r.Quality.CheckConsistency(f, sheet.Load.Name, nil)
	}

	step = r.Monitor.Begin("transform_"+name, nil)
	transformed, applied, err := engine.Apply(f, sheet.Transform)
	step.End(err)
	if err != nil {
		return 0, err
	}
	description := "passthrough"
	if len(applied) > 0 {
		description = strings.Join(applied, ",")
	}
	r.Monitor.RecordLineage(name, sheet.Load.Name, description, transformed.Height())

	step = r.Monitor.Begin("load_"+sheet.Load.Name, map[string]any{"table": sheet.Load.Name})
	err = r.Store.Load(sheet.Load.Name, transformed)
	step.End(err)
	if err != nil {
		return 0, err
	}

	r.Log.Info("sheet loaded",
		"sheet", name, "table", sheet.Load.Name, "rows", transformed.Height())
	return transformed.Height(), nil
}

func (r *Run) validateStore() error {
	step := r.Monitor.Begin("store_validation", nil)
	meta, err := r.Validator.ValidateStore(r.Store)
	step.End(err)
	if err != nil {
		return err
	}
	if n, ok := meta["table_count"].(int); ok {
		r.Monitor.RecordMetric("store_tables", n)
	}
	return nil
}

// Describe summarizes a run for log output.
func (r *Run) Describe() string {
	return fmt.Sprintf("%d sheets configured, %d flagged for processing",
		len(r.Pipeline.Sheets), r.Pipeline.ReadCount())
}
