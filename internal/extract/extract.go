package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tracker-etl/internal/config"
	"tracker-etl/internal/frame"

	"github.com/xuri/excelize/v2"
)

// ExtractionError reports a missing sheet, an invalid range or a cell window
// that cannot be satisfied by the workbook.
type ExtractionError struct {
	Sheet  string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract sheet %q: %s", e.Sheet, e.Reason)
}

// Extractor reads raw cell windows from one workbook.
type Extractor struct {
	file *excelize.File
	path string
}

// Open opens the workbook for extraction.
func Open(path string) (*Extractor, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Extractor{file: f, path: path}, nil
}

func (e *Extractor) Close() error {
	return e.file.Close()
}

// SheetNames enumerates the sheets in the workbook.
func (e *Extractor) SheetNames() []string {
	return e.file.GetSheetList()
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Extract reads the configured cell window and composes column headers from
// the first NumberHeaderRows rows: missing cells become empty strings, the
// cells of each column are joined with a single space, internal whitespace is
// collapsed and the result trimmed. Header rows are dropped from the data.
func (e *Extractor) Extract(spec config.ExtractSpec) (*frame.Frame, error) {
	firstCol, lastCol, err := parseColumnRange(spec.ColumnRange)
	if err != nil {
		return nil, &ExtractionError{Sheet: spec.Name, Reason: err.Error()}
	}
	width := lastCol - firstCol + 1

	all, err := e.file.GetRows(spec.Name)
	if err != nil {
		return nil, &ExtractionError{Sheet: spec.Name, Reason: err.Error()}
	}

	headerRows := spec.NumberHeaderRows
	if headerRows == 0 {
		headerRows = 1
	}

	// The window covers header and data rows together, like a raw read with
	// no header parsing. NumberRows is a maximum: the window is clamped at
	// the sheet's last row rather than padded with fabricated empty rows.
	end := spec.SkipRows + spec.NumberRows
	if end > len(all) {
		end = len(all)
	}
	grid := make([][]string, 0, spec.NumberRows)
	for i := spec.SkipRows; i < end; i++ {
		grid = append(grid, sliceWindow(all[i], firstCol, width))
	}
	if len(grid) <= headerRows {
		return nil, &ExtractionError{
			Sheet:  spec.Name,
			Reason: fmt.Sprintf("window of %d rows leaves no data after %d header rows", spec.NumberRows, headerRows),
		}
	}

	headers := make([]string, width)
	for c := 0; c < width; c++ {
		parts := make([]string, 0, headerRows)
		for r := 0; r < headerRows; r++ {
			parts = append(parts, grid[r][c])
		}
		joined := strings.Join(parts, " ")
		headers[c] = strings.TrimSpace(whitespaceRun.ReplaceAllString(joined, " "))
	}

	out := frame.New(headers, nil)
	for _, row := range grid[headerRows:] {
		cells := make([]any, width)
		for c, raw := range row {
			cells[c] = inferCell(raw)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// parseColumnRange resolves a spreadsheet-style range like "B:K" into
// zero-based column indexes.
func parseColumnRange(r string) (first, last int, err error) {
	parts := strings.Split(r, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid column range %q (expected form \"B:K\")", r)
	}
	from, err := excelize.ColumnNameToNumber(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid column range %q: %v", r, err)
	}
	to, err := excelize.ColumnNameToNumber(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid column range %q: %v", r, err)
	}
	if to < from {
		return 0, 0, fmt.Errorf("invalid column range %q: end before start", r)
	}
	return from - 1, to - 1, nil
}

// sliceWindow cuts the column window out of a possibly ragged row, padding
// short rows with empty cells.
func sliceWindow(row []string, first, width int) []string {
	out := make([]string, width)
	for i := 0; i < width; i++ {
		if first+i < len(row) {
			out[i] = row[first+i]
		}
	}
	return out
}

// inferCell types a raw cell: int, then float, then string; empty is null.
func inferCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
