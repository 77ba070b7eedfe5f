package seed

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/xuri/excelize/v2"
)

// Donors covered by the demo workbook. The list matches the bundled taxonomy
// so a seeded run joins cleanly against the country lookup table.
var Donors = []string{
	"Austria", "Belgium", "Denmark", "Estonia", "Finland", "France",
	"Germany", "Greece", "Italy", "Japan", "Netherlands", "Norway",
	"Poland", "Portugal", "Spain", "Sweden", "Switzerland",
	"United Kingdom", "United States",
}

// Months of the demo monthly sheet, in workbook column order.
var Months = []string{"Jan 2022", "Feb 2022", "Mar 2022", "Apr 2022", "May 2022", "Jun 2022"}

// Generate writes a demo workbook shaped like the bundled pipeline config
// expects: a two-header-row Summary sheet and a wide Monthly sheet. Values
// are fake; the layout (title rows, skipped rows, ranges) is the contract.
func Generate(path string) error {
	// A fixed non-zero seed: gofakeit treats 0 as "pick a random seed".
	gofakeit.Seed(11)

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f); err != nil {
		return err
	}
	if err := writeMonthly(f); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	// Two title rows above the table; extraction skips them.
	f.SetCellValue(sheet, "A1", "Support Tracker (demo data)")
	f.SetCellValue(sheet, "A2", "All values fabricated")

	top := []string{"Country", "Total bilateral allocations", "Financial allocations", "Humanitarian allocations", "Military allocations"}
	sub := []string{"", "(€ billion)", "(€ billion)", "(€ billion)", "(€ billion)"}
	for i := range top {
		cellTop, _ := excelize.CoordinatesToCellName(2+i, 3)
		cellSub, _ := excelize.CoordinatesToCellName(2+i, 4)
		f.SetCellValue(sheet, cellTop, top[i])
		f.SetCellValue(sheet, cellSub, sub[i])
	}

	for r, country := range Donors {
		row := 5 + r
		cell, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheet, cell, country)
		for c := 1; c < len(top); c++ {
			cell, _ := excelize.CoordinatesToCellName(2+c, row)
			f.SetCellValue(sheet, cell, gofakeit.Float64Range(0.05, 45))
		}
	}
	return nil
}

func writeMonthly(f *excelize.File) error {
	const sheet = "Monthly"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	f.SetCellValue(sheet, "A1", "Monthly allocations (demo data)")

	headers := []string{"Month", "Military aid (€ billion)", "Financial aid (€ billion)", "Humanitarian aid (€ billion)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(2+i, 2)
		f.SetCellValue(sheet, cell, h)
	}

	for r, month := range Months {
		row := 3 + r
		cell, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheet, cell, month)
		for c := 1; c < len(headers); c++ {
			cell, _ := excelize.CoordinatesToCellName(2+c, row)
			f.SetCellValue(sheet, cell, gofakeit.Float64Range(0, 8))
		}
	}
	return nil
}
