package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/cv-evaluator/internal/history"
)

const exportSheet = "Evaluations"

var exportHeaders = []string{
	"ID",
	"File",
	"File Type",
	"Date",
	"Fit Score",
	"Experience",
	"Education",
	"Skills",
	"Missing Skills",
	"Languages",
	"Recommendations",
}

// ExportXLSX writes the history as a single-sheet workbook.
func ExportXLSX(w io.Writer, entries []*history.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, entry := range entries {
		row := i + 2
		values := []any{entry.ID, entry.FileName, entry.FileType, entry.Date.UTC().Format(time.RFC3339)}
		if r := entry.Evaluation; r != nil {
			values = append(values,
				r.FitScore,
				string(r.Experience.State),
				string(r.Education.State),
				string(r.Skills.State),
				strings.Join(r.Skills.MissingForTargetRole, ", "),
				string(r.Languages.State),
				strings.Join(r.Recommendations, "\n"),
			)
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 38)
	_ = f.SetColWidth(exportSheet, "B", "B", 28)
	_ = f.SetColWidth(exportSheet, "K", "K", 60)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}
