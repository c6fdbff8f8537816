// Package report exports verification results to CSV and XLSX files
// for compliance review workflows.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/labelproof/internal/model"
)

// resultColumns defines the ordered output columns for result exports.
var resultColumns = []string{
	"ID",
	"Brand Name",
	"Status",
	"Overall Confidence",
	"Matched Fields",
	"Total Fields",
	"Warning Present",
	"Warning Correct",
	"Flagged Issues",
	"Review Reasons",
	"Processing Time (ms)",
	"Timestamp",
}

// Row pairs a stored result with the brand name it was filed under.
type Row struct {
	BrandName string
	Result    *model.VerificationResult
}

// ExportCSV writes verification results as a CSV file at outputPath.
func ExportCSV(rows []Row, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "report: create csv file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(resultColumns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}

	for _, row := range rows {
		if err := w.Write(buildRow(row)); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	return nil
}

// ExportXLSX writes verification results as an XLSX workbook with a
// Results sheet and a Summary sheet of per-status counts.
func ExportXLSX(rows []Row, outputPath string) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "report: add results sheet")
	}

	header := sheet.AddRow()
	for _, col := range resultColumns {
		header.AddCell().SetString(col)
	}

	for _, row := range rows {
		xr := sheet.AddRow()
		for _, cell := range buildRow(row) {
			xr.AddCell().SetString(cell)
		}
	}

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	sh := summary.AddRow()
	sh.AddCell().SetString("Status")
	sh.AddCell().SetString("Count")

	counts := Summarize(rows)
	for _, status := range []model.VerificationStatus{
		model.StatusApproved,
		model.StatusRejected,
		model.StatusNeedsReview,
	} {
		sr := summary.AddRow()
		sr.AddCell().SetString(string(status))
		sr.AddCell().SetInt(counts[status])
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrap(err, "report: save xlsx file")
	}

	return nil
}

// Summarize counts results by verification status.
func Summarize(rows []Row) map[model.VerificationStatus]int {
	counts := make(map[model.VerificationStatus]int)
	for _, row := range rows {
		if row.Result == nil {
			continue
		}
		counts[row.Result.Status]++
	}
	return counts
}

// buildRow maps a result to an ordered export row.
func buildRow(row Row) []string {
	r := row.Result
	return []string{
		r.ID,
		row.BrandName,
		string(r.Status),
		fmt.Sprintf("%.3f", r.OverallConfidence),
		fmt.Sprintf("%d", r.MatchedFields),
		fmt.Sprintf("%d", r.TotalFields),
		fmt.Sprintf("%t", r.Warning.Present),
		fmt.Sprintf("%t", r.Warning.Correct),
		strings.Join(r.FlaggedIssues, "; "),
		strings.Join(r.ReviewReasons, "; "),
		fmt.Sprintf("%d", r.ProcessingTimeMs),
		r.Timestamp.Format("2006-01-02 15:04:05"),
	}
}
