package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/labelproof/internal/model"
)

func sampleRows() []Row {
	return []Row{
		{
			BrandName: "OLD TOM DISTILLERY",
			Result: &model.VerificationResult{
				ID:                "r1",
				Timestamp:         time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
				Status:            model.StatusApproved,
				OverallConfidence: 0.93,
				MatchedFields:     5,
				TotalFields:       5,
				Warning:           model.WarningVerification{Present: true, Correct: true},
				ProcessingTimeMs:  1800,
			},
		},
		{
			BrandName: "SILVER CREEK CELLARS",
			Result: &model.VerificationResult{
				ID:                "r2",
				Timestamp:         time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC),
				Status:            model.StatusNeedsReview,
				OverallConfidence: 0.78,
				MatchedFields:     6,
				TotalFields:       7,
				Warning:           model.WarningVerification{Present: true, Correct: true},
				FlaggedIssues:     []string{"vintage year: declared \"2019\" vs \"2020\" on label"},
				ReviewReasons:     []string{"Some fields require human verification"},
				ProcessingTimeMs:  2100,
			},
		},
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, ExportCSV(sampleRows(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two rows")

	assert.Equal(t, resultColumns, records[0])
	assert.Equal(t, "r1", records[1][0])
	assert.Equal(t, "OLD TOM DISTILLERY", records[1][1])
	assert.Equal(t, "approved", records[1][2])
	assert.Equal(t, "needs_review", records[2][2])
	assert.Contains(t, records[2][8], "vintage year")
	assert.Equal(t, "2026-08-20 10:30:00", records[1][11])
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, ExportXLSX(sampleRows(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	results, ok := f.Sheet["Results"]
	require.True(t, ok)
	require.Len(t, results.Rows, 3)
	assert.Equal(t, "ID", results.Rows[0].Cells[0].String())
	assert.Equal(t, "r1", results.Rows[1].Cells[0].String())
	assert.Equal(t, "needs_review", results.Rows[2].Cells[2].String())

	summary, ok := f.Sheet["Summary"]
	require.True(t, ok)
	require.Len(t, summary.Rows, 4, "header plus one row per status")
	assert.Equal(t, "approved", summary.Rows[1].Cells[0].String())
	assert.Equal(t, "1", summary.Rows[1].Cells[1].String())
	assert.Equal(t, "rejected", summary.Rows[2].Cells[0].String())
	assert.Equal(t, "0", summary.Rows[2].Cells[1].String())
}

func TestSummarize(t *testing.T) {
	counts := Summarize(sampleRows())
	assert.Equal(t, 1, counts[model.StatusApproved])
	assert.Equal(t, 1, counts[model.StatusNeedsReview])
	assert.Equal(t, 0, counts[model.StatusRejected])

	assert.Empty(t, Summarize(nil))
	assert.Empty(t, Summarize([]Row{{BrandName: "no verdict"}}))
}

func TestExportCSV_CreateError(t *testing.T) {
	err := ExportCSV(sampleRows(), filepath.Join(t.TempDir(), "missing", "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create csv file")
}
