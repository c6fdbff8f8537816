package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/report"
	"github.com/sells-group/labelproof/internal/store"
)

var (
	exportOutput string
	exportStatus string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored verification results to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := st.ListResults(ctx, store.ResultFilter{
			Status: model.VerificationStatus(exportStatus),
			Limit:  exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list results")
		}

		rows := make([]report.Row, 0, len(records))
		for i := range records {
			rows = append(rows, report.Row{
				BrandName: records[i].BrandName,
				Result:    &records[i].Result,
			})
		}

		switch strings.ToLower(filepath.Ext(exportOutput)) {
		case ".csv":
			err = report.ExportCSV(rows, exportOutput)
		case ".xlsx":
			err = report.ExportXLSX(rows, exportOutput)
		default:
			return eris.Errorf("unsupported export format: %s (use .csv or .xlsx)", filepath.Ext(exportOutput))
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("output", exportOutput),
			zap.Int("results", len(rows)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file path, .csv or .xlsx (required)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter by status (approved, rejected, needs_review)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "max number of results to export (0 = all)")
	_ = exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}
