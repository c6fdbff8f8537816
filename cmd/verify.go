package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/labelproof/internal/model"
)

var (
	verifyApplication string
	verifyImage       string
	verifyExtraction  string
	verifyNoSave      bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a single label against its COLA application",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := loadApplication(verifyApplication)
		if err != nil {
			return err
		}

		v, err := initVerifier()
		if err != nil {
			return err
		}

		start := time.Now()

		var ext *model.ExtractedLabelData
		switch {
		case verifyExtraction != "":
			ext, err = loadExtraction(verifyExtraction)
			if err != nil {
				return err
			}
		case verifyImage != "":
			extractor, err := initExtractor()
			if err != nil {
				return err
			}
			image, mediaType, err := readImage(verifyImage)
			if err != nil {
				return err
			}
			ext, err = extractor.Extract(ctx, image, mediaType)
			if err != nil {
				return eris.Wrap(err, "extract label data")
			}
		default:
			return eris.New("either --image or --extraction is required")
		}

		result := v.Verify(app, ext, time.Since(start))

		zap.L().Info("verification complete",
			zap.String("brand", app.BrandName),
			zap.String("status", string(result.Status)),
			zap.Float64("confidence", result.OverallConfidence),
			zap.Int64("elapsed_ms", result.ProcessingTimeMs),
		)

		if !verifyNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := st.SaveResult(ctx, app.BrandName, result); err != nil {
				return eris.Wrap(err, "save result")
			}
		}

		return printJSON(result)
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyApplication, "application", "", "path to COLA application JSON (required)")
	verifyCmd.Flags().StringVar(&verifyImage, "image", "", "path to label image")
	verifyCmd.Flags().StringVar(&verifyExtraction, "extraction", "", "path to pre-extracted label JSON (skips vision)")
	verifyCmd.Flags().BoolVar(&verifyNoSave, "no-save", false, "print the verdict without persisting it")
	_ = verifyCmd.MarkFlagRequired("application")
	rootCmd.AddCommand(verifyCmd)
}
