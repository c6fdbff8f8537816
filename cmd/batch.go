package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/labelproof/internal/extraction"
	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/store"
	"github.com/sells-group/labelproof/internal/verifier"
)

var (
	batchManifest string
	batchLimit    int
)

// batchItem is one entry of the batch manifest: an application paired with
// either a label image or a pre-extracted JSON file.
type batchItem struct {
	Application string `json:"application"`
	Image       string `json:"image,omitempty"`
	Extraction  string `json:"extraction,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Verify a manifest of labels concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		items, err := loadManifest(batchManifest)
		if err != nil {
			return err
		}

		v, err := initVerifier()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		needsVision := false
		for _, item := range items {
			if item.Extraction == "" {
				needsVision = true
				break
			}
		}
		var extractor *extraction.Extractor
		if needsVision {
			if extractor, err = initExtractor(); err != nil {
				return err
			}
		}

		return processBatch(ctx, items, batchLimit, cfg.Batch.MaxConcurrent, st, func(ctx context.Context, item batchItem) (string, *model.VerificationResult, error) {
			return verifyItem(ctx, v, extractor, item)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "path to batch manifest JSON (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of items to process (default from config)")
	_ = batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}

// loadManifest reads and validates the batch manifest.
func loadManifest(path string) ([]batchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read batch manifest")
	}
	var items []batchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, eris.Wrap(err, "parse batch manifest")
	}
	for i, item := range items {
		if item.Application == "" {
			return nil, eris.Errorf("manifest item %d: application is required", i)
		}
		if item.Image == "" && item.Extraction == "" {
			return nil, eris.Errorf("manifest item %d: image or extraction is required", i)
		}
	}
	return items, nil
}

// verifyFunc is the callback signature for verifying one manifest item.
// It returns the brand name for record keeping.
type verifyFunc func(ctx context.Context, item batchItem) (string, *model.VerificationResult, error)

// processBatch applies the item limit, then verifies items concurrently.
// Individual failures are recorded in the store and never abort the batch.
func processBatch(ctx context.Context, items []batchItem, limit, concurrency int, st store.Store, verify verifyFunc) error {
	if len(items) == 0 {
		zap.L().Info("no items in manifest")
		return nil
	}

	if limit <= 0 {
		limit = cfg.Batch.MaxItems
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("items", len(items)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, item := range items {
		g.Go(func() error {
			log := zap.L().With(zap.String("application", item.Application))

			brand, result, err := verify(gctx, item)
			if err != nil {
				failed.Add(1)
				log.Error("verification failed", zap.Error(err))
				recordFailure(gctx, st, brand, err)
				return nil // don't abort batch on individual failure
			}

			if err := st.SaveResult(gctx, brand, result); err != nil {
				failed.Add(1)
				log.Error("save result failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			log.Info("verification complete",
				zap.String("brand", brand),
				zap.String("status", string(result.Status)),
				zap.Float64("confidence", result.OverallConfidence),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

// verifyItem loads one manifest item's inputs, extracts label data if
// needed, and runs verification.
func verifyItem(ctx context.Context, v *verifier.Verifier, extractor *extraction.Extractor, item batchItem) (string, *model.VerificationResult, error) {
	app, err := loadApplication(item.Application)
	if err != nil {
		return "", nil, err
	}

	start := time.Now()

	var ext *model.ExtractedLabelData
	if item.Extraction != "" {
		ext, err = loadExtraction(item.Extraction)
		if err != nil {
			return app.BrandName, nil, err
		}
	} else {
		image, mediaType, err := readImage(item.Image)
		if err != nil {
			return app.BrandName, nil, err
		}
		ext, err = extractor.Extract(ctx, image, mediaType)
		if err != nil {
			return app.BrandName, nil, eris.Wrap(err, "extract label data")
		}
	}

	return app.BrandName, v.Verify(app, ext, time.Since(start)), nil
}

// recordFailure persists a batch item failure; errors are logged, not fatal.
func recordFailure(ctx context.Context, st store.Store, brand string, cause error) {
	reason := cause.Error()
	if len(reason) > 500 {
		reason = reason[:500]
	}
	failure := &store.ItemFailure{
		ID:        uuid.NewString(),
		BrandName: brand,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.SaveFailure(ctx, failure); err != nil {
		zap.L().Warn("failed to record batch item failure", zap.Error(err))
	}
}
