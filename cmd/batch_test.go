package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/labelproof/internal/config"
	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/store"
)

func writeTempJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeTempJSON(t, "manifest.json",
			`[{"application": "app.json", "image": "label.jpg"},
			  {"application": "app2.json", "extraction": "ext.json"}]`)
		items, err := loadManifest(path)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "label.jpg", items[0].Image)
		assert.Equal(t, "ext.json", items[1].Extraction)
	})

	t.Run("missing application", func(t *testing.T) {
		path := writeTempJSON(t, "manifest.json", `[{"image": "label.jpg"}]`)
		_, err := loadManifest(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "application is required")
	})

	t.Run("missing label source", func(t *testing.T) {
		path := writeTempJSON(t, "manifest.json", `[{"application": "app.json"}]`)
		_, err := loadManifest(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "image or extraction is required")
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeTempJSON(t, "manifest.json", `{not json`)
		_, err := loadManifest(path)
		require.Error(t, err)
	})
}

func newBatchTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "batch_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestProcessBatch(t *testing.T) {
	cfg = &config.Config{Batch: config.BatchConfig{MaxConcurrent: 2, MaxItems: 100}}
	t.Cleanup(func() { cfg = nil })

	st := newBatchTestStore(t)
	items := []batchItem{
		{Application: "a.json", Extraction: "a_ext.json"},
		{Application: "b.json", Extraction: "b_ext.json"},
		{Application: "c.json", Extraction: "c_ext.json"},
	}

	err := processBatch(context.Background(), items, 0, 2, st, func(_ context.Context, item batchItem) (string, *model.VerificationResult, error) {
		if item.Application == "b.json" {
			return "BRAND B", nil, errors.New("extraction blew up")
		}
		return "BRAND " + item.Application, &model.VerificationResult{
			ID:        item.Application,
			Timestamp: time.Now().UTC(),
			Status:    model.StatusApproved,
		}, nil
	})
	require.NoError(t, err, "individual failures must not abort the batch")

	records, err := st.ListResults(context.Background(), store.ResultFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	failures, err := st.ListFailures(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "BRAND B", failures[0].BrandName)
	assert.Contains(t, failures[0].Reason, "blew up")
}

func TestProcessBatch_Limit(t *testing.T) {
	cfg = &config.Config{Batch: config.BatchConfig{MaxConcurrent: 1, MaxItems: 100}}
	t.Cleanup(func() { cfg = nil })

	st := newBatchTestStore(t)
	items := []batchItem{
		{Application: "a.json", Extraction: "x"},
		{Application: "b.json", Extraction: "x"},
		{Application: "c.json", Extraction: "x"},
	}

	var processed int
	err := processBatch(context.Background(), items, 2, 1, st, func(_ context.Context, item batchItem) (string, *model.VerificationResult, error) {
		processed++
		return item.Application, &model.VerificationResult{
			ID:        item.Application,
			Timestamp: time.Now().UTC(),
			Status:    model.StatusApproved,
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
}

func TestProcessBatch_Empty(t *testing.T) {
	cfg = &config.Config{Batch: config.BatchConfig{MaxConcurrent: 1}}
	t.Cleanup(func() { cfg = nil })

	require.NoError(t, processBatch(context.Background(), nil, 0, 1, newBatchTestStore(t), nil))
}
