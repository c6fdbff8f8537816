package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/labelproof/internal/extraction"
	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/store"
	"github.com/sells-group/labelproof/internal/verifier"
	"github.com/sells-group/labelproof/pkg/vision"
)

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "labelproof.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initExtractor builds the vision-backed label extractor from config.
func initExtractor() (*extraction.Extractor, error) {
	if cfg.Vision.Key == "" {
		return nil, eris.New("vision API key is required (LABELPROOF_VISION_KEY)")
	}
	client := vision.NewClient(cfg.Vision.Key, cfg.Vision.Model, cfg.Vision.MaxTokens, cfg.Vision.MaxRetries)
	return extraction.NewExtractor(client, cfg.Vision.RequestsPerMin), nil
}

// initVerifier validates the configured thresholds and builds the engine.
func initVerifier() (*verifier.Verifier, error) {
	if err := verifier.ValidateConfig(cfg.Verifier); err != nil {
		return nil, err
	}
	return verifier.New(cfg.Verifier), nil
}

// loadApplication reads COLA application data from a JSON file.
func loadApplication(path string) (*model.ApplicationData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read application file")
	}
	var app model.ApplicationData
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, eris.Wrap(err, "parse application JSON")
	}
	if app.BrandName == "" {
		return nil, eris.New("application is missing brand_name")
	}
	if !app.BeverageType.Valid() {
		return nil, eris.Errorf("unknown beverage_type: %s", app.BeverageType)
	}
	return &app, nil
}

// loadExtraction reads pre-extracted label data from a JSON file, bypassing
// the vision service.
func loadExtraction(path string) (*model.ExtractedLabelData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read extraction file")
	}
	var raw extraction.RawExtraction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "parse extraction JSON")
	}
	return extraction.Clean(&raw), nil
}

// readImage loads a label image and infers its media type from the file
// extension.
func readImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", eris.Wrap(err, "read image file")
	}
	mediaType, err := imageMediaType(path)
	if err != nil {
		return nil, "", err
	}
	return data, mediaType, nil
}

func imageMediaType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	case ".gif":
		return "image/gif", nil
	case ".webp":
		return "image/webp", nil
	default:
		return "", eris.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
