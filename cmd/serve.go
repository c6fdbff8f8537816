package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/labelproof/internal/extraction"
	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/store"
	"github.com/sells-group/labelproof/internal/verifier"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the label verification HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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

		extractor, err := initExtractor()
		if err != nil {
			zap.L().Warn("vision extractor unavailable, /verify accepts pre-extracted data only", zap.Error(err))
			extractor = nil
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(v, extractor, st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// verifyRequest is the POST /verify body. The label side comes either as a
// base64 image to run through vision or as pre-extracted data.
type verifyRequest struct {
	Application model.ApplicationData    `json:"application"`
	ImageBase64 string                   `json:"image_base64,omitempty"`
	MediaType   string                   `json:"media_type,omitempty"`
	Extraction  *extraction.RawExtraction `json:"extraction,omitempty"`
}

// newRouter builds the HTTP routes for the verification service.
func newRouter(v *verifier.Verifier, extractor *extraction.Extractor, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/verify", func(w http.ResponseWriter, req *http.Request) {
		var body verifyRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Application.BrandName == "" {
			writeError(w, http.StatusBadRequest, "application.brand_name is required")
			return
		}
		if !body.Application.BeverageType.Valid() {
			writeError(w, http.StatusBadRequest, "unknown application.beverage_type")
			return
		}

		start := time.Now()

		var ext *model.ExtractedLabelData
		switch {
		case body.Extraction != nil:
			ext = extraction.Clean(body.Extraction)
		case body.ImageBase64 != "":
			if extractor == nil {
				writeError(w, http.StatusServiceUnavailable, "vision extraction is not configured")
				return
			}
			image, err := base64.StdEncoding.DecodeString(body.ImageBase64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "image_base64 is not valid base64")
				return
			}
			mediaType := body.MediaType
			if mediaType == "" {
				mediaType = "image/jpeg"
			}
			ext, err = extractor.Extract(req.Context(), image, mediaType)
			if err != nil {
				zap.L().Error("extraction failed", zap.Error(err))
				writeError(w, http.StatusBadGateway, "label extraction failed")
				return
			}
		default:
			writeError(w, http.StatusBadRequest, "image_base64 or extraction is required")
			return
		}

		result := v.Verify(&body.Application, ext, time.Since(start))

		if err := st.SaveResult(req.Context(), body.Application.BrandName, result); err != nil {
			zap.L().Error("save result failed", zap.Error(err))
		}

		zap.L().Info("verification complete",
			zap.String("brand", body.Application.BrandName),
			zap.String("status", string(result.Status)),
			zap.Float64("confidence", result.OverallConfidence),
		)

		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/results", func(w http.ResponseWriter, req *http.Request) {
		filter := store.ResultFilter{
			Status: model.VerificationStatus(req.URL.Query().Get("status")),
			Limit:  queryInt(req, "limit", 50),
			Offset: queryInt(req, "offset", 0),
		}
		records, err := st.ListResults(req.Context(), filter)
		if err != nil {
			zap.L().Error("list results failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list results failed")
			return
		}
		if records == nil {
			records = []store.ResultRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	})

	r.Get("/results/summary", func(w http.ResponseWriter, req *http.Request) {
		counts, err := st.CountByStatus(req.Context())
		if err != nil {
			zap.L().Error("count results failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "count results failed")
			return
		}
		writeJSON(w, http.StatusOK, counts)
	})

	r.Get("/results/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		result, err := st.GetResult(req.Context(), id)
		if err != nil {
			zap.L().Error("get result failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get result failed")
			return
		}
		if result == nil {
			writeError(w, http.StatusNotFound, "result not found")
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	return r
}

func queryInt(req *http.Request, key string, fallback int) int {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
