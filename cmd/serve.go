package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adityagoyal009/ocean-sentinel/internal/imaging"
	"github.com/adityagoyal009/ocean-sentinel/internal/monitoring"
	"github.com/adityagoyal009/ocean-sentinel/internal/pipeline"
	"github.com/adityagoyal009/ocean-sentinel/internal/resilience"
)

// maxUploadBytes caps request bodies on the analyze endpoint.
const maxUploadBytes = 25 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		router := buildRouter(env.Engine, env.Metrics, env.Breakers)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
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

// buildRouter assembles the API routes. Split from the command so tests
// can hit the handlers directly.
func buildRouter(eng *pipeline.Engine, metrics *monitoring.Collector, breakers *resilience.BreakerSet) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/status", func(w http.ResponseWriter, req *http.Request) {
		states := map[string]string{}
		if breakers != nil {
			states = breakers.States()
		}
		writeJSON(w, http.StatusOK, struct {
			Metrics  *monitoring.MetricsSnapshot `json:"metrics"`
			Breakers map[string]string           `json:"breakers"`
		}{
			Metrics:  metrics.Snapshot(),
			Breakers: states,
		})
	})

	r.Post("/v1/analyze", func(w http.ResponseWriter, req *http.Request) {
		image, mode, err := readAnalyzeRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		parsedMode, err := parseModeFlag(mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := eng.Analyze(req.Context(), pipeline.Request{Image: image, Mode: parsedMode})
		if err != nil {
			if errors.Is(err, imaging.ErrUndecodable) {
				writeError(w, http.StatusUnprocessableEntity, "payload is not a decodable image")
				return
			}
			zap.L().Error("analyze request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "analysis failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	return r
}

// readAnalyzeRequest extracts the image bytes and optional mode from
// either a multipart upload (field "image") or a JSON body with
// base64-encoded image data.
func readAnalyzeRequest(req *http.Request) (image []byte, mode string, err error) {
	req.Body = http.MaxBytesReader(nil, req.Body, maxUploadBytes)

	contentType := req.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", errors.New("invalid multipart form")
		}
		file, _, err := req.FormFile("image")
		if err != nil {
			return nil, "", errors.New("image file is required")
		}
		defer file.Close() //nolint:errcheck
		image, err = io.ReadAll(file)
		if err != nil {
			return nil, "", errors.New("read image upload")
		}
		return image, req.FormValue("mode"), nil
	}

	var body struct {
		Image string `json:"image"`
		Mode  string `json:"mode"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return nil, "", errors.New("invalid request body")
	}
	if body.Image == "" {
		return nil, "", errors.New("image is required")
	}
	image, err = base64.StdEncoding.DecodeString(body.Image)
	if err != nil {
		return nil, "", errors.New("image must be base64 encoded")
	}
	return image, body.Mode, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
