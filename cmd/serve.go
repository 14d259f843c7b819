package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/popmap/internal/config"
	"github.com/sells-group/popmap/internal/diagnostics"
	"github.com/sells-group/popmap/internal/mapview"
	"github.com/sells-group/popmap/internal/model"
	"github.com/sells-group/popmap/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the map front-end",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(newAPI(cfg), cfg.Server),
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// api holds the read-only dependencies of the HTTP handlers.
type api struct {
	pipe     *pipeline.Pipeline
	catalog  *mapview.Catalogue
	viewer   *mapview.Viewer
	root     string
	defaults []string
}

func newAPI(c *config.Config) *api {
	var attrs []mapview.Attribute
	for _, a := range c.Map.Attributes {
		attrs = append(attrs, mapview.Attribute{Label: a.Label, Column: a.Column})
	}
	var presets []mapview.Preset
	if c.Map.Presets != nil {
		presets = make([]mapview.Preset, 0, len(c.Map.Presets))
		for _, p := range c.Map.Presets {
			presets = append(presets, mapview.Preset{
				Municipalities: p.Municipalities,
				Zoom:           p.Zoom,
				LatOffset:      p.LatOffset,
				LonOffset:      p.LonOffset,
			})
		}
	}

	return &api{
		pipe:     pipeline.FromConfig(c),
		catalog:  mapview.NewCatalogue(attrs, c.Map.DefaultAttribute),
		viewer:   mapview.NewViewer(presets, c.Map.MinZoom, c.Map.MaxZoom),
		root:     c.Data.Root,
		defaults: c.Data.DefaultMunicipalities,
	}
}

func newRouter(a *api, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(sc.RateLimit, sc.RateBurst))
		r.Get("/municipalities", a.handleMunicipalities)
		r.Get("/attributes", a.handleAttributes)
		r.Get("/map", a.handleMap)
		r.Get("/profile", a.handleProfile)
		r.Get("/summary", a.handleSummary)
	})
	return r
}

func (a *api) handleMunicipalities(w http.ResponseWriter, _ *http.Request) {
	names, err := pipeline.Municipalities(a.root, a.defaults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"municipalities": names, "defaults": a.defaults})
}

func (a *api) handleAttributes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":    a.catalog.Default,
		"attributes": a.catalog.Attributes(),
	})
}

type mapResponse struct {
	Municipalities []string                   `json:"municipalities"`
	Attribute      string                     `json:"attribute"`
	Label          string                     `json:"label"`
	View           mapview.View               `json:"view"`
	Summary        diagnostics.Summary        `json:"summary"`
	Features       *geojson.FeatureCollection `json:"features"`
}

func (a *api) handleMap(w http.ResponseWriter, r *http.Request) {
	ds, ok := a.load(w, r)
	if !ok {
		return
	}

	fc, err := mapview.FeatureCollection(ds.Records, ds.Columns)
	if err != nil {
		writeError(w, err)
		return
	}
	attr := a.catalog.Resolve(r.URL.Query().Get("attr"))
	writeJSON(w, http.StatusOK, mapResponse{
		Municipalities: ds.Municipalities,
		Attribute:      attr,
		Label:          a.catalog.Label(attr),
		View:           a.viewer.View(ds.Municipalities, ds.Records),
		Summary:        ds.Summary,
		Features:       fc,
	})
}

func (a *api) handleProfile(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	ds, ok := a.load(w, r)
	if !ok {
		return
	}

	p, found := mapview.Profile(ds.Records, model.CompositeKey(key))
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no sub-area with key " + key})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *api) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := a.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// load runs the pipeline for the ?m= municipalities, or the defaults.
func (a *api) load(w http.ResponseWriter, r *http.Request) (*pipeline.Dataset, bool) {
	names := r.URL.Query()["m"]
	if len(names) == 0 {
		names = a.defaults
	}
	ds, err := a.pipe.LoadMany(r.Context(), names)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ds, true
}

// errorStatus maps pipeline errors to HTTP status codes.
func errorStatus(err error) int {
	var (
		notFound   *model.FileNotFoundError
		missingCol *model.MissingColumnError
		missingKey *model.MissingMergeColumnError
	)
	switch {
	case errors.Is(err, pipeline.ErrInvalidMunicipality):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &missingCol), errors.As(err, &missingKey):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with a fixed message per status; file paths and source
// details stay in the log.
func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	var msg string
	switch status {
	case http.StatusBadRequest:
		msg = "invalid municipality name"
	case http.StatusNotFound:
		msg = "no data for the requested municipality"
	case http.StatusUnprocessableEntity:
		msg = "source data is missing required columns"
	default:
		msg = "internal error"
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Error(err))
	} else {
		zap.L().Warn("api: request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// rateLimit throttles all requests through one token bucket. A limit of 0
// disables it.
func rateLimit(limit float64, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lim := rate.NewLimiter(rate.Limit(limit), max(burst, 1))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
