// Package server exposes the export pipelines over HTTP. Every export
// route takes a multipart form and answers with a CSV attachment.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/config"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/discovery"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
)

// Exporter runs the export pipelines. *discovery.Service implements it.
type Exporter interface {
	Hashtags(ctx context.Context, req discovery.Request) (*model.ExportResult, error)
	BrandpageReels(ctx context.Context, req discovery.Request) (*model.ExportResult, error)
	BrandpageTagged(ctx context.Context, req discovery.Request) (*model.ExportResult, error)
	Profiles(ctx context.Context, req discovery.ProfileRequest) (*model.ExportResult, error)
	Keywords(ctx context.Context, req discovery.Request) (*model.ExportResult, error)
}

// Server holds the route handlers.
type Server struct {
	cfg *config.Config
	svc Exporter
}

// New creates a Server.
func New(cfg *config.Config, svc Exporter) *Server {
	return &Server{cfg: cfg, svc: svc}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"Content-Disposition", headerExportID, headerTruncated},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Post("/fetch", s.batchRoute(exportRoute{
		field:       "hashtag",
		defaultName: "hashtag_export",
		run:         s.svc.Hashtags,
	}))
	r.Post("/brandpage-reels", s.batchRoute(exportRoute{
		field:       "brandpage",
		defaultName: "brandpage_reels_export",
		run:         s.svc.BrandpageReels,
	}))
	r.Post("/brandpage-tagged", s.batchRoute(exportRoute{
		field:       "brandpage",
		defaultName: "brandpage_tagged_export",
		run:         s.svc.BrandpageTagged,
	}))
	r.Post("/youtube-keyword", s.batchRoute(exportRoute{
		field:       "keyword",
		defaultName: "youtube_keyword_export",
		run:         s.svc.Keywords,
	}))
	r.Post("/filter-csv", s.filterCSV)

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
}

// requestLogger logs one line per request with zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
