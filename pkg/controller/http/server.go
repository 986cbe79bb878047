package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/errutil"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
)

// DefaultMaxUploadSize bounds the multipart body of an upload
const DefaultMaxUploadSize = 32 << 20

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	metrics       *Metrics
	maxUploadSize int64
}

type Options func(*Server)

// WithMetrics exposes m on /metrics and records requests and uploads into it
func WithMetrics(m *Metrics) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithMaxUploadSize(size int64) Options {
	return func(s *Server) {
		s.maxUploadSize = size
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		uc:            uc,
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler)

		r.Group(func(r chi.Router) {
			r.Use(viewerMiddleware(uc.Auth))

			r.Route("/rankings", func(r chi.Router) {
				r.Get("/", s.listRankingsHandler)
				r.Get("/range", s.rangeRankingsHandler)
				r.Get("/{date}", s.getRankingHandler)
				r.Get("/{date}/statistics", s.statisticsHandler)
				r.Get("/{date}/export.pdf", s.exportPDFHandler)
			})

			r.Route("/admin/attendance", func(r chi.Router) {
				r.Post("/", s.uploadHandler)
				r.Get("/", s.listRecordsHandler)
				r.Get("/{date}", s.getRecordHandler)
				r.Post("/{date}/recompute", s.recomputeHandler)
				r.Delete("/{date}", s.deleteHandler)
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	errutil.WriteJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
