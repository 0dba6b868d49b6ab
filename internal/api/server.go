package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/torahtrack/internal/tracker"
)

// DatasetInfo describes the persisted dataset for health checks.
type DatasetInfo interface {
	Exists() bool
	Checksum() (string, error)
}

// Server is the HTTP API for the reading tracker.
type Server struct {
	router     chi.Router
	svc        *tracker.Service
	dataset    DatasetInfo
	reportPath string
	log        *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *tracker.Service, dataset DatasetInfo, reportPath string, log *slog.Logger) *Server {
	s := &Server{
		svc:        svc,
		dataset:    dataset,
		reportPath: reportPath,
		log:        log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/readings", s.handleListReadings)
	r.Get("/readings/{title}", s.handleGetReading)
	r.Put("/readings/{title}/aliyot/{number}", s.handleSetAliyah)
	r.Get("/stats", s.handleStats)
	r.Get("/report", s.handleReport)

	// Paths used by the existing web frontend.
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/parshiot", s.handleListReadings)
		r.Get("/parshiot/{title}", s.handleGetReading)
		r.Put("/parshiot/{title}/aliyot/{number}", s.handleSetAliyah)
		r.Get("/stats", s.handleStats)
	})

	s.router = r
}
