package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/metrics"
	"github.com/user/summary-dashboard/internal/settings"
	"github.com/user/summary-dashboard/internal/video"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Pinger checks backend connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options holds presentation settings
type Options struct {
	Title           string
	RefreshInterval time.Duration
	CORSOrigins     []string
}

// Server serves the dashboard pages, the JSON API, health and metrics
type Server struct {
	db        Pinger
	videos    *video.Service
	settings  *settings.Service
	opts      Options
	pages     map[string]*template.Template
	router    chi.Router
	server    *http.Server
	startTime time.Time
	now       func() time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(db Pinger, videos *video.Service, settingsSvc *settings.Service, opts Options) (*Server, error) {
	if opts.Title == "" {
		opts.Title = "YouTube Summary Dashboard"
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}

	s := &Server{
		db:        db,
		videos:    videos,
		settings:  settingsSvc,
		opts:      opts,
		router:    chi.NewRouter(),
		startTime: time.Now(),
		now:       time.Now,
	}

	pages, err := s.parseTemplates()
	if err != nil {
		return nil, err
	}
	s.pages = pages

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/videos/new", s.handleNewVideoForm)
	r.Post("/videos", s.handleAddVideo)
	r.Get("/videos/{videoID}", s.handleVideoDetail)
	r.Post("/videos/{videoID}/summarize", s.handleRequestSummary)
	r.Post("/videos/{videoID}/share", s.handleShareSummary)
	r.Get("/channels/new", s.handleNewChannelForm)
	r.Post("/channels/meta", s.handleRequestChannelMeta)
	r.Get("/settings", s.handleSettings)
	r.Post("/settings/webhooks/{type}", s.handleSaveWebhook)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
		r.Post("/videos", s.handleCreateVideo)
		r.Get("/videos", s.handleListVideos)
		r.Post("/videos/add", s.handleAPIAddVideo)
		r.Get("/videos/{videoID}", s.handleGetVideo)
		r.Patch("/videos/{videoID}", s.handleUpdateVideo)
		r.Post("/channels/meta", s.handleAPIChannelMeta)
		r.Post("/test-webhook", s.handleTestWebhook)
		r.Get("/settings/webhooks", s.handleListWebhooks)
		r.Put("/settings/webhooks/{type}", s.handlePutWebhook)
	})
}

// requestLogger logs every request and counts it by route pattern
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordRequest(route, status)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports database connectivity and uptime
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "healthy"
	if err := s.db.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	uptime := s.GetUptime().Round(time.Second).String()

	status := "healthy"
	if dbStatus != "healthy" {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:   status,
		Database: dbStatus,
		Uptime:   uptime,
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

// GetUptime returns the server uptime
func (s *Server) GetUptime() time.Duration {
	return s.now().Sub(s.startTime)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
