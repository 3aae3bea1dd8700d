// Package api serves the pagination pipeline over HTTP.
//
// Every endpoint takes a JSON body naming the input source and the input
// itself. Document and JSON canvas inputs are embedded as JSON; HTML canvas
// input is a JSON string.
//
//	POST /v1/compose   pages and warnings
//	POST /v1/render    one serialized artifact (json, svg or pdf)
//	POST /v1/plan      remediation plan for the composition warnings
//	POST /v1/diff      classify plan operations against a document
//	POST /v1/apply     apply the pending plan operations, return the patched document
//	GET  /v1/presets   page template presets
//	GET  /healthz      liveness and build info
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/matzehuels/pagesetter/pkg/pipeline"
)

// Options configures a Server.
type Options struct {
	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int
	// MaxBodyBytes caps request bodies. Zero selects DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Defaults seeds every request's pipeline options (preset, template,
	// zoom, labels). Request fields win.
	Defaults pipeline.Options
}

// DefaultMaxBodyBytes is the request body limit when none is configured.
const DefaultMaxBodyBytes = 10 << 20

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	log    *log.Logger
	opts   Options
}

// NewServer creates and configures the HTTP server.
func NewServer(runner *pipeline.Runner, logger *log.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, log: logger, opts: opts}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.Limit(s.opts.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					jsonError(w, "rate limit exceeded", http.StatusTooManyRequests)
				}),
			))
		}
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/presets", s.handlePresets)
		r.Post("/compose", s.handleCompose)
		r.Post("/render", s.handleRender)
		r.Post("/plan", s.handlePlan)
		r.Post("/diff", s.handleDiff)
		r.Post("/apply", s.handleApply)
	})

	s.router = r
}
