// Package server exposes the composed site over HTTP: rendered pages, the
// blog, the EVALKIT and form APIs, and a small admin API for composing
// templates.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kivisai/site/pkg/blog"
	"github.com/kivisai/site/pkg/brevo"
	"github.com/kivisai/site/pkg/evalkit"
	"github.com/kivisai/site/pkg/forms"
	"github.com/kivisai/site/pkg/pipeline"
	"github.com/kivisai/site/pkg/renderers/html"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 64 << 10
)

// Mailer delivers form submissions. *brevo.Mailer implements it.
type Mailer interface {
	Subscribe(ctx context.Context, email string, listIDs []int64, attrs map[string]any) (brevo.ContactResult, error)
	SubmitContact(ctx context.Context, req brevo.ContactRequest) (string, error)
}

// Option customises the server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPipelineOptions forwards options to the page pipeline. The server adds
// its own transformers for blog listings and EVALKIT questions.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(s *Server) {
		s.pipelineOptions = append(s.pipelineOptions, opts...)
	}
}

// WithBlog replaces the embedded posts.
func WithBlog(store *blog.Store) Option {
	return func(s *Server) {
		s.blog = store
	}
}

// WithEvalkit replaces the embedded questionnaire.
func WithEvalkit(kit *evalkit.Kit) Option {
	return func(s *Server) {
		s.kit = kit
	}
}

// WithValidator replaces the embedded form validator.
func WithValidator(v *forms.Validator) Option {
	return func(s *Server) {
		s.validator = v
	}
}

// WithMailer forwards newsletter signups to listIDs and contact requests to
// the team inbox. Without a mailer submissions are validated and logged only.
func WithMailer(m Mailer, listIDs []int64) Option {
	return func(s *Server) {
		s.mailer = m
		s.listIDs = append([]int64(nil), listIDs...)
	}
}

// WithTheme selects the theme used for every page unless a request overrides
// the variant with ?variant=.
func WithTheme(name, variant string) Option {
	return func(s *Server) {
		s.themeName = name
		s.themeVariant = variant
	}
}

// WithLocale sets the default locale.
func WithLocale(locale string) Option {
	return func(s *Server) {
		if strings.TrimSpace(locale) != "" {
			s.locale = locale
		}
	}
}

// WithBaseURL sets the absolute site URL used for canonical links.
func WithBaseURL(base string) Option {
	return func(s *Server) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithRequestTimeout bounds every request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAdmin mounts the admin API. A non-empty token is required as a bearer
// token; an empty token leaves the routes open, which is meant for local
// development.
func WithAdmin(token string) Option {
	return func(s *Server) {
		s.adminEnabled = true
		s.adminToken = strings.TrimSpace(token)
	}
}

// Server holds the handlers and their dependencies.
type Server struct {
	logger          *zap.Logger
	pipelineOptions []pipeline.Option
	pipeline        *pipeline.Pipeline
	blog            *blog.Store
	kit             *evalkit.Kit
	validator       *forms.Validator
	mailer          Mailer
	listIDs         []int64
	themeName       string
	themeVariant    string
	locale          string
	baseURL         string
	timeout         time.Duration
	adminEnabled    bool
	adminToken      string
}

// New wires a server. Content, questionnaire and validator default to the
// embedded bundles.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		logger:  zap.NewNop(),
		locale:  "de",
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	var err error
	if s.blog == nil {
		if s.blog, err = blog.Default(); err != nil {
			return nil, fmt.Errorf("server: load blog: %w", err)
		}
	}
	if s.kit == nil {
		if s.kit, err = evalkit.Default(); err != nil {
			return nil, fmt.Errorf("server: load evalkit: %w", err)
		}
	}
	if s.validator == nil {
		if s.validator, err = forms.Default(); err != nil {
			return nil, fmt.Errorf("server: load forms: %w", err)
		}
	}

	popts := append([]pipeline.Option{}, s.pipelineOptions...)
	popts = append(popts, pipeline.WithTransformers(s.blogListing(), s.evalkitQuestions()))
	s.pipeline = pipeline.New(popts...)
	if err := s.pipeline.Err(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return s, nil
}

// Pipeline exposes the page pipeline.
func (s *Server) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))
	r.Use(middleware.Timeout(s.timeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "route_not_found", fmt.Sprintf("no route for %s", req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path))
	})

	r.Get("/healthz", s.healthz)
	r.Get("/", s.landing)
	r.Get("/pages/{id}", s.page)
	r.Get("/blog", s.blogIndex)
	r.Get("/blog/{slug}", s.blogPost)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(html.AssetsFS()))))

	r.Route("/api", func(api chi.Router) {
		api.Post("/newsletter", s.subscribeNewsletter)
		api.Post("/contact", s.submitContact)
		api.Get("/evalkit/questions", s.evalkitQuestionList)
		api.Post("/evalkit/score", s.scoreEvalkit)
		api.Get("/openapi.yaml", s.openAPI)
	})

	if s.adminEnabled {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(bearerAuth(s.adminToken))
			admin.Get("/templates", s.listTemplates)
			admin.Get("/templates/{id}", s.showTemplate)
			admin.Post("/templates/{id}/compose", s.composeTemplate)
		})
	}
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
