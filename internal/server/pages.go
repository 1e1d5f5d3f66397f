package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kivisai/site/pkg/blog"
	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/pipeline"
	"github.com/kivisai/site/pkg/render"
	"github.com/kivisai/site/pkg/renderers/jsonpage"
	"github.com/kivisai/site/pkg/themes"
)

// renderRequest reads the shared query parameters:
//
//	bp       mobile | tablet
//	format   json renders the page snapshot instead of HTML
//	lang     locale override
//	variant  theme variant override
func (s *Server) renderRequest(r *http.Request) (pipeline.Request, error) {
	q := r.URL.Query()
	req := pipeline.Request{
		Locale:       s.locale,
		ThemeName:    s.themeName,
		ThemeVariant: s.themeVariant,
	}

	switch bp := composer.Breakpoint(strings.ToLower(q.Get("bp"))); bp {
	case "":
	case composer.BreakpointMobile, composer.BreakpointTablet:
		req.Breakpoint = bp
	default:
		return req, errors.New("bp must be mobile or tablet")
	}

	switch format := strings.ToLower(q.Get("format")); format {
	case "", "html":
	case "json":
		req.Renderer = jsonpage.Name
	default:
		return req, errors.New("format must be html or json")
	}

	if lang := strings.TrimSpace(q.Get("lang")); lang != "" {
		req.Locale = lang
	}
	if variant := strings.TrimSpace(q.Get("variant")); variant != "" {
		req.ThemeVariant = variant
	}
	return req, nil
}

func (s *Server) landing(w http.ResponseWriter, r *http.Request) {
	req, err := s.renderRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	req.Preset = "landing-newsletter"
	s.renderPage(w, r, req)
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	req, err := s.renderRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	req.TemplateID = chi.URLParam(r, "id")
	s.renderPage(w, r, req)
}

func (s *Server) blogIndex(w http.ResponseWriter, r *http.Request) {
	req, err := s.renderRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	req.TemplateID = "blog"
	if tag := strings.TrimSpace(r.URL.Query().Get("tag")); tag != "" {
		req.Values = map[string]any{"tag": tag}
	}
	s.renderPage(w, r, req)
}

func (s *Server) blogPost(w http.ResponseWriter, r *http.Request) {
	req, err := s.renderRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	post, err := s.blog.Get(chi.URLParam(r, "slug"))
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}

	builder, err := composer.NewBuilderFromTemplate(post.Page(s.baseURL))
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	if req.Breakpoint != "" {
		builder.ApplyResponsiveRules(req.Breakpoint)
	}
	result, err := s.pipeline.RenderPage(r.Context(), builder.Export(), req)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeRendered(w, result)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, req pipeline.Request) {
	result, err := s.pipeline.Render(r.Context(), req)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeRendered(w, result)
}

func writeRendered(w http.ResponseWriter, result pipeline.Result) {
	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Body)
}

func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, composer.ErrTemplateNotFound), errors.Is(err, blog.ErrPostNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, themes.ErrThemeNotFound), errors.Is(err, themes.ErrVariantNotFound),
		errors.Is(err, render.ErrRendererNotFound):
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
	case r.Context().Err() != nil:
		writeError(w, r, http.StatusServiceUnavailable, "timeout", "request cancelled")
	default:
		s.logger.Error("render page failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "render_failed", "page could not be rendered")
	}
}
