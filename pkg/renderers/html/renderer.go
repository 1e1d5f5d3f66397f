// Package html renders composed pages to HTML documents using pongo2
// templates: one layout for the page and one partial per component kind.
package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/markup"
	"github.com/kivisai/site/pkg/render"
	rendertemplate "github.com/kivisai/site/pkg/render/template"
	"github.com/kivisai/site/pkg/render/template/gotemplate"
)

const (
	// Name identifies the renderer in a render.Registry.
	Name = "html"

	// StylesheetAssetKey is the theme asset key consulted for the stylesheet
	// URL before falling back to the configured default.
	StylesheetAssetKey = "site.stylesheet"

	pageTemplate    = "page"
	genericTemplate = "sections/Generic"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	stylesheetURL    string
	defaultLocale    string
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from disk first, falling back to the
// embedded bundle for anything the directory does not override.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithStylesheetURL sets the stylesheet href used when the theme does not
// provide one.
func WithStylesheetURL(url string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(url) != "" {
			cfg.stylesheetURL = url
		}
	}
}

// WithDefaultLocale sets the document language used when RenderOptions has no
// locale.
func WithDefaultLocale(locale string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(locale) != "" {
			cfg.defaultLocale = locale
		}
	}
}

// Renderer implements render.Renderer for HTML output.
type Renderer struct {
	templates     rendertemplate.TemplateRenderer
	stylesheetURL string
	defaultLocale string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:    TemplatesFS(),
		stylesheetURL: "/assets/" + StylesheetName,
		defaultLocale: "de",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engineOpts := []gotemplate.Option{
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithTemplateFunc(map[string]any{
				"markdown": pongo2.FilterFunction(filterMarkdown),
				"sanitize": pongo2.FilterFunction(filterSanitize),
			}),
		}
		if cfg.templateDir != "" {
			engineOpts = append(engineOpts, gotemplate.WithBaseDir(cfg.templateDir))
		}
		engine, err := gotemplate.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:     renderer,
		stylesheetURL: cfg.stylesheetURL,
		defaultLocale: cfg.defaultLocale,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces a complete HTML document for page. The page is copied and
// localized before rendering; the caller's value is left untouched.
func (r *Renderer) Render(ctx context.Context, page composer.Template, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, errors.New("html renderer: template renderer is nil")
	}

	page = page.Clone()
	render.LocalizePage(&page, opts)

	sections := make([]map[string]any, 0, len(page.Sections))
	for _, section := range page.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.renderSection(section, opts)
		if err != nil {
			return nil, err
		}
		sections = append(sections, map[string]any{
			"id":        section.ID,
			"component": section.Component,
			"html":      out,
		})
	}

	locale := opts.Locale
	if locale == "" {
		locale = r.defaultLocale
	}

	result, err := r.templates.RenderTemplate(pageTemplate, map[string]any{
		"page": map[string]any{
			"id":          page.ID,
			"name":        page.Name,
			"description": page.Description,
			"metadata":    page.Metadata,
		},
		"sections":   sections,
		"theme":      buildThemeContext(opts.Theme),
		"stylesheet": r.stylesheet(opts.Theme),
		"breakpoint": string(opts.Breakpoint),
		"lang":       locale,
		"values":     opts.Values,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render page %q: %w", page.ID, err)
	}
	return []byte(result), nil
}

func (r *Renderer) renderSection(section composer.Section, opts render.RenderOptions) (string, error) {
	data := map[string]any{
		"section": map[string]any{
			"id":        section.ID,
			"component": section.Component,
			"variants":  section.Variants,
			"variant":   selectedVariant(section),
		},
		"props":      map[string]any(section.Props),
		"values":     opts.Values,
		"breakpoint": string(opts.Breakpoint),
		"scale":      []any{1, 2, 3, 4, 5},
	}

	name := r.sectionTemplate(section.Component)
	out, err := r.templates.RenderTemplate(name, data)
	if err != nil {
		return "", fmt.Errorf("html renderer: render section %q (%s): %w", section.ID, section.Component, err)
	}
	return out, nil
}

// sectionTemplate resolves the partial for a component kind, falling back to
// the generic partial for kinds without one.
func (r *Renderer) sectionTemplate(component string) string {
	if component == "" || strings.ContainsAny(component, "/\\.") {
		return genericTemplate
	}
	name := "sections/" + component
	if lookup, ok := r.templates.(rendertemplate.Lookup); ok && !lookup.HasTemplate(name) {
		return genericTemplate
	}
	return name
}

func (r *Renderer) stylesheet(cfg *theme.RendererConfig) string {
	if cfg != nil && cfg.AssetURL != nil {
		if url := cfg.AssetURL(StylesheetAssetKey); url != "" {
			return url
		}
	}
	return r.stylesheetURL
}

// selectedVariant returns props["variant"] when it names one of the section's
// declared variants.
func selectedVariant(section composer.Section) string {
	want, _ := section.Props["variant"].(string)
	if want == "" {
		return ""
	}
	for _, variant := range section.Variants {
		if variant == want {
			return want
		}
	}
	return ""
}

func buildThemeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":    cfg.Theme,
		"variant": cfg.Variant,
		"style":   cssVarsStyle(cfg.CSSVars),
	}
}

// cssVarsStyle renders theme CSS variables as a :root rule with keys sorted
// for stable output.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {")
	for _, key := range keys {
		value := strings.NewReplacer("<", "", ">", "", ";", "", "}", "").Replace(vars[key])
		fmt.Fprintf(&b, " %s: %s;", key, value)
	}
	b.WriteString(" }")
	return b.String()
}

func filterMarkdown(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	out, err := markup.Markdown(in.String())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:markdown", OrigError: err}
	}
	return pongo2.AsSafeValue(out), nil
}

func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsSafeValue(markup.Sanitize(in.String())), nil
}
