package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/render"
	"github.com/kivisai/site/pkg/renderers/html"
	"github.com/kivisai/site/pkg/renderers/jsonpage"
	"github.com/kivisai/site/pkg/themes"
)

// ErrInvalidPage is returned when a composed page fails validation. The
// accompanying Result carries the individual problems.
var ErrInvalidPage = errors.New("pipeline: page is invalid")

// Option customises the pipeline configuration.
type Option func(*Pipeline)

// WithTemplates replaces the template registry.
func WithTemplates(reg *composer.Registry) Option {
	return func(p *Pipeline) {
		p.templates = reg
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(p *Pipeline) {
		p.renderers = registry
	}
}

// WithBuilderOptions forwards options to every builder the pipeline creates.
func WithBuilderOptions(options ...composer.Option) Option {
	return func(p *Pipeline) {
		p.builderOptions = append(p.builderOptions, options...)
	}
}

// WithThemeSelector resolves themes through selector.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(p *Pipeline) {
		p.themes = selector
		p.themesSpecified = true
	}
}

// WithThemeFallbacks seeds partials used when a theme does not define them.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(p *Pipeline) {
		p.themeFallbacks = fallbacks
	}
}

// WithTranslator localizes pages before rendering.
func WithTranslator(t render.Translator, defaultLocale string) Option {
	return func(p *Pipeline) {
		p.translator = t
		p.defaultLocale = defaultLocale
	}
}

// WithTransformers registers transformers that run on the composed page
// before rendering.
func WithTransformers(transformers ...Transformer) Option {
	return func(p *Pipeline) {
		p.transformers = append(p.transformers, transformers...)
	}
}

// Pipeline turns a template id or preset name into rendered output.
type Pipeline struct {
	templates       *composer.Registry
	presets         *composer.Presets
	renderers       *render.Registry
	builderOptions  []composer.Option
	themes          theme.ThemeSelector
	themesSpecified bool
	themeFallbacks  map[string]string
	translator      render.Translator
	defaultLocale   string
	transformers    []Transformer
	initialiseErr   error
}

// New constructs a Pipeline. Missing dependencies fall back to the embedded
// templates, the embedded themes and a registry holding the HTML and JSON
// renderers with HTML as default.
func New(options ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	p.applyDefaults()
	return p
}

// Request selects what to build and how to render it. Exactly one of
// TemplateID and Preset must be set.
type Request struct {
	TemplateID string
	Preset     string
	PresetArg  string

	// Compose runs after the page is loaded and before responsive rules are
	// applied. Errors abort the request.
	Compose func(*composer.Builder) error

	Renderer     string
	Locale       string
	Breakpoint   composer.Breakpoint
	ThemeName    string
	ThemeVariant string
	Values       map[string]any
}

// Result is the outcome of a pipeline run.
type Result struct {
	Page        composer.Template
	Validation  composer.ValidationResult
	ContentType string
	Body        []byte
}

// Build composes the requested page and validates it without rendering.
// ErrInvalidPage is returned alongside a populated Result when validation
// fails.
func (p *Pipeline) Build(ctx context.Context, req Request) (Result, error) {
	if err := p.ready(ctx); err != nil {
		return Result{}, err
	}

	builder, err := p.builder(req)
	if err != nil {
		return Result{}, err
	}
	if req.Compose != nil {
		if err := req.Compose(builder); err != nil {
			return Result{}, fmt.Errorf("pipeline: compose: %w", err)
		}
	}
	if req.Breakpoint != "" {
		builder.ApplyResponsiveRules(req.Breakpoint)
	}

	result := Result{
		Page:       builder.Export(),
		Validation: builder.Validate(),
	}
	if !result.Validation.Valid {
		return result, fmt.Errorf("%w: %s", ErrInvalidPage, strings.Join(result.Validation.Errors, "; "))
	}
	return result, nil
}

// Render builds, validates and renders the requested page.
func (p *Pipeline) Render(ctx context.Context, req Request) (Result, error) {
	result, err := p.Build(ctx, req)
	if err != nil {
		return result, err
	}
	return p.RenderPage(ctx, result.Page, req)
}

// RenderPage renders an already composed page. The page is validated against
// its own required sections before rendering.
func (p *Pipeline) RenderPage(ctx context.Context, page composer.Template, req Request) (Result, error) {
	if err := p.ready(ctx); err != nil {
		return Result{}, err
	}

	result := Result{Page: page.Clone()}
	builder, err := composer.NewBuilderFromTemplate(result.Page, p.builderOptions...)
	if err != nil {
		result.Validation = composer.ValidationResult{Errors: []string{err.Error()}}
		return result, fmt.Errorf("%w: %w", ErrInvalidPage, err)
	}
	result.Validation = builder.Validate()
	if !result.Validation.Valid {
		return result, fmt.Errorf("%w: %s", ErrInvalidPage, strings.Join(result.Validation.Errors, "; "))
	}

	values := make(map[string]any, len(req.Values))
	for key, value := range req.Values {
		values[key] = value
	}
	for _, t := range p.transformers {
		if t == nil {
			continue
		}
		if err := t.Transform(ctx, &result.Page, values); err != nil {
			return result, fmt.Errorf("pipeline: transform page: %w", err)
		}
	}

	renderer, err := p.renderers.Resolve(req.Renderer)
	if err != nil {
		return result, fmt.Errorf("pipeline: %w", err)
	}

	opts, err := p.renderOptions(req, values)
	if err != nil {
		return result, err
	}

	body, err := renderer.Render(ctx, result.Page, opts)
	if err != nil {
		return result, fmt.Errorf("pipeline: render output: %w", err)
	}
	result.ContentType = renderer.ContentType()
	result.Body = body
	return result, nil
}

// Err reports a failure to set up default dependencies. Every run returns the
// same error.
func (p *Pipeline) Err() error {
	return p.initialiseErr
}

// Templates exposes the template registry the pipeline reads from.
func (p *Pipeline) Templates() *composer.Registry {
	return p.templates
}

// Presets exposes the preset catalogue bound to the pipeline's templates.
func (p *Pipeline) Presets() *composer.Presets {
	return p.presets
}

// Renderers exposes the renderer registry.
func (p *Pipeline) Renderers() *render.Registry {
	return p.renderers
}

func (p *Pipeline) builder(req Request) (*composer.Builder, error) {
	switch {
	case req.TemplateID != "" && req.Preset != "":
		return nil, errors.New("pipeline: template id and preset are mutually exclusive")
	case req.Preset != "":
		return p.presets.Build(req.Preset, req.PresetArg)
	case req.TemplateID != "":
		return composer.NewBuilder(p.templates, req.TemplateID, p.builderOptions...)
	default:
		return nil, errors.New("pipeline: template id or preset is required")
	}
}

func (p *Pipeline) renderOptions(req Request, values map[string]any) (render.RenderOptions, error) {
	opts := render.RenderOptions{
		Locale:     req.Locale,
		Translator: p.translator,
		Breakpoint: req.Breakpoint,
		Values:     values,
	}
	if opts.Locale == "" {
		opts.Locale = p.defaultLocale
	}
	if p.themes != nil {
		sel, err := p.themes.Select(req.ThemeName, req.ThemeVariant)
		if err != nil {
			return opts, fmt.Errorf("pipeline: select theme: %w", err)
		}
		opts.Theme = themes.RendererConfig(sel, p.themeFallbacks)
	}
	return opts, nil
}

func (p *Pipeline) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("pipeline: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.initialiseErr
}

func (p *Pipeline) applyDefaults() {
	if p.templates == nil {
		reg, err := composer.DefaultRegistry()
		if err != nil {
			p.initialiseErr = fmt.Errorf("pipeline: default templates: %w", err)
			return
		}
		p.templates = reg
	}
	p.presets = composer.NewPresets(p.templates, p.builderOptions...)

	if p.renderers == nil {
		p.renderers = render.NewRegistry()
		renderer, err := html.New()
		if err != nil {
			p.initialiseErr = fmt.Errorf("pipeline: default renderer: %w", err)
			return
		}
		p.renderers.MustRegister(renderer)
		p.renderers.MustRegister(jsonpage.New("  "))
	}

	if p.themes == nil && !p.themesSpecified {
		set, err := themes.Default()
		if err != nil {
			p.initialiseErr = fmt.Errorf("pipeline: default themes: %w", err)
			return
		}
		p.themes = set
	}
}
