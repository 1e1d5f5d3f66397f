package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/pipeline"
	"github.com/kivisai/site/pkg/render"
	"github.com/kivisai/site/pkg/testsupport"
)

func TestPipeline_RenderDefaultsToHTML(t *testing.T) {
	p := pipeline.New()

	result, err := p.Render(testsupport.Context(), pipeline.Request{TemplateID: "landing"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", result.ContentType)
	}
	body := string(result.Body)
	if !strings.Contains(body, `data-theme="kivisai"`) || !strings.Contains(body, "--brand: #0f4c81;") {
		t.Fatalf("expected default theme applied:\n%s", body)
	}
	if !result.Validation.Valid {
		t.Fatalf("expected valid page, got %v", result.Validation.Errors)
	}
}

func TestPipeline_RenderPresetAsJSON(t *testing.T) {
	p := pipeline.New()

	result, err := p.Render(testsupport.Context(), pipeline.Request{
		Preset:     "landing-newsletter",
		Renderer:   "json",
		Breakpoint: composer.BreakpointMobile,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", result.ContentType)
	}

	last := result.Page.Sections[len(result.Page.Sections)-1]
	if last.Component != composer.KindNewsletter {
		t.Fatalf("expected newsletter last, got %s", last.Component)
	}
	hero, _ := result.Page.Section("hero")
	if hero.Props["layout"] != "stacked" {
		t.Fatalf("expected mobile overrides on hero, got %v", hero.Props)
	}
}

func TestPipeline_ComposeErrorsAbort(t *testing.T) {
	p := pipeline.New()

	_, err := p.Render(testsupport.Context(), pipeline.Request{
		TemplateID: "landing",
		Compose: func(b *composer.Builder) error {
			return b.AddSection(composer.Section{ID: "hero-2", Component: composer.KindHero})
		},
	})
	if !errors.Is(err, composer.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestPipeline_InvalidPageReportsProblems(t *testing.T) {
	p := pipeline.New()

	result, err := p.Render(testsupport.Context(), pipeline.Request{
		TemplateID: "landing",
		Compose: func(b *composer.Builder) error {
			return b.ReplaceSection("services", composer.Section{ID: "services", Component: "PartnerLogos"})
		},
	})
	if !errors.Is(err, pipeline.ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
	if result.Validation.Valid || len(result.Validation.Errors) != 1 {
		t.Fatalf("expected one validation error, got %v", result.Validation.Errors)
	}
	if result.Body != nil {
		t.Fatalf("invalid page must not be rendered")
	}
}

func TestPipeline_RenderPageRejectsPageOverLimit(t *testing.T) {
	p := pipeline.New()

	page := composer.Template{
		ID: "double-hero",
		Sections: []composer.Section{
			{ID: "hero", Component: composer.KindHero},
			{ID: "hero-2", Component: composer.KindHero},
		},
	}
	result, err := p.RenderPage(testsupport.Context(), page, pipeline.Request{})
	if !errors.Is(err, pipeline.ErrInvalidPage) || !errors.Is(err, composer.ErrLimitExceeded) {
		t.Fatalf("expected ErrInvalidPage wrapping ErrLimitExceeded, got %v", err)
	}
	if result.Validation.Valid || len(result.Validation.Errors) != 1 {
		t.Fatalf("expected one validation error, got %v", result.Validation.Errors)
	}
	if result.Body != nil {
		t.Fatalf("page over the limit must not be rendered")
	}
}

func TestPipeline_RequestErrors(t *testing.T) {
	p := pipeline.New()
	ctx := testsupport.Context()

	cases := []struct {
		name string
		req  pipeline.Request
		is   error
	}{
		{name: "empty", req: pipeline.Request{}},
		{name: "both", req: pipeline.Request{TemplateID: "landing", Preset: "service"}},
		{name: "unknown template", req: pipeline.Request{TemplateID: "pricing"}, is: composer.ErrTemplateNotFound},
		{name: "unknown renderer", req: pipeline.Request{TemplateID: "landing", Renderer: "pdf"}, is: render.ErrRendererNotFound},
		{name: "unknown preset", req: pipeline.Request{Preset: "pricing"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Render(ctx, tc.req)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v, got %v", tc.is, err)
			}
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := p.Render(cancelled, pipeline.Request{TemplateID: "landing"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipeline_PassesThemeConfigToRenderer(t *testing.T) {
	selector := &stubThemeSelector{selection: &theme.Selection{
		Theme:   "acme",
		Variant: "dark",
		Manifest: &theme.Manifest{
			Name:    "acme",
			Version: "1.0.0",
			Tokens:  map[string]string{"brand": "#123456"},
		},
	}}
	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	p := pipeline.New(
		pipeline.WithRegistry(registry),
		pipeline.WithThemeSelector(selector),
		pipeline.WithThemeFallbacks(map[string]string{"sections.hero": "sections/HeroSection"}),
	)

	_, err := p.Render(testsupport.Context(), pipeline.Request{
		TemplateID:   "legal",
		ThemeName:    "acme",
		ThemeVariant: "dark",
		Locale:       "en",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if diff := cmp.Diff([]selectCall{{name: "acme", variant: "dark"}}, selector.calls, cmp.AllowUnexported(selectCall{})); diff != "" {
		t.Fatalf("selector calls mismatch (-want +got):\n%s", diff)
	}
	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("expected theme config passed to renderer")
	}
	if cfg.CSSVars["--brand"] != "#123456" || cfg.Partials["sections.hero"] != "sections/HeroSection" {
		t.Fatalf("unexpected theme config %+v", cfg)
	}
	if renderer.options.Locale != "en" {
		t.Fatalf("expected locale forwarded, got %q", renderer.options.Locale)
	}
}

func TestPipeline_ThemeErrorsSurface(t *testing.T) {
	p := pipeline.New()
	_, err := p.Render(testsupport.Context(), pipeline.Request{TemplateID: "landing", ThemeName: "neon"})
	if err == nil || !strings.Contains(err.Error(), "select theme") {
		t.Fatalf("expected theme selection error, got %v", err)
	}
}

func TestPipeline_TransformersSeeValues(t *testing.T) {
	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	injected := pipeline.WhenComponent(composer.KindBlogList, pipeline.TransformerFunc(
		func(_ context.Context, _ *composer.Template, values map[string]any) error {
			values["posts"] = []any{"first"}
			return nil
		}))

	p := pipeline.New(pipeline.WithRegistry(registry), pipeline.WithTransformers(injected))
	ctx := testsupport.Context()

	if _, err := p.Render(ctx, pipeline.Request{TemplateID: "blog", Values: map[string]any{"page": 2}}); err != nil {
		t.Fatalf("render blog: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"page": 2, "posts": []any{"first"}}, renderer.options.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	if _, err := p.Render(ctx, pipeline.Request{TemplateID: "legal"}); err != nil {
		t.Fatalf("render legal: %v", err)
	}
	if _, ok := renderer.options.Values["posts"]; ok {
		t.Fatalf("transformer must not run for pages without a blog list")
	}
}

func TestPatchTransformer(t *testing.T) {
	patch, err := pipeline.NewPatchTransformerFromFS(fstest.MapFS{
		"patches.yaml": {Data: []byte(`
landing:
  metadata: {title: Spring campaign}
  sections:
    hero: {title: Make AI work this spring}
legal:
  sections:
    missing: {title: nope}
`)},
	}, "patches.yaml")
	if err != nil {
		t.Fatalf("load patch: %v", err)
	}

	page := testsupport.MustTemplate(t, "landing")
	if err := patch.Transform(testsupport.Context(), &page, nil); err != nil {
		t.Fatalf("transform: %v", err)
	}
	hero, _ := page.Section("hero")
	if page.Metadata.Title != "Spring campaign" || hero.Props["title"] != "Make AI work this spring" {
		t.Fatalf("patch not applied: %+v / %v", page.Metadata, hero.Props)
	}
	if hero.Props["subtitle"] == nil {
		t.Fatalf("patch must merge, not replace, props")
	}

	legal := testsupport.MustTemplate(t, "legal")
	if err := patch.Transform(testsupport.Context(), &legal, nil); !errors.Is(err, composer.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}

	about := testsupport.MustTemplate(t, "about")
	if err := patch.Transform(testsupport.Context(), &about, nil); err != nil {
		t.Fatalf("pages without a patch must pass through: %v", err)
	}

	if _, err := pipeline.NewPatchTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

type selectCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *theme.Selection
	calls     []selectCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, selectCall{name: name, variant: variant})
	return s.selection, nil
}

type captureRenderer struct {
	options render.RenderOptions
	page    composer.Template
}

func (c *captureRenderer) Name() string        { return "capture" }
func (c *captureRenderer) ContentType() string { return "text/plain" }
func (c *captureRenderer) Render(_ context.Context, page composer.Template, opts render.RenderOptions) ([]byte, error) {
	c.options = opts
	c.page = page
	return []byte(page.ID), nil
}

func TestNew_DefaultsInitialise(t *testing.T) {
	p := pipeline.New()
	if err := p.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if diff := cmp.Diff([]string{"html", "json"}, p.Renderers().List()); diff != "" {
		t.Fatalf("renderers mismatch (-want +got):\n%s", diff)
	}
}
