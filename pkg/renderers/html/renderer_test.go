package html_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/render"
	"github.com/kivisai/site/pkg/renderers/html"
	"github.com/kivisai/site/pkg/testsupport"
)

func TestRenderer_LandingPage(t *testing.T) {
	renderer := newRenderer(t)
	page := testsupport.MustTemplate(t, "landing")

	output, err := renderer.Render(context.Background(), page, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := string(output)

	for _, want := range []string{
		`<html lang="de">`,
		`<title>KIVISAI | AI consulting for the Mittelstand</title>`,
		`<link rel="canonical" href="https://kivisai.com/">`,
		`<link rel="stylesheet" href="/assets/site.css">`,
		`<h1>Make AI work for your business</h1>`,
		`<dd>40+</dd>`,
		`<li>Assess</li>`,
		`<summary>How long does an engagement take?</summary>`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in output:\n%s", want, doc)
		}
	}

	assertOrder(t, doc, `id="hero"`, `id="stats"`, `id="services"`, `id="process"`, `id="faq"`, `id="cta"`)
}

func TestRenderer_MarkdownPropsAreSanitized(t *testing.T) {
	renderer := newRenderer(t)
	page := composer.Template{
		ID:   "note",
		Name: "Note",
		Sections: []composer.Section{
			{ID: "hero", Component: composer.KindHero, Props: composer.Props{"title": "Note"}},
			{ID: "body", Component: composer.KindContent, Props: composer.Props{
				"markdown": "## Heading\n\n**bold**\n\n<script>alert(1)</script>",
			}},
		},
	}

	output, err := renderer.Render(context.Background(), page, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := string(output)
	if !strings.Contains(doc, "<strong>bold</strong>") || !strings.Contains(doc, `<h2 id="heading">Heading</h2>`) {
		t.Fatalf("expected rendered markdown:\n%s", doc)
	}
	if strings.Contains(doc, "<script>") {
		t.Fatalf("script survived sanitization:\n%s", doc)
	}
}

func TestRenderer_UnknownComponentUsesGenericTemplate(t *testing.T) {
	renderer := newRenderer(t)
	page := composer.Template{
		ID: "custom",
		Sections: []composer.Section{
			{ID: "partners", Component: "PartnerLogos", Props: composer.Props{"title": "Partners"}},
		},
	}

	output, err := renderer.Render(context.Background(), page, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(output), `class="section section--partner-logos"`) {
		t.Fatalf("expected generic section markup:\n%s", output)
	}
}

func TestRenderer_ThemeAndBreakpoint(t *testing.T) {
	renderer := newRenderer(t)
	page := testsupport.MustTemplate(t, "legal")

	output, err := renderer.Render(context.Background(), page, render.RenderOptions{
		Locale:     "en",
		Breakpoint: composer.BreakpointMobile,
		Theme: &theme.RendererConfig{
			Theme:   "kivisai",
			Variant: "dark",
			CSSVars: map[string]string{"--brand": "#0b1f33", "--accent": "#ffb000"},
			AssetURL: func(key string) string {
				if key == html.StylesheetAssetKey {
					return "/themes/kivisai/dark.css"
				}
				return ""
			},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := string(output)

	for _, want := range []string{
		`<html lang="en">`,
		`data-theme="kivisai"`,
		`data-variant="dark"`,
		`data-breakpoint="mobile"`,
		`<style>:root { --accent: #ffb000; --brand: #0b1f33; }</style>`,
		`href="/themes/kivisai/dark.css"`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in output:\n%s", want, doc)
		}
	}
}

func TestRenderer_BlogListUsesValues(t *testing.T) {
	renderer := newRenderer(t)
	page := testsupport.MustTemplate(t, "blog")

	output, err := renderer.Render(context.Background(), page, render.RenderOptions{
		Values: map[string]any{
			"posts": []any{
				map[string]any{"slug": "ai-readiness", "title": "AI readiness", "date": "2026-01-15", "excerpt": "Where to start."},
			},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(output), `<a href="/blog/ai-readiness"><h2>AI readiness</h2></a>`) {
		t.Fatalf("expected post link:\n%s", output)
	}
}

func TestRenderer_TemplateOverridesFromFS(t *testing.T) {
	files := fstest.MapFS{
		"page.tpl":                 {Data: []byte("{% for section in sections %}{{ section.html|safe }}{% endfor %}")},
		"sections/Generic.tpl":     {Data: []byte("[{{ section.id }}]")},
		"sections/HeroSection.tpl": {Data: []byte("<hero>{{ props.title }}</hero>")},
	}
	renderer, err := html.New(html.WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page := composer.Template{
		ID: "x",
		Sections: []composer.Section{
			{ID: "hero", Component: composer.KindHero, Props: composer.Props{"title": "Hi"}},
			{ID: "cta", Component: composer.KindCTA},
		},
	}

	output, err := renderer.Render(context.Background(), page, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := testsupport.CompareGolden("<hero>Hi</hero>[cta]", string(output)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_LocalizesCopy(t *testing.T) {
	renderer := newRenderer(t)
	page := composer.Template{
		ID: "x",
		Sections: []composer.Section{
			{ID: "hero", Component: composer.KindHero, Props: composer.Props{"title": "Hello", "titleKey": "hero.title"}},
		},
	}

	output, err := renderer.Render(context.Background(), page, render.RenderOptions{
		Locale:     "de",
		Translator: catalog{"hero.title": "Hallo"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(output), "<h1>Hallo</h1>") {
		t.Fatalf("expected translated hero:\n%s", output)
	}
	if page.Sections[0].Props["title"] != "Hello" {
		t.Fatalf("render mutated caller page")
	}
}

func TestRenderer_HonoursCancelledContext(t *testing.T) {
	renderer := newRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := renderer.Render(ctx, testsupport.MustTemplate(t, "landing"), render.RenderOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type catalog map[string]string

func (c catalog) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := c[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing")
}

func newRenderer(t *testing.T) *html.Renderer {
	t.Helper()
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return renderer
}

func assertOrder(t *testing.T, doc string, markers ...string) {
	t.Helper()
	last := -1
	for _, marker := range markers {
		idx := strings.Index(doc, marker)
		if idx < 0 {
			t.Fatalf("marker %q not found", marker)
		}
		if idx < last {
			t.Fatalf("marker %q out of order", marker)
		}
		last = idx
	}
}
