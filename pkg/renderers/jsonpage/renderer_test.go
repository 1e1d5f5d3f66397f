package jsonpage_test

import (
	"context"
	"encoding/json"
	"testing"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/render"
	"github.com/kivisai/site/pkg/renderers/jsonpage"
	"github.com/kivisai/site/pkg/testsupport"
)

func TestRenderer_EncodesPageAndTheme(t *testing.T) {
	page := testsupport.MustTemplate(t, "legal")

	out, err := jsonpage.New("  ").Render(context.Background(), page, render.RenderOptions{
		Locale:     "de",
		Breakpoint: composer.BreakpointTablet,
		Theme: &theme.RendererConfig{
			Theme:   "kivisai",
			Variant: "light",
			Tokens:  map[string]string{"brand": "#0f4c81"},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var doc jsonpage.Document
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := cmp.Diff(page.ID, doc.Page.ID); diff != "" {
		t.Fatalf("page id mismatch (-want +got):\n%s", diff)
	}
	if len(doc.Page.Sections) != len(page.Sections) {
		t.Fatalf("expected %d sections, got %d", len(page.Sections), len(doc.Page.Sections))
	}
	want := &jsonpage.Theme{Name: "kivisai", Variant: "light", Tokens: map[string]string{"brand": "#0f4c81"}}
	if diff := cmp.Diff(want, doc.Theme); diff != "" {
		t.Fatalf("theme mismatch (-want +got):\n%s", diff)
	}
	if doc.Breakpoint != "tablet" || doc.Locale != "de" {
		t.Fatalf("unexpected locale/breakpoint: %+v", doc)
	}
}

func TestRenderer_CompactOutput(t *testing.T) {
	page := composer.Template{ID: "x", Sections: []composer.Section{{ID: "a", Component: composer.KindHero}}}
	out, err := jsonpage.New("").Render(context.Background(), page, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `{"page":{"id":"x","name":"","description":"","sections":[{"id":"a","component":"HeroSection"}],"metadata":{"title":"","description":""}}}`
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}
