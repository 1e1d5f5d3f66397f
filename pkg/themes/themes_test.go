package themes_test

import (
	"errors"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/kivisai/site/pkg/themes"
)

func TestDefault_SelectsEmbeddedTheme(t *testing.T) {
	set, err := themes.Default()
	if err != nil {
		t.Fatalf("default themes: %v", err)
	}
	if diff := cmp.Diff([]string{"kivisai"}, set.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	sel, err := set.Select("", "")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Theme != "kivisai" || sel.Variant != "light" {
		t.Fatalf("unexpected selection %s/%s", sel.Theme, sel.Variant)
	}
}

func TestSet_SelectErrors(t *testing.T) {
	set, err := themes.Default()
	if err != nil {
		t.Fatalf("default themes: %v", err)
	}
	if _, err := set.Select("acme", ""); !errors.Is(err, themes.ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound, got %v", err)
	}
	if _, err := set.Select("kivisai", "neon"); !errors.Is(err, themes.ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}

func TestSet_RegisterRejectsDuplicates(t *testing.T) {
	set := themes.NewSet("", "")
	if err := set.Register(&theme.Manifest{Name: "acme", Version: "1.0.0"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := set.Register(&theme.Manifest{Name: "acme", Version: "1.0.1"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := set.Register(&theme.Manifest{}); err == nil {
		t.Fatalf("expected missing name error")
	}

	sel, err := set.Select("", "")
	if err != nil || sel.Theme != "acme" {
		t.Fatalf("expected first theme as default, got %v (%v)", sel, err)
	}
}

func TestRendererConfig_MergesVariant(t *testing.T) {
	set := themes.NewSet("acme", "")
	err := set.LoadFS(fstest.MapFS{
		"acme.yaml": {Data: []byte(`
name: acme
version: 1.0.0
tokens: {brand: "#123456", text: "#000"}
templates: {sections.hero: base/hero}
assets:
  prefix: /themes/acme/
  files: {site.stylesheet: theme.css, logo: https://cdn.example.com/logo.svg}
variants:
  dark:
    tokens: {text: "#fff"}
    assets:
      files: {site.stylesheet: dark.css}
`)},
		"notes.txt": {Data: []byte("ignored")},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	sel, err := set.Select("acme", "dark")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	cfg := themes.RendererConfig(sel, map[string]string{"sections.cta": "fallback/cta"})

	if diff := cmp.Diff(map[string]string{"brand": "#123456", "text": "#fff"}, cfg.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"--brand": "#123456", "--text": "#fff"}, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"sections.hero": "base/hero", "sections.cta": "fallback/cta"}, cfg.Partials); diff != "" {
		t.Fatalf("partials mismatch (-want +got):\n%s", diff)
	}

	cases := map[string]string{
		"site.stylesheet": "/themes/acme/dark.css",
		"logo":            "https://cdn.example.com/logo.svg",
		"missing":         "",
	}
	for key, want := range cases {
		if got := cfg.AssetURL(key); got != want {
			t.Fatalf("asset %q: want %q, got %q", key, want, got)
		}
	}
}

func TestRendererConfig_NilSelection(t *testing.T) {
	if themes.RendererConfig(nil, nil) != nil {
		t.Fatalf("expected nil config")
	}
}
