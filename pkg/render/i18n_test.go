package render_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestLocalizePage_UsesKeysAndFallbacks(t *testing.T) {
	page := composer.Template{
		ID: "landing",
		Sections: []composer.Section{
			{
				ID:        "hero",
				Component: composer.KindHero,
				Props: composer.Props{
					"title":       "Make AI work",
					"titleKey":    "hero.title",
					"subtitle":    "Pragmatic consulting",
					"subtitleKey": "hero.subtitle",
					"primaryCta": map[string]any{
						"label":    "Book a call",
						"labelKey": "cta.book",
					},
				},
			},
		},
	}

	render.LocalizePage(&page, render.RenderOptions{
		Locale: "de",
		Translator: stubTranslator{
			"hero.title": "KI, die für Sie arbeitet",
			"cta.book":   "Termin buchen",
		},
	})

	props := page.Sections[0].Props
	if props["title"] != "KI, die für Sie arbeitet" {
		t.Fatalf("expected translated title, got %v", props["title"])
	}
	if props["subtitle"] != "Pragmatic consulting" {
		t.Fatalf("expected subtitle fallback, got %v", props["subtitle"])
	}
	cta := props["primaryCta"].(map[string]any)
	if cta["label"] != "Termin buchen" {
		t.Fatalf("expected nested label translated, got %v", cta["label"])
	}
}

func TestLocalizePage_MissingTranslatorUsesHandler(t *testing.T) {
	page := composer.Template{
		Sections: []composer.Section{{ID: "hero", Component: composer.KindHero, Props: composer.Props{"titleKey": "hero.title"}}},
	}

	var gotErr error
	render.LocalizePage(&page, render.RenderOptions{
		OnMissing: func(_ string, key, _ string, err error) string {
			gotErr = err
			return "[" + key + "]"
		},
	})

	if !errors.Is(gotErr, render.ErrMissingTranslator) {
		t.Fatalf("expected ErrMissingTranslator, got %v", gotErr)
	}
	if page.Sections[0].Props["title"] != "[hero.title]" {
		t.Fatalf("expected handler output, got %v", page.Sections[0].Props["title"])
	}
}

func TestCatalog_TranslateWithFallbackLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"de.yaml": {Data: []byte("hero.title: Willkommen\ngreeting: Hallo %s\n")},
		"en.yaml": {Data: []byte("hero.title: Welcome\nfooter.legal: Legal\n")},
	}
	cat, err := render.LoadCatalog(fsys, "en")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	cases := []struct {
		locale string
		key    string
		args   []any
		want   string
	}{
		{locale: "de", key: "hero.title", want: "Willkommen"},
		{locale: "de-AT", key: "hero.title", want: "Willkommen"},
		{locale: "de", key: "footer.legal", want: "Legal"},
		{locale: "de", key: "greeting", args: []any{"Ada"}, want: "Hallo Ada"},
	}
	for _, tc := range cases {
		got, err := cat.Translate(tc.locale, tc.key, tc.args...)
		if err != nil {
			t.Fatalf("translate %s/%s: %v", tc.locale, tc.key, err)
		}
		if got != tc.want {
			t.Fatalf("translate %s/%s: want %q, got %q", tc.locale, tc.key, tc.want, got)
		}
	}

	if _, err := cat.Translate("fr", "missing.key"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
