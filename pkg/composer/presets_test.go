package composer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPresets_BuildEveryName(t *testing.T) {
	presets := NewPresets(MustDefaultRegistry())

	for _, name := range presets.Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			b, err := presets.Build(name, "")
			if err != nil {
				t.Fatalf("build preset: %v", err)
			}
			if result := b.Validate(); !result.Valid {
				t.Fatalf("preset %s does not validate: %v", name, result.Errors)
			}
		})
	}
}

func TestPresets_ServicePage(t *testing.T) {
	b, err := NewPresets(MustDefaultRegistry()).ServicePage("AI Strategy")
	if err != nil {
		t.Fatalf("service preset: %v", err)
	}
	hero, _ := b.Export().Section("hero")
	if hero.Props["title"] != "AI Strategy" {
		t.Fatalf("hero title not applied: %v", hero.Props["title"])
	}
	if hero.Props["subtitle"] == nil {
		t.Fatalf("existing hero props should survive the merge")
	}
}

func TestPresets_LandingWithNewsletter(t *testing.T) {
	b, err := NewPresets(MustDefaultRegistry()).LandingWithNewsletter()
	if err != nil {
		t.Fatalf("landing preset: %v", err)
	}
	ids := idsOf(b.Sections())
	want := []string{"hero", "stats", "services", "process", "faq", "cta", "newsletter"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("landing sections mismatch (-want +got):\n%s", diff)
	}
}

func TestPresets_LegalPageUnknownKind(t *testing.T) {
	if _, err := NewPresets(MustDefaultRegistry()).LegalPage("cookies"); err == nil {
		t.Fatalf("expected error for unknown legal kind")
	}
}

func TestPresets_UnknownName(t *testing.T) {
	if _, err := NewPresets(MustDefaultRegistry()).Build("nope", ""); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}
