package site

import (
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestAssetsFSContainsStylesheet(t *testing.T) {
	data, err := fs.ReadFile(AssetsFS(), "site.css")
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected stylesheet content")
	}
}

func TestEmbeddedFSes(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "page.tpl"); err != nil {
		t.Fatalf("expected page layout: %v", err)
	}
	if _, err := fs.Stat(PageTemplates(), "landing.yaml"); err != nil {
		t.Fatalf("expected landing blueprint: %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(context.Background(), "landing")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(string(out), "Make AI work for your business") {
		t.Fatalf("expected hero title in output")
	}
}

func TestRenderPreset(t *testing.T) {
	out, err := RenderPreset(context.Background(), "legal-imprint", "", "json")
	if err != nil {
		t.Fatalf("RenderPreset: %v", err)
	}
	if !strings.Contains(string(out), `"id": "legal"`) {
		t.Fatalf("expected legal page snapshot, got %s", out)
	}
}

func TestNewBuilder(t *testing.T) {
	b, err := NewBuilder("contact")
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if !b.Validate().Valid {
		t.Fatalf("expected contact template to validate")
	}
	if _, err := NewBuilder("nope"); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}
