package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kivisai/site/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTemplatesList(t *testing.T) {
	out, err := execute(t, "templates", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"landing", "Landing Page", "presets:", "landing-newsletter"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTemplatesShow(t *testing.T) {
	out, err := execute(t, "templates", "show", "contact")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var tpl struct {
		ID       string           `json:"id"`
		Sections []map[string]any `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out), &tpl); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if tpl.ID != "contact" || len(tpl.Sections) != 3 {
		t.Fatalf("unexpected template %+v", tpl)
	}

	if _, err := execute(t, "templates", "show", "nope"); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestTemplatesValidate(t *testing.T) {
	out, err := execute(t, "templates", "validate")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok      landing") {
		t.Fatalf("expected landing to validate:\n%s", out)
	}
}

func TestTemplatesRender(t *testing.T) {
	out, err := execute(t, "templates", "render", "--preset", "service", "--arg", "AI Strategy", "--renderer", "json", "--bp", "mobile")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var doc struct {
		Breakpoint string `json:"breakpoint"`
		Page       struct {
			ID string `json:"id"`
		} `json:"page"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if doc.Page.ID != "service" || doc.Breakpoint != "mobile" {
		t.Fatalf("unexpected document %+v", doc)
	}

	target := filepath.Join(t.TempDir(), "landing.html")
	out, err = execute(t, "templates", "render", "--template", "landing", "-o", target)
	if err != nil {
		t.Fatalf("render to file: %v", err)
	}
	if !strings.Contains(out, "Page written to") {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Fatalf("expected html document, got %q", data[:40])
	}
}

func TestTemplatesRender_FlagErrors(t *testing.T) {
	if _, err := execute(t, "templates", "render"); err == nil {
		t.Fatalf("expected error without template or preset")
	}
	if _, err := execute(t, "templates", "render", "--template", "landing", "--preset", "service"); err == nil {
		t.Fatalf("expected error for template and preset together")
	}
}

func TestServerOptions(t *testing.T) {
	dir := t.TempDir()
	patch := filepath.Join(dir, "patch.yaml")
	if err := os.WriteFile(patch, []byte("landing:\n  metadata:\n    title: Patched\n"), 0o644); err != nil {
		t.Fatalf("write patch: %v", err)
	}
	locales := filepath.Join(dir, "locales")
	if err := os.Mkdir(locales, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(locales, "en.yaml"), []byte("hero.title: Hello\n"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cfg, err := config.LoadFrom(map[string]string{
		"KIVISAI_PATCH_FILE":    patch,
		"KIVISAI_LOCALES_DIR":   locales,
		"KIVISAI_BREVO_API_KEY": "key",
		"KIVISAI_ADMIN_TOKEN":   "token",
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	opts, err := serverOptions(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("serverOptions: %v", err)
	}
	// logger, base url, locale, theme, timeout, pipeline, mailer, admin
	if len(opts) != 8 {
		t.Fatalf("expected 8 options, got %d", len(opts))
	}

	cfg.PatchFile = filepath.Join(dir, "missing.yaml")
	if _, err := serverOptions(cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for missing patch file")
	}
}
