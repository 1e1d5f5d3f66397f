// Package testsupport holds fixture and golden-file helpers shared by the
// package tests.
package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kivisai/site/pkg/composer"
)

// MustDefaultRegistry returns the registry backed by the embedded templates,
// failing the test when they cannot be parsed.
func MustDefaultRegistry(t *testing.T) *composer.Registry {
	t.Helper()

	reg, err := composer.DefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	return reg
}

// MustTemplate loads a template from the default registry.
func MustTemplate(t *testing.T, id string) composer.Template {
	t.Helper()

	tpl, err := MustDefaultRegistry(t).Get(id)
	if err != nil {
		t.Fatalf("get template %q: %v", id, err)
	}
	return tpl
}

// MustLoadTemplate loads a JSON golden file into a Template.
func MustLoadTemplate(t *testing.T, path string) composer.Template {
	t.Helper()

	tpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	return tpl
}

// LoadTemplate reads a JSON fixture into a Template, returning an error for
// callers managing setup outside of *testing.T.
func LoadTemplate(path string) (composer.Template, error) {
	if path == "" {
		return composer.Template{}, errors.New("testsupport: template path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return composer.Template{}, fmt.Errorf("testsupport: read template: %w", err)
	}
	var out composer.Template
	if err := json.Unmarshal(data, &out); err != nil {
		return composer.Template{}, fmt.Errorf("testsupport: unmarshal template: %w", err)
	}
	return out, nil
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
