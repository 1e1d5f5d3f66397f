package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/render"
)

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(_ context.Context, page composer.Template, _ render.RenderOptions) ([]byte, error) {
	return []byte(page.ID), nil
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := render.NewRegistry()
	reg.MustRegister(namedRenderer("html"))
	reg.MustRegister(namedRenderer("json"))

	if diff := cmp.Diff([]string{"html", "json"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	got, err := reg.Resolve("")
	if err != nil || got.Name() != "html" {
		t.Fatalf("expected first registered renderer as default, got %v (%v)", got, err)
	}

	if err := reg.SetDefault("json"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	got, _ = reg.Resolve("")
	if got.Name() != "json" {
		t.Fatalf("expected json default, got %s", got.Name())
	}

	if _, err := reg.Resolve("pdf"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
}

func TestRegistry_RejectsDuplicatesAndBlankNames(t *testing.T) {
	reg := render.NewRegistry()
	reg.MustRegister(namedRenderer("html"))

	if err := reg.Register(namedRenderer("html")); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.Register(namedRenderer(" ")); err == nil {
		t.Fatalf("expected blank name error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil renderer error")
	}
}

func TestRegistry_EmptyResolve(t *testing.T) {
	if _, err := render.NewRegistry().Resolve(""); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
}
