// Package site is the entry point for composing and rendering KIVISAI pages.
// It re-exports the common types and wraps the pipeline for one-shot use.
package site

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/pipeline"
	"github.com/kivisai/site/pkg/render"
)

// Template is a page blueprint or an exported page.
type Template = composer.Template

// Section is one block of a page.
type Section = composer.Section

// Props configures a section.
type Props = composer.Props

// Breakpoint names a responsive context.
type Breakpoint = composer.Breakpoint

// ValidationResult aggregates composition problems.
type ValidationResult = composer.ValidationResult

// RenderOptions describes per-render settings handed to renderers.
type RenderOptions = render.RenderOptions

// NewPipeline exposes the pipeline constructor from the top-level module.
func NewPipeline(options ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(options...)
}

// NewBuilder starts composing template id from the embedded templates.
func NewBuilder(id string, options ...composer.Option) (*composer.Builder, error) {
	reg, err := composer.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	return composer.NewBuilder(reg, id, options...)
}

// RenderHTML builds, validates and renders a template with the HTML renderer.
// It is the simplest entry point for callers that just want a page.
func RenderHTML(ctx context.Context, templateID string, options ...pipeline.Option) ([]byte, error) {
	result, err := pipeline.New(options...).Render(ctx, pipeline.Request{TemplateID: templateID})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// RenderPreset renders a named preset with rendererName ("html" when empty).
func RenderPreset(ctx context.Context, preset, arg, rendererName string, options ...pipeline.Option) ([]byte, error) {
	result, err := pipeline.New(options...).Render(ctx, pipeline.Request{
		Preset:    preset,
		PresetArg: arg,
		Renderer:  rendererName,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// WithThemeSelector passes a go-theme selector through to the pipeline so
// theme/variant choices are resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) pipeline.Option {
	return pipeline.WithThemeSelector(selector)
}
