// Package jsonpage renders composed pages as JSON documents for headless
// consumers and the admin API.
package jsonpage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/render"
)

// Name identifies the renderer in a render.Registry.
const Name = "json"

// Document is the JSON payload produced by the renderer.
type Document struct {
	Page       composer.Template `json:"page"`
	Locale     string            `json:"locale,omitempty"`
	Breakpoint string            `json:"breakpoint,omitempty"`
	Theme      *Theme            `json:"theme,omitempty"`
}

// Theme carries the resolved theme identity and tokens.
type Theme struct {
	Name    string            `json:"name"`
	Variant string            `json:"variant,omitempty"`
	Tokens  map[string]string `json:"tokens,omitempty"`
	CSSVars map[string]string `json:"cssVars,omitempty"`
}

// Renderer implements render.Renderer for JSON output.
type Renderer struct {
	indent string
}

var _ render.Renderer = (*Renderer)(nil)

// New returns a renderer producing indented JSON. Pass an empty indent for
// compact output.
func New(indent string) *Renderer {
	return &Renderer{indent: indent}
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "application/json"
}

func (r *Renderer) Render(_ context.Context, page composer.Template, opts render.RenderOptions) ([]byte, error) {
	page = page.Clone()
	render.LocalizePage(&page, opts)

	doc := Document{
		Page:       page,
		Locale:     opts.Locale,
		Breakpoint: string(opts.Breakpoint),
	}
	if opts.Theme != nil {
		doc.Theme = &Theme{
			Name:    opts.Theme.Theme,
			Variant: opts.Theme.Variant,
			Tokens:  opts.Theme.Tokens,
			CSSVars: opts.Theme.CSSVars,
		}
	}

	var (
		out []byte
		err error
	)
	if r.indent == "" {
		out, err = json.Marshal(doc)
	} else {
		out, err = json.MarshalIndent(doc, "", r.indent)
	}
	if err != nil {
		return nil, fmt.Errorf("json renderer: encode page %q: %w", page.ID, err)
	}
	return out, nil
}
