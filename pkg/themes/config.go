package themes

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// RendererConfig flattens a selection into what renderers consume: variant
// values override the base manifest, every token becomes a "--token" CSS
// variable, and AssetURL resolves asset keys against the asset prefix.
// fallbacks seed partials the manifest does not define.
func RendererConfig(sel *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	m := sel.Manifest
	variant := m.Variants[sel.Variant]

	tokens := merge(m.Tokens, variant.Tokens)
	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	prefix := m.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}
	files := merge(m.Assets.Files, variant.Assets.Files)

	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: merge(merge(fallbacks, m.Templates), variant.Templates),
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
		},
	}
}

func merge(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}
