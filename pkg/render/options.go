package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/kivisai/site/pkg/composer"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the exported page.
type RenderOptions struct {
	// Locale selects translations for props carrying a `*Key` companion.
	Locale string
	// Translator resolves translation keys. Nil leaves fallback text in place.
	Translator Translator
	// OnMissing overrides the text used when a translation is missing.
	OnMissing MissingTranslationHandler
	// Theme carries the resolved go-theme selection (tokens, partials, asset
	// URLs). Renderers fall back to their built-in styling when nil.
	Theme *theme.RendererConfig
	// Breakpoint records which responsive overrides were applied, so markup
	// can expose it as a data attribute.
	Breakpoint composer.Breakpoint
	// Values exposes extra request data to templates (e.g. blog posts for a
	// BlogList section, flash messages after a form post).
	Values map[string]any
}
