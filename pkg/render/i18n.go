package render

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kivisai/site/pkg/composer"
)

// keySuffix marks a prop whose value is a translation key for the prop of the
// same name without the suffix ("titleKey" translates into "title").
const keySuffix = "Key"

// ErrMissingTranslator is reported to MissingTranslationHandler when a page
// carries translation keys but no Translator was configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a translation key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the text used when a key cannot be
// translated. fallback is the untranslated prop value, which may be empty.
type MissingTranslationHandler func(locale, key, fallback string, err error) string

func missingTranslationDefault(_ string, key, fallback string, _ error) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// LocalizePage rewrites, in place, every section prop that has a `*Key`
// companion with its translation for opts.Locale. Nested maps and lists inside
// props are walked as well.
func LocalizePage(page *composer.Template, opts RenderOptions) {
	if page == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(key, fallback string) string {
		return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
	}

	for idx := range page.Sections {
		localizeMap(page.Sections[idx].Props, tr)
	}
}

func localizeMap(values map[string]any, tr func(key, fallback string) string) {
	for name, value := range values {
		switch v := value.(type) {
		case composer.Props:
			localizeMap(v, tr)
		case map[string]any:
			localizeMap(v, tr)
		case []any:
			for _, item := range v {
				if nested, ok := item.(map[string]any); ok {
					localizeMap(nested, tr)
				}
			}
		case string:
			if !strings.HasSuffix(name, keySuffix) || len(name) == len(keySuffix) {
				continue
			}
			target := strings.TrimSuffix(name, keySuffix)
			fallback, _ := values[target].(string)
			values[target] = tr(v, fallback)
		}
	}
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	if t == nil {
		return onMissing(locale, key, fallback, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, fallback, err)
}

// Catalog is a Translator backed by static locale -> key -> message tables.
// It is read-only after construction.
type Catalog struct {
	messages map[string]map[string]string
	fallback string
}

// LoadCatalog reads one YAML file per locale from fsys ("de.yaml",
// "en.yaml"). Each file holds a flat key -> message map. fallbackLocale is
// consulted when a key is missing from the requested locale.
func LoadCatalog(fsys fs.FS, fallbackLocale string) (*Catalog, error) {
	cat := &Catalog{messages: make(map[string]map[string]string), fallback: fallbackLocale}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("render: read catalog: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("render: read catalog %s: %w", name, err)
		}
		var messages map[string]string
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("render: parse catalog %s: %w", name, err)
		}
		locale := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		cat.messages[locale] = messages
	}
	return cat, nil
}

// Translate implements Translator. args are applied with fmt.Sprintf when
// present.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	if c == nil {
		return "", ErrMissingTranslator
	}
	for _, candidate := range []string{locale, baseLocale(locale), c.fallback} {
		if candidate == "" {
			continue
		}
		if msg, ok := c.messages[candidate][key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(msg, args...), nil
			}
			return msg, nil
		}
	}
	return "", fmt.Errorf("render: no translation for %q in %q", key, locale)
}

func baseLocale(locale string) string {
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		return locale[:idx]
	}
	return locale
}
