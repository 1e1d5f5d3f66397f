// Package themes loads go-theme manifests and resolves them into renderer
// configuration.
package themes

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

//go:embed manifests/*.yaml
var embeddedManifests embed.FS

var (
	// ErrThemeNotFound is returned when a theme name is not registered.
	ErrThemeNotFound = errors.New("themes: theme not found")
	// ErrVariantNotFound is returned when a theme has no such variant.
	ErrVariantNotFound = errors.New("themes: variant not found")
)

// EmbeddedFS exposes the manifests bundled with the site.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedManifests, "manifests")
	if err != nil {
		return embeddedManifests
	}
	return sub
}

type manifestFile struct {
	Name      string                 `yaml:"name"`
	Version   string                 `yaml:"version"`
	Tokens    map[string]string      `yaml:"tokens"`
	Templates map[string]string      `yaml:"templates"`
	Assets    assetsFile             `yaml:"assets"`
	Variants  map[string]variantFile `yaml:"variants"`
}

type variantFile struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    assetsFile        `yaml:"assets"`
}

type assetsFile struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

func (f manifestFile) manifest() *theme.Manifest {
	m := &theme.Manifest{
		Name:      f.Name,
		Version:   f.Version,
		Tokens:    f.Tokens,
		Templates: f.Templates,
		Assets:    theme.Assets{Prefix: f.Assets.Prefix, Files: f.Assets.Files},
	}
	if len(f.Variants) > 0 {
		m.Variants = make(map[string]theme.Variant, len(f.Variants))
		for name, v := range f.Variants {
			m.Variants[name] = theme.Variant{
				Tokens:    v.Tokens,
				Templates: v.Templates,
				Assets:    theme.Assets{Prefix: v.Assets.Prefix, Files: v.Assets.Files},
			}
		}
	}
	return m
}

// Set holds theme manifests and selects among them. It implements
// theme.ThemeSelector and is safe for concurrent use.
type Set struct {
	mu             sync.RWMutex
	provider       interface{ Register(*theme.Manifest) error }
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Set)(nil)

// NewSet returns an empty set. defaultTheme and defaultVariant are used when
// Select receives empty names.
func NewSet(defaultTheme, defaultVariant string) *Set {
	return &Set{
		provider:       theme.NewRegistry(),
		manifests:      make(map[string]*theme.Manifest),
		defaultTheme:   defaultTheme,
		defaultVariant: defaultVariant,
	}
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// Default returns the set built from the embedded manifests, with the
// "kivisai" theme and "light" variant as defaults.
func Default() (*Set, error) {
	defaultOnce.Do(func() {
		set := NewSet("kivisai", "light")
		defaultErr = set.LoadFS(EmbeddedFS())
		defaultSet = set
	})
	return defaultSet, defaultErr
}

// Register adds a manifest. Names must be unique.
func (s *Set) Register(m *theme.Manifest) error {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return errors.New("themes: manifest name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.manifests[m.Name]; exists {
		return fmt.Errorf("themes: theme %q already registered", m.Name)
	}
	if err := s.provider.Register(m); err != nil {
		return fmt.Errorf("themes: register %q: %w", m.Name, err)
	}
	s.manifests[m.Name] = m
	if s.defaultTheme == "" {
		s.defaultTheme = m.Name
	}
	return nil
}

// LoadFS registers every .yaml/.yml manifest at the root of fsys.
func (s *Set) LoadFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("themes: read manifests: %w", err)
	}
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return fmt.Errorf("themes: read %s: %w", entry.Name(), err)
		}
		var file manifestFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("themes: parse %s: %w", entry.Name(), err)
		}
		if err := s.Register(file.manifest()); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the registered theme names.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves a theme and variant, substituting the defaults for empty
// names. A default variant the theme does not define resolves to the base
// theme.
func (s *Set) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(name) == "" {
		name = s.defaultTheme
	}
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}

	if strings.TrimSpace(variant) == "" {
		if _, ok := m.Variants[s.defaultVariant]; ok {
			variant = s.defaultVariant
		}
	} else if _, ok := m.Variants[variant]; !ok {
		return nil, fmt.Errorf("%w: %q in theme %q", ErrVariantNotFound, variant, name)
	}

	return &theme.Selection{Theme: m.Name, Variant: variant, Manifest: m}, nil
}
