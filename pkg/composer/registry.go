package composer

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

// EmbeddedFS returns the bundled page templates.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
	defaultRegistryErr  error
)

// DefaultRegistry loads the embedded templates once and returns the shared,
// read-only registry.
func DefaultRegistry() (*Registry, error) {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = LoadFS(EmbeddedFS())
	})
	return defaultRegistry, defaultRegistryErr
}

// MustDefaultRegistry panics when the embedded templates fail to load.
func MustDefaultRegistry() *Registry {
	reg, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return reg
}

// Registry stores templates by id. It is immutable after construction and
// safe for concurrent readers.
type Registry struct {
	templates map[string]Template
}

// NewRegistry builds a registry from in-memory templates, applying the same
// checks as LoadFS.
func NewRegistry(templates ...Template) (*Registry, error) {
	reg := &Registry{templates: make(map[string]Template, len(templates))}
	for _, tpl := range templates {
		if err := reg.add(tpl, "memory"); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadFS walks fsys and parses every JSON/YAML file as one template
// definition.
func LoadFS(fsys fs.FS) (*Registry, error) {
	reg := &Registry{templates: make(map[string]Template)}
	if fsys == nil {
		return reg, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isTemplateFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("composer: read %s: %w", path, err)
		}
		tpl, err := parseTemplate(data, path)
		if err != nil {
			return err
		}
		return reg.add(tpl, path)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Get returns a deep copy of the template registered under id.
func (r *Registry) Get(id string) (Template, error) {
	if r != nil {
		if tpl, ok := r.templates[id]; ok {
			return tpl.Clone(), nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.templates[id]
	return ok
}

// List returns the registered template ids in sorted order.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) add(tpl Template, source string) error {
	tpl.ID = strings.TrimSpace(tpl.ID)
	if tpl.ID == "" {
		return fmt.Errorf("composer: template in %s has an empty id", source)
	}
	if _, exists := r.templates[tpl.ID]; exists {
		return fmt.Errorf("composer: duplicate template %q (%s)", tpl.ID, source)
	}

	seen := make(map[string]struct{}, len(tpl.Sections))
	for idx, section := range tpl.Sections {
		if strings.TrimSpace(section.ID) == "" {
			return fmt.Errorf("composer: template %q (%s) section %d has an empty id", tpl.ID, source, idx)
		}
		if strings.TrimSpace(section.Component) == "" {
			return fmt.Errorf("composer: template %q (%s) section %q has no component", tpl.ID, source, section.ID)
		}
		if _, dup := seen[section.ID]; dup {
			return fmt.Errorf("composer: template %q (%s) defines duplicate section %q", tpl.ID, source, section.ID)
		}
		seen[section.ID] = struct{}{}
	}

	r.templates[tpl.ID] = tpl.Clone()
	return nil
}

func parseTemplate(data []byte, source string) (Template, error) {
	var tpl Template
	if len(strings.TrimSpace(string(data))) == 0 {
		return Template{}, fmt.Errorf("composer: file %s is empty", source)
	}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &tpl); err != nil {
			return Template{}, fmt.Errorf("composer: parse %s: %w", source, err)
		}
		return tpl, nil
	}
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("composer: parse %s: %w", source, err)
	}
	return tpl, nil
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
