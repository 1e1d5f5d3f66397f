package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kivisai/site/pkg/composer"
)

// Transformer mutates a composed page, or the values handed to the renderer,
// after validation and before rendering.
type Transformer interface {
	Transform(ctx context.Context, page *composer.Template, values map[string]any) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, page *composer.Template, values map[string]any) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, page *composer.Template, values map[string]any) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, page, values)
}

// WhenComponent runs t only for pages containing a section of kind.
func WhenComponent(kind string, t Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, page *composer.Template, values map[string]any) error {
		for _, section := range page.Sections {
			if section.Component == kind {
				return t.Transform(ctx, page, values)
			}
		}
		return nil
	})
}

// PatchTransformer applies declarative overrides loaded from YAML or JSON,
// scoped per template id:
//
//	landing:
//	  metadata: {title: "Spring campaign"}
//	  sections:
//	    hero: {title: "Make AI work this spring"}
type PatchTransformer struct {
	patches map[string]pagePatch
}

type pagePatch struct {
	Metadata composer.Metadata         `yaml:"metadata"`
	Sections map[string]composer.Props `yaml:"sections"`
}

// NewPatchTransformer parses a patch document.
func NewPatchTransformer(data []byte) (*PatchTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("patch transformer: document is empty")
	}
	var patches map[string]pagePatch
	if err := yaml.Unmarshal(data, &patches); err != nil {
		return nil, fmt.Errorf("patch transformer: parse document: %w", err)
	}
	return &PatchTransformer{patches: patches}, nil
}

// NewPatchTransformerFromFS loads a patch document from fsys.
func NewPatchTransformerFromFS(fsys fs.FS, path string) (*PatchTransformer, error) {
	if fsys == nil {
		return nil, errors.New("patch transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("patch transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("patch transformer: read %s: %w", path, err)
	}
	return NewPatchTransformer(data)
}

// Transform applies the patch registered for page.ID, if any. Patching a
// section the page does not contain is an error.
func (t *PatchTransformer) Transform(ctx context.Context, page *composer.Template, _ map[string]any) error {
	if page == nil {
		return errors.New("patch transformer: page is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	patch, ok := t.patches[page.ID]
	if !ok {
		return nil
	}

	applyMetadata(&page.Metadata, patch.Metadata)

	for id, props := range patch.Sections {
		idx := -1
		for i := range page.Sections {
			if page.Sections[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("patch transformer: %w: %q in %q", composer.ErrSectionNotFound, id, page.ID)
		}
		page.Sections[idx].Props = page.Sections[idx].Props.Merge(props)
	}
	return nil
}

func applyMetadata(dst *composer.Metadata, src composer.Metadata) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if len(src.Keywords) > 0 {
		dst.Keywords = append([]string(nil), src.Keywords...)
	}
	if src.OGImage != "" {
		dst.OGImage = src.OGImage
	}
	if src.Canonical != "" {
		dst.Canonical = src.Canonical
	}
}
