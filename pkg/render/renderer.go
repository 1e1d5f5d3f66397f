package render

import (
	"context"

	"github.com/kivisai/site/pkg/composer"
)

// Renderer converts an exported page into a byte representation (HTML, JSON).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page composer.Template, options RenderOptions) ([]byte, error)
}
