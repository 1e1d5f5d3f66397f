package site

import (
	"io/fs"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in HTML renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// PageTemplates exposes the embedded page blueprints (YAML).
func PageTemplates() fs.FS {
	return composer.EmbeddedFS()
}

// AssetsFS exposes the bundled stylesheet so Go applications can serve it.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(site.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
