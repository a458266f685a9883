package paramkit

import (
	"io/fs"

	"github.com/goliatone/go-paramkit/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in panel templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// PanelAssetsFS exposes the panel stylesheet so Go applications can serve it
// next to rendered panels.
//
// Typical mount:
//
//	mux.Handle("/paramkit/",
//	  http.StripPrefix("/paramkit/",
//	    http.FileServerFS(paramkit.PanelAssetsFS()),
//	  ),
//	)
func PanelAssetsFS() fs.FS {
	return html.AssetsFS()
}
