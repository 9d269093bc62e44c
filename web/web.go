// Package web serves the embedded browser UI for the video library.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// Handler serves the UI. Unknown paths fall through to the file server and
// get its 404.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// static/ is embedded at build time; Sub only fails on an invalid path.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
