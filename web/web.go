// Package web embeds the browser chat client and mounts it on the router.
// The client is plain HTML/JS served straight from the binary, so a single
// deployable artifact carries both the API and its UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var assets embed.FS

// Register mounts the chat client under prefix (e.g. "/app"). The index page
// is served for the prefix itself; styles and scripts resolve as relative
// paths beneath it.
func Register(r *gin.Engine, prefix string) {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// embed guarantees static/ exists; an error here is a build defect.
		panic(err)
	}
	r.StaticFS(prefix, http.FS(sub))
}
