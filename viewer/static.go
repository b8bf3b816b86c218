package main

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// spaHandler serves a built single-page app. Existing files are served as is.
// Extension-less paths are client-side routes and get index.html; a missing
// asset or an unknown /api/ path is a 404 so broken links stay visible.
type spaHandler struct {
	root  string
	index string
}

func newSPAHandler(root string) spaHandler {
	return spaHandler{root: root, index: filepath.Join(root, "index.html")}
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(clean, "/api/") {
		http.NotFound(w, r)
		return
	}
	if clean != "/" {
		candidate := filepath.Join(h.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, candidate)
			return
		}
		if path.Ext(clean) != "" {
			http.NotFound(w, r)
			return
		}
	}
	http.ServeFile(w, r, h.index)
}
