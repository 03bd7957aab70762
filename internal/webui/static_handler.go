package webui

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

//go:embed assets
var assetsFS embed.FS

var allowedAssetExtensions = map[string]bool{
	".css": true, ".js": true,
	".png": true, ".jpg": true, ".jpeg": true, ".svg": true,
	".ico": true,
}

// assetsHandler serves files embedded under assets/.
func (webUI *WebUI) assetsHandler(w http.ResponseWriter, r *http.Request) {
	fileName := r.PathValue("file")

	if strings.Contains(fileName, "..") || strings.ContainsAny(fileName, `/\`) {
		slog.Warn("potential path traversal attempt blocked", "path", r.URL.Path)
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return
	}

	if !allowedAssetExtensions[strings.ToLower(path.Ext(fileName))] {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		http.Error(w, "Internal configuration error", http.StatusInternalServerError)
		return
	}

	stat, err := fs.Stat(sub, fileName)
	if err != nil || stat.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFileFS(w, r, sub, fileName)
}
