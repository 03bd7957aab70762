// Package webui serves the HTML board, its stylesheet and a debug dump of
// the loaded snapshot.
package webui

import (
	"net/http"

	"busboard/internal/app"
)

type WebUI struct {
	*app.Application
}

func NewWebUI(app *app.Application) *WebUI {
	return &WebUI{Application: app}
}

// SetWebUIRoutes registers the page routes on mux.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", webUI.boardPageHandler)
	mux.HandleFunc("GET /assets/{file}", webUI.assetsHandler)
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}
