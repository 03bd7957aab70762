package webui

import (
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"busboard/internal/appconf"
)

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html")

	err := pageTemplates.ExecuteTemplate(w, "debug_index.html", debugData{
		Title: title,
		Pre:   content,
	})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps internal state. It is hidden in production.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}

	var data interface{}
	var title string

	switch r.URL.Query().Get("dataType") {
	case "snapshot", "":
		stop, live := webUI.Shell.Snapshot()
		data = stop
		title = "Snapshot (sample data)"
		if live {
			title = "Snapshot"
		}
	case "screen":
		data = webUI.Shell.Screen()
		title = "Rendered Screen"
	case "config":
		cfg := webUI.Config
		cfg.OCTranspo.APIKey = redact(cfg.OCTranspo.APIKey)
		cfg.ApiKeys = nil
		title = "Configuration"
		if cfg.Location != nil {
			title += " (" + cfg.Location.String() + ")"
		}
		cfg.Location = nil
		data = cfg
	default:
		data = map[string]string{
			"error": "Please use one of the following: snapshot, screen, config.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}
