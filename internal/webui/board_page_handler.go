package webui

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"busboard/internal/board"
	"busboard/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageRefreshSeconds is how often the page reloads itself to advance the
// clock and the projected arrival times.
const pageRefreshSeconds = 30

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"formatTime": func(t *time.Time, loc *time.Location) string {
		if t == nil {
			return ""
		}
		if loc != nil {
			return t.In(loc).Format("15:04:05")
		}
		return t.Format("15:04:05")
	},
}).ParseFS(templateFS, "templates/*.html"))

type boardPage struct {
	Screen         board.Screen
	Location       *time.Location
	RefreshSeconds int
	// ShowRefresh is false when refreshes need an API key the page was not
	// opened with.
	ShowRefresh bool
	RefreshKey  string
}

func (webUI *WebUI) boardPageHandler(w http.ResponseWriter, r *http.Request) {
	page := boardPage{
		Screen:         webUI.Shell.Screen(),
		Location:       webUI.Config.Location,
		RefreshSeconds: pageRefreshSeconds,
	}
	if webUI.RefreshIsOpen() {
		page.ShowRefresh = true
	} else if key := r.URL.Query().Get("key"); !webUI.IsInvalidAPIKey(key) {
		page.ShowRefresh = true
		page.RefreshKey = key
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "board.html", page); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to execute board template", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = buf.WriteTo(w)
}
