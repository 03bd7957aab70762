package restapi

import (
	"net/http"

	"busboard/internal/board"
	"busboard/internal/models"
)

func (api *RestAPI) boardHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewOKResponse(api.Shell.Screen(), api.Clock))
}

// boardTextHandler renders the board the way `busboard show` prints it.
func (api *RestAPI) boardTextHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := board.WriteText(w, api.Shell.Screen(), false); err != nil {
		api.serverErrorResponse(w, r, err)
	}
}

// refreshHandler triggers one fetch. A failed fetch answers 502 while the
// board keeps serving the data it had.
func (api *RestAPI) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if !api.RefreshIsOpen() && api.RequestHasInvalidAPIKey(r) {
		api.sendUnauthorized(w, r)
		return
	}

	if err := api.Shell.Refresh(r.Context()); err != nil {
		api.sendError(w, r, http.StatusBadGateway, "schedule fetch failed")
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(api.Shell.Screen(), api.Clock))
}
