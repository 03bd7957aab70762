package restapi

import (
	"encoding/json"
	"net/http"

	"busboard/internal/board"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// healthHandler reports 503 only when the shell is missing. A board that
// shows the placeholder or stale data is still serving, so it answers 200
// with a status describing what is on screen.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.Shell == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "board not initialized",
		})
		return
	}

	state := api.Shell.State()
	resp := HealthResponse{Status: "ok", State: state.String()}
	switch state {
	case board.Idle, board.Loading:
		if _, live := api.Shell.Snapshot(); !live {
			resp.Status = "starting"
			resp.Detail = "showing sample data until the first fetch completes"
		}
	case board.FetchFailed:
		resp.Status = "degraded"
		resp.Detail = api.Shell.Screen().LastError
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
