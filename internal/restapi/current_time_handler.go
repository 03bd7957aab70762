package restapi

import (
	"net/http"

	"busboard/internal/models"
)

// currentTimeHandler answers with the server clock, including the wall-clock
// text the board header shows.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	timeData := models.NewCurrentTimeData(api.Clock.Now(), api.Config.Location)
	api.sendResponse(w, r, models.NewOKResponse(timeData, api.Clock))
}
