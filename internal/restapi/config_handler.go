package restapi

import (
	"net/http"

	"busboard/internal/buildinfo"
	"busboard/internal/models"
)

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	timezone := ""
	if api.Config.Location != nil {
		timezone = api.Config.Location.String()
	}

	info := models.ServiceInfo{
		BuildInfo:    buildinfo.Read(),
		Id:           "busboard",
		Name:         "OC Transpo Bus Board",
		StopNo:       api.Config.StopNo,
		Source:       api.Source.Name(),
		PrimaryRoute: api.Config.PrimaryRoute,
		Timezone:     timezone,
	}

	api.sendResponse(w, r, models.NewOKResponse(info, api.Clock))
}
