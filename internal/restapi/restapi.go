// Package restapi serves the board as JSON along with the operational
// endpoints: health, build info, current time and Prometheus metrics.
package restapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"busboard/internal/app"
)

// RestAPI is the JSON surface of the application.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Minute, app.Config.ApiKeys, app.Clock),
	}
}

// SetRoutes registers the API routes on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/board.json", CacheControlMiddleware(0, http.HandlerFunc(api.boardHandler)))
	mux.Handle("GET /api/board.txt", CacheControlMiddleware(0, http.HandlerFunc(api.boardTextHandler)))
	mux.Handle("GET /api/current-time.json", CacheControlMiddleware(0, http.HandlerFunc(api.currentTimeHandler)))
	mux.Handle("GET /api/config.json", CacheControlMiddleware(300, http.HandlerFunc(api.configHandler)))
	mux.Handle("POST /api/refresh", api.rateLimiter.Handler()(http.HandlerFunc(api.refreshHandler)))
	mux.HandleFunc("/api/", api.sendNotFound)
	mux.HandleFunc("GET /healthz", api.healthHandler)

	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Shutdown stops the background work owned by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
