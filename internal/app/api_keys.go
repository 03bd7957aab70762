package app

import (
	"crypto/subtle"
	"net/http"
)

// RefreshIsOpen reports whether the refresh endpoint accepts unauthenticated
// requests, which is the case when no keys are configured.
func (app *Application) RefreshIsOpen() bool {
	return len(app.Config.ApiKeys) == 0
}

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = r.Header.Get("X-API-Key")
	}
	return app.IsInvalidAPIKey(key)
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.ApiKeys {
		// Constant-time comparison against timing attacks
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}

	return true
}
