package restapi

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busboard/internal/appconf"
	"busboard/internal/board"
	"busboard/internal/source"
)

func TestBoardHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/board.json")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, "OK", model.Text)
	assert.Equal(t, testNow.UnixMilli(), model.CurrentTime)

	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "could not cast data to expected type")
	assert.Equal(t, "Bus Schedule", data["title"])
	assert.Equal(t, "17:07", data["clock"])
	assert.Equal(t, "loaded", data["state"])
	assert.Equal(t, false, data["placeholder"])

	stop, ok := data["stop"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "5813", stop["code"])

	routes, ok := stop["routes"].([]interface{})
	require.True(t, ok)
	require.Len(t, routes, 4)

	route2 := routes[0].(map[string]interface{})
	assert.Equal(t, "2", route2["number"])
	assert.Equal(t, board.PrimaryAccent, route2["accent"])

	trips := route2["trips"].([]interface{})
	arrival := trips[0].(map[string]interface{})["arrival"].(map[string]interface{})
	assert.Equal(t, "19 min", arrival["minutesLabel"])
	assert.Equal(t, "17:26", arrival["clockTime"])
}

func TestBoardHandler_PlaceholderBeforeMount(t *testing.T) {
	api := createTestApiWithSource(t, source.Fixture{}, nil)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/board.json")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := model.Data.(map[string]interface{})
	assert.Equal(t, "idle", data["state"])
	assert.Equal(t, true, data["placeholder"])
	assert.Nil(t, data["fetchedAt"])
}

func TestBoardTextHandler(t *testing.T) {
	api := createTestApi(t)
	server := serveApi(t, api)

	resp, err := http.Get(server.URL + "/api/board.txt")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "CARLETON U (5813)")
	assert.Contains(t, string(body), "17:26")
}

func TestRefreshHandler(t *testing.T) {
	api := createTestApiWithSource(t, source.Fixture{}, nil)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/refresh")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, board.Loaded, api.Shell.State())
}

func TestRefreshHandler_FetchFailure(t *testing.T) {
	api := createTestApiWithSource(t, failingSource{err: errors.New("connection refused")}, nil)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/refresh")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, http.StatusBadGateway, model.Code)
	assert.Equal(t, "schedule fetch failed", model.Text)
	assert.Equal(t, board.FetchFailed, api.Shell.State())

	// The board keeps serving the placeholder.
	_, model = serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/board.json")
	data := model.Data.(map[string]interface{})
	assert.Equal(t, true, data["placeholder"])
	assert.Equal(t, true, data["stale"])
	assert.Equal(t, "connection refused", data["lastError"])
}

func TestRefreshHandler_RequiresKeyWhenConfigured(t *testing.T) {
	api := createTestApiWithSource(t, source.Fixture{}, func(cfg *appconf.Config) {
		cfg.ApiKeys = []string{"kiosk-1"}
	})

	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "permission denied", model.Text)
	assert.Equal(t, board.Idle, api.Shell.State())

	resp, _ = serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/refresh?key=kiosk-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, board.Loaded, api.Shell.State())
}

func TestRefreshHandler_RejectsGet(t *testing.T) {
	api := createTestApi(t)
	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/refresh")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownAPIRoute(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/where/stop/1.json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "resource not found", model.Text)
}
