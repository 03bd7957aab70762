// Helpers that build a RestAPI around the embedded fixture for handler and
// middleware tests.
package restapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"busboard/internal/app"
	"busboard/internal/appconf"
	"busboard/internal/clock"
	"busboard/internal/metrics"
	"busboard/internal/models"
	"busboard/internal/source"
)

// testNow is 17:07 in Ottawa, the moment the fixture was captured.
var testNow = time.Date(2024, 6, 15, 21, 7, 0, 0, time.UTC)

func createTestApiWithSource(t *testing.T, src source.ScheduleSource, mutate func(*appconf.Config)) *RestAPI {
	t.Helper()

	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Location = time.FixedZone("EDT", -4*3600)
	cfg.RateLimit = 100
	if mutate != nil {
		mutate(&cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application := app.New(cfg, logger, clock.NewMockClock(testNow), metrics.New(), src)

	api := NewRestAPI(application)
	t.Cleanup(api.Shutdown)
	return api
}

// createTestApi returns an API whose shell has already loaded the fixture.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	api := createTestApiWithSource(t, source.Fixture{}, nil)
	if err := api.Shell.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return api
}

func serveApi(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// newTestHandler wraps the API routes in the server's middleware chain,
// without compression.
func newTestHandler(api *RestAPI, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	api.SetRoutes(mux)

	var handler http.Handler = MetricsHandler(api.Metrics)(mux)
	handler = NewRequestLoggingMiddleware(logger)(handler)
	return RequestIDMiddleware(handler)
}

func serveHandler(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// serveAndRetrieveEndpoint GETs endpoint from a fresh fixture-backed API and
// decodes the response envelope.
func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	t.Helper()
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, endpoint)
	return api, resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, method, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := serveApi(t, api)

	req, err := http.NewRequest(method, server.URL+endpoint, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var model models.ResponseModel
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &model)
	}
	return resp, model
}

type failingSource struct{ err error }

func (f failingSource) Name() string { return "failing" }

func (f failingSource) FetchStopSchedule(ctx context.Context) (*models.Stop, error) {
	return nil, f.err
}
