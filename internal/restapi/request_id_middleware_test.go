package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busboard/internal/appconf"
)

const uuidPattern = `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`

// accessLog decodes the JSON lines written by the request logging middleware.
func accessLog(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "http request" {
			entries = append(entries, entry)
		}
	}
	return entries
}

func TestRequestID_MintedForBoardRequests(t *testing.T) {
	api := createTestApi(t)
	h := newTestHandler(api, discardLogger())

	first := serveHandler(h, http.MethodGet, "/api/board.json", nil)
	second := serveHandler(h, http.MethodGet, "/api/board.json", nil)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Regexp(t, uuidPattern, first.Header().Get("X-Request-ID"))
	assert.Regexp(t, uuidPattern, second.Header().Get("X-Request-ID"))
	assert.NotEqual(t, first.Header().Get("X-Request-ID"), second.Header().Get("X-Request-ID"))
}

func TestRequestID_CallerSuppliedID(t *testing.T) {
	tests := []struct {
		name     string
		sent     string
		preserve bool
	}{
		{"kiosk trace id", "kiosk-1:refresh.42", true},
		{"exactly 128 characters", strings.Repeat("a", 128), true},
		{"too long", strings.Repeat("a", 129), false},
		{"markup", "bad-id-<script>", false},
		{"whitespace", "two words", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := createTestApi(t)
			h := newTestHandler(api, discardLogger())

			rec := serveHandler(h, http.MethodPost, "/api/refresh", http.Header{"X-Request-ID": {tt.sent}})

			require.Equal(t, http.StatusOK, rec.Code)
			got := rec.Header().Get("X-Request-ID")
			if tt.preserve {
				assert.Equal(t, tt.sent, got)
			} else {
				assert.NotEqual(t, tt.sent, got)
				assert.Regexp(t, uuidPattern, got)
			}
		})
	}
}

func TestRequestID_PresentOnErrorResponses(t *testing.T) {
	api := createTestApiWithSource(t, failingSource{err: errors.New("connection refused")}, func(cfg *appconf.Config) {
		cfg.RateLimit = 1
	})
	h := newTestHandler(api, discardLogger())

	for _, tc := range []struct {
		method, target string
		status         int
	}{
		{http.MethodPost, "/api/refresh", http.StatusBadGateway},
		{http.MethodPost, "/api/refresh", http.StatusTooManyRequests},
		{http.MethodGet, "/api/stops.json", http.StatusNotFound},
	} {
		rec := serveHandler(h, tc.method, tc.target, nil)
		assert.Equal(t, tc.status, rec.Code, tc.target)
		assert.Regexp(t, uuidPattern, rec.Header().Get("X-Request-ID"), tc.target)
	}
}

func TestRequestID_WrittenToAccessLog(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	api := createTestApiWithSource(t, failingSource{err: errors.New("connection refused")}, nil)
	h := newTestHandler(api, logger)

	req := http.Header{"X-Request-ID": {"kiosk-7"}, "User-Agent": {"busboard-kiosk/1.0"}}
	serveHandler(h, http.MethodGet, "/api/board.json", req)
	serveHandler(h, http.MethodPost, "/api/refresh", req)

	entries := accessLog(t, &logBuf)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "/api/board.json", entries[0]["path"])
	assert.Equal(t, float64(http.StatusOK), entries[0]["status"])

	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "/api/refresh", entries[1]["path"])
	assert.Equal(t, float64(http.StatusBadGateway), entries[1]["status"])

	for _, entry := range entries {
		assert.Equal(t, "kiosk-7", entry["request_id"])
		assert.Equal(t, "192.0.2.1", entry["client_ip"])
		assert.Equal(t, "busboard-kiosk/1.0", entry["user_agent"])
		assert.Equal(t, "http_server", entry["component"])
	}
}

func TestRequestLoggingMiddleware_ContextLoggerCarriesRequestID(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	api := createTestApi(t)
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	// A failing response encode goes through the request-scoped logger.
	mux.HandleFunc("GET /api/broken.json", func(w http.ResponseWriter, r *http.Request) {
		api.serverErrorResponse(w, r, errors.New("template exploded"))
	})
	h := RequestIDMiddleware(NewRequestLoggingMiddleware(logger)(mux))

	rec := serveHandler(h, http.MethodGet, "/api/broken.json", http.Header{"X-Request-ID": {"ctx-logger-id"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "internal server error")
	assert.Contains(t, lines[0], `"request_id":"ctx-logger-id"`)
	assert.Contains(t, lines[1], `"status":500`)
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	ctx := context.WithValue(context.Background(), RequestIDKey, "abc")
	assert.Equal(t, "abc", GetRequestID(ctx))
}
