package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busboard/internal/appconf"
	"busboard/internal/clock"
	"busboard/internal/models"
	"busboard/internal/source"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, target, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware_LimitsPerClientIP(t *testing.T) {
	mock := clock.NewMockClock(testNow)
	rl := NewRateLimitMiddleware(2, time.Minute, nil, mock)
	defer rl.Stop()
	h := rl.Handler()(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "/api/refresh", "10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "/api/refresh", "10.0.0.1:2222").Code)

	rec := doRequest(h, "/api/refresh", "10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	var model models.ResponseModel
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&model))
	assert.Equal(t, http.StatusTooManyRequests, model.Code)
	assert.Equal(t, testNow.UnixMilli(), model.CurrentTime)

	// A different client has its own budget.
	assert.Equal(t, http.StatusOK, doRequest(h, "/api/refresh", "10.0.0.2:1111").Code)
}

func TestRateLimitMiddleware_ConfiguredKeysGetOwnBucket(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Minute, []string{" kiosk-1 ", "kiosk-2"}, clock.NewMockClock(testNow))
	defer rl.Stop()
	h := rl.Handler()(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "/api/refresh?key=kiosk-1", "10.0.0.1:1").Code)
	// The bucket follows the key, not the address.
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "/api/refresh?key=kiosk-1", "10.0.0.9:1").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.RemoteAddr = "10.0.0.1:1"
	req.Header.Set("X-API-Key", "kiosk-2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The IP bucket is untouched by keyed requests.
	assert.Equal(t, http.StatusOK, doRequest(h, "/api/refresh", "10.0.0.1:1").Code)
}

func TestRateLimitMiddleware_ConfiguredKeysAreStillLimited(t *testing.T) {
	rl := NewRateLimitMiddleware(2, time.Minute, []string{"kiosk-1"}, clock.NewMockClock(testNow))
	defer rl.Stop()
	h := rl.Handler()(okHandler())

	var codes []int
	for range 4 {
		codes = append(codes, doRequest(h, "/api/refresh?key=kiosk-1", "10.0.0.1:1").Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestRateLimitMiddleware_UnknownKeysShareTheIPBucket(t *testing.T) {
	tests := []struct {
		name    string
		apiKeys []string
	}{
		{"no keys configured", nil},
		{"keys configured", []string{"kiosk-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimitMiddleware(2, time.Minute, tt.apiKeys, clock.NewMockClock(testNow))
			defer rl.Stop()
			h := rl.Handler()(okHandler())

			var codes []int
			for i := range 6 {
				target := fmt.Sprintf("/api/refresh?key=junk%d", i)
				codes = append(codes, doRequest(h, target, "10.0.0.1:1").Code)
			}
			assert.Equal(t, []int{200, 200, 429, 429, 429, 429}, codes)

			rl.mu.RLock()
			defer rl.mu.RUnlock()
			assert.Len(t, rl.limiters, 1)
			assert.Contains(t, rl.limiters, "ip:10.0.0.1")
		})
	}
}

func TestRateLimitMiddleware_ZeroBlocksAll(t *testing.T) {
	rl := NewRateLimitMiddleware(0, time.Minute, nil, clock.NewMockClock(testNow))
	defer rl.Stop()
	h := rl.Handler()(okHandler())

	rec := doRequest(h, "/api/refresh", "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_NegativeDisables(t *testing.T) {
	rl := NewRateLimitMiddleware(-1, time.Minute, nil, clock.NewMockClock(testNow))
	defer rl.Stop()
	h := rl.Handler()(okHandler())

	for range 20 {
		assert.Equal(t, http.StatusOK, doRequest(h, "/api/refresh", "10.0.0.1:1").Code)
	}
}

func TestRateLimitMiddleware_CleanupEvictsIdleClients(t *testing.T) {
	mock := clock.NewMockClock(testNow)
	rl := NewRateLimitMiddleware(5, time.Minute, nil, mock)
	defer rl.Stop()

	rl.getLimiter("ip:10.0.0.1")
	mock.Advance(5 * time.Minute)
	rl.getLimiter("ip:10.0.0.2")
	mock.Advance(6 * time.Minute)

	rl.cleanupOnce()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.NotContains(t, rl.limiters, "ip:10.0.0.1")
	assert.Contains(t, rl.limiters, "ip:10.0.0.2")
}

func TestRateLimitMiddleware_ConcurrentClients(t *testing.T) {
	rl := NewRateLimitMiddleware(1000, time.Minute, nil, clock.NewMockClock(testNow))
	defer rl.Stop()
	h := rl.Handler()(okHandler())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doRequest(h, "/api/refresh", "10.0.0."+string(rune('a'+i%5))+":1")
		}()
	}
	wg.Wait()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Len(t, rl.limiters, 5)
}

func TestRateLimitMiddleware_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimitMiddleware(1, time.Minute, nil, clock.NewMockClock(testNow))
	rl.Stop()
	rl.Stop()
}

func TestRefreshEndpointIsRateLimited(t *testing.T) {
	api := createTestApiWithSource(t, source.Fixture{}, func(cfg *appconf.Config) {
		cfg.RateLimit = 1
	})

	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", model.Text)

	// Reads are never limited.
	resp, _ = serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/board.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshEndpointIgnoresRotatingKeys(t *testing.T) {
	tests := []struct {
		name        string
		apiKeys     []string
		want        int
		wantFetches float64
	}{
		// An open endpoint refreshes until the IP budget runs out.
		{"open endpoint", nil, http.StatusOK, 2},
		// With keys configured, junk keys are rejected but still spend the IP budget.
		{"keyed endpoint", []string{"kiosk-1"}, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := createTestApiWithSource(t, source.Fixture{}, func(cfg *appconf.Config) {
				cfg.RateLimit = 2
				cfg.ApiKeys = tt.apiKeys
			})
			h := newTestHandler(api, discardLogger())

			var codes []int
			for i := range 20 {
				codes = append(codes, serveHandler(h, http.MethodPost, fmt.Sprintf("/api/refresh?key=junk%d", i), nil).Code)
			}

			assert.Equal(t, []int{tt.want, tt.want}, codes[:2])
			for _, code := range codes[2:] {
				assert.Equal(t, http.StatusTooManyRequests, code)
			}
			assert.Equal(t, tt.wantFetches, testutil.ToFloat64(api.Metrics.ScheduleFetchesTotal.WithLabelValues("fixture", "success")))
		})
	}
}

func TestRefreshEndpointLimitsConfiguredKeys(t *testing.T) {
	api := createTestApiWithSource(t, source.Fixture{}, func(cfg *appconf.Config) {
		cfg.RateLimit = 2
		cfg.ApiKeys = []string{"kiosk-1"}
	})
	h := newTestHandler(api, discardLogger())

	var codes []int
	for range 5 {
		codes = append(codes, serveHandler(h, http.MethodPost, "/api/refresh?key=kiosk-1", nil).Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429}, codes)
}
