package octranspo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"busboard/internal/logging"
	"busboard/internal/models"
)

const maxBodySize = 2 * 1024 * 1024

// Client calls the OC Transpo live API.
type Client struct {
	baseURL    string
	appID      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a client with a dedicated transport. timeout bounds each
// request; there are no retries.
func NewClient(baseURL, appID, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConnsPerHost = 2
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger.With(slog.String("component", "octranspo_client")),
	}
}

// GetNextTripsForStopAllRoutes fetches the route summary of stopNo.
func (c *Client) GetNextTripsForStopAllRoutes(ctx context.Context, stopNo string) (*models.Stop, error) {
	params := url.Values{}
	params.Set("appID", c.appID)
	params.Set("apiKey", c.apiKey)
	params.Set("stopNo", stopNo)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/GetNextTripsForStopAllRoutes?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute route summary request: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route summary fetch for stop %s failed: %s", stopNo, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("route summary response exceeds size limit of %d bytes", maxBodySize)
	}

	stop, err := Decode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched route summary",
		slog.String("stop", stop.Code),
		slog.Int("routes", len(stop.Routes)),
		slog.Int("trips", stop.TripCount()))

	return stop, nil
}
