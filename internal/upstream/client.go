// Package upstream implements the typed client for the campaign analytics
// API that backs the dashboard. The API itself (aggregation, storage) is an
// external collaborator; this package only speaks its wire format.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/adpulse/campaign-dashboard/internal/pkg/httpretry"
)

// APIError is returned for non-2xx upstream responses. It preserves the
// status code so callers can classify the failure (rate limit, auth, ...).
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client is the campaign API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new campaign API client
func NewClient(config Config) *Client {
	timeout := config.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated request against the upstream API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	reqURL := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(respBody)}
	}

	return respBody, nil
}

// decode unmarshals an upstream payload into dst, failing fast on shape
// mismatch instead of silently defaulting.
func decode(endpoint string, data []byte, dst interface{}) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("upstream %s: failed to parse response: %w", endpoint, err)
	}
	return nil
}

// ListNetworks retrieves the full network list, independent of filters.
func (c *Client) ListNetworks(ctx context.Context) (*NetworksListResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/networks/list", nil)
	if err != nil {
		return nil, err
	}
	var out NetworksListResponse
	if err := decode("/api/networks/list", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFilters retrieves the unscoped filter options, including the set of
// currently accessible networks used for selection normalization.
func (c *Client) GetFilters(ctx context.Context) (*FiltersResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/campaigns/filters", nil)
	if err != nil {
		return nil, err
	}
	var out FiltersResponse
	if err := decode("/api/campaigns/filters", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLiveFilters retrieves filter options scoped to a network and date window.
func (c *Client) GetLiveFilters(ctx context.Context, req LiveFiltersRequest) (*FiltersResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/campaigns/live-filters", req)
	if err != nil {
		return nil, err
	}
	var out FiltersResponse
	if err := decode("/api/campaigns/live-filters", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSummary retrieves the KPI scalars and trend series for the window.
func (c *Client) GetSummary(ctx context.Context, req SummaryRequest) (*SummaryResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/campaigns/summary", req)
	if err != nil {
		return nil, err
	}
	var out SummaryResponse
	if err := decode("/api/campaigns/summary", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClicks retrieves row-level click records for the clicks table.
func (c *Client) GetClicks(ctx context.Context, req TableRequest) (*ClicksResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/campaigns/real-clicks", req)
	if err != nil {
		return nil, err
	}
	var out ClicksResponse
	if err := decode("/api/campaigns/real-clicks", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversions retrieves row-level conversion records for the conversions table.
func (c *Client) GetConversions(ctx context.Context, req TableRequest) (*ConversionsResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/campaigns/real-conversions", req)
	if err != nil {
		return nil, err
	}
	var out ConversionsResponse
	if err := decode("/api/campaigns/real-conversions", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNetworkCampaigns retrieves the campaign list for a single network.
func (c *Client) GetNetworkCampaigns(ctx context.Context, networkID string) (*NetworkCampaignsResponse, error) {
	endpoint := "/api/network-campaigns?network=" + url.QueryEscape(networkID)
	respBody, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var out NetworkCampaignsResponse
	if err := decode("/api/network-campaigns", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSyncStatus retrieves the network sync health summary.
func (c *Client) GetSyncStatus(ctx context.Context) (*SyncStatusResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/health/sync-status", nil)
	if err != nil {
		return nil, err
	}
	var out SyncStatusResponse
	if err := decode("/api/health/sync-status", respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
