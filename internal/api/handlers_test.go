package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/campaign-dashboard/internal/dashboard"
	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// stubAPI is a deterministic upstream for handler tests.
type stubAPI struct {
	syncErr error
}

func (s *stubAPI) ListNetworks(ctx context.Context) (*upstream.NetworksListResponse, error) {
	return &upstream.NetworksListResponse{Networks: []upstream.NetworkOption{
		{ID: "aff1", Name: "Network One", Status: "active"},
		{ID: "aff2", Name: "Network Two", Status: "active"},
	}}, nil
}

func (s *stubAPI) GetFilters(ctx context.Context) (*upstream.FiltersResponse, error) {
	return &upstream.FiltersResponse{
		Networks:   []upstream.NetworkOption{{ID: "aff1", Name: "Network One"}},
		Campaigns:  []upstream.CampaignOption{{ID: "o1", Name: "Offer One"}},
		SubIDs:     []string{"s1"},
		OfferNames: []string{"Offer One"},
	}, nil
}

func (s *stubAPI) GetLiveFilters(ctx context.Context, req upstream.LiveFiltersRequest) (*upstream.FiltersResponse, error) {
	return s.GetFilters(ctx)
}

func (s *stubAPI) GetSummary(ctx context.Context, req upstream.SummaryRequest) (*upstream.SummaryResponse, error) {
	return &upstream.SummaryResponse{
		KPIs: upstream.KPIData{Revenue: upstream.KPIMetric{Value: 250, Change: 10}},
		Trends: []upstream.TrendPoint{
			{Date: req.StartDate, Revenue: 250, Clicks: 40, Conversions: 4},
		},
	}, nil
}

func (s *stubAPI) GetClicks(ctx context.Context, req upstream.TableRequest) (*upstream.ClicksResponse, error) {
	return &upstream.ClicksResponse{Clicks: []upstream.ClickRow{{ClickID: "c1", OfferName: "Offer One"}}}, nil
}

func (s *stubAPI) GetConversions(ctx context.Context, req upstream.TableRequest) (*upstream.ConversionsResponse, error) {
	return &upstream.ConversionsResponse{Conversions: []upstream.ConversionRow{{ConversionID: "cv1", Revenue: 75}}}, nil
}

func (s *stubAPI) GetNetworkCampaigns(ctx context.Context, networkID string) (*upstream.NetworkCampaignsResponse, error) {
	return &upstream.NetworkCampaignsResponse{Campaigns: []upstream.CampaignOption{{ID: "o1", Name: "Offer One"}}}, nil
}

func (s *stubAPI) GetSyncStatus(ctx context.Context) (*upstream.SyncStatusResponse, error) {
	if s.syncErr != nil {
		return nil, s.syncErr
	}
	now := time.Now()
	return &upstream.SyncStatusResponse{IsActive: true, LastSync: &now, ActiveSyncs: 1}, nil
}

func setupTestServer(t *testing.T) (http.Handler, *stubAPI) {
	t.Helper()
	stub := &stubAPI{}
	metrics := NewMetrics(prometheus.NewRegistry())
	registry := NewSessionRegistry(func() *dashboard.Controller {
		return dashboard.NewController(stub, dashboard.WithBranchObserver(metrics.ObserveBranch))
	}, time.Minute, func(n int) { metrics.ActiveSessions.Set(float64(n)) })
	handlers := NewHandlers(registry, stub, metrics)
	return SetupRoutes(handlers), stub
}

func createSession(t *testing.T, handler http.Handler) (string, sessionResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID, resp
}

func TestCreateSessionStartsWithZeroDefaults(t *testing.T) {
	handler, _ := setupTestServer(t)

	_, resp := createSession(t, handler)

	// No network selected yet: zero KPIs and empty tables, but the option
	// cache is already populated from bootstrap.
	assert.Equal(t, 0.0, resp.State.KPIs.Revenue.Value)
	assert.Empty(t, resp.State.Clicks)
	assert.Empty(t, resp.State.Conversions)
	assert.False(t, resp.State.PrimaryLoading)
	assert.False(t, resp.State.PendingChanges)
	assert.NotEmpty(t, resp.State.Options.Networks)
}

func TestGetStateUnknownSession(t *testing.T) {
	handler, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/bogus/state", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftThenApply(t *testing.T) {
	handler, _ := setupTestServer(t)
	id, _ := createSession(t, handler)

	body, _ := json.Marshal(filterRequest{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-07",
		Networks:  []string{"aff1"},
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/draft", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var afterDraft dashboard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &afterDraft))
	assert.True(t, afterDraft.PendingChanges, "draft edit must flag pending changes")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/apply", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var afterApply dashboard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &afterApply))
	assert.False(t, afterApply.PendingChanges)
	assert.Equal(t, []string{"aff1"}, afterApply.Committed.Networks)
	assert.Equal(t, 250.0, afterApply.KPIs.Revenue.Value)
	assert.Len(t, afterApply.Clicks, 1)
	assert.Len(t, afterApply.Conversions, 1)
}

func TestDraftRejectsInvalidRange(t *testing.T) {
	handler, _ := setupTestServer(t)
	id, _ := createSession(t, handler)

	body, _ := json.Marshal(filterRequest{StartDate: "2024-03-07", EndDate: "2024-03-01"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/draft", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftAcceptsTemplate(t *testing.T) {
	handler, _ := setupTestServer(t)
	id, _ := createSession(t, handler)

	body, _ := json.Marshal(filterRequest{Template: "last30days", Networks: []string{"aff1"}})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/draft", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.Draft.DateRange.Valid())
}

func TestUpdateTableFilters(t *testing.T) {
	handler, _ := setupTestServer(t)
	id, _ := createSession(t, handler)

	body, _ := json.Marshal(upstream.TableFilters{OfferName: "Offer One"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/table-filters", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "Offer One", snap.TableFilters.OfferName)
}

func TestDeleteSession(t *testing.T) {
	handler, _ := setupTestServer(t)
	id, _ := createSession(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/state", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDateTemplates(t *testing.T) {
	handler, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/date-templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Templates []dateTemplateView `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Templates)
	assert.Equal(t, "today", resp.Templates[0].ID)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, resp.Templates[0].StartDate)
}

func TestSyncStatusProxy(t *testing.T) {
	handler, stub := setupTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/sync-status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	stub.syncErr = errors.New("upstream down")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/sync-status", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestNetworkCampaignsRequiresNetworkParam(t *testing.T) {
	handler, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/network-campaigns", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/network-campaigns?network=aff1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	handler, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestSessionSweepDropsIdleSessions(t *testing.T) {
	stub := &stubAPI{}
	registry := NewSessionRegistry(func() *dashboard.Controller {
		return dashboard.NewController(stub)
	}, 10*time.Millisecond, nil)

	id, _ := registry.Create(context.Background())
	require.Equal(t, 1, registry.Len())

	registry.Sweep(time.Now().Add(time.Second))
	assert.Equal(t, 0, registry.Len())

	_, ok := registry.Get(id)
	assert.False(t, ok)
}
