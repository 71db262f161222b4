package api

import (
	"context"
	"net/http"
	"time"

	"github.com/adpulse/campaign-dashboard/internal/pkg/httputil"
	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// Upstream is the slice of the reporting API the handlers proxy directly,
// outside any session's fetch cycle.
type Upstream interface {
	GetNetworkCampaigns(ctx context.Context, networkID string) (*upstream.NetworkCampaignsResponse, error)
	GetSyncStatus(ctx context.Context) (*upstream.SyncStatusResponse, error)
}

// Handlers holds the HTTP handlers for the dashboard API
type Handlers struct {
	sessions  *SessionRegistry
	upstream  Upstream
	metrics   *Metrics
	startTime time.Time
}

// NewHandlers creates the handler set
func NewHandlers(sessions *SessionRegistry, up Upstream, m *Metrics) *Handlers {
	return &Handlers{
		sessions:  sessions,
		upstream:  up,
		metrics:   m,
		startTime: time.Now(),
	}
}

// HealthCheck returns service liveness and basic stats
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":         "healthy",
		"uptime":         time.Since(h.startTime).String(),
		"activeSessions": h.sessions.Len(),
		"timestamp":      time.Now(),
	})
}
