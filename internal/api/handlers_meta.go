package api

import (
	"net/http"
	"time"

	"github.com/adpulse/campaign-dashboard/internal/dateutil"
	"github.com/adpulse/campaign-dashboard/internal/pkg/httputil"
)

type dateTemplateView struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ListDateTemplates returns the range templates evaluated at the current
// instant, so clients can render the picker without date math of their own.
func (h *Handlers) ListDateTemplates(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	views := []dateTemplateView{}
	for _, t := range dateutil.Templates() {
		rng := t.Apply(now)
		views = append(views, dateTemplateView{
			ID:        t.ID,
			Label:     t.Label,
			StartDate: dateutil.FormatAPIDate(rng.From),
			EndDate:   dateutil.FormatAPIDate(rng.To),
		})
	}
	httputil.OK(w, map[string]any{"templates": views})
}

// GetSyncStatus proxies the upstream sync-status probe
func (h *Handlers) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.upstream.GetSyncStatus(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusBadGateway, "sync status unavailable")
		return
	}
	httputil.OK(w, status)
}

// GetNetworkCampaigns proxies the per-network campaign list
func (h *Handlers) GetNetworkCampaigns(w http.ResponseWriter, r *http.Request) {
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		httputil.BadRequest(w, "network query parameter required")
		return
	}
	resp, err := h.upstream.GetNetworkCampaigns(r.Context(), networkID)
	if err != nil {
		httputil.Error(w, http.StatusBadGateway, "network campaigns unavailable")
		return
	}
	httputil.OK(w, resp)
}
