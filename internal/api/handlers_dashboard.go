package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adpulse/campaign-dashboard/internal/dashboard"
	"github.com/adpulse/campaign-dashboard/internal/dateutil"
	"github.com/adpulse/campaign-dashboard/internal/pkg/httputil"
	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// filterRequest is the wire form of a draft filter update. Either a date
// template id or an explicit startDate/endDate pair selects the range.
type filterRequest struct {
	Template  string   `json:"template,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
	Networks  []string `json:"networks"`
	Offers    []string `json:"offers"`
	SubIDs    []string `json:"subIds"`
}

func (req filterRequest) toFilterState() (dashboard.FilterState, error) {
	var r dateutil.Range
	var err error
	if req.Template != "" {
		r, err = dateutil.ApplyTemplate(req.Template)
	} else {
		r, err = dateutil.ParseAPIRange(req.StartDate, req.EndDate)
	}
	if err != nil {
		return dashboard.FilterState{}, err
	}
	return dashboard.FilterState{
		DateRange: r,
		Networks:  req.Networks,
		Offers:    req.Offers,
		SubIDs:    req.SubIDs,
	}, nil
}

type sessionResponse struct {
	SessionID string             `json:"sessionId"`
	State     dashboard.Snapshot `json:"state"`
}

// CreateSession starts a new dashboard session: builds a controller,
// bootstraps the option cache and runs the initial fetch cycle.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	h.metrics.FetchCycles.Inc()
	id, ctrl := h.sessions.Create(r.Context())
	httputil.Created(w, sessionResponse{SessionID: id, State: ctrl.Snapshot()})
}

// DeleteSession tears down a session
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.sessions.Delete(id) {
		httputil.NotFound(w, "unknown session")
		return
	}
	httputil.NoContent(w)
}

// GetState returns the current snapshot for a session
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	httputil.OK(w, ctrl.Snapshot())
}

// UpdateDraft replaces the draft filter state. No fetch runs until Apply.
func (h *Handlers) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req filterRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	fs, err := req.toFilterState()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	ctrl.SetDraft(fs)
	httputil.OK(w, ctrl.Snapshot())
}

// ApplyFilters commits the draft and runs a full fetch cycle
func (h *Handlers) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.metrics.FetchCycles.Inc()
	ctrl.Apply(r.Context())
	httputil.OK(w, ctrl.Snapshot())
}

// UpdateTableFilters replaces the table-level filters and refetches
func (h *Handlers) UpdateTableFilters(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	var tf upstream.TableFilters
	if !httputil.Decode(w, r, &tf) {
		return
	}
	h.metrics.FetchCycles.Inc()
	ctrl.SetTableFilters(r.Context(), tf)
	httputil.OK(w, ctrl.Snapshot())
}

// Refresh re-runs the fetch cycle with the committed filters unchanged
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.metrics.FetchCycles.Inc()
	ctrl.Refresh(r.Context())
	httputil.OK(w, ctrl.Snapshot())
}

func (h *Handlers) controller(w http.ResponseWriter, r *http.Request) (*dashboard.Controller, bool) {
	id := chi.URLParam(r, "sessionID")
	ctrl, ok := h.sessions.Get(id)
	if !ok {
		httputil.NotFound(w, "unknown session")
		return nil, false
	}
	return ctrl, true
}
