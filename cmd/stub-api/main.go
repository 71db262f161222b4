package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"hash/fnv"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/adpulse/campaign-dashboard/internal/dateutil"
	"github.com/adpulse/campaign-dashboard/internal/repository/postgres"
	"github.com/adpulse/campaign-dashboard/internal/upstream"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// The stub API serves deterministic synthetic reporting data so the
// dashboard server can be exercised locally without network credentials.
// Responses are derived from the request window, never random, so repeated
// fetches for the same filters return identical data.

var stubNetworks = []upstream.NetworkOption{
	{ID: "aff1", Name: "ClickNova", Status: "active"},
	{ID: "aff2", Name: "TrafficForge", Status: "active"},
	{ID: "aff3", Name: "LeadSpring", Status: "paused"},
}

var stubCampaigns = []upstream.CampaignOption{
	{ID: "o101", Name: "Solar Quotes US"},
	{ID: "o102", Name: "Auto Insurance CA"},
	{ID: "o103", Name: "Home Warranty"},
}

var stubSubIDs = []string{"fb-feed", "fb-stories", "native-01", "email-blast"}

func seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func requireKey(next http.HandlerFunc) http.HandlerFunc {
	expected := os.Getenv("STUB_API_KEY")
	return func(w http.ResponseWriter, r *http.Request) {
		if expected != "" && r.Header.Get("X-API-Key") != expected {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid api key"}`))
			return
		}
		next(w, r)
	}
}

// networksHandler serves the network catalog. With a repository it reads the
// networks table; without one it falls back to the builtin fixtures.
func networksHandler(repo *postgres.NetworkRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			writeJSON(w, upstream.NetworksListResponse{Networks: stubNetworks})
			return
		}
		rows, err := repo.List(r.Context())
		if err != nil {
			http.Error(w, "network list unavailable", http.StatusInternalServerError)
			return
		}
		networks := make([]upstream.NetworkOption, 0, len(rows))
		for _, n := range rows {
			networks = append(networks, upstream.NetworkOption{ID: n.ID, Name: n.Name, Status: n.Status})
		}
		writeJSON(w, upstream.NetworksListResponse{Networks: networks})
	}
}

// syncStatusHandler reports sync activity. With a repository the response is
// composed from the sync_logs table; without one it returns a canned
// completed run from 25 minutes ago.
func syncStatusHandler(repo *postgres.SyncLogRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			last := time.Now().Add(-25 * time.Minute).UTC()
			completed := last
			writeJSON(w, upstream.SyncStatusResponse{
				IsActive:    false,
				LastSync:    &last,
				ActiveSyncs: 0,
				RecentSyncs: []upstream.SyncRun{
					{
						ID:          "sync-0001",
						NetworkID:   "aff1",
						Status:      "completed",
						StartedAt:   last.Add(-4 * time.Minute),
						CompletedAt: &completed,
						RecordCount: 18250,
					},
				},
			})
			return
		}

		ctx := r.Context()
		active, err := repo.ActiveCount(ctx)
		if err != nil {
			http.Error(w, "sync status unavailable", http.StatusInternalServerError)
			return
		}
		last, err := repo.LastCompleted(ctx)
		if err != nil {
			http.Error(w, "sync status unavailable", http.StatusInternalServerError)
			return
		}
		recent, err := repo.Recent(ctx, 10)
		if err != nil {
			http.Error(w, "sync status unavailable", http.StatusInternalServerError)
			return
		}
		runs := make([]upstream.SyncRun, 0, len(recent))
		for _, s := range recent {
			runs = append(runs, upstream.SyncRun{
				ID:          s.ID,
				NetworkID:   s.NetworkID,
				Status:      s.Status,
				StartedAt:   s.StartedAt,
				CompletedAt: s.CompletedAt,
				RecordCount: s.RecordCount,
				Error:       s.Error,
			})
		}
		writeJSON(w, upstream.SyncStatusResponse{
			IsActive:    active > 0,
			LastSync:    last,
			ActiveSyncs: active,
			RecentSyncs: runs,
		})
	}
}

// seedNetworks upserts the fixture networks so a fresh database serves the
// same catalog as the builtin stub.
func seedNetworks(ctx context.Context, repo *postgres.NetworkRepo) error {
	for _, n := range stubNetworks {
		if err := repo.Upsert(ctx, postgres.Network{ID: n.ID, Name: n.Name, Status: n.Status}); err != nil {
			return err
		}
	}
	return nil
}

// recordSyncRun logs one completed sync so sync-status has rows to report.
func recordSyncRun(ctx context.Context, repo *postgres.SyncLogRepo) error {
	id, err := repo.Start(ctx, stubNetworks[0].ID)
	if err != nil {
		return err
	}
	return repo.Complete(ctx, id, 18250)
}

func days(start, end string) []string {
	from, err1 := dateutil.ParseAPIDate(start)
	to, err2 := dateutil.ParseAPIDate(end)
	if err1 != nil || err2 != nil || to.Before(from) {
		return nil
	}
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, dateutil.FormatAPIDate(d))
	}
	return out
}

func main() {
	log.Println("Starting campaign-dashboard STUB upstream (deterministic synthetic data)")

	// When DATABASE_URL is set the network catalog and sync status come
	// from Postgres instead of the builtin fixtures.
	var networkRepo *postgres.NetworkRepo
	var syncRepo *postgres.SyncLogRepo
	if url := os.Getenv("DATABASE_URL"); url != "" {
		db, err := sql.Open("postgres", url)
		if err != nil {
			log.Fatalf("stub api: open postgres: %v", err)
		}
		if err := db.Ping(); err != nil {
			log.Fatalf("stub api: postgres unreachable: %v", err)
		}
		db.SetMaxOpenConns(5)
		defer db.Close()

		networkRepo = postgres.NewNetworkRepo(db)
		syncRepo = postgres.NewSyncLogRepo(db)
		ctx := context.Background()
		if err := seedNetworks(ctx, networkRepo); err != nil {
			log.Fatalf("stub api: seed networks: %v", err)
		}
		if err := recordSyncRun(ctx, syncRepo); err != nil {
			log.Fatalf("stub api: record sync run: %v", err)
		}
		log.Println("stub upstream backed by postgres")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "healthy", "service": "campaign-stub-api"})
	})

	mux.HandleFunc("GET /api/networks/list", requireKey(networksHandler(networkRepo)))

	mux.HandleFunc("GET /api/campaigns/filters", requireKey(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, upstream.FiltersResponse{
			Networks:  stubNetworks,
			Campaigns: stubCampaigns,
			SubIDs:    stubSubIDs,
			SubIDs1:   stubSubIDs[:2],
			SubIDs2:   []string{"v1", "v2"},
		})
	}))

	mux.HandleFunc("POST /api/campaigns/live-filters", requireKey(func(w http.ResponseWriter, r *http.Request) {
		var req upstream.LiveFiltersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		// Scope the option lists by the selected network: each network
		// "owns" a rotating subset of the campaigns.
		campaigns := stubCampaigns
		if len(req.Networks) > 0 {
			offset := int(seed(req.Networks[0]) % uint64(len(stubCampaigns)))
			campaigns = append([]upstream.CampaignOption{}, stubCampaigns[offset:]...)
		}
		writeJSON(w, upstream.FiltersResponse{
			Networks:  stubNetworks,
			Campaigns: campaigns,
			SubIDs:    stubSubIDs,
			SubIDs2:   []string{"v1", "v2"},
		})
	}))

	mux.HandleFunc("POST /api/campaigns/summary", requireKey(func(w http.ResponseWriter, r *http.Request) {
		var req upstream.SummaryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		window := days(req.StartDate, req.EndDate)
		if window == nil {
			http.Error(w, "invalid date range", http.StatusBadRequest)
			return
		}

		var trends []upstream.TrendPoint
		var totalRevenue, totalSpend float64
		var totalClicks, totalConversions int64
		for _, day := range window {
			s := seed(day, req.StartDate, req.EndDate)
			clicks := int64(500 + s%1500)
			conversions := clicks / int64(12+s%10)
			revenue := float64(conversions) * (18 + float64(s%14))
			spend := revenue * 0.62
			trends = append(trends, upstream.TrendPoint{
				Date:        day,
				Revenue:     revenue,
				Clicks:      clicks,
				Conversions: conversions,
				Spend:       spend,
			})
			totalRevenue += revenue
			totalSpend += spend
			totalClicks += clicks
			totalConversions += conversions
		}

		cvr := 0.0
		epc := 0.0
		if totalClicks > 0 {
			cvr = float64(totalConversions) / float64(totalClicks) * 100
			epc = totalRevenue / float64(totalClicks)
		}
		roas := 0.0
		if totalSpend > 0 {
			roas = totalRevenue / totalSpend
		}
		peak := int(seed(req.StartDate, req.EndDate) % 24)

		writeJSON(w, upstream.SummaryResponse{
			KPIs: upstream.KPIData{
				Revenue:     upstream.KPIMetric{Value: totalRevenue, Change: 4.2},
				Clicks:      upstream.KPIMetric{Value: float64(totalClicks), Change: -1.3},
				Conversions: upstream.KPIMetric{Value: float64(totalConversions), Change: 2.8},
				CVR:         upstream.KPIMetric{Value: cvr, Change: 0.4},
				EPC:         upstream.KPIMetric{Value: epc, Change: 1.1},
				ROAS:        upstream.KPIMetric{Value: roas, Change: 0.2},
				PeakHour:    &peak,
			},
			Trends: trends,
		})
	}))

	mux.HandleFunc("POST /api/campaigns/real-clicks", requireKey(func(w http.ResponseWriter, r *http.Request) {
		var req upstream.TableRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		limit := req.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		network := "aff1"
		if len(req.Networks) > 0 {
			network = req.Networks[0]
		}
		clicks := make([]upstream.ClickRow, 0, limit)
		for i := 0; i < limit; i++ {
			s := seed(req.StartDate, network, "click", string(rune('a'+i%26)))
			campaign := stubCampaigns[int(s%uint64(len(stubCampaigns)))]
			row := upstream.ClickRow{
				ClickID:   campaign.ID + "-" + req.StartDate + "-" + string(rune('a'+i%26)),
				Timestamp: req.StartDate + "T12:00:00Z",
				NetworkID: network,
				OfferID:   campaign.ID,
				OfferName: campaign.Name,
				SubID:     stubSubIDs[int(s%uint64(len(stubSubIDs)))],
				SubID2:    "v1",
				Device:    []string{"mobile", "desktop", "tablet"}[int(s%3)],
				Country:   "US",
				Payout:    float64(s%900) / 100,
			}
			if req.TableFilters.OfferName != "" && row.OfferName != req.TableFilters.OfferName {
				continue
			}
			if req.TableFilters.SubID != "" && row.SubID != req.TableFilters.SubID {
				continue
			}
			clicks = append(clicks, row)
		}
		writeJSON(w, upstream.ClicksResponse{Clicks: clicks})
	}))

	mux.HandleFunc("POST /api/campaigns/real-conversions", requireKey(func(w http.ResponseWriter, r *http.Request) {
		var req upstream.TableRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		limit := req.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		network := "aff1"
		if len(req.Networks) > 0 {
			network = req.Networks[0]
		}
		conversions := make([]upstream.ConversionRow, 0, limit/4+1)
		for i := 0; i < limit/4+1; i++ {
			s := seed(req.StartDate, network, "conversion", string(rune('a'+i%26)))
			campaign := stubCampaigns[int(s%uint64(len(stubCampaigns)))]
			row := upstream.ConversionRow{
				ConversionID: "cv-" + campaign.ID + "-" + string(rune('a'+i%26)),
				ClickID:      campaign.ID + "-" + req.StartDate + "-" + string(rune('a'+i%26)),
				Timestamp:    req.StartDate + "T13:30:00Z",
				NetworkID:    network,
				OfferID:      campaign.ID,
				OfferName:    campaign.Name,
				SubID:        stubSubIDs[int(s%uint64(len(stubSubIDs)))],
				SubID2:       "v1",
				Status:       []string{"approved", "pending"}[int(s%2)],
				Revenue:      float64(20 + s%60),
				Payout:       float64(12 + s%40),
			}
			if req.TableFilters.OfferName != "" && row.OfferName != req.TableFilters.OfferName {
				continue
			}
			conversions = append(conversions, row)
		}
		writeJSON(w, upstream.ConversionsResponse{Conversions: conversions})
	}))

	mux.HandleFunc("GET /api/network-campaigns", requireKey(func(w http.ResponseWriter, r *http.Request) {
		networkID := r.URL.Query().Get("network")
		if networkID == "" {
			http.Error(w, "network required", http.StatusBadRequest)
			return
		}
		offset := int(seed(networkID) % uint64(len(stubCampaigns)))
		writeJSON(w, upstream.NetworkCampaignsResponse{Campaigns: stubCampaigns[offset:]})
	}))

	mux.HandleFunc("GET /api/health/sync-status", requireKey(syncStatusHandler(syncRepo)))

	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	log.Printf("stub upstream listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("stub api: %v", err)
	}
}
