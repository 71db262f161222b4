package upstream

import "time"

// Config holds upstream campaign API configuration
type Config struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ========== Option types ==========

// NetworkOption is a selectable advertising network.
type NetworkOption struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// CampaignOption is a selectable offer/campaign.
type CampaignOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NetworksListResponse is the response of GET /api/networks/list.
type NetworksListResponse struct {
	Networks []NetworkOption `json:"networks"`
}

// FiltersResponse is the shape shared by GET /api/campaigns/filters and
// POST /api/campaigns/live-filters.
type FiltersResponse struct {
	Networks   []NetworkOption  `json:"networks"`
	Campaigns  []CampaignOption `json:"campaigns"`
	SubIDs     []string         `json:"subIds"`
	SubIDs1    []string         `json:"subIds1,omitempty"`
	SubIDs2    []string         `json:"subIds2,omitempty"`
	OfferNames []string         `json:"offerNames,omitempty"`
}

// NetworkCampaignsResponse is the response of GET /api/network-campaigns.
type NetworkCampaignsResponse struct {
	Campaigns []CampaignOption `json:"campaigns"`
}

// ========== Request types ==========

// LiveFiltersRequest scopes the filter-option lookup to a network and
// date window. Dates are YYYY-MM-DD local calendar dates.
type LiveFiltersRequest struct {
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Networks  []string `json:"networks"`
}

// SummaryRequest is the request body for POST /api/campaigns/summary.
type SummaryRequest struct {
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Networks  []string `json:"networks"`
	Offers    []string `json:"offers"`
	SubIDs    []string `json:"subIds"`
}

// TableFilters narrows the clicks/conversions tables independently of the
// committed dashboard filters. Empty string means unfiltered.
type TableFilters struct {
	OfferName string `json:"offerName"`
	SubID     string `json:"subId"`
	SubID2    string `json:"subId2"`
}

// TableRequest extends SummaryRequest with table-level filtering and
// pagination for the real-clicks/real-conversions endpoints.
type TableRequest struct {
	SummaryRequest
	TableFilters TableFilters `json:"tableFilters"`
	Page         int          `json:"page"`
	Limit        int          `json:"limit"`
	Campaigns    []string     `json:"campaigns,omitempty"`
}

// ========== Report types ==========

// KPIMetric is a scalar KPI with its period-over-period change percentage.
type KPIMetric struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// KPIData holds the headline metrics for the KPI cards.
type KPIData struct {
	Revenue     KPIMetric `json:"revenue"`
	Clicks      KPIMetric `json:"clicks"`
	Conversions KPIMetric `json:"conversions"`
	CVR         KPIMetric `json:"cvr"`
	EPC         KPIMetric `json:"epc"`
	ROAS        KPIMetric `json:"roas"`
	PeakHour    *int      `json:"peakHour,omitempty"`
}

// TrendPoint is one time bucket of the trend series.
type TrendPoint struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Spend       float64 `json:"spend"`
}

// SummaryResponse is the response of POST /api/campaigns/summary.
type SummaryResponse struct {
	KPIs   KPIData      `json:"kpis"`
	Trends []TrendPoint `json:"trends"`
}

// ClickRow is a row-level click record for the clicks table.
type ClickRow struct {
	ClickID   string  `json:"clickId"`
	Timestamp string  `json:"timestamp"`
	NetworkID string  `json:"networkId"`
	OfferID   string  `json:"offerId"`
	OfferName string  `json:"offerName"`
	SubID     string  `json:"subId"`
	SubID2    string  `json:"subId2"`
	Device    string  `json:"device"`
	Country   string  `json:"country"`
	Payout    float64 `json:"payout"`
}

// ConversionRow is a row-level conversion record for the conversions table.
type ConversionRow struct {
	ConversionID string  `json:"conversionId"`
	ClickID      string  `json:"clickId"`
	Timestamp    string  `json:"timestamp"`
	NetworkID    string  `json:"networkId"`
	OfferID      string  `json:"offerId"`
	OfferName    string  `json:"offerName"`
	SubID        string  `json:"subId"`
	SubID2       string  `json:"subId2"`
	Status       string  `json:"status"`
	Revenue      float64 `json:"revenue"`
	Payout       float64 `json:"payout"`
}

// ClicksResponse is the response of POST /api/campaigns/real-clicks.
type ClicksResponse struct {
	Clicks []ClickRow `json:"clicks"`
}

// ConversionsResponse is the response of POST /api/campaigns/real-conversions.
type ConversionsResponse struct {
	Conversions []ConversionRow `json:"conversions"`
}

// ========== Sync health ==========

// SyncRun is one completed or in-flight network sync.
type SyncRun struct {
	ID          string     `json:"id"`
	NetworkID   string     `json:"networkId"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RecordCount int64      `json:"recordCount"`
	Error       string     `json:"error,omitempty"`
}

// SyncStatusResponse is the response of GET /api/health/sync-status.
type SyncStatusResponse struct {
	IsActive    bool       `json:"isActive"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
	ActiveSyncs int        `json:"activeSyncs"`
	RecentSyncs []SyncRun  `json:"recentSyncs"`
}
