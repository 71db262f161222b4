package dashboard

import (
	"time"

	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// ZeroKPIData is the documented zero-default KPI object shown when no
// network is selected or the summary fetch fails. All values and changes
// are zero, no peak hour.
func ZeroKPIData() upstream.KPIData {
	return upstream.KPIData{}
}

// Snapshot is a consistent, copy-safe view of a controller's state,
// taken under the controller lock. Handlers serialize it directly.
type Snapshot struct {
	Committed      FilterState           `json:"committed"`
	Draft          FilterState           `json:"draft"`
	TableFilters   upstream.TableFilters `json:"tableFilters"`
	PendingChanges bool                  `json:"pendingChanges"`
	RangeLabel     string                `json:"rangeLabel"`

	KPIs        upstream.KPIData         `json:"kpiData"`
	Trends      []upstream.TrendPoint    `json:"trendData"`
	Clicks      []upstream.ClickRow      `json:"clicksData"`
	Conversions []upstream.ConversionRow `json:"conversionsData"`

	Options OptionSet `json:"options"`

	PrimaryLoading bool `json:"primaryLoading"`
	TablesLoading  bool `json:"tablesLoading"`
	NetworkLoading bool `json:"networkLoading"`

	NetworkError string     `json:"networkError,omitempty"`
	TrendsError  *ErrorInfo `json:"trendsError,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`
	Generation  uint64    `json:"generation"`
}
