// Package dashboard implements the data-orchestration controller for the
// campaign dashboard: committed/draft filter state, the option cache, and
// the two-phase fetch cycle against the upstream campaign API.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/adpulse/campaign-dashboard/internal/dateutil"
	"github.com/adpulse/campaign-dashboard/internal/pkg/logger"
	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// API is the slice of the upstream client the controller depends on.
// *upstream.Client satisfies it, as does the caching decorator.
type API interface {
	ListNetworks(ctx context.Context) (*upstream.NetworksListResponse, error)
	GetFilters(ctx context.Context) (*upstream.FiltersResponse, error)
	GetLiveFilters(ctx context.Context, req upstream.LiveFiltersRequest) (*upstream.FiltersResponse, error)
	GetSummary(ctx context.Context, req upstream.SummaryRequest) (*upstream.SummaryResponse, error)
	GetClicks(ctx context.Context, req upstream.TableRequest) (*upstream.ClicksResponse, error)
	GetConversions(ctx context.Context, req upstream.TableRequest) (*upstream.ConversionsResponse, error)
}

const defaultTablePageSize = 50

// Controller owns all mutable dashboard state for one session. Children
// of the dashboard never write state directly; they call the mutation
// methods here, and every mutation that affects fetches runs a new cycle
// explicitly (no implicit re-render tracking).
type Controller struct {
	api     API
	options *OptionCache

	mu           sync.Mutex
	committed    FilterState
	draft        FilterState
	tableFilters upstream.TableFilters

	// accessible is the network-id set from the latest filters or
	// live-filters response; committed selections are intersected with it
	// before every fetch.
	accessible      []string
	accessibleKnown bool

	// generation stamps each fetch cycle; responses from a stale cycle
	// are discarded instead of overwriting newer state.
	generation uint64

	kpis        upstream.KPIData
	trends      []upstream.TrendPoint
	clicks      []upstream.ClickRow
	conversions []upstream.ConversionRow

	primaryLoading bool
	tablesLoading  bool
	networkLoading bool
	networkError   string
	trendsError    *ErrorInfo
	lastUpdated    time.Time

	pageSize int
	onBranch func(branch string, err error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitialFilters sets the starting committed filter state.
func WithInitialFilters(f FilterState) Option {
	return func(c *Controller) {
		c.committed = f.Clone()
	}
}

// WithPageSize overrides the table page size sent to the upstream API.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithBranchObserver registers a hook invoked after every fetch branch
// settles, with the branch name and its error (nil on success). Used for
// metrics.
func WithBranchObserver(fn func(branch string, err error)) Option {
	return func(c *Controller) {
		c.onBranch = fn
	}
}

// NewController creates a controller with a "last 7 days" window and no
// network selected.
func NewController(api API, opts ...Option) *Controller {
	initialRange, _ := dateutil.ApplyTemplate("last7days")
	c := &Controller{
		api:         api,
		options:     NewOptionCache(),
		committed:   FilterState{DateRange: initialRange, Networks: []string{}, Offers: []string{}, SubIDs: []string{}},
		kpis:        ZeroKPIData(),
		trends:      []upstream.TrendPoint{},
		clicks:      []upstream.ClickRow{},
		conversions: []upstream.ConversionRow{},
		pageSize:    defaultTablePageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.draft = c.committed.Clone()
	return c
}

// Bootstrap loads the network list and the unscoped filter options. Either
// fetch may fail without blocking the dashboard; failures only surface
// through the network error flag.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.mu.Lock()
	c.networkLoading = true
	c.mu.Unlock()

	networks, err := c.api.ListNetworks(ctx)
	c.observe("networks", err)
	if err != nil {
		logger.Warn("dashboard: network list fetch failed", "error", err)
	} else {
		c.options.SetNetworks(networks.Networks)
	}

	filters, ferr := c.api.GetFilters(ctx)
	c.observe("filters", ferr)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.networkLoading = false
	if ferr != nil {
		logger.Warn("dashboard: filters fetch failed", "error", ferr)
		c.networkError = ferr.Error()
		return
	}
	c.networkError = ""
	c.setAccessibleLocked(filters)
	c.options.Refresh(filters)
}

// Draft returns a copy of the draft filter state.
func (c *Controller) Draft() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Committed returns a copy of the committed filter state.
func (c *Controller) Committed() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed.Clone()
}

// SetDraft replaces the draft filter state. It never touches committed
// state and never triggers a fetch.
func (c *Controller) SetDraft(f FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = f.Clone()
}

// Apply commits the draft (deep-cloned, so later draft edits cannot alias
// committed state) and runs a fetch cycle.
func (c *Controller) Apply(ctx context.Context) {
	c.mu.Lock()
	c.committed = c.draft.Clone()
	c.mu.Unlock()
	c.RunCycle(ctx)
}

// SetTableFilters replaces the table-level filters and runs a fetch cycle.
func (c *Controller) SetTableFilters(ctx context.Context, tf upstream.TableFilters) {
	c.mu.Lock()
	c.tableFilters = tf
	c.mu.Unlock()
	c.RunCycle(ctx)
}

// Refresh re-runs the fetch cycle with the current committed state.
func (c *Controller) Refresh(ctx context.Context) {
	c.RunCycle(ctx)
}

// setAccessibleLocked records the accessible-network set from a filters
// response. Caller holds c.mu.
func (c *Controller) setAccessibleLocked(resp *upstream.FiltersResponse) {
	ids := make([]string, len(resp.Networks))
	for i, n := range resp.Networks {
		ids[i] = n.ID
	}
	c.accessible = ids
	c.accessibleKnown = true
}

// RunCycle executes one fetch cycle: normalize the network selection,
// short-circuit when it is empty, then Phase 1 (summary) followed by the
// Phase 2 fan-out (clicks, conversions, live-filters). Each branch settles
// independently; a failed branch degrades only its own slice of state.
func (c *Controller) RunCycle(ctx context.Context) {
	// The accessible-network set normally comes from bootstrap or the last
	// live-filters response. If neither ever succeeded, try once more here;
	// if that also fails, skip validation rather than brick the dashboard.
	c.mu.Lock()
	known := c.accessibleKnown
	c.mu.Unlock()
	if !known {
		if filters, err := c.api.GetFilters(ctx); err == nil {
			c.mu.Lock()
			c.setAccessibleLocked(filters)
			c.mu.Unlock()
			c.options.Refresh(filters)
		} else {
			logger.Warn("dashboard: no accessible-network set available", "error", err)
		}
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation

	// Single-network normalization: intersect with the accessible set,
	// truncate to the first survivor, and write any correction back into
	// committed state (re-syncing the draft so the two never diverge).
	effective := c.committed.Networks
	if c.accessibleKnown {
		effective = intersect(effective, c.accessible)
	}
	if len(effective) > 1 {
		effective = effective[:1]
	}
	if !stringsEqual(effective, c.committed.Networks) {
		logger.Info("dashboard: corrected network selection",
			"from", len(c.committed.Networks), "to", len(effective))
		c.committed.Networks = cloneStrings(effective)
		c.draft = c.committed.Clone()
	}

	if len(effective) == 0 {
		// No network chosen: reset to zero-defaults and skip all
		// summary/clicks/conversions requests.
		c.kpis = ZeroKPIData()
		c.trends = []upstream.TrendPoint{}
		c.clicks = []upstream.ClickRow{}
		c.conversions = []upstream.ConversionRow{}
		c.trendsError = nil
		c.primaryLoading = false
		c.tablesLoading = false
		c.lastUpdated = time.Now()
		c.mu.Unlock()
		return
	}

	filters := c.committed.Clone()
	filters.Networks = cloneStrings(effective)
	tf := c.tableFilters
	c.primaryLoading = true
	c.tablesLoading = true
	c.trendsError = nil
	c.mu.Unlock()

	summaryReq := upstream.SummaryRequest{
		StartDate: dateutil.FormatAPIDate(filters.DateRange.From),
		EndDate:   dateutil.FormatAPIDate(filters.DateRange.To),
		Networks:  filters.Networks,
		Offers:    filters.Offers,
		SubIDs:    filters.SubIDs,
	}

	// Phase 1: fast path. KPI cards and the trend chart populate before the
	// tables, and the primary loading flag clears regardless of outcome so
	// the UI never stalls on a failed summary.
	summary, err := c.api.GetSummary(ctx, summaryReq)
	c.observe("summary", err)
	c.mu.Lock()
	if gen == c.generation {
		if err != nil {
			logger.Error("dashboard: summary fetch failed", "error", err)
			c.kpis = ZeroKPIData()
			c.trends = []upstream.TrendPoint{}
			c.trendsError = ClassifyError(err)
		} else {
			c.kpis = summary.KPIs
			c.trends = append([]upstream.TrendPoint{}, summary.Trends...)
		}
		c.primaryLoading = false
		c.lastUpdated = time.Now()
	}
	c.mu.Unlock()

	// Phase 2: slow path, fanned out. Branch failures are independent.
	tableReq := upstream.TableRequest{
		SummaryRequest: summaryReq,
		TableFilters:   tf,
		Page:           1,
		Limit:          c.pageSize,
		Campaigns:      filters.Offers,
	}
	liveReq := upstream.LiveFiltersRequest{
		StartDate: summaryReq.StartDate,
		EndDate:   summaryReq.EndDate,
		Networks:  filters.Networks,
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		c.fetchClicks(ctx, gen, tableReq)
	}()
	go func() {
		defer wg.Done()
		c.fetchConversions(ctx, gen, tableReq)
	}()
	go func() {
		defer wg.Done()
		c.fetchLiveFilters(ctx, gen, liveReq)
	}()
	wg.Wait()

	c.mu.Lock()
	if gen == c.generation {
		c.tablesLoading = false
		c.lastUpdated = time.Now()
	}
	c.mu.Unlock()
}

func (c *Controller) fetchClicks(ctx context.Context, gen uint64, req upstream.TableRequest) {
	resp, err := c.api.GetClicks(ctx, req)
	c.observe("clicks", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	if err != nil {
		logger.Error("dashboard: clicks fetch failed", "error", err)
		c.clicks = []upstream.ClickRow{}
		return
	}
	c.clicks = append([]upstream.ClickRow{}, resp.Clicks...)
}

func (c *Controller) fetchConversions(ctx context.Context, gen uint64, req upstream.TableRequest) {
	resp, err := c.api.GetConversions(ctx, req)
	c.observe("conversions", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	if err != nil {
		logger.Error("dashboard: conversions fetch failed", "error", err)
		c.conversions = []upstream.ConversionRow{}
		return
	}
	c.conversions = append([]upstream.ConversionRow{}, resp.Conversions...)
}

func (c *Controller) fetchLiveFilters(ctx context.Context, gen uint64, req upstream.LiveFiltersRequest) {
	resp, err := c.api.GetLiveFilters(ctx, req)
	c.observe("live-filters", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	if err != nil {
		logger.Warn("dashboard: live-filters fetch failed", "error", err)
		c.options.Clear()
		c.networkError = err.Error()
		return
	}
	c.networkError = ""
	c.setAccessibleLocked(resp)
	c.options.Refresh(resp)

	// Keep selections a subset of the refreshed options. A correction here
	// updates committed state directly and re-syncs the draft; it takes
	// effect on the next cycle.
	offers, subIDs, changed := c.options.PruneSelections(c.committed.Offers, c.committed.SubIDs)
	if changed {
		logger.Info("dashboard: pruned stale selections",
			"offers", len(offers), "sub_ids", len(subIDs))
		c.committed.Offers = offers
		c.committed.SubIDs = subIDs
		c.draft = c.committed.Clone()
	}
}

// Snapshot returns a consistent copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Committed:      c.committed.Clone(),
		Draft:          c.draft.Clone(),
		TableFilters:   c.tableFilters,
		PendingChanges: !c.committed.Equal(c.draft),
		RangeLabel:     dateutil.RangeLabel(c.committed.DateRange),
		KPIs:           c.kpis,
		Trends:         append([]upstream.TrendPoint{}, c.trends...),
		Clicks:         append([]upstream.ClickRow{}, c.clicks...),
		Conversions:    append([]upstream.ConversionRow{}, c.conversions...),
		Options:        c.options.Snapshot(),
		PrimaryLoading: c.primaryLoading,
		TablesLoading:  c.tablesLoading,
		NetworkLoading: c.networkLoading,
		NetworkError:   c.networkError,
		TrendsError:    c.trendsError,
		LastUpdated:    c.lastUpdated,
		Generation:     c.generation,
	}
}

func (c *Controller) observe(branch string, err error) {
	if c.onBranch != nil {
		c.onBranch(branch, err)
	}
}
