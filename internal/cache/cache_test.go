package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// countingAPI is a minimal dashboard.API that counts upstream hits.
type countingAPI struct {
	networkCalls     int32
	filtersCalls     int32
	liveFiltersCalls int32
	summaryCalls     int32
}

func (a *countingAPI) ListNetworks(ctx context.Context) (*upstream.NetworksListResponse, error) {
	atomic.AddInt32(&a.networkCalls, 1)
	return &upstream.NetworksListResponse{Networks: []upstream.NetworkOption{{ID: "aff1", Name: "One"}}}, nil
}

func (a *countingAPI) GetFilters(ctx context.Context) (*upstream.FiltersResponse, error) {
	atomic.AddInt32(&a.filtersCalls, 1)
	return &upstream.FiltersResponse{SubIDs: []string{"s1"}}, nil
}

func (a *countingAPI) GetLiveFilters(ctx context.Context, req upstream.LiveFiltersRequest) (*upstream.FiltersResponse, error) {
	atomic.AddInt32(&a.liveFiltersCalls, 1)
	return &upstream.FiltersResponse{SubIDs: []string{"s-" + req.StartDate}}, nil
}

func (a *countingAPI) GetSummary(ctx context.Context, req upstream.SummaryRequest) (*upstream.SummaryResponse, error) {
	atomic.AddInt32(&a.summaryCalls, 1)
	return &upstream.SummaryResponse{}, nil
}

func (a *countingAPI) GetClicks(ctx context.Context, req upstream.TableRequest) (*upstream.ClicksResponse, error) {
	return &upstream.ClicksResponse{}, nil
}

func (a *countingAPI) GetConversions(ctx context.Context, req upstream.TableRequest) (*upstream.ConversionsResponse, error) {
	return &upstream.ConversionsResponse{}, nil
}

func setupCache(t *testing.T, ttl time.Duration) (*Cached, *countingAPI, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	inner := &countingAPI{}
	return New(inner, rdb, ttl), inner, mr
}

func TestListNetworksCached(t *testing.T) {
	cached, inner, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, err := cached.ListNetworks(ctx)
		if err != nil {
			t.Fatalf("ListNetworks: %v", err)
		}
		if len(resp.Networks) != 1 || resp.Networks[0].ID != "aff1" {
			t.Errorf("networks = %+v", resp.Networks)
		}
	}

	if got := atomic.LoadInt32(&inner.networkCalls); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestLiveFiltersKeyedByWindowAndNetworks(t *testing.T) {
	cached, inner, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	a := upstream.LiveFiltersRequest{StartDate: "2024-01-01", EndDate: "2024-01-07", Networks: []string{"aff1"}}
	b := upstream.LiveFiltersRequest{StartDate: "2024-02-01", EndDate: "2024-02-07", Networks: []string{"aff1"}}

	if _, err := cached.GetLiveFilters(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.GetLiveFilters(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.GetLiveFilters(ctx, b); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&inner.liveFiltersCalls); got != 2 {
		t.Errorf("upstream calls = %d, want 2 (distinct windows)", got)
	}

	resp, _ := cached.GetLiveFilters(ctx, a)
	if len(resp.SubIDs) != 1 || resp.SubIDs[0] != "s-2024-01-01" {
		t.Errorf("cached payload = %+v", resp.SubIDs)
	}
}

func TestLiveFiltersKeyResistsSeparatorCollisions(t *testing.T) {
	cached, inner, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	// A single id containing a comma must not share an entry with the
	// two-id selection it would collide with under naive joining.
	joined := upstream.LiveFiltersRequest{StartDate: "2024-01-01", EndDate: "2024-01-07", Networks: []string{"aff1,aff2"}}
	split := upstream.LiveFiltersRequest{StartDate: "2024-01-01", EndDate: "2024-01-07", Networks: []string{"aff1", "aff2"}}

	if _, err := cached.GetLiveFilters(ctx, joined); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.GetLiveFilters(ctx, split); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&inner.liveFiltersCalls); got != 2 {
		t.Errorf("upstream calls = %d, want 2 (distinct selections)", got)
	}

	// An id containing the date separator must not fold into the window.
	shifted := upstream.LiveFiltersRequest{StartDate: "2024-01-01", EndDate: "2024-01-07", Networks: []string{"aff1:2024-01-01"}}
	if _, err := cached.GetLiveFilters(ctx, shifted); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&inner.liveFiltersCalls); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestEntriesExpire(t *testing.T) {
	cached, inner, mr := setupCache(t, time.Minute)
	ctx := context.Background()

	cached.GetFilters(ctx)
	mr.FastForward(2 * time.Minute)
	cached.GetFilters(ctx)

	if got := atomic.LoadInt32(&inner.filtersCalls); got != 2 {
		t.Errorf("upstream calls = %d, want 2 after expiry", got)
	}
}

func TestSummaryIsNeverCached(t *testing.T) {
	cached, inner, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	cached.GetSummary(ctx, upstream.SummaryRequest{})
	cached.GetSummary(ctx, upstream.SummaryRequest{})

	if got := atomic.LoadInt32(&inner.summaryCalls); got != 2 {
		t.Errorf("upstream calls = %d, want 2 (pass-through)", got)
	}
}

func TestRedisDownFallsThrough(t *testing.T) {
	cached, inner, mr := setupCache(t, time.Minute)
	mr.Close()
	ctx := context.Background()

	resp, err := cached.ListNetworks(ctx)
	if err != nil {
		t.Fatalf("ListNetworks with redis down: %v", err)
	}
	if len(resp.Networks) != 1 {
		t.Errorf("networks = %+v", resp.Networks)
	}
	if got := atomic.LoadInt32(&inner.networkCalls); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}
