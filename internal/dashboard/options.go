package dashboard

import (
	"sort"
	"sync"

	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// OptionSet holds the selectable networks, offers, and sub-identifiers.
// All slices are server-sourced; OfferNames is deduplicated from the
// campaign list for the table-level filter UI.
type OptionSet struct {
	Networks   []upstream.NetworkOption  `json:"availableNetworks"`
	Offers     []upstream.CampaignOption `json:"availableOffers"`
	SubIDs     []string                  `json:"availableSubIds"`
	SubIDs2    []string                  `json:"availableSubIds2"`
	OfferNames []string                  `json:"availableOfferNames"`
}

// OptionCache owns the option lists and refreshes them from upstream
// filter responses. Failures degrade to empty lists; they never block the
// rest of the dashboard.
type OptionCache struct {
	mu  sync.RWMutex
	set OptionSet
}

// NewOptionCache returns an empty option cache.
func NewOptionCache() *OptionCache {
	return &OptionCache{}
}

// SetNetworks replaces the network list (fetched once on startup,
// independent of filters).
func (o *OptionCache) SetNetworks(networks []upstream.NetworkOption) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.set.Networks = append([]upstream.NetworkOption(nil), networks...)
}

// Refresh replaces offer/sub-id options from a filters response. Offer
// names are deduplicated with set semantics and sorted for stable output.
func (o *OptionCache) Refresh(resp *upstream.FiltersResponse) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.set.Offers = append([]upstream.CampaignOption(nil), resp.Campaigns...)
	o.set.SubIDs = cloneStrings(resp.SubIDs)
	o.set.SubIDs2 = cloneStrings(resp.SubIDs2)

	seen := make(map[string]struct{}, len(resp.Campaigns))
	names := make([]string, 0, len(resp.Campaigns))
	for _, c := range resp.Campaigns {
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		names = append(names, c.Name)
	}
	for _, n := range resp.OfferNames {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	sort.Strings(names)
	o.set.OfferNames = names
}

// Clear empties the offer/sub-id options after a failed refresh.
func (o *OptionCache) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.set.Offers = nil
	o.set.SubIDs = nil
	o.set.SubIDs2 = nil
	o.set.OfferNames = nil
}

// Snapshot returns a copy of the current option lists.
func (o *OptionCache) Snapshot() OptionSet {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return OptionSet{
		Networks:   append([]upstream.NetworkOption(nil), o.set.Networks...),
		Offers:     append([]upstream.CampaignOption(nil), o.set.Offers...),
		SubIDs:     cloneStrings(o.set.SubIDs),
		SubIDs2:    cloneStrings(o.set.SubIDs2),
		OfferNames: cloneStrings(o.set.OfferNames),
	}
}

// PruneSelections drops selected offer/sub-id values that are no longer
// present in the option lists. Returns the pruned selections and whether
// anything changed. Selections must stay a subset of the options after a
// refresh; stale ids are filtered out silently.
func (o *OptionCache) PruneSelections(offers, subIDs []string) (prunedOffers, prunedSubIDs []string, changed bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	offerIDs := make([]string, len(o.set.Offers))
	for i, c := range o.set.Offers {
		offerIDs[i] = c.ID
	}
	prunedOffers = intersect(offers, offerIDs)
	prunedSubIDs = intersect(subIDs, o.set.SubIDs)

	changed = len(prunedOffers) != len(offers) || len(prunedSubIDs) != len(subIDs)
	return prunedOffers, prunedSubIDs, changed
}
