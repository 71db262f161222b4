package dashboard

import (
	"github.com/adpulse/campaign-dashboard/internal/dateutil"
)

// FilterState is the set of filters driving data fetches. The committed
// copy belongs to the Controller; the draft copy is edited by the filter
// UI and only takes effect on Apply.
type FilterState struct {
	DateRange dateutil.Range `json:"dateRange"`
	Networks  []string       `json:"networks"`
	Offers    []string       `json:"offers"`
	SubIDs    []string       `json:"subIds"`
}

// Clone returns a deep copy: slices are reallocated so mutating the clone
// never aliases the original. Draft/commit isolation depends on this.
func (f FilterState) Clone() FilterState {
	return FilterState{
		DateRange: f.DateRange,
		Networks:  cloneStrings(f.Networks),
		Offers:    cloneStrings(f.Offers),
		SubIDs:    cloneStrings(f.SubIDs),
	}
}

// Equal reports whether two filter states are identical: date endpoints by
// exact instant, the id lists element-wise in order and value. Drives the
// "pending changes" indicator.
func (f FilterState) Equal(other FilterState) bool {
	if !f.DateRange.From.Equal(other.DateRange.From) || !f.DateRange.To.Equal(other.DateRange.To) {
		return false
	}
	return stringsEqual(f.Networks, other.Networks) &&
		stringsEqual(f.Offers, other.Offers) &&
		stringsEqual(f.SubIDs, other.SubIDs)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// intersect keeps the elements of selected that appear in allowed,
// preserving the order of selected.
func intersect(selected, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = struct{}{}
	}
	out := make([]string, 0, len(selected))
	for _, id := range selected {
		if _, ok := allowedSet[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
