// Package dateutil converts between calendar range templates ("last 7 days",
// "month to date") and concrete {from, to} instants, and formats dates for
// the upstream campaign API.
package dateutil

import (
	"fmt"
	"time"
)

// Range is an inclusive analysis window. From must not be after To.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Valid reports whether the range endpoints are ordered.
func (r Range) Valid() bool {
	return !r.From.After(r.To)
}

// FormatAPIDate renders t as YYYY-MM-DD using its local calendar fields.
// Two instants that differ only in time-of-day but share a local calendar
// day format identically. The upstream API expects plain calendar dates,
// never ISO-8601 instants with timezone.
func FormatAPIDate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseAPIDate parses a YYYY-MM-DD string into a local-midnight time.
func ParseAPIDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseAPIRange builds an inclusive range from two YYYY-MM-DD strings.
// The start is anchored at local midnight, the end extends to the last
// instant of its day so single-day ranges still cover the full day.
func ParseAPIRange(start, end string) (Range, error) {
	from, err := ParseAPIDate(start)
	if err != nil {
		return Range{}, err
	}
	to, err := ParseAPIDate(end)
	if err != nil {
		return Range{}, err
	}
	r := Range{From: from, To: endOfDay(to)}
	if !r.Valid() {
		return Range{}, fmt.Errorf("range start %s is after end %s", start, end)
	}
	return r, nil
}

// Template produces a concrete range from the current instant. Selecting a
// template fully replaces the prior range; there is no merging.
type Template struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	apply func(now time.Time) Range
}

// Apply evaluates the template at the given instant.
func (t Template) Apply(now time.Time) Range {
	return t.apply(now)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Millisecond)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	y, m, _ := t.Date()
	qm := time.Month(((int(m)-1)/3)*3 + 1)
	return time.Date(y, qm, 1, 0, 0, 0, 0, t.Location())
}

// templates is evaluated in order by RangeLabel, so more specific windows
// ("today") come before wider ones.
var templates = []Template{
	{ID: "today", Label: "Today", apply: func(now time.Time) Range {
		return Range{From: startOfDay(now), To: endOfDay(now)}
	}},
	{ID: "yesterday", Label: "Yesterday", apply: func(now time.Time) Range {
		y := now.AddDate(0, 0, -1)
		return Range{From: startOfDay(y), To: endOfDay(y)}
	}},
	{ID: "last7days", Label: "Last 7 Days", apply: func(now time.Time) Range {
		return Range{From: startOfDay(now.AddDate(0, 0, -6)), To: endOfDay(now)}
	}},
	{ID: "last14days", Label: "Last 14 Days", apply: func(now time.Time) Range {
		return Range{From: startOfDay(now.AddDate(0, 0, -13)), To: endOfDay(now)}
	}},
	{ID: "last30days", Label: "Last 30 Days", apply: func(now time.Time) Range {
		return Range{From: startOfDay(now.AddDate(0, 0, -29)), To: endOfDay(now)}
	}},
	{ID: "thismonth", Label: "Month to Date", apply: func(now time.Time) Range {
		return Range{From: startOfMonth(now), To: endOfDay(now)}
	}},
	{ID: "lastmonth", Label: "Last Month", apply: func(now time.Time) Range {
		first := startOfMonth(now).AddDate(0, -1, 0)
		return Range{From: first, To: first.AddDate(0, 1, 0).Add(-time.Millisecond)}
	}},
	{ID: "thisquarter", Label: "Quarter to Date", apply: func(now time.Time) Range {
		return Range{From: startOfQuarter(now), To: endOfDay(now)}
	}},
	{ID: "lastquarter", Label: "Last Quarter", apply: func(now time.Time) Range {
		first := startOfQuarter(now).AddDate(0, -3, 0)
		return Range{From: first, To: first.AddDate(0, 3, 0).Add(-time.Millisecond)}
	}},
}

// Templates returns the registry in display order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// ApplyTemplate evaluates the template with the given id at time.Now().
func ApplyTemplate(id string) (Range, error) {
	return ApplyTemplateAt(id, time.Now())
}

// ApplyTemplateAt evaluates the template with the given id at now.
func ApplyTemplateAt(id string, now time.Time) (Range, error) {
	for _, t := range templates {
		if t.ID == id {
			return t.Apply(now), nil
		}
	}
	return Range{}, fmt.Errorf("unknown date template %q", id)
}

// labelTolerance is the slack allowed when matching a range endpoint
// against a template endpoint that shares its calendar day.
const labelTolerance = 1000 * time.Millisecond

func endpointsMatch(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay == by && am == bm && ad == bd {
		return true
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= labelTolerance
}

// RangeLabel derives a short human label for a range. When the range
// coincides with a known template (same calendar day per endpoint, or
// within the tolerance window), the template label is returned; otherwise
// the raw dates are formatted.
func RangeLabel(r Range) string {
	return RangeLabelAt(r, time.Now())
}

// RangeLabelAt is RangeLabel evaluated against templates at now.
func RangeLabelAt(r Range, now time.Time) string {
	for _, t := range templates {
		tr := t.Apply(now)
		if endpointsMatch(r.From, tr.From) && endpointsMatch(r.To, tr.To) {
			return t.Label
		}
	}
	if r.From.Year() == r.To.Year() {
		return fmt.Sprintf("%s – %s, %d", r.From.Format("Jan 2"), r.To.Format("Jan 2"), r.To.Year())
	}
	return fmt.Sprintf("%s – %s", r.From.Format("Jan 2, 2006"), r.To.Format("Jan 2, 2006"))
}
