package snippet

import "time"

// Filter returns the snippets for which keep returns true, in input order.
// The input slice is not modified.
func Filter(snippets []Snippet, keep func(Snippet) bool) []Snippet {
	out := make([]Snippet, 0, len(snippets))
	for _, s := range snippets {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// FilterInDateRange returns the snippets recorded in [from, to).
// The result is empty when from is not before to.
func FilterInDateRange(snippets []Snippet, from, to time.Time) []Snippet {
	if !from.Before(to) {
		return []Snippet{}
	}
	return Filter(snippets, func(s Snippet) bool {
		return s.InDateRange(from, to)
	})
}

// FilterByTag returns the snippets carrying tag.
func FilterByTag(snippets []Snippet, tag string) []Snippet {
	return Filter(snippets, func(s Snippet) bool {
		return s.HasTag(tag)
	})
}

// Query combines the filters used when listing or exporting. Zero fields do
// not filter: a zero From has no lower bound and a zero To no upper bound.
type Query struct {
	From time.Time
	To   time.Time
	Tags []string // every tag must be present
}

// endOfTime bounds ranges that have no upper limit.
var endOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Apply filters snippets, keeping input order. The result never aliases the
// input slice.
func (q Query) Apply(snippets []Snippet) []Snippet {
	out := append([]Snippet(nil), snippets...)
	if !q.From.IsZero() || !q.To.IsZero() {
		to := q.To
		if to.IsZero() {
			to = endOfTime
		}
		out = FilterInDateRange(out, q.From, to)
	}
	for _, tag := range q.Tags {
		out = FilterByTag(out, tag)
	}
	return out
}
