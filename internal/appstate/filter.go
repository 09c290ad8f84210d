package appstate

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/unicode/norm"

	"github.com/leddt/bwtui/pkg/vaultentry"
)

// MatchMode selects the filter algorithm, configuration-driven per
// spec.md §4.8.
type MatchMode int

const (
	MatchFuzzy MatchMode = iota
	MatchExact
)

// FilterOptions configures Recompute's algorithm.
type FilterOptions struct {
	Mode          MatchMode
	CaseSensitive bool
}

// haystack builds the composite search string for one row: name +
// username + each URI, space-joined, NFC-normalized, and lower-cased
// unless case-sensitive matching is configured.
func haystack(m *vaultentry.Metadata, opts FilterOptions) string {
	parts := make([]string, 0, 2+len(m.URIs))
	parts = append(parts, m.Name, m.Username)
	parts = append(parts, m.URIs...)
	s := norm.NFC.String(strings.Join(parts, " "))
	if !opts.CaseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

// SetTab switches the visible entry-kind subset and resets selection to 0.
func (s *State) SetTab(tab Tab, opts FilterOptions) {
	s.Tab = tab
	s.Recompute(opts)
	s.Selected = 0
	s.Viewport = 0
}

// SetFilter replaces the active filter string and recomputes the
// filtered list. The filter is applied incrementally — no debounce —
// per spec.md §4.7.
func (s *State) SetFilter(filter string, opts FilterOptions) {
	s.Filter = filter
	s.Recompute(opts)
	if s.Selected >= len(s.Filtered) {
		s.Selected = 0
	}
	s.Viewport = 0
}

// SetRows replaces the unfiltered metadata vector (the single
// assignment spec.md §4.9 requires for an atomic swap) and recomputes
// the filtered list, preserving the current selection's id if still present.
func (s *State) SetRows(rows []vaultentry.Metadata, opts FilterOptions) {
	prevID := s.SelectedID()
	s.Rows = rows
	s.Recompute(opts)
	s.reselectByID(prevID)
}

func (s *State) reselectByID(id string) {
	if id == "" {
		return
	}
	for i, idx := range s.Filtered {
		if s.Rows[idx].ID == id {
			s.Selected = i
			return
		}
	}
	s.Selected = 0
}

// Recompute rebuilds Filtered from Rows, Tab, and Filter. An empty
// query returns every entry in the current tab, preserving source
// order (property P5's second clause); applying the same non-empty
// query twice yields the same result (property P5's first clause,
// since Recompute is a pure function of Rows/Tab/Filter).
func (s *State) Recompute(opts FilterOptions) {
	wantKind, restrict := s.Tab.kind()

	var candidates []int
	for i := range s.Rows {
		if restrict && s.Rows[i].Kind != wantKind {
			continue
		}
		candidates = append(candidates, i)
	}

	query := strings.TrimSpace(s.Filter)
	if query == "" {
		s.Filtered = candidates
		return
	}

	switch opts.Mode {
	case MatchExact:
		s.Filtered = filterExact(s.Rows, candidates, query, opts)
	default:
		s.Filtered = filterFuzzy(s.Rows, candidates, query, opts)
	}
}

func filterExact(rows []vaultentry.Metadata, candidates []int, query string, opts FilterOptions) []int {
	q := norm.NFC.String(query)
	if !opts.CaseSensitive {
		q = strings.ToLower(q)
	}

	out := make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if strings.Contains(haystack(&rows[idx], opts), q) {
			out = append(out, idx)
		}
	}
	return out
}

// filterFuzzy implements skim-style subsequence matching with
// positional scoring via github.com/sahilm/fuzzy, preserving the
// original source order within the tab (spec.md §4.8 requires source
// order, not score order).
func filterFuzzy(rows []vaultentry.Metadata, candidates []int, query string, opts FilterOptions) []int {
	haystacks := make([]string, len(candidates))
	for i, idx := range candidates {
		haystacks[i] = haystack(&rows[idx], opts)
	}

	q := norm.NFC.String(query)
	if !opts.CaseSensitive {
		q = strings.ToLower(q)
	}

	matches := fuzzy.Find(q, haystacks)
	matchedLocal := make(map[int]bool, len(matches))
	for _, m := range matches {
		matchedLocal[m.Index] = true
	}

	out := make([]int, 0, len(matches))
	for i, idx := range candidates {
		if matchedLocal[i] {
			out = append(out, idx)
		}
	}
	return out
}
