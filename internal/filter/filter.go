package filter

import (
	"sort"
	"strings"

	"trading-journal-go/internal/models"
)

// Criteria narrows the journal list. Empty fields match everything.
type Criteria struct {
	Search string        `json:"search"`
	Pair   string        `json:"pair"`
	Result models.Result `json:"result"`
}

// IsZero reports whether no filter is set.
func (c Criteria) IsZero() bool {
	return c.Search == "" && c.Pair == "" && c.Result == ""
}

// Match reports whether a single trade passes all criteria.
func (c Criteria) Match(t models.Trade) bool {
	if c.Search != "" {
		term := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(t.Pair), term) && !strings.Contains(strings.ToLower(t.Notes), term) {
			return false
		}
	}
	if c.Pair != "" && t.Pair != c.Pair {
		return false
	}
	if c.Result != "" && t.Result != c.Result {
		return false
	}
	return true
}

// Apply returns the trades matching c in their original order. The input is not modified.
func Apply(trades []models.Trade, c Criteria) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// UniquePairs returns the distinct pairs, sorted.
func UniquePairs(trades []models.Trade) []string {
	seen := make(map[string]struct{}, len(trades))
	pairs := make([]string, 0)
	for _, t := range trades {
		if _, ok := seen[t.Pair]; ok {
			continue
		}
		seen[t.Pair] = struct{}{}
		pairs = append(pairs, t.Pair)
	}
	sort.Strings(pairs)
	return pairs
}
