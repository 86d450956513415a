package history

import (
	"sort"
	"strings"
)

type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByScore SortBy = "score"
)

// Query filters and orders the history listing.
type Query struct {
	// Search matches file names case-insensitively.
	Search string
	SortBy SortBy
}

// Query returns matching entries sorted newest first, or by descending fit
// score when q.SortBy is SortByScore.
func (c *Cache) Query(q Query) []*Entry {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	matched := make([]*Entry, 0)
	for _, entry := range c.List() {
		if needle != "" && !strings.Contains(strings.ToLower(entry.FileName), needle) {
			continue
		}
		matched = append(matched, entry)
	}

	switch q.SortBy {
	case SortByScore:
		sort.SliceStable(matched, func(i, j int) bool {
			return score(matched[i]) > score(matched[j])
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Date.After(matched[j].Date)
		})
	}

	return matched
}

func score(entry *Entry) float64 {
	if entry.Evaluation == nil {
		return 0
	}
	return entry.Evaluation.FitScore
}
