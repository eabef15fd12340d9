package insight

import (
	"sort"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// NewestFirst returns a copy of history ordered by OccurredAt descending,
// ties broken by ID ascending.
func NewestFirst(history []model.Interaction) []model.Interaction {
	out := append([]model.Interaction(nil), history...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// oldestFirst returns a copy of history ordered by OccurredAt ascending,
// ties broken by ID ascending.
func oldestFirst(history []model.Interaction) []model.Interaction {
	out := append([]model.Interaction(nil), history...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// rankedKeys returns keys ordered by descending count. Keys with equal
// counts keep the order in which they were first seen.
func rankedKeys[K comparable](seen []K, counts map[K]int) []K {
	out := append([]K(nil), seen...)
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	return out
}
