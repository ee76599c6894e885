package audit

import (
	"math"

	"github.com/farolabs/faro/internal/checklist"
)

// statusPoints maps an item status to its score fraction.
var statusPoints = map[checklist.Status]float64{
	checklist.StatusCorrect:    1.0,
	checklist.StatusImprovable: 0.5,
	checklist.StatusPending:    0.25,
	checklist.StatusMissing:    0.0,
}

// CategoryScore computes the 0-100 score of a category from its item
// statuses and weights. A category with no items or zero total weight scores
// 0. Rounding is math.Round (half away from zero) so identical inputs always
// produce the same integer.
func CategoryScore(items []checklist.Item) int {
	var earned, total float64
	for _, it := range items {
		if it.Weight <= 0 {
			continue
		}
		w := float64(it.Weight)
		earned += statusPoints[it.Status] * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * earned / total))
}

// GlobalScore computes the weighted mean of category scores using each
// category's weight. It normalizes by the actual weight sum rather than
// assuming the catalog sums to 100, so partial checklists stay correct.
// Always recomputed from the full list, never partially updated.
func GlobalScore(categories []checklist.Category) int {
	var earned, total float64
	for _, c := range categories {
		if c.Weight <= 0 {
			continue
		}
		w := float64(c.Weight)
		earned += float64(c.Score) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(earned / total))
}

// ScoreCategories fills in the Score field of every category and returns the
// global score. The input slice is modified in place (it is assumed to be the
// evaluator's private copy).
func ScoreCategories(categories []checklist.Category) int {
	for i := range categories {
		categories[i].Score = CategoryScore(categories[i].Items)
	}
	return GlobalScore(categories)
}
