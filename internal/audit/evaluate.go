// Package audit implements the marketing audit pipeline: rule evaluation of a
// scraped page snapshot against a weighted checklist, score aggregation, and
// derivation of quick wins and recommendations. Every function here is a pure
// mapping from input to output; the package holds no state between calls and
// is safe to invoke concurrently.
package audit

import (
	"github.com/farolabs/faro/internal/checklist"
	"github.com/farolabs/faro/internal/snapshot"
)

// Evaluate runs every known detector against the snapshot and returns a new
// checklist with statuses and notes filled in for the auto-detectable items.
// The input categories are never mutated. Items that are not auto-detectable,
// or whose id has no registered detector, keep their current status.
//
// Evaluate is total: malformed input (empty markup, unparseable URL) degrades
// the affected items to pending or missing with an explanatory note instead
// of returning an error.
func Evaluate(snap *snapshot.Snapshot, categories []checklist.Category) []checklist.Category {
	out := checklist.CloneCategories(categories)
	if snap == nil {
		return out
	}

	p := newPage(snap)

	for ci := range out {
		items := out[ci].Items
		for ii := range items {
			if !items[ii].AutoDetectable {
				continue
			}
			detect, ok := detectors[items[ii].ID]
			if !ok {
				// Unknown item id: fail closed, leave it untouched.
				continue
			}
			status, note := detect(p)
			items[ii].Status = status
			items[ii].Note = note
		}
	}

	return out
}
