package audit

import (
	"time"

	"github.com/farolabs/faro/internal/checklist"
	"github.com/farolabs/faro/internal/snapshot"
)

// Report is the complete output of one audit run. It is a fresh value each
// time: the pipeline never retains state between runs, so the caller owns
// the report's lifecycle and storage.
type Report struct {
	URL             string               `json:"url"`
	Categories      []checklist.Category `json:"categories"`
	GlobalScore     int                  `json:"global_score"`
	QuickWins       []QuickWin           `json:"quick_wins"`
	Recommendations []Recommendation     `json:"recommendations"`
	SnapshotHash    string               `json:"snapshot_hash"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// Run executes the full pipeline — evaluate, score, recommend — over a
// snapshot and checklist. Passing nil categories uses the default catalog.
// Given identical inputs the output is identical except for GeneratedAt.
func Run(snap *snapshot.Snapshot, categories []checklist.Category, cfg QuickWinConfig) *Report {
	if categories == nil {
		categories = checklist.Default()
	}

	scored := Evaluate(snap, categories)
	global := ScoreCategories(scored)

	rep := &Report{
		Categories:      scored,
		GlobalScore:     global,
		QuickWins:       QuickWins(scored, cfg),
		Recommendations: Recommendations(scored),
		GeneratedAt:     time.Now().UTC(),
	}
	if snap != nil {
		rep.URL = snap.URL
		rep.SnapshotHash = snap.Hash()
	}
	return rep
}
