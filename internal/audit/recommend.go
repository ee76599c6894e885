package audit

import (
	"fmt"
	"math"
	"sort"

	"github.com/farolabs/faro/internal/checklist"
)

// QuickWin is a high-impact failing item surfaced for prioritized remediation.
type QuickWin struct {
	ItemID     string `json:"item_id"`
	CategoryID string `json:"category_id"`
	Label      string `json:"label"`

	// Impact is the rounded priority weight: itemWeight x categoryWeight
	// scaled by the impact divisor.
	Impact int `json:"impact"`

	// Effort is "low", "medium" or "high". Higher impact maps to lower
	// effort: the biggest weights belong to well-understood fixes.
	Effort string `json:"effort"`

	Description string `json:"description"`
}

// Recommendation is a category-level improvement suggestion.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`  // high | medium | low
	Timeframe   string `json:"timeframe"` // short | medium | long
	Category    string `json:"category"`
}

// QuickWinConfig holds the tuning constants of the quick-win ranking. The
// defaults reproduce the product's established behavior; they are product
// decisions, not derived invariants, so they stay adjustable.
type QuickWinConfig struct {
	// ImpactDivisor normalizes category weight against a notional
	// "20% per category" baseline.
	ImpactDivisor float64

	// LowEffortMin and MediumEffortMin are the exclusive impact thresholds
	// of the effort tiers: impact > LowEffortMin is low effort, impact >
	// MediumEffortMin is medium, anything else is high.
	LowEffortMin    float64
	MediumEffortMin float64

	// MaxQuickWins caps the returned list.
	MaxQuickWins int
}

// DefaultQuickWinConfig returns the standard tuning constants.
func DefaultQuickWinConfig() QuickWinConfig {
	return QuickWinConfig{
		ImpactDivisor:   20,
		LowEffortMin:    7,
		MediumEffortMin: 4,
		MaxQuickWins:    10,
	}
}

// QuickWins collects every missing or improvable item across the scored
// checklist, ranks them by impact descending (ties keep catalog order) and
// returns at most cfg.MaxQuickWins entries.
func QuickWins(categories []checklist.Category, cfg QuickWinConfig) []QuickWin {
	if cfg.ImpactDivisor == 0 {
		cfg = DefaultQuickWinConfig()
	}

	type candidate struct {
		win    QuickWin
		impact float64
	}

	var candidates []candidate
	for _, cat := range categories {
		for _, it := range cat.Items {
			if it.Status != checklist.StatusMissing && it.Status != checklist.StatusImprovable {
				continue
			}

			impact := float64(it.Weight) * float64(cat.Weight) / cfg.ImpactDivisor

			effort := "high"
			switch {
			case impact > cfg.LowEffortMin:
				effort = "low"
			case impact > cfg.MediumEffortMin:
				effort = "medium"
			}

			desc := it.Description
			if it.Note != "" {
				desc = it.Note
			}

			candidates = append(candidates, candidate{
				impact: impact,
				win: QuickWin{
					ItemID:      it.ID,
					CategoryID:  cat.ID,
					Label:       it.Label,
					Impact:      int(math.Round(impact)),
					Effort:      effort,
					Description: fmt.Sprintf("[%s] %s", cat.Name, desc),
				},
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].impact > candidates[j].impact
	})

	if cfg.MaxQuickWins > 0 && len(candidates) > cfg.MaxQuickWins {
		candidates = candidates[:cfg.MaxQuickWins]
	}

	wins := make([]QuickWin, len(candidates))
	for i, c := range candidates {
		wins[i] = c.win
	}
	return wins
}

// Recommendation thresholds: categories under 50 need structural work,
// categories under 75 need optimization, anything above is left alone.
const (
	recommendHighBelow   = 50
	recommendMediumBelow = 75
)

// Recommendations derives category-level advice from the scored checklist.
// Order follows the catalog order of the categories.
func Recommendations(categories []checklist.Category) []Recommendation {
	var recs []Recommendation
	for _, cat := range categories {
		switch {
		case cat.Score < recommendHighBelow:
			recs = append(recs, Recommendation{
				Title:       fmt.Sprintf("Mejorar %s", cat.Name),
				Description: fmt.Sprintf("La categoría %s puntúa %d/100; conviene abordar sus elementos pendientes cuanto antes.", cat.Name, cat.Score),
				Priority:    "high",
				Timeframe:   "short",
				Category:    cat.ID,
			})
		case cat.Score < recommendMediumBelow:
			recs = append(recs, Recommendation{
				Title:       fmt.Sprintf("Optimizar %s", cat.Name),
				Description: fmt.Sprintf("La categoría %s puntúa %d/100; hay margen de mejora en varios elementos.", cat.Name, cat.Score),
				Priority:    "medium",
				Timeframe:   "medium",
				Category:    cat.ID,
			})
		}
	}
	return recs
}
