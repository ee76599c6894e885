package audit

import (
	"strings"
	"testing"

	"github.com/farolabs/faro/internal/checklist"
)

func failingCatalog() []checklist.Category {
	return []checklist.Category{
		{
			ID: "seo", Name: "SEO", Weight: 20,
			Items: []checklist.Item{
				{ID: "big-miss", Label: "Fallo grande", Description: "arreglar lo grande", Weight: 9, Status: checklist.StatusMissing},
				{ID: "small-miss", Label: "Fallo pequeño", Description: "arreglar lo pequeño", Weight: 2, Status: checklist.StatusMissing},
				{ID: "fine", Label: "Bien", Weight: 5, Status: checklist.StatusCorrect},
				{ID: "manual", Label: "Manual", Weight: 5, Status: checklist.StatusPending},
			},
		},
		{
			ID: "legal", Name: "Legal", Weight: 10,
			Items: []checklist.Item{
				{ID: "improvable-item", Label: "Mejorable", Description: "pulir", Weight: 6, Status: checklist.StatusImprovable},
			},
		},
	}
}

func TestQuickWinsSelectsOnlyFailingItems(t *testing.T) {
	wins := QuickWins(failingCatalog(), DefaultQuickWinConfig())

	ids := map[string]bool{}
	for _, w := range wins {
		ids[w.ItemID] = true
	}
	for _, want := range []string{"big-miss", "small-miss", "improvable-item"} {
		if !ids[want] {
			t.Errorf("expected %s among quick wins", want)
		}
	}
	if ids["fine"] || ids["manual"] {
		t.Error("correct and pending items must not appear as quick wins")
	}
}

func TestQuickWinsImpactAndOrdering(t *testing.T) {
	wins := QuickWins(failingCatalog(), DefaultQuickWinConfig())
	if len(wins) != 3 {
		t.Fatalf("got %d wins, want 3", len(wins))
	}

	// big-miss: 9*20/20 = 9, improvable-item: 6*10/20 = 3, small-miss: 2*20/20 = 2
	if wins[0].ItemID != "big-miss" || wins[0].Impact != 9 {
		t.Errorf("wins[0] = %s impact %d, want big-miss impact 9", wins[0].ItemID, wins[0].Impact)
	}
	if wins[1].ItemID != "improvable-item" || wins[1].Impact != 3 {
		t.Errorf("wins[1] = %s impact %d, want improvable-item impact 3", wins[1].ItemID, wins[1].Impact)
	}
	if wins[2].ItemID != "small-miss" || wins[2].Impact != 2 {
		t.Errorf("wins[2] = %s impact %d, want small-miss impact 2", wins[2].ItemID, wins[2].Impact)
	}
}

func TestQuickWinsEffortTiers(t *testing.T) {
	wins := QuickWins(failingCatalog(), DefaultQuickWinConfig())

	effort := map[string]string{}
	for _, w := range wins {
		effort[w.ItemID] = w.Effort
	}
	// impact 9 > 7 -> low, 3 <= 4 -> high, 2 -> high
	if effort["big-miss"] != "low" {
		t.Errorf("big-miss effort = %q, want low", effort["big-miss"])
	}
	if effort["improvable-item"] != "high" {
		t.Errorf("improvable-item effort = %q, want high", effort["improvable-item"])
	}

	// A mid-weight item lands in the medium tier: 6*20/20 = 6 > 4.
	cats := []checklist.Category{{
		ID: "seo", Name: "SEO", Weight: 20,
		Items: []checklist.Item{{ID: "mid", Label: "Medio", Weight: 6, Status: checklist.StatusMissing}},
	}}
	mid := QuickWins(cats, DefaultQuickWinConfig())
	if len(mid) != 1 || mid[0].Effort != "medium" {
		t.Fatalf("mid item effort = %+v, want medium", mid)
	}
}

func TestQuickWinsDescriptionCarriesCategoryName(t *testing.T) {
	wins := QuickWins(failingCatalog(), DefaultQuickWinConfig())
	for _, w := range wins {
		if !strings.HasPrefix(w.Description, "[SEO] ") && !strings.HasPrefix(w.Description, "[Legal] ") {
			t.Errorf("description %q lacks the category prefix", w.Description)
		}
	}
}

func TestQuickWinsPrefersNoteOverDescription(t *testing.T) {
	cats := []checklist.Category{{
		ID: "seo", Name: "SEO", Weight: 20,
		Items: []checklist.Item{{
			ID: "noted", Label: "Con nota", Description: "genérica",
			Note: "2 de 7 imágenes con alt", Weight: 5, Status: checklist.StatusMissing,
		}},
	}}
	wins := QuickWins(cats, DefaultQuickWinConfig())
	if len(wins) != 1 || wins[0].Description != "[SEO] 2 de 7 imágenes con alt" {
		t.Fatalf("description = %q, want the evaluator note", wins[0].Description)
	}
}

func TestQuickWinsCapped(t *testing.T) {
	var items []checklist.Item
	for i := 0; i < 15; i++ {
		items = append(items, checklist.Item{
			ID: string(rune('a' + i)), Label: "x", Weight: i + 1, Status: checklist.StatusMissing,
		})
	}
	cats := []checklist.Category{{ID: "big", Name: "Big", Weight: 20, Items: items}}

	wins := QuickWins(cats, DefaultQuickWinConfig())
	if len(wins) != 10 {
		t.Fatalf("got %d wins, want cap of 10", len(wins))
	}
	// Highest impacts survive the cut.
	if wins[0].ItemID != "o" {
		t.Errorf("wins[0] = %s, want the heaviest item", wins[0].ItemID)
	}
}

func TestQuickWinsStableOrderOnTies(t *testing.T) {
	cats := []checklist.Category{{
		ID: "seo", Name: "SEO", Weight: 20,
		Items: []checklist.Item{
			{ID: "first", Label: "x", Weight: 5, Status: checklist.StatusMissing},
			{ID: "second", Label: "x", Weight: 5, Status: checklist.StatusImprovable},
		},
	}}
	wins := QuickWins(cats, DefaultQuickWinConfig())
	if len(wins) != 2 || wins[0].ItemID != "first" || wins[1].ItemID != "second" {
		t.Fatalf("tied wins reordered: %+v", wins)
	}
}

func TestQuickWinsZeroConfigUsesDefaults(t *testing.T) {
	with := QuickWins(failingCatalog(), DefaultQuickWinConfig())
	without := QuickWins(failingCatalog(), QuickWinConfig{})
	if len(with) != len(without) {
		t.Fatalf("zero config gave %d wins, defaults gave %d", len(without), len(with))
	}
	for i := range with {
		if with[i] != without[i] {
			t.Errorf("win %d differs: %+v vs %+v", i, with[i], without[i])
		}
	}
}

func TestRecommendationsThresholds(t *testing.T) {
	tests := []struct {
		score        int
		wantCount    int
		wantPriority string
		wantPrefix   string
	}{
		{49, 1, "high", "Mejorar "},
		{50, 1, "medium", "Optimizar "},
		{74, 1, "medium", "Optimizar "},
		{75, 0, "", ""},
		{100, 0, "", ""},
		{0, 1, "high", "Mejorar "},
	}
	for _, tt := range tests {
		cats := []checklist.Category{{ID: "seo", Name: "SEO On-Page", Weight: 20, Score: tt.score}}
		recs := Recommendations(cats)
		if len(recs) != tt.wantCount {
			t.Errorf("score %d: got %d recommendations, want %d", tt.score, len(recs), tt.wantCount)
			continue
		}
		if tt.wantCount == 0 {
			continue
		}
		rec := recs[0]
		if rec.Priority != tt.wantPriority {
			t.Errorf("score %d: priority = %q, want %q", tt.score, rec.Priority, tt.wantPriority)
		}
		if !strings.HasPrefix(rec.Title, tt.wantPrefix) || !strings.Contains(rec.Title, "SEO On-Page") {
			t.Errorf("score %d: title = %q", tt.score, rec.Title)
		}
	}
}

func TestRecommendationsTimeframes(t *testing.T) {
	cats := []checklist.Category{
		{ID: "a", Name: "A", Weight: 10, Score: 30},
		{ID: "b", Name: "B", Weight: 10, Score: 60},
	}
	recs := Recommendations(cats)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].Timeframe != "short" || recs[1].Timeframe != "medium" {
		t.Errorf("timeframes = %q, %q; want short, medium", recs[0].Timeframe, recs[1].Timeframe)
	}
	if recs[0].Category != "a" || recs[1].Category != "b" {
		t.Errorf("categories follow catalog order, got %q, %q", recs[0].Category, recs[1].Category)
	}
}
