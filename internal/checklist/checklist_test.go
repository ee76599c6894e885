package checklist

import "testing"

func TestDefaultCategoryWeightsSumTo100(t *testing.T) {
	sum := 0
	for _, cat := range Default() {
		sum += cat.Weight
	}
	if sum != 100 {
		t.Errorf("category weights sum to %d, want 100", sum)
	}
}

func TestDefaultItemIDsAreUnique(t *testing.T) {
	seen := map[string]string{}
	for _, cat := range Default() {
		for _, it := range cat.Items {
			if prev, ok := seen[it.ID]; ok {
				t.Errorf("item id %q appears in both %q and %q", it.ID, prev, cat.ID)
			}
			seen[it.ID] = cat.ID
		}
	}
}

func TestDefaultItemsStartPending(t *testing.T) {
	for _, cat := range Default() {
		for _, it := range cat.Items {
			if it.Status != StatusPending {
				t.Errorf("item %s starts as %q, want %q", it.ID, it.Status, StatusPending)
			}
			if it.Weight < 1 || it.Weight > 10 {
				t.Errorf("item %s has weight %d, want 1..10", it.ID, it.Weight)
			}
		}
	}
}

func TestDefaultHasManualItems(t *testing.T) {
	auto, manual := 0, 0
	for _, cat := range Default() {
		for _, it := range cat.Items {
			if it.AutoDetectable {
				auto++
			} else {
				manual++
			}
		}
	}
	if auto == 0 || manual == 0 {
		t.Fatalf("catalog should mix auto and manual items, got auto=%d manual=%d", auto, manual)
	}
}

func TestCloneCategoriesIsDeep(t *testing.T) {
	orig := Default()
	clone := CloneCategories(orig)

	clone[0].Items[0].Status = StatusCorrect
	clone[0].Items[0].Note = "changed"
	clone[0].Score = 99

	if orig[0].Items[0].Status == StatusCorrect {
		t.Error("mutating the clone changed the original item status")
	}
	if orig[0].Score == 99 {
		t.Error("mutating the clone changed the original score")
	}
}
