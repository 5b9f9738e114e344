package services

import (
	"errors"
	"testing"

	"trade-challenge-system/models"
)

func TestNormalizePrizes_BulkDescription(t *testing.T) {
	input := []models.PrizeEntry{
		{RankStart: 1, RankEnd: 3, Amount: 500, IsBulk: true},
	}
	got, err := NormalizePrizes(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Prize != "Ranks 1-3 Prize" {
		t.Errorf("synthesized description = %q, want %q", got[0].Prize, "Ranks 1-3 Prize")
	}
	if !got[0].IsBulk || got[0].RankStart != 1 || got[0].RankEnd != 3 || got[0].Amount != 500 {
		t.Errorf("entry mutated beyond description: %+v", got[0])
	}
}

func TestNormalizePrizes_SingleDescription(t *testing.T) {
	got, err := NormalizePrizes([]models.PrizeEntry{{Rank: 2, Amount: 100}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Prize != "Rank 2 Prize" {
		t.Errorf("synthesized description = %q, want %q", got[0].Prize, "Rank 2 Prize")
	}
}

func TestNormalizePrizes_DropsNonPositiveAmounts(t *testing.T) {
	input := []models.PrizeEntry{
		{Rank: 1, Prize: "Gold", Amount: 1000},
		{Rank: 2, Prize: "Silver", Amount: 0},
		{Rank: 3, Prize: "Bronze", Amount: -50},
	}
	got, err := NormalizePrizes(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry after filtering, got %d", len(got))
	}
	for _, e := range got {
		if e.Amount <= 0 {
			t.Errorf("entry with amount %v survived filtering", e.Amount)
		}
		if e.Prize == "" {
			t.Errorf("entry with empty description survived: %+v", e)
		}
	}
}

func TestNormalizePrizes_PreservesAdminOrder(t *testing.T) {
	// Admin-controlled display order: a rank-5 entry listed first stays
	// first.
	input := []models.PrizeEntry{
		{Rank: 5, Prize: "Special", Amount: 50},
		{Rank: 1, Prize: "Gold", Amount: 1000},
	}
	got, err := NormalizePrizes(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Rank != 5 || got[1].Rank != 1 {
		t.Errorf("order changed: got ranks %d, %d", got[0].Rank, got[1].Rank)
	}
}

func TestNormalizePrizes_RejectsInvertedRange(t *testing.T) {
	input := []models.PrizeEntry{
		{Rank: 1, Prize: "Gold", Amount: 1000},
		{RankStart: 5, RankEnd: 2, Amount: 100, IsBulk: true},
	}
	_, err := NormalizePrizes(input)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Index != 1 {
		t.Errorf("error names index %d, want 1", verr.Index)
	}
	if verr.Field != "prizes" {
		t.Errorf("error names field %q, want prizes", verr.Field)
	}
}

func TestNormalizePrizes_RejectsBadRanks(t *testing.T) {
	tests := []struct {
		name  string
		entry models.PrizeEntry
	}{
		{"zero single rank", models.PrizeEntry{Rank: 0, Amount: 100}},
		{"negative single rank", models.PrizeEntry{Rank: -1, Amount: 100}},
		{"zero bulk start", models.PrizeEntry{RankStart: 0, RankEnd: 3, Amount: 100, IsBulk: true}},
		{"negative bulk end", models.PrizeEntry{RankStart: 1, RankEnd: -3, Amount: 100, IsBulk: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizePrizes([]models.PrizeEntry{tt.entry})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Index != 0 {
				t.Errorf("error names index %d, want 0", verr.Index)
			}
		})
	}
}

func TestNormalizePrizes_ValidationBeatsFiltering(t *testing.T) {
	// A malformed entry rejects the whole list even if its amount would
	// have filtered it out.
	input := []models.PrizeEntry{
		{RankStart: 5, RankEnd: 2, Amount: 0, IsBulk: true},
	}
	if _, err := NormalizePrizes(input); err == nil {
		t.Error("expected rejection of inverted range regardless of amount")
	}
}

func TestPrizeForRank(t *testing.T) {
	entries := []models.PrizeEntry{
		{Rank: 1, Prize: "Gold", Amount: 1000},
		{RankStart: 2, RankEnd: 5, Prize: "Runner-up", Amount: 200, IsBulk: true},
	}

	if p, ok := PrizeForRank(entries, 1); !ok || p.Prize != "Gold" {
		t.Errorf("rank 1: got (%+v, %t)", p, ok)
	}
	if p, ok := PrizeForRank(entries, 4); !ok || p.Prize != "Runner-up" {
		t.Errorf("rank 4: got (%+v, %t)", p, ok)
	}
	if _, ok := PrizeForRank(entries, 6); ok {
		t.Error("rank 6 should have no prize")
	}
}
