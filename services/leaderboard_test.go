package services

import (
	"testing"

	"trade-challenge-system/models"
)

func rankedNames(entries []models.LeaderboardEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.UserName
	}
	return names
}

func TestBuildLeaderboard_FiltersStatuses(t *testing.T) {
	participants := []models.Participant{
		{ID: "a", UserName: "active", Status: models.ParticipantActive},
		{ID: "b", UserName: "pending", Status: models.ParticipantPendingSetup},
		{ID: "c", UserName: "completed", Status: models.ParticipantCompleted},
		{ID: "d", UserName: "failed", Status: models.ParticipantFailed},
		{ID: "e", UserName: "withdrawn", Status: models.ParticipantWithdrawn},
	}
	entries := BuildLeaderboard(participants)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ranked entries, got %d: %v", len(entries), rankedNames(entries))
	}
	for _, e := range entries {
		if e.UserName != "active" && e.UserName != "completed" {
			t.Errorf("unexpected participant on board: %s", e.UserName)
		}
	}
}

func TestBuildLeaderboard_Ordering(t *testing.T) {
	participants := []models.Participant{
		{ID: "a", UserName: "third", ProfitPercent: 5, Profit: 500, Status: models.ParticipantActive},
		{ID: "b", UserName: "first", ProfitPercent: 20, Profit: 2000, Status: models.ParticipantActive},
		{ID: "c", UserName: "second", ProfitPercent: 10, Profit: 1000, Status: models.ParticipantActive},
	}
	entries := BuildLeaderboard(participants)

	want := []string{"first", "second", "third"}
	for i, name := range want {
		if entries[i].UserName != name {
			t.Fatalf("position %d = %s, want %s (full order: %v)", i, entries[i].UserName, name, rankedNames(entries))
		}
		if entries[i].Rank != i+1 {
			t.Errorf("rank at position %d = %d, want %d", i, entries[i].Rank, i+1)
		}
	}
	for i := 0; i+1 < len(entries); i++ {
		if entries[i].ProfitPercent < entries[i+1].ProfitPercent {
			t.Errorf("profit percent not descending at %d: %v < %v", i, entries[i].ProfitPercent, entries[i+1].ProfitPercent)
		}
	}
}

func TestBuildLeaderboard_TieBreakByProfit(t *testing.T) {
	// Same percent, different absolute profit (different account sizes).
	participants := []models.Participant{
		{ID: "a", UserName: "small", ProfitPercent: 10, Profit: 1000, Status: models.ParticipantActive},
		{ID: "b", UserName: "big", ProfitPercent: 10, Profit: 5000, Status: models.ParticipantActive},
	}
	entries := BuildLeaderboard(participants)
	if entries[0].UserName != "big" {
		t.Errorf("expected higher absolute profit to win the tie, got %v", rankedNames(entries))
	}
}

func TestBuildLeaderboard_FullTieKeepsInsertionOrder(t *testing.T) {
	// Identical percent and profit: the earlier enrollment wins,
	// deterministically, on every rebuild.
	participants := []models.Participant{
		{ID: "a", UserName: "earlier", ProfitPercent: 10, Profit: 1000, Status: models.ParticipantActive},
		{ID: "b", UserName: "later", ProfitPercent: 10, Profit: 1000, Status: models.ParticipantActive},
	}
	for i := 0; i < 5; i++ {
		entries := BuildLeaderboard(participants)
		if entries[0].UserName != "earlier" || entries[1].UserName != "later" {
			t.Fatalf("rebuild %d broke the stable tie-break: %v", i, rankedNames(entries))
		}
	}
}

func TestBuildLeaderboard_OutputDetachedFromInput(t *testing.T) {
	participants := []models.Participant{
		{ID: "a", UserName: "only", ProfitPercent: 10, Profit: 1000, Status: models.ParticipantActive},
	}
	entries := BuildLeaderboard(participants)
	entries[0].Profit = -1
	entries[0].UserName = "mutated"
	if participants[0].Profit != 1000 || participants[0].UserName != "only" {
		t.Error("mutating a leaderboard entry leaked into the participant record")
	}
}

func TestBuildLeaderboard_Empty(t *testing.T) {
	if entries := BuildLeaderboard(nil); len(entries) != 0 {
		t.Errorf("expected empty board, got %d entries", len(entries))
	}
}
