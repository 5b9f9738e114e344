package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trade-challenge-system/models"
)

type fakeFetcher struct {
	balances map[string]float64
	fail     map[string]bool
	calls    int32
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, accountID string) (models.MT5Snapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail[accountID] {
		return models.MT5Snapshot{}, fmt.Errorf("bridge unavailable for %s", accountID)
	}
	return models.MT5Snapshot{AccountID: accountID, Balance: f.balances[accountID]}, nil
}

func testParticipants(n int) []models.Participant {
	participants := make([]models.Participant, n)
	for i := range participants {
		participants[i] = models.Participant{
			ID:                 fmt.Sprintf("p%d", i+1),
			MT5AccountID:       fmt.Sprintf("acc-%d", i+1),
			InitialAccountSize: 10000,
			Status:             models.ParticipantActive,
		}
	}
	return participants
}

func TestReconcileBatch_PartialFailure(t *testing.T) {
	// Five accounts, #3 fails: the batch continues and reports 4 updated,
	// 1 skipped.
	fetcher := &fakeFetcher{
		balances: map[string]float64{
			"acc-1": 11000, "acc-2": 10500, "acc-3": 9000, "acc-4": 12000, "acc-5": 10000,
		},
		fail: map[string]bool{"acc-3": true},
	}
	s := NewSyncService(nil, fetcher)

	updated, skipped := s.reconcileBatch(context.Background(), testParticipants(5))
	if len(updated) != 4 {
		t.Errorf("updated = %d, want 4", len(updated))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	for _, p := range updated {
		if p.MT5AccountID == "acc-3" {
			t.Error("failed account made it into the updated set")
		}
		if p.Profit != p.CurrentBalance-p.InitialAccountSize {
			t.Errorf("participant %s profit not derived from baseline: %+v", p.ID, p)
		}
	}
}

func TestReconcileBatch_SkipsPendingSetup(t *testing.T) {
	fetcher := &fakeFetcher{balances: map[string]float64{"acc-1": 11000}}
	s := NewSyncService(nil, fetcher)

	participants := []models.Participant{
		{ID: "p1", Status: models.ParticipantPendingSetup, InitialAccountSize: 10000},
		{ID: "p2", MT5AccountID: "acc-1", Status: models.ParticipantActive, InitialAccountSize: 10000},
	}
	updated, skipped := s.reconcileBatch(context.Background(), participants)
	if len(updated) != 1 || updated[0].ID != "p2" {
		t.Fatalf("expected only the linked participant to update, got %+v", updated)
	}
	// pending_setup is excluded, not failed: it doesn't count as skipped
	// and costs no fetch.
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if got := atomic.LoadInt32(&fetcher.calls); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestSyncChallenge_CoalescesConcurrentTriggers(t *testing.T) {
	s := NewSyncService(nil, &fakeFetcher{})

	var cycles int32
	started := make(chan struct{})
	release := make(chan struct{})
	s.run = func(ctx context.Context, challengeID string) (SyncResult, error) {
		atomic.AddInt32(&cycles, 1)
		close(started)
		<-release
		return SyncResult{ChallengeID: challengeID, UpdatedCount: 7}, nil
	}

	var wg sync.WaitGroup
	results := make([]SyncResult, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = s.SyncChallenge(context.Background(), "ch-1")
	}()

	// Second trigger arrives while the first cycle is in flight.
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = s.SyncChallenge(context.Background(), "ch-1")
	}()

	// Give the second caller time to join the in-flight call, then let
	// the cycle finish.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&cycles); got != 1 {
		t.Errorf("cycles run = %d, want 1 (overlapping triggers must coalesce)", got)
	}
	for i, r := range results {
		if r.UpdatedCount != 7 || r.ChallengeID != "ch-1" {
			t.Errorf("caller %d got %+v, want the shared cycle result", i, r)
		}
	}
}

func TestSyncChallenge_RunsAgainAfterCompletion(t *testing.T) {
	s := NewSyncService(nil, &fakeFetcher{})

	var cycles int32
	s.run = func(ctx context.Context, challengeID string) (SyncResult, error) {
		atomic.AddInt32(&cycles, 1)
		return SyncResult{ChallengeID: challengeID}, nil
	}

	if _, err := s.SyncChallenge(context.Background(), "ch-1"); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if _, err := s.SyncChallenge(context.Background(), "ch-1"); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if got := atomic.LoadInt32(&cycles); got != 2 {
		t.Errorf("sequential triggers ran %d cycles, want 2", got)
	}
}
