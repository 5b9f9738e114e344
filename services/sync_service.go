package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"trade-challenge-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SnapshotFetcher pulls a point-in-time account read from the MT5
// bridge. Implemented by workers.MT5Client; faked in tests.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, accountID string) (models.MT5Snapshot, error)
}

// SyncResult reports one challenge's sync cycle. Skipped counts both
// failed fetches and failed row saves — those accounts are picked up
// again on the next scheduled sweep.
type SyncResult struct {
	ChallengeID  string `json:"challenge_id"`
	UpdatedCount int    `json:"updated_count"`
	SkippedCount int    `json:"skipped_count"`
}

type syncCall struct {
	done   chan struct{}
	result SyncResult
	err    error
}

// SyncService runs the fetch → reconcile → rebuild → persist cycle.
// Concurrent triggers for the same challenge coalesce: the second caller
// waits for the in-flight cycle's result instead of starting a duplicate.
type SyncService struct {
	DB      *gorm.DB
	Fetcher SnapshotFetcher

	mu       sync.Mutex
	inflight map[string]*syncCall
	run      func(ctx context.Context, challengeID string) (SyncResult, error)
}

func NewSyncService(db *gorm.DB, fetcher SnapshotFetcher) *SyncService {
	s := &SyncService{
		DB:       db,
		Fetcher:  fetcher,
		inflight: make(map[string]*syncCall),
	}
	s.run = s.runCycle
	return s
}

// SyncChallenge runs (or joins) a sync cycle for one challenge.
func (s *SyncService) SyncChallenge(ctx context.Context, challengeID string) (SyncResult, error) {
	s.mu.Lock()
	if call, ok := s.inflight[challengeID]; ok {
		s.mu.Unlock()
		<-call.done
		return call.result, call.err
	}
	call := &syncCall{done: make(chan struct{})}
	s.inflight[challengeID] = call
	s.mu.Unlock()

	call.result, call.err = s.run(ctx, challengeID)

	s.mu.Lock()
	delete(s.inflight, challengeID)
	s.mu.Unlock()
	close(call.done)

	return call.result, call.err
}

// SyncAllActive sweeps every challenge whose effective status is active.
func (s *SyncService) SyncAllActive(ctx context.Context) ([]SyncResult, error) {
	var challenges []models.Challenge
	if err := s.DB.Find(&challenges).Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var results []SyncResult
	for i := range challenges {
		if ChallengeStatus(&challenges[i], now) != models.StatusActive {
			continue
		}
		result, err := s.SyncChallenge(ctx, challenges[i].ID)
		if err != nil {
			log.Printf("[SYNC] ❌ Cycle failed for challenge %s: %v", challenges[i].ID, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *SyncService) runCycle(ctx context.Context, challengeID string) (SyncResult, error) {
	result := SyncResult{ChallengeID: challengeID}

	if err := s.DB.First(&models.Challenge{}, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, ErrNotFound
		}
		return result, err
	}

	var participants []models.Participant
	if err := s.DB.Where("challenge_id = ?", challengeID).
		Order("joined_at ASC, id ASC").
		Find(&participants).Error; err != nil {
		return result, err
	}

	log.Printf("[SYNC] 📡 Fetching MT5 snapshots for challenge %s (%d participant(s))…",
		challengeID, len(participants))

	updated, skipped := s.reconcileBatch(ctx, participants)
	result.SkippedCount = skipped

	log.Printf("[SYNC] 💾 Persisting %d reconciled participant(s) for challenge %s…",
		len(updated), challengeID)

	// Row-by-row commits: a mid-batch failure leaves earlier rows updated.
	// At-least-once, non-atomic — these are standings, not ledger balances.
	for i := range updated {
		if err := s.DB.Save(&updated[i]).Error; err != nil {
			result.SkippedCount++
			log.Printf("[SYNC] ⚠️ Failed to persist participant %s: %v", updated[i].ID, err)
			continue
		}
		result.UpdatedCount++
	}

	entries := BuildLeaderboard(s.freshParticipants(challengeID, participants))
	log.Printf("[SYNC] ✅ Challenge %s: %d updated, %d skipped, %d ranked",
		challengeID, result.UpdatedCount, result.SkippedCount, len(entries))

	return result, nil
}

// reconcileBatch fetches and merges a snapshot for every syncable
// participant. One account's failure never aborts the batch; it is
// logged, counted and retried on the next cycle.
func (s *SyncService) reconcileBatch(ctx context.Context, participants []models.Participant) (updated []models.Participant, skipped int) {
	for i := range participants {
		p := participants[i]
		if p.Status == models.ParticipantPendingSetup || p.MT5AccountID == "" {
			continue
		}

		snap, err := s.Fetcher.FetchSnapshot(ctx, p.MT5AccountID)
		if err != nil {
			skipped++
			log.Printf("[SYNC] ⚠️ Snapshot fetch failed for account %s (participant %s): %v",
				p.MT5AccountID, p.ID, err)
			continue
		}

		if ReconcileParticipant(&p, snap) {
			updated = append(updated, p)
		}
	}
	return updated, skipped
}

// freshParticipants re-reads the roster for the rebuild step, falling
// back to the in-memory set if the read fails.
func (s *SyncService) freshParticipants(challengeID string, fallback []models.Participant) []models.Participant {
	var participants []models.Participant
	if err := s.DB.Where("challenge_id = ?", challengeID).
		Order("joined_at ASC, id ASC").
		Find(&participants).Error; err != nil {
		log.Printf("[SYNC] ⚠️ Roster re-read failed for challenge %s: %v", challengeID, err)
		return fallback
	}
	return participants
}

// --- HTTP handlers ---

// SyncLeaderboard handles POST /challenges/admin/sync-leaderboard: a
// full sweep over active challenges.
func (s *SyncService) SyncLeaderboard(c *fiber.Ctx) error {
	results, err := s.SyncAllActive(c.Context())
	if err != nil {
		log.Printf("[SYNC] ❌ Sweep failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "sync sweep failed"})
	}
	synced := 0
	for _, r := range results {
		synced += r.UpdatedCount
	}
	return c.JSON(fiber.Map{
		"synced_count": synced,
		"results":      results,
	})
}

// UpdateMT5 handles POST /leaderboard/update-mt5: a manual refresh for
// one challenge.
func (s *SyncService) UpdateMT5(c *fiber.Ctx) error {
	var req struct {
		ChallengeID string `json:"challenge_id" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.ChallengeID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "challenge_id is required"})
	}

	result, err := s.SyncChallenge(c.Context(), req.ChallengeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
		}
		log.Printf("[SYNC] ❌ Manual refresh failed for challenge %s: %v", req.ChallengeID, err)
		return c.Status(500).JSON(fiber.Map{"error": "sync failed"})
	}
	return c.JSON(result)
}
