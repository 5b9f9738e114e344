// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"trade-challenge-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartSyncScheduler runs the periodic jobs: the MT5 sync sweep and the
// participant completion pass. Both run on the scheduler's goroutine, so
// a reconcile can never race a completion transition for the same row.
func (s *SyncService) StartSyncScheduler(ctx context.Context) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: sweep active challenges.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			results, err := s.SyncAllActive(ctx)
			if err != nil {
				log.Printf("[Scheduler] Sync sweep error: %v", err)
				return
			}
			for _, r := range results {
				if r.SkippedCount > 0 {
					log.Printf("[Scheduler] Challenge %s synced with %d skipped account(s)",
						r.ChallengeID, r.SkippedCount)
				}
			}
		}),
	)

	// Every minute: flip active participants of ended challenges to
	// completed.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.completeEndedChallenges()
		}),
	)
}

func (s *SyncService) completeEndedChallenges() {
	var challenges []models.Challenge
	now := time.Now().UTC()
	err := s.DB.Where("end_at <= ? AND stored_flag <> ?", now, models.FlagCancelled).
		Find(&challenges).Error
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}

	for _, ch := range challenges {
		result := s.DB.Model(&models.Participant{}).
			Where("challenge_id = ? AND status = ?", ch.ID, models.ParticipantActive).
			Update("status", models.ParticipantCompleted)
		if result.Error != nil {
			log.Printf("[Scheduler] Failed to complete participants of challenge %s: %v", ch.ID, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			log.Printf("✅ Completed %d participant(s) in ended challenge: %s", result.RowsAffected, ch.Name)
		}
	}
}
