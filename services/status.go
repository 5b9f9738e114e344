package services

import (
	"time"

	"trade-challenge-system/models"
)

// ResolveStatus derives the effective status of a challenge window at a
// given instant. An explicit cancellation always wins; otherwise the
// status follows from where now falls relative to [startAt, endAt], both
// endpoints inclusive. Callers must re-run this on every read — the
// result is never cached or written back.
func ResolveStatus(startAt, endAt time.Time, flag models.StoredFlag, now time.Time) models.EffectiveStatus {
	if flag == models.FlagCancelled {
		return models.StatusCancelled
	}
	if now.Before(startAt) {
		return models.StatusUpcoming
	}
	if !now.After(endAt) {
		return models.StatusActive
	}
	if now.After(endAt) {
		return models.StatusCompleted
	}
	// Unreachable with a well-formed window; fall back to the stored value.
	return models.EffectiveStatus(flag)
}

// ChallengeStatus resolves the effective status for a challenge record.
func ChallengeStatus(c *models.Challenge, now time.Time) models.EffectiveStatus {
	return ResolveStatus(c.StartAt, c.EndAt, c.StoredFlag, now)
}
