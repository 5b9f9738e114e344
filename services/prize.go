package services

import (
	"fmt"

	"trade-challenge-system/models"
)

// NormalizePrizes validates and canonicalizes admin-entered prize rows
// before they are persisted on a challenge. Entries with amount <= 0 are
// dropped, missing descriptions are synthesized, and the admin's display
// order is preserved — rows are never re-sorted by rank.
//
// A malformed entry (bulk range with rank_start > rank_end, or any rank
// below 1) rejects the whole list with a ValidationError carrying the
// offending index; ranges are never silently clamped.
func NormalizePrizes(entries []models.PrizeEntry) ([]models.PrizeEntry, error) {
	for i, e := range entries {
		if e.IsBulk {
			if e.RankStart < 1 || e.RankEnd < 1 {
				return nil, &ValidationError{Field: "prizes", Index: i, Reason: "bulk ranks must be >= 1"}
			}
			if e.RankStart > e.RankEnd {
				return nil, &ValidationError{Field: "prizes", Index: i, Reason: "rank_start must not exceed rank_end"}
			}
		} else if e.Rank < 1 {
			return nil, &ValidationError{Field: "prizes", Index: i, Reason: "rank must be >= 1"}
		}
	}

	normalized := make([]models.PrizeEntry, 0, len(entries))
	for _, e := range entries {
		if e.Amount <= 0 {
			continue
		}
		if e.Prize == "" {
			if e.IsBulk {
				e.Prize = fmt.Sprintf("Ranks %d-%d Prize", e.RankStart, e.RankEnd)
			} else {
				e.Prize = fmt.Sprintf("Rank %d Prize", e.Rank)
			}
		}
		normalized = append(normalized, e)
	}
	return normalized, nil
}

// PrizeForRank returns the prize entry covering a final rank, if any.
// Used at distribution time once a challenge completes.
func PrizeForRank(entries []models.PrizeEntry, rank int) (models.PrizeEntry, bool) {
	for _, e := range entries {
		if e.IsBulk {
			if rank >= e.RankStart && rank <= e.RankEnd {
				return e, true
			}
		} else if e.Rank == rank {
			return e, true
		}
	}
	return models.PrizeEntry{}, false
}
