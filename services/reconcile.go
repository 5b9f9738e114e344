package services

import (
	"trade-challenge-system/models"
)

// ReconcileParticipant merges a fresh broker snapshot into a participant
// record. Profit is measured against the account size frozen at
// enrollment, not against the previous balance. Returns false (and
// leaves the record untouched) when no MT5 account is linked yet — such
// participants are excluded from automated sync and must be edited
// manually by an admin.
//
// Status is deliberately not touched here: completion/failure
// transitions are driven separately by the scheduler.
func ReconcileParticipant(p *models.Participant, snap models.MT5Snapshot) bool {
	if p.Status == models.ParticipantPendingSetup || p.MT5AccountID == "" {
		return false
	}
	p.CurrentBalance = snap.Balance
	p.Profit = snap.Balance - p.InitialAccountSize
	p.RecomputeProfitPercent()
	return true
}
