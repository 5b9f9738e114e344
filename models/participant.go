package models

import (
	"time"
)

type ParticipantStatus string

const (
	ParticipantPendingSetup ParticipantStatus = "pending_setup"
	ParticipantActive       ParticipantStatus = "active"
	ParticipantCompleted    ParticipantStatus = "completed"
	ParticipantFailed       ParticipantStatus = "failed"
	ParticipantWithdrawn    ParticipantStatus = "withdrawn"
)

// Participant is a user's enrollment in one challenge, linked to exactly
// one MT5 account. Credentials are owned by the enrollment and are never
// shared across challenges, even for the same user.
type Participant struct {
	ID             string `json:"id" gorm:"primaryKey"`
	ChallengeID    string `json:"challenge_id" gorm:"not null;index"`
	ExternalUserID string `json:"external_user_id" gorm:"not null;index"`
	UserName       string `json:"user_name"` // denormalized at join time

	MT5AccountID string `json:"mt5_account_id" gorm:"column:mt5_account_id"`
	MT5Server    string `json:"mt5_server" gorm:"column:mt5_server"`
	MT5Password  string `json:"-" gorm:"column:mt5_password"`

	// AccountSize of the challenge, frozen at enrollment. Profit is always
	// measured against this baseline, not against the last balance.
	InitialAccountSize float64 `json:"initial_account_size"`

	CurrentBalance float64 `json:"current_balance"`
	Profit         float64 `json:"profit"`
	ProfitPercent  float64 `json:"profit_percent"`

	Status ParticipantStatus `json:"status" gorm:"default:'pending_setup'"`

	JoinedAt  time.Time `json:"joined_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RecomputeProfitPercent re-derives ProfitPercent from Profit and
// CurrentBalance. Every write path must call this; the percent is never
// an independent source of truth.
func (p *Participant) RecomputeProfitPercent() {
	if p.CurrentBalance > 0 {
		p.ProfitPercent = p.Profit / p.CurrentBalance * 100
	} else {
		p.ProfitPercent = 0
	}
}

// MT5Snapshot is a point-in-time read of a broker account, as returned
// by the MT5 bridge service.
type MT5Snapshot struct {
	AccountID   string  `json:"account_id"`
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Margin      float64 `json:"margin"`
	FreeMargin  float64 `json:"free_margin"`
	MarginLevel float64 `json:"margin_level"`
}
