package models

import (
	"time"
)

type ChallengeType string

const (
	ChallengeTypeForex   ChallengeType = "forex"
	ChallengeTypeCrypto  ChallengeType = "crypto"
	ChallengeTypeIndices ChallengeType = "indices"
	ChallengeTypeOther   ChallengeType = "other"
)

type ChallengeMode string

const (
	ChallengeModeTarget ChallengeMode = "target"
	ChallengeModeRank   ChallengeMode = "rank"
)

// StoredFlag is the admin-settable status stored on the challenge row.
// Only FlagCancelled ever changes what users see; every other value is
// superseded by the derived EffectiveStatus.
type StoredFlag string

const (
	FlagDraft     StoredFlag = "draft"
	FlagCancelled StoredFlag = "cancelled"
)

// EffectiveStatus is derived from the challenge window and the stored
// flag on every read. It is never written to the database.
type EffectiveStatus string

const (
	StatusUpcoming  EffectiveStatus = "upcoming"
	StatusActive    EffectiveStatus = "active"
	StatusCompleted EffectiveStatus = "completed"
	StatusCancelled EffectiveStatus = "cancelled"
)

// PrizeEntry is a single prize row on a challenge. A bulk entry covers a
// contiguous rank range (IsBulk=true, RankStart..RankEnd); otherwise Rank
// identifies the one position it pays out.
type PrizeEntry struct {
	Rank      int     `json:"rank,omitempty"`
	RankStart int     `json:"rank_start,omitempty"`
	RankEnd   int     `json:"rank_end,omitempty"`
	Prize     string  `json:"prize"`
	Amount    float64 `json:"amount"`
	IsBulk    bool    `json:"is_bulk"`
}

// Challenge represents a time-boxed trading competition.
type Challenge struct {
	ID        string        `json:"id" gorm:"primaryKey"`
	Slug      string        `json:"slug" gorm:"index"`
	Name      string        `json:"name" gorm:"not null"`
	Type      ChallengeType `json:"type" gorm:"default:'forex'"`
	OtherType string        `json:"other_type,omitempty"`

	AccountSize float64 `json:"account_size" gorm:"not null"`
	Price       float64 `json:"price" gorm:"default:0"` // 0 = free entry

	// Both endpoints are mandatory; open-ended challenges are not supported.
	StartAt time.Time `json:"start_at" gorm:"not null"`
	EndAt   time.Time `json:"end_at" gorm:"not null"`

	MaxParticipants     int `json:"max_participants" gorm:"default:0"`
	CurrentParticipants int `json:"current_participants" gorm:"default:0"`

	Mode ChallengeMode `json:"mode" gorm:"default:'rank'"`
	// Requirements, only meaningful in target mode.
	TargetProfitPercent float64 `json:"target_profit_percent,omitempty"`
	MaxDrawdownPercent  float64 `json:"max_drawdown_percent,omitempty"`

	Prizes []PrizeEntry `json:"prizes" gorm:"serializer:json"`
	Rules  []string     `json:"rules" gorm:"serializer:json"`

	StoredFlag StoredFlag `json:"stored_flag" gorm:"column:stored_flag;default:'draft'"`

	BannerURL string `json:"banner_url,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Calculated fields (not stored in DB)
	Status           EffectiveStatus `json:"status,omitempty" gorm:"-"`
	ParticipantCount int64           `json:"participant_count,omitempty" gorm:"-"`
	AvailableSlots   int64           `json:"available_slots,omitempty" gorm:"-"`
}
