package models

import (
	"time"
)

// ChallengeUser is a local snapshot of user data needed to render
// leaderboards and rosters. Owned solely by this service and populated
// via the sync worker from the Profile Service.
type ChallengeUser struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string    `gorm:"index;not null" json:"username"`
	Email          string    `json:"email,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
