package models

// LeaderboardEntry is a ranked read view over one challenge's
// participants. It has no table: the participant set is the only
// authoritative store and the board is rebuilt on every request, so a
// roster change can never leave stale rank numbers behind.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	ParticipantID  string  `json:"participant_id"`
	ExternalUserID string  `json:"external_user_id"`
	UserName       string  `json:"user_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Balance        float64 `json:"balance"`
	Profit         float64 `json:"profit"`
	ProfitPercent  float64 `json:"profit_percent"`
	ProfitDisplay  string  `json:"profit_display,omitempty"`
}
