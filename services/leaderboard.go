package services

import (
	"log"
	"sort"
	"strconv"

	"trade-challenge-system/models"
	"trade-challenge-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BuildLeaderboard ranks a challenge's participants. Only active and
// completed participants are ranked; pending_setup, failed and withdrawn
// stay in the store but never appear on the board.
//
// Order: profit percent desc, then profit desc, then the caller's input
// order (pass participants ordered by joined_at, id). The stable sort
// keeps ties deterministic — prize adjudication depends on it. Ranks are
// positional and recomputed on every build.
func BuildLeaderboard(participants []models.Participant) []models.LeaderboardEntry {
	ranked := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		if p.Status == models.ParticipantActive || p.Status == models.ParticipantCompleted {
			ranked = append(ranked, p)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ProfitPercent != ranked[j].ProfitPercent {
			return ranked[i].ProfitPercent > ranked[j].ProfitPercent
		}
		return ranked[i].Profit > ranked[j].Profit
	})

	entries := make([]models.LeaderboardEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = models.LeaderboardEntry{
			Rank:           i + 1,
			ParticipantID:  p.ID,
			ExternalUserID: p.ExternalUserID,
			UserName:       p.UserName,
			Balance:        p.CurrentBalance,
			Profit:         p.Profit,
			ProfitPercent:  p.ProfitPercent,
			ProfitDisplay:  utils.FormatMoney(p.Profit),
		}
	}
	return entries
}

type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// GetLeaderboard handles GET /leaderboard?challengeId=...&limit=N
func (s *LeaderboardService) GetLeaderboard(c *fiber.Ctx) error {
	challengeID := c.Query("challengeId")
	if challengeID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "challengeId query parameter is required"})
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	if err := s.DB.First(&models.Challenge{}, "id = ?", challengeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching challenge"})
	}

	var participants []models.Participant
	if err := s.DB.Where("challenge_id = ?", challengeID).
		Order("joined_at ASC, id ASC").
		Find(&participants).Error; err != nil {
		log.Printf("ERROR fetching participants for leaderboard %s: %v", challengeID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch participants"})
	}

	entries := BuildLeaderboard(participants)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	s.attachAvatars(entries)

	return c.JSON(fiber.Map{
		"challenge_id": challengeID,
		"entries":      entries,
	})
}

// attachAvatars enriches entries from the local ChallengeUser mirror.
// Best-effort: a missing mirror row just leaves the avatar empty.
func (s *LeaderboardService) attachAvatars(entries []models.LeaderboardEntry) {
	if len(entries) == 0 {
		return
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ExternalUserID)
	}
	var users []models.ChallengeUser
	if err := s.DB.Where("external_user_id IN ?", ids).Find(&users).Error; err != nil {
		log.Printf("WARN: failed to load user mirror rows for leaderboard: %v", err)
		return
	}
	byID := make(map[string]models.ChallengeUser, len(users))
	for _, u := range users {
		byID[u.ExternalUserID] = u
	}
	for i := range entries {
		if u, ok := byID[entries[i].ExternalUserID]; ok {
			entries[i].AvatarURL = u.AvatarURL
			if entries[i].UserName == "" {
				entries[i].UserName = u.Username
			}
		}
	}
}
