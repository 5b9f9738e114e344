package services

import (
	"errors"
	"log"
	"time"

	"trade-challenge-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipantService struct {
	DB *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{DB: db}
}

// JoinChallenge enrolls a user. MT5 credentials are optional at join
// time; without them the participant starts in pending_setup and stays
// out of automated sync until an admin links an account.
func (s *ParticipantService) JoinChallenge(c *fiber.Ctx) error {
	type Req struct {
		ExternalUserID string `json:"external_user_id" validate:"required,uuid"`
		UserName       string `json:"user_name" validate:"required"`
		MT5AccountID   string `json:"mt5_account_id,omitempty"`
		MT5Server      string `json:"mt5_server,omitempty"`
		MT5Password    string `json:"mt5_password,omitempty"`
	}

	challengeID := c.Params("id")
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.ExternalUserID == "" || req.UserName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "external_user_id and user_name are required"})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching challenge"})
	}

	switch ChallengeStatus(&challenge, time.Now().UTC()) {
	case models.StatusCompleted:
		return c.Status(403).JSON(fiber.Map{"error": "challenge has ended"})
	case models.StatusCancelled:
		return c.Status(403).JSON(fiber.Map{"error": "challenge is cancelled"})
	}

	var existing models.Participant
	if err := s.DB.Where("challenge_id = ? AND external_user_id = ?", challengeID, req.ExternalUserID).
		First(&existing).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{
			"error":       "user already joined this challenge",
			"participant": existing,
		})
	}

	if challenge.MaxParticipants > 0 {
		var count int64
		s.DB.Model(&models.Participant{}).
			Where("challenge_id = ?", challengeID).
			Count(&count)
		if int(count) >= challenge.MaxParticipants {
			return c.Status(403).JSON(fiber.Map{"error": "challenge is full"})
		}
	}

	status := models.ParticipantPendingSetup
	if req.MT5AccountID != "" {
		status = models.ParticipantActive
	}

	participant := models.Participant{
		ID:             uuid.NewString(),
		ChallengeID:    challengeID,
		ExternalUserID: req.ExternalUserID,
		UserName:       req.UserName,
		MT5AccountID:   req.MT5AccountID,
		MT5Server:      req.MT5Server,
		MT5Password:    req.MT5Password,
		// The challenge's account size is the baseline profit is measured
		// against for the whole run.
		InitialAccountSize: challenge.AccountSize,
		CurrentBalance:     challenge.AccountSize,
		Status:             status,
		JoinedAt:           time.Now(),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		return tx.Model(&models.Challenge{}).
			Where("id = ?", challengeID).
			Update("current_participants", gorm.Expr("current_participants + 1")).Error
	})
	if err != nil {
		log.Printf("DB Error joining challenge %s: %v", challengeID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to join challenge"})
	}

	return c.Status(201).JSON(&participant)
}

func (s *ParticipantService) GetChallengeParticipants(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	var participants []models.Participant
	if err := s.DB.Where("challenge_id = ?", challengeID).
		Order("joined_at ASC, id ASC").
		Find(&participants).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch participants"})
	}
	return c.JSON(participants)
}

func (s *ParticipantService) GetParticipant(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	participantID := c.Params("participant_id")

	var participant models.Participant
	if err := s.DB.Where("id = ? AND challenge_id = ?", participantID, challengeID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "participant not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(&participant)
}

// UpdateParticipant is the manual admin edit path. It bypasses MT5
// derivation and becomes the source of truth until the next sync
// overwrites it — accepted last-write-wins policy. Profit percent is
// re-derived on every edit, never set directly.
func (s *ParticipantService) UpdateParticipant(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	participantID := c.Params("participant_id")

	var participant models.Participant
	if err := s.DB.Where("id = ? AND challenge_id = ?", participantID, challengeID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "participant not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		UserName       *string                   `json:"user_name"`
		CurrentBalance *float64                  `json:"current_balance"`
		Profit         *float64                  `json:"profit"`
		Status         *models.ParticipantStatus `json:"status"`
		MT5AccountID   *string                   `json:"mt5_account_id"`
		MT5Server      *string                   `json:"mt5_server"`
		MT5Password    *string                   `json:"mt5_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if req.Status != nil {
		switch *req.Status {
		case models.ParticipantPendingSetup, models.ParticipantActive,
			models.ParticipantCompleted, models.ParticipantFailed, models.ParticipantWithdrawn:
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid participant status"})
		}
		participant.Status = *req.Status
	}
	if req.UserName != nil {
		participant.UserName = *req.UserName
	}
	if req.CurrentBalance != nil {
		participant.CurrentBalance = *req.CurrentBalance
	}
	if req.Profit != nil {
		participant.Profit = *req.Profit
	}
	if req.MT5AccountID != nil {
		participant.MT5AccountID = *req.MT5AccountID
		// Linking an account for the first time lifts the participant out
		// of pending_setup.
		if *req.MT5AccountID != "" && participant.Status == models.ParticipantPendingSetup {
			participant.Status = models.ParticipantActive
		}
	}
	if req.MT5Server != nil {
		participant.MT5Server = *req.MT5Server
	}
	if req.MT5Password != nil {
		participant.MT5Password = *req.MT5Password
	}

	participant.RecomputeProfitPercent()

	if err := s.DB.Save(&participant).Error; err != nil {
		log.Printf("DB Error updating participant %s: %v", participantID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update participant"})
	}
	return c.JSON(&participant)
}

// WithdrawParticipant marks an enrollment withdrawn. The row stays in
// the store for history but drops off the leaderboard.
func (s *ParticipantService) WithdrawParticipant(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	participantID := c.Params("participant_id")

	result := s.DB.Model(&models.Participant{}).
		Where("id = ? AND challenge_id = ?", participantID, challengeID).
		Update("status", models.ParticipantWithdrawn)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "participant not found"})
	}
	return c.JSON(fiber.Map{"message": "participant withdrawn"})
}
