package services

import (
	"errors"
	"log"
	"path/filepath"
	"time"

	"trade-challenge-system/models"
	"trade-challenge-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

type challengeRequest struct {
	Name                string               `json:"name"`
	Type                models.ChallengeType `json:"type"`
	OtherType           string               `json:"other_type"`
	AccountSize         float64              `json:"account_size"`
	Price               float64              `json:"price"`
	StartAt             string               `json:"start_at"` // RFC3339
	EndAt               string               `json:"end_at"`   // RFC3339
	MaxParticipants     int                  `json:"max_participants"`
	Mode                models.ChallengeMode `json:"mode"`
	TargetProfitPercent float64              `json:"target_profit_percent"`
	MaxDrawdownPercent  float64              `json:"max_drawdown_percent"`
	Prizes              []models.PrizeEntry  `json:"prizes"`
	Rules               []string             `json:"rules"`
}

// parseWindow validates the challenge window. Both endpoints are
// mandatory and compared as UTC instants; start == end is a legal
// (instantaneous) window.
func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_at/end_at", Index: -1, Reason: "both dates are required"}
	}
	startAt, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_at", Index: -1, Reason: "must be RFC3339"}
	}
	endAt, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_at", Index: -1, Reason: "must be RFC3339"}
	}
	if endAt.Before(startAt) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_at", Index: -1, Reason: "must not be before start_at"}
	}
	return startAt.UTC(), endAt.UTC(), nil
}

func (s *ChallengeService) CreateChallenge(c *fiber.Ctx) error {
	var req challengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	if req.AccountSize <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "account_size must be > 0"})
	}
	if req.Price < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "price must be >= 0"})
	}

	startAt, endAt, err := parseWindow(req.StartAt, req.EndAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	prizes, err := NormalizePrizes(req.Prizes)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	mode := req.Mode
	if mode == "" {
		mode = models.ChallengeModeRank
	}
	if mode != models.ChallengeModeTarget && mode != models.ChallengeModeRank {
		return c.Status(400).JSON(fiber.Map{"error": "mode must be 'target' or 'rank'"})
	}

	challengeType := req.Type
	if challengeType == "" {
		challengeType = models.ChallengeTypeForex
	}
	if challengeType != models.ChallengeTypeOther {
		req.OtherType = ""
	}

	challenge := &models.Challenge{
		ID:              uuid.NewString(),
		Slug:            slug.Make(req.Name),
		Name:            req.Name,
		Type:            challengeType,
		OtherType:       req.OtherType,
		AccountSize:     req.AccountSize,
		Price:           req.Price,
		StartAt:         startAt,
		EndAt:           endAt,
		MaxParticipants: req.MaxParticipants,
		Mode:            mode,
		Prizes:          prizes,
		Rules:           req.Rules,
		StoredFlag:      models.FlagDraft,
	}
	if mode == models.ChallengeModeTarget {
		challenge.TargetProfitPercent = req.TargetProfitPercent
		challenge.MaxDrawdownPercent = req.MaxDrawdownPercent
	}

	if err := s.DB.Create(challenge).Error; err != nil {
		log.Printf("DB Error creating challenge: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create challenge"})
	}

	challenge.Status = ChallengeStatus(challenge, time.Now().UTC())
	return c.Status(201).JSON(challenge)
}

// GetAllChallenges returns all challenges with their effective status
// computed per row. An optional ?status= filter matches the derived
// status, never the stored flag.
func (s *ChallengeService) GetAllChallenges(c *fiber.Ctx) error {
	var challenges []models.Challenge
	if err := s.DB.Order("start_at DESC").Find(&challenges).Error; err != nil {
		log.Printf("ERROR fetching challenges: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch challenges"})
	}

	now := time.Now().UTC()
	statusFilter := models.EffectiveStatus(c.Query("status"))

	out := make([]models.Challenge, 0, len(challenges))
	for i := range challenges {
		challenges[i].Status = ChallengeStatus(&challenges[i], now)
		if statusFilter != "" && challenges[i].Status != statusFilter {
			continue
		}
		out = append(out, challenges[i])
	}
	return c.JSON(out)
}

func (s *ChallengeService) GetChallengeByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
		}
		log.Printf("ERROR fetching challenge %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var count int64
	s.DB.Model(&models.Participant{}).Where("challenge_id = ?", id).Count(&count)

	challenge.Status = ChallengeStatus(&challenge, time.Now().UTC())
	challenge.ParticipantCount = count
	if challenge.MaxParticipants > 0 {
		challenge.AvailableSlots = int64(challenge.MaxParticipants) - count
	} else {
		challenge.AvailableSlots = -1 // unlimited
	}
	return c.JSON(&challenge)
}

func (s *ChallengeService) UpdateChallenge(c *fiber.Ctx) error {
	id := c.Params("id")
	var existing models.Challenge
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var req challengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	startAt, endAt, err := parseWindow(req.StartAt, req.EndAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	// Prize validation happens at the layer that persists the data, same
	// as on create.
	prizes, err := NormalizePrizes(req.Prizes)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	mode := req.Mode
	if mode == "" {
		mode = existing.Mode
	}

	existing.Name = req.Name
	existing.Slug = slug.Make(req.Name)
	if req.Type != "" {
		existing.Type = req.Type
	}
	existing.OtherType = req.OtherType
	if existing.Type != models.ChallengeTypeOther {
		existing.OtherType = ""
	}
	if req.AccountSize > 0 {
		existing.AccountSize = req.AccountSize
	}
	if req.Price >= 0 {
		existing.Price = req.Price
	}
	existing.StartAt = startAt
	existing.EndAt = endAt
	existing.MaxParticipants = req.MaxParticipants
	existing.Mode = mode
	if mode == models.ChallengeModeTarget {
		existing.TargetProfitPercent = req.TargetProfitPercent
		existing.MaxDrawdownPercent = req.MaxDrawdownPercent
	} else {
		existing.TargetProfitPercent = 0
		existing.MaxDrawdownPercent = 0
	}
	existing.Prizes = prizes
	existing.Rules = req.Rules

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating challenge %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update challenge"})
	}

	existing.Status = ChallengeStatus(&existing, time.Now().UTC())
	return c.JSON(&existing)
}

// DeleteChallenge removes a challenge and everything it owns.
func (s *ChallengeService) DeleteChallenge(c *fiber.Ctx) error {
	id := c.Params("id")
	return s.DB.Transaction(func(tx *gorm.DB) error {
		// Participants first to respect the ownership boundary.
		if err := tx.Where("challenge_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Challenge{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(404, "challenge not found")
		}
		return nil
	})
}

// UpdateChallengeFlag sets or clears the stored admin flag. Cancellation
// is the only stored value that changes what users see; setting the flag
// back to draft returns the challenge to fully derived status.
func (s *ChallengeService) UpdateChallengeFlag(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Status models.StoredFlag `json:"status" validate:"oneof=draft cancelled"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Status != models.FlagDraft && req.Status != models.FlagCancelled {
		return c.Status(400).JSON(fiber.Map{"error": "status must be 'draft' or 'cancelled'"})
	}

	result := s.DB.Model(&models.Challenge{}).
		Where("id = ?", id).
		Update("stored_flag", req.Status)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
	}

	var updated models.Challenge
	s.DB.First(&updated, "id = ?", id)
	updated.Status = ChallengeStatus(&updated, time.Now().UTC())
	return c.JSON(&updated)
}

// UploadBanner stores a challenge banner image in R2 and records its
// public URL.
func (s *ChallengeService) UploadBanner(c *fiber.Ctx) error {
	id := c.Params("id")
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	banner, err := c.FormFile("banner")
	if err != nil || banner.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "banner file is required"})
	}
	ext := filepath.Ext(banner.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "challenges/banner/" + uuid.NewString() + ext
	url, err := utils.UploadFileToR2(banner, key)
	if err != nil {
		log.Printf("ERROR uploading banner for challenge %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload banner"})
	}

	if err := s.DB.Model(&challenge).Update("banner_url", url).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save banner URL"})
	}
	return c.JSON(fiber.Map{"banner_url": url})
}
