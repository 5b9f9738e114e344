package handlers

import (
	"trade-challenge-system/middleware"
	"trade-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(
	app *fiber.App,
	challengeService *services.ChallengeService,
	participantService *services.ParticipantService,
	leaderboardService *services.LeaderboardService,
	syncService *services.SyncService,
) {
	// 🔓 Public reads (gateway-authenticated, no user context required)
	app.Get("/challenges", challengeService.GetAllChallenges)
	app.Get("/challenges/:id", challengeService.GetChallengeByID)
	app.Get("/leaderboard", leaderboardService.GetLeaderboard)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Enrollment
	secured.Post("/challenges/:id/join", participantService.JoinChallenge)
	secured.Get("/challenges/:id/participants", participantService.GetChallengeParticipants)
	secured.Get("/challenges/:id/participants/:participant_id", participantService.GetParticipant)
	secured.Post("/challenges/:id/participants/:participant_id/withdraw", participantService.WithdrawParticipant)

	// 🔒 Admin-only routes
	admin := secured.Group("/", middleware.AdminOnlyMiddleware())

	// Challenge CRUD
	admin.Post("/challenges", challengeService.CreateChallenge)
	admin.Put("/challenges/:id", challengeService.UpdateChallenge)
	admin.Delete("/challenges/:id", challengeService.DeleteChallenge)
	admin.Patch("/challenges/:id/status", challengeService.UpdateChallengeFlag)
	admin.Post("/challenges/:id/banner", challengeService.UploadBanner)

	// Manual participant edits (bypass MT5 derivation, last write wins)
	admin.Put("/challenges/:id/participants/:participant_id", participantService.UpdateParticipant)

	// Sync triggers
	admin.Post("/challenges/admin/sync-leaderboard", syncService.SyncLeaderboard)
	admin.Post("/leaderboard/update-mt5", syncService.UpdateMT5)
}
