// routes.go maps the HTTP endpoints 1:1 onto the engine operations.
// Every response carries success plus either the payload or a
// message/reason pair.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/common"
	"nomercy-bot/internal/features/dailylogin"
)

func (s *Server) registerRoutes() {
	app := s.app

	app.Post("/api/daily-login/claim", s.handleClaim)
	app.Get("/api/daily-login/status", s.handleStatus)
	app.Get("/api/daily-login/config", s.handleGetConfig)

	admin := app.Group("/api", s.AdminAuth())
	admin.Put("/daily-login/config/:day", s.handleUpsertConfig)
	admin.Post("/reset-daily-login", s.handleReset)
}

type jidRequest struct {
	JID string `json:"jid"`
}

// handleClaim handles POST /api/daily-login/claim
func (s *Server) handleClaim(c *fiber.Ctx) error {
	var req jidRequest
	if err := c.BodyParser(&req); err != nil || req.JID == "" {
		return badRequest(c, "jid is required")
	}

	result := s.dailyService.Claim(c.Context(), req.JID)
	if !result.Success {
		return c.Status(reasonStatusCode(result.Reason)).JSON(fiber.Map{
			"success": false,
			"reason":  result.Reason,
			"message": reasonMessage(result.Reason),
		})
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"streak":            result.Streak,
		"day":               result.Day,
		"nextDay":           result.NextDay,
		"totalClaims":       result.TotalClaims,
		"rewardDescription": result.RewardDescription,
		"reward":            rewardJSON(result.Reward),
	})
}

// handleStatus handles GET /api/daily-login/status?jid=...
func (s *Server) handleStatus(c *fiber.Ctx) error {
	jid := c.Query("jid")
	if jid == "" {
		return badRequest(c, "jid is required")
	}

	status, err := s.dailyService.GetStatus(c.Context(), jid)
	if err != nil {
		log.WithError(err).WithField("jid", jid).Error("Status request failed")
		return internalError(c)
	}

	rewards := make([]fiber.Map, 0, len(status.Rewards))
	for _, r := range status.Rewards {
		rewards = append(rewards, rewardJSON(r))
	}

	resp := fiber.Map{
		"success":      true,
		"streak":       status.CurrentStreak,
		"nextDay":      status.NextDay,
		"totalClaims":  status.TotalClaims,
		"canClaim":     status.CanClaim,
		"claimedToday": status.ClaimedToday,
		"streakReset":  status.StreakReset,
		"rewards":      rewards,
	}
	if status.LastClaimDate != nil {
		resp["lastClaimDate"] = common.FormatDate(*status.LastClaimDate)
	}
	if !status.CanClaim {
		resp["reason"] = status.Reason
	}
	return c.JSON(resp)
}

// handleGetConfig handles GET /api/daily-login/config
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	rewards, err := s.dailyService.ListRewards(c.Context())
	if err != nil {
		log.WithError(err).Error("Config list failed")
		return internalError(c)
	}

	out := make([]fiber.Map, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, rewardJSON(r))
	}
	return c.JSON(fiber.Map{"success": true, "rewards": out})
}

type configRequest struct {
	RewardType      string `json:"rewardType"`
	RewardAmount    int64  `json:"rewardAmount"`
	PremiumDuration *int   `json:"premiumDuration"`
	IsActive        *bool  `json:"isActive"`
}

// handleUpsertConfig handles PUT /api/daily-login/config/:day (admin)
func (s *Server) handleUpsertConfig(c *fiber.Ctx) error {
	day, err := c.ParamsInt("day")
	if err != nil {
		return badRequest(c, "day must be a number")
	}

	var req configRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	cfg, err := s.dailyService.UpsertRewardConfig(c.Context(), day, dailylogin.RewardUpdate{
		RewardType:      req.RewardType,
		RewardAmount:    req.RewardAmount,
		PremiumDuration: req.PremiumDuration,
		IsActive:        req.IsActive,
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidDay) || errors.Is(err, common.ErrInvalidRewardType) {
			return badRequest(c, err.Error())
		}
		log.WithError(err).WithField("day", day).Error("Config upsert failed")
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true, "reward": rewardJSON(cfg)})
}

// handleReset handles POST /api/reset-daily-login (admin)
func (s *Server) handleReset(c *fiber.Ctx) error {
	var req jidRequest
	if err := c.BodyParser(&req); err != nil || req.JID == "" {
		return badRequest(c, "jid is required")
	}

	result := s.dailyService.ResetUser(c.Context(), req.JID)
	if !result.Success {
		return c.Status(reasonStatusCode(result.Reason)).JSON(fiber.Map{
			"success": false,
			"reason":  result.Reason,
			"message": reasonMessage(result.Reason),
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func rewardJSON(r *dailylogin.RewardConfig) fiber.Map {
	m := fiber.Map{
		"day":          r.Day,
		"rewardType":   r.RewardType,
		"rewardAmount": r.RewardAmount,
		"isActive":     r.IsActive,
	}
	if r.PremiumDuration != nil {
		m["premiumDuration"] = *r.PremiumDuration
	}
	return m
}

func reasonStatusCode(reason string) int {
	switch reason {
	case dailylogin.ReasonAlreadyClaimed, dailylogin.ReasonNoReward:
		return fiber.StatusConflict
	case dailylogin.ReasonUserNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func reasonMessage(reason string) string {
	switch reason {
	case dailylogin.ReasonAlreadyClaimed:
		return "daily reward already claimed today"
	case dailylogin.ReasonNoReward:
		return "no reward configured for this day"
	case dailylogin.ReasonUserNotFound:
		return "user not found"
	default:
		return "internal error"
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"reason":  dailylogin.ReasonError,
		"message": "internal error",
	})
}
