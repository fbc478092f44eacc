package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/progression"
	"github.com/runleveling/server/utils"
)

type claimQuestRequest struct {
	DeviceID string `json:"device_id"`
	QuestID  string `json:"quest_id"`
}

// ClaimQuest pays out a completed daily quest. This is the only endpoint
// that moves quest XP.
func (h *Handler) ClaimQuest(c *fiber.Ctx) error {
	var req claimQuestRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if errs := utils.ValidateDeviceID(req.DeviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}
	if req.QuestID == "" {
		return utils.SendBadRequest(c, "quest_id is required", nil)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	result, err := h.Progression.ClaimQuest(ctx, req.DeviceID, req.QuestID)
	if err != nil {
		switch {
		case errors.Is(err, progression.ErrQuestNotFound):
			return utils.SendNotFound(c, "Quest not found")
		case errors.Is(err, progression.ErrQuestAlreadyClaimed):
			return utils.SendConflict(c, "Quest reward already claimed", nil)
		case errors.Is(err, progression.ErrQuestNotCompleted):
			return utils.SendUnprocessableEntity(c, "Quest is not completed yet", nil)
		}
		slog.Error("Failed to claim quest",
			slog.String("type", "http"),
			slog.String("device_id", req.DeviceID),
			slog.String("quest_id", req.QuestID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to claim quest")
	}

	h.Leaderboard.Invalidate()
	return utils.SendSuccess(c, result, "Quest claimed")
}
