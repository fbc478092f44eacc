package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/progression"
	"github.com/runleveling/server/utils"
)

// GetProgress returns the device's full progress document, creating a fresh
// level-1 profile on first contact.
func (h *Handler) GetProgress(c *fiber.Ctx) error {
	deviceID := c.Params("device_id")
	if errs := utils.ValidateDeviceID(deviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	progress, err := h.Progression.GetOrCreateProgress(ctx, deviceID)
	if err != nil {
		slog.Error("Failed to load progress",
			slog.String("type", "http"),
			slog.String("device_id", deviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to load progress")
	}

	nextRank := h.Progression.Config().NextRank(progress.Level)
	needed := h.Progression.Calculator().XPRequiredForLevel(progress.Level)
	percent := 0.0
	if needed > 0 {
		percent = float64(progress.CurrentXP) / float64(needed) * 100
	}
	questPercent := make(map[string]float64, len(progress.DailyQuests))
	for i := range progress.DailyQuests {
		q := &progress.DailyQuests[i]
		questPercent[q.ID] = q.ProgressPercentage()
	}
	return utils.SendSuccess(c, fiber.Map{
		"progress":          progress,
		"xp_for_next_level": needed,
		"level_progress":    percent,
		"quest_progress":    questPercent,
		"next_rank":         nextRank,
	}, "")
}

// ResetProgress wipes the device: progress document and session history.
func (h *Handler) ResetProgress(c *fiber.Ctx) error {
	deviceID := c.Params("device_id")
	if errs := utils.ValidateDeviceID(deviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	if err := h.Progression.ResetDevice(ctx, deviceID); err != nil {
		slog.Error("Failed to reset device",
			slog.String("type", "http"),
			slog.String("device_id", deviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to reset progress")
	}

	h.Leaderboard.Invalidate()
	return utils.SendSuccess(c, nil, "Progress reset")
}

type usernameRequest struct {
	DeviceID string `json:"device_id"`
	Username string `json:"username"`
}

// SetUsername sets the display name, once per device.
func (h *Handler) SetUsername(c *fiber.Ctx) error {
	var req usernameRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if errs := append(utils.ValidateDeviceID(req.DeviceID), utils.ValidateUsername(req.Username)...); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	progress, err := h.Progression.SetUsername(ctx, req.DeviceID, req.Username)
	if err != nil {
		if errors.Is(err, progression.ErrUsernameTaken) {
			return utils.SendConflict(c, "Username already set for this device", nil)
		}
		slog.Error("Failed to set username",
			slog.String("type", "http"),
			slog.String("device_id", req.DeviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to set username")
	}

	h.Leaderboard.Invalidate()
	return utils.SendSuccess(c, progress, "Username saved")
}

type notificationsRequest struct {
	DeviceID string `json:"device_id"`
	Enabled  bool   `json:"enabled"`
	Time     string `json:"time,omitempty"` // HH:MM
}

// SetNotifications stores the daily reminder preference.
func (h *Handler) SetNotifications(c *fiber.Ctx) error {
	var req notificationsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if errs := append(utils.ValidateDeviceID(req.DeviceID), utils.ValidateNotificationTime(req.Time)...); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	if err := h.Progression.SetNotifications(ctx, req.DeviceID, req.Enabled, req.Time); err != nil {
		slog.Error("Failed to set notifications",
			slog.String("type", "http"),
			slog.String("device_id", req.DeviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to save notification settings")
	}
	return utils.SendSuccess(c, nil, "Notification settings saved")
}
