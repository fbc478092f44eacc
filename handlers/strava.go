package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/services"
	"github.com/runleveling/server/utils"
)

// StravaStatus reports whether the device is connected and to which athlete.
func (h *Handler) StravaStatus(c *fiber.Ctx) error {
	if h.Strava == nil {
		return utils.SendServiceUnavailable(c, "Strava integration is not configured")
	}
	deviceID := c.Params("device_id")
	if errs := utils.ValidateDeviceID(deviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	token, err := h.Strava.Status(ctx, deviceID)
	if errors.Is(err, services.ErrStravaNotConnected) {
		return utils.SendSuccess(c, fiber.Map{"connected": false}, "")
	}
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to load Strava status")
	}
	return utils.SendSuccess(c, fiber.Map{
		"connected":    true,
		"athlete_id":   token.AthleteID,
		"athlete_name": token.AthleteName,
	}, "")
}

type stravaConnectRequest struct {
	DeviceID string `json:"device_id"`
	Code     string `json:"code"`
}

// StravaConnect exchanges the OAuth code the mobile app obtained and stores
// the tokens.
func (h *Handler) StravaConnect(c *fiber.Ctx) error {
	if h.Strava == nil {
		return utils.SendServiceUnavailable(c, "Strava integration is not configured")
	}
	var req stravaConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if errs := utils.ValidateDeviceID(req.DeviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}
	if req.Code == "" {
		return utils.SendBadRequest(c, "code is required", nil)
	}

	ctx, cancel := context.WithTimeout(c.Context(), config.StravaRequestTimeout)
	defer cancel()

	token, err := h.Strava.Connect(ctx, req.DeviceID, req.Code)
	if err != nil {
		slog.Error("Strava connect failed",
			slog.String("type", "http"),
			slog.String("device_id", req.DeviceID),
			slog.Any("error", err))
		return utils.SendBadRequest(c, "Failed to connect Strava account", nil)
	}
	return utils.SendSuccess(c, fiber.Map{
		"connected":    true,
		"athlete_id":   token.AthleteID,
		"athlete_name": token.AthleteName,
	}, "Strava connected")
}

type stravaDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

// StravaDisconnect forgets the device's tokens.
func (h *Handler) StravaDisconnect(c *fiber.Ctx) error {
	if h.Strava == nil {
		return utils.SendServiceUnavailable(c, "Strava integration is not configured")
	}
	var req stravaDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if errs := utils.ValidateDeviceID(req.DeviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	if err := h.Strava.Disconnect(ctx, req.DeviceID); err != nil {
		return utils.SendInternalServerError(c, "Failed to disconnect Strava")
	}
	return utils.SendSuccess(c, nil, "Strava disconnected")
}

// StravaSync imports the device's recent runs on demand.
func (h *Handler) StravaSync(c *fiber.Ctx) error {
	if h.Strava == nil {
		return utils.SendServiceUnavailable(c, "Strava integration is not configured")
	}
	var req stravaDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if errs := utils.ValidateDeviceID(req.DeviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := context.WithTimeout(c.Context(), config.StravaRequestTimeout)
	defer cancel()

	imported, err := h.Strava.SyncActivities(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, services.ErrStravaNotConnected) {
			return utils.SendNotFound(c, "Strava is not connected for this device")
		}
		slog.Error("Strava sync failed",
			slog.String("type", "http"),
			slog.String("device_id", req.DeviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to sync Strava activities")
	}

	if imported > 0 {
		h.Leaderboard.Invalidate()
	}
	return utils.SendSuccess(c, fiber.Map{"imported": imported}, "Sync complete")
}
