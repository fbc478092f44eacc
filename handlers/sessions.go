package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/database/models"
	"github.com/runleveling/server/progression"
	"github.com/runleveling/server/utils"
)

type completeSessionRequest struct {
	DeviceID        string               `json:"device_id"`
	DurationMinutes float64              `json:"duration_minutes"`
	DistanceKm      float64              `json:"distance_km"`
	Calories        int                  `json:"calories"`
	Intensity       string               `json:"intensity"` // optional, overrides pace classification
	AvgPaceSec      float64              `json:"avg_pace_sec"`
	BestPaceSec     float64              `json:"best_pace_sec"`
	WorstPaceSec    float64              `json:"worst_pace_sec"`
	AvgSpeedKmh     float64              `json:"avg_speed_kmh"`
	ElevationGain   float64              `json:"elevation_gain"`
	ElevationLoss   float64              `json:"elevation_loss"`
	RoutePoints     []models.RoutePoint  `json:"route_points"`
	Name            string               `json:"name"`
	CompletedAt     string               `json:"completed_at"` // RFC3339, optional
}

// CompleteSession settles one finished workout and returns the full
// settlement: XP breakdown, level and rank transitions, new trophies and
// advanced quests.
func (h *Handler) CompleteSession(c *fiber.Ctx) error {
	var req completeSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if errs := utils.ValidateDeviceID(req.DeviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	var completedAt time.Time
	if req.CompletedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.CompletedAt)
		if err != nil {
			return utils.SendBadRequest(c, "completed_at must be RFC3339", nil)
		}
		completedAt = parsed
	}

	if len(req.RoutePoints) > config.MaxRoutePoints {
		req.RoutePoints = req.RoutePoints[:config.MaxRoutePoints]
	}

	input := progression.SessionInput{
		DurationMinutes: req.DurationMinutes,
		DistanceKm:      req.DistanceKm,
		Calories:        req.Calories,
		Intensity:       progression.Intensity(req.Intensity),
		AvgPaceSec:      req.AvgPaceSec,
		BestPaceSec:     req.BestPaceSec,
		WorstPaceSec:    req.WorstPaceSec,
		AvgSpeedKmh:     req.AvgSpeedKmh,
		ElevationGain:   req.ElevationGain,
		ElevationLoss:   req.ElevationLoss,
		RoutePoints:     req.RoutePoints,
		Name:            req.Name,
		CompletedAt:     completedAt,
	}

	settleCtx, cancelSettle := context.WithTimeout(c.Context(), config.SettlementTimeout)
	defer cancelSettle()

	result, err := h.Progression.SettleSession(settleCtx, req.DeviceID, input)
	if err != nil {
		if errors.Is(err, progression.ErrInvalidSession) || errors.Is(err, progression.ErrUnknownIntensity) {
			return utils.SendUnprocessableEntity(c, err.Error(), nil)
		}
		slog.Error("Failed to settle session",
			slog.String("type", "http"),
			slog.String("device_id", req.DeviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to record session")
	}

	// Route archiving is best effort: a storage hiccup never fails the
	// settlement the client already earned.
	if h.Routes != nil && len(req.RoutePoints) > 0 {
		key, err := h.Routes.StoreRoute(settleCtx, req.DeviceID, result.Session.ID, req.RoutePoints)
		if err != nil {
			slog.Warn("Route archive failed",
				slog.String("type", "sys"),
				slog.String("session_id", result.Session.ID),
				slog.Any("error", err))
		} else {
			result.Session.RouteKey = key
			if err := h.Progression.AttachRouteKey(settleCtx, result.Session.ID, key); err != nil {
				slog.Warn("Route key not persisted",
					slog.String("type", "sys"),
					slog.String("session_id", result.Session.ID),
					slog.Any("error", err))
			}
		}
	}

	h.Leaderboard.Invalidate()
	return utils.SendCreated(c, result, "Session recorded")
}

// GetSessions returns the device's history, newest first.
func (h *Handler) GetSessions(c *fiber.Ctx) error {
	deviceID := c.Params("device_id")
	if errs := utils.ValidateDeviceID(deviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}
	limit := utils.ClampLimit(c.QueryInt("limit"), config.DefaultSessionLimit, config.MaxSessionLimit)

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	sessions, err := h.Progression.Sessions(ctx, deviceID, limit)
	if err != nil {
		slog.Error("Failed to load sessions",
			slog.String("type", "http"),
			slog.String("device_id", deviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to load sessions")
	}

	return utils.SendSuccess(c, fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	}, "")
}

// GetSessionRoute fetches an archived GPS trace from object storage.
func (h *Handler) GetSessionRoute(c *fiber.Ctx) error {
	if h.Routes == nil {
		return utils.SendServiceUnavailable(c, "Route storage is not configured")
	}
	deviceID := c.Params("device_id")
	sessionID := c.Params("session_id")
	if errs := utils.ValidateDeviceID(deviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	sessions, err := h.Progression.Sessions(ctx, deviceID, config.MaxSessionLimit)
	if err != nil {
		return utils.SendInternalServerError(c, "Failed to load sessions")
	}
	var routeKey string
	for _, s := range sessions {
		if s.ID == sessionID {
			routeKey = s.RouteKey
			break
		}
	}
	if routeKey == "" {
		return utils.SendNotFound(c, "No route recorded for this session")
	}

	points, err := h.Routes.LoadRoute(ctx, routeKey)
	if err != nil {
		slog.Error("Failed to load route",
			slog.String("type", "http"),
			slog.String("key", routeKey),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to load route")
	}
	return utils.SendSuccess(c, fiber.Map{"route_points": points}, "")
}
