package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/progression"
	"github.com/runleveling/server/utils"
)

// GetTrophyCatalog returns every trophy definition, without unlock state.
func (h *Handler) GetTrophyCatalog(c *fiber.Ctx) error {
	cfg := h.Progression.Config()
	return utils.SendSuccess(c, fiber.Map{
		"trophies": cfg.Trophies,
		"count":    len(cfg.Trophies),
	}, "")
}

// GetUserTrophies returns the catalog annotated with the device's unlocks.
func (h *Handler) GetUserTrophies(c *fiber.Ctx) error {
	deviceID := c.Params("device_id")
	if errs := utils.ValidateDeviceID(deviceID); len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	ctx, cancel := h.queryCtx(c)
	defer cancel()

	trophies, err := h.Progression.UserTrophies(ctx, deviceID)
	if err != nil {
		slog.Error("Failed to load trophies",
			slog.String("type", "http"),
			slog.String("device_id", deviceID),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to load trophies")
	}

	unlocked := 0
	for _, t := range trophies {
		if t.Unlocked {
			unlocked++
		}
	}
	return utils.SendSuccess(c, fiber.Map{
		"trophies": trophies,
		"unlocked": unlocked,
		"total":    len(trophies),
	}, "")
}

// GetRankInfo returns the rank ladder and the XP curve parameters so the
// client can render progression screens without hardcoding them.
func (h *Handler) GetRankInfo(c *fiber.Ctx) error {
	cfg := h.Progression.Config()
	calc := h.Progression.Calculator()

	type rankInfo struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		MinLevel int    `json:"min_level"`
		Color    string `json:"color"`
		Icon     string `json:"icon"`
		MinXP    int    `json:"min_total_xp"`
	}
	ranks := make([]rankInfo, 0, len(cfg.Ranks))
	for _, r := range cfg.Ranks {
		ranks = append(ranks, rankInfo{
			ID:       r.ID,
			Name:     r.Name,
			MinLevel: r.MinLevel,
			Color:    r.Color,
			Icon:     r.Icon,
			MinXP:    calc.TotalXPForLevel(r.MinLevel),
		})
	}

	type intensityInfo struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Multiplier float64 `json:"multiplier"`
	}
	intensities := make([]intensityInfo, 0, len(progression.Intensities()))
	for _, tier := range progression.Intensities() {
		intensities = append(intensities, intensityInfo{
			ID:         string(tier),
			Name:       tier.DisplayName(),
			Multiplier: cfg.Session.Intensity[tier],
		})
	}

	return utils.SendSuccess(c, fiber.Map{
		"ranks": ranks,
		"curve": fiber.Map{
			"mode":        cfg.Curve.Mode,
			"base_xp":     cfg.Curve.BaseXP,
			"growth_rate": cfg.Curve.GrowthRate,
			"increment":   cfg.Curve.Increment,
		},
		"intensities": intensities,
	}, "")
}
