package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/services"
	"github.com/runleveling/server/utils"
)

// GetLeaderboard returns the global ranking by lifetime XP. Supports a rank
// filter (?rank_id=coureur), a fuzzy username search (?q=), and ?device_id=
// to include the caller's own row.
func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	limit := utils.ClampLimit(c.QueryInt("limit"), config.DefaultLeaderboardLimit, config.MaxLeaderboardLimit)

	ctx, cancel := context.WithTimeout(c.Context(), config.LeaderboardTimeout)
	defer cancel()

	if query := c.Query("q"); query != "" {
		entries, err := h.Leaderboard.Search(ctx, query, limit)
		if err != nil {
			slog.Error("Leaderboard search failed",
				slog.String("type", "http"),
				slog.Any("error", err))
			return utils.SendInternalServerError(c, "Failed to search leaderboard")
		}
		return utils.SendSuccess(c, fiber.Map{
			"entries": entries,
			"count":   len(entries),
		}, "")
	}

	entries, err := h.Leaderboard.Top(ctx, limit, c.Query("rank_id"))
	if err != nil {
		slog.Error("Failed to load leaderboard",
			slog.String("type", "http"),
			slog.Any("error", err))
		return utils.SendInternalServerError(c, "Failed to load leaderboard")
	}

	resp := fiber.Map{
		"entries": entries,
		"count":   len(entries),
	}
	if deviceID := c.Query("device_id"); deviceID != "" {
		// annotate a copy; cached boards are shared across requests
		marked := make([]services.LeaderboardEntry, len(entries))
		copy(marked, entries)
		for i := range marked {
			marked[i].IsCurrentUser = marked[i].DeviceID == deviceID
		}
		resp["entries"] = marked

		me, err := h.Leaderboard.PositionOf(ctx, deviceID)
		if err == nil && me != nil {
			me.IsCurrentUser = true
			resp["me"] = me
		}
	}
	return utils.SendSuccess(c, resp, "")
}
