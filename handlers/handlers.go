package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/database"
	"github.com/runleveling/server/middleware"
	"github.com/runleveling/server/progression"
	"github.com/runleveling/server/services"
	"github.com/runleveling/server/utils"
)

// Handler holds every dependency the HTTP layer needs. Strava and the route
// archive are optional; their endpoints answer 503 when unconfigured.
type Handler struct {
	Config      *config.Config
	DB          *database.DB
	Progression *progression.Service
	Leaderboard *services.LeaderboardService
	Strava      *services.StravaService
	Routes      *services.RouteArchive
	Version     string
}

// RegisterRoutes mounts the full API surface on the app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)

	api := app.Group("/api", middleware.APIRateLimit())
	api.Get("/", h.Info)

	api.Get("/progress/:device_id", h.GetProgress)
	api.Delete("/progress/:device_id", h.ResetProgress)
	api.Put("/username", h.SetUsername)
	api.Put("/notifications", h.SetNotifications)

	api.Post("/session/complete", h.CompleteSession)
	api.Get("/sessions/:device_id", h.GetSessions)
	api.Get("/sessions/:device_id/:session_id/route", h.GetSessionRoute)

	api.Post("/quests/claim", h.ClaimQuest)

	api.Get("/trophies", h.GetTrophyCatalog)
	api.Get("/trophies/:device_id", h.GetUserTrophies)
	api.Get("/rank-info", h.GetRankInfo)

	api.Get("/leaderboard", h.GetLeaderboard)

	strava := api.Group("/strava", middleware.SyncRateLimit())
	strava.Get("/status/:device_id", h.StravaStatus)
	strava.Post("/connect", h.StravaConnect)
	strava.Post("/disconnect", h.StravaDisconnect)
	strava.Post("/sync", h.StravaSync)
}

// Health reports liveness plus a database ping.
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), config.NetworkDialTimeout)
	defer cancel()

	dbStatus := "ok"
	if err := h.DB.Ping(ctx); err != nil {
		dbStatus = "unreachable"
	}

	return utils.SendSuccess(c, fiber.Map{
		"status":   "ok",
		"version":  h.Version,
		"database": dbStatus,
	}, "")
}

// Info describes the API for clients probing capabilities.
func (h *Handler) Info(c *fiber.Ctx) error {
	return utils.SendSuccess(c, fiber.Map{
		"name":    "RunLeveling API",
		"version": h.Version,
		"strava":  h.Strava != nil,
		"routes":  h.Routes != nil,
	}, "")
}

func (h *Handler) queryCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), config.DefaultQueryTimeout)
}
