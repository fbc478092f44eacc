package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/database"
	"github.com/runleveling/server/database/repositories"
	"github.com/runleveling/server/handlers"
	"github.com/runleveling/server/logger"
	"github.com/runleveling/server/middleware"
	"github.com/runleveling/server/progression"
	"github.com/runleveling/server/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// .env is optional, env vars win over the config file either way
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		}
		cfg = config.DefaultConfig()
	}

	slog.SetDefault(slog.New(logger.NewHandler("RunLeveling", cfg.Log.Level)))

	slog.Info("Starting RunLeveling API",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		URI:      cfg.DB.URI,
		Database: cfg.DB.Database,
	})
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	progressRepo := repositories.NewProgressRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	stravaRepo := repositories.NewStravaTokenRepository(db)

	ruleSet := buildRuleSet(cfg.Game)
	progressionService := progression.NewService(ruleSet, progressRepo, sessionRepo)
	leaderboardService := services.NewLeaderboardService(progressRepo)

	var stravaService *services.StravaService
	if cfg.StravaEnabled() {
		stravaService = services.NewStravaService(cfg.Strava, stravaRepo, sessionRepo, progressionService)
	}

	var routeArchive *services.RouteArchive
	if cfg.SpacesEnabled() {
		routeArchive = services.NewRouteArchive(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.RouteRoot,
		)
	}

	app := fiber.New(fiber.Config{
		AppName:      "RunLeveling API",
		ServerHeader: "RunLeveling",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(middleware.LoggingMiddleware())

	h := &handlers.Handler{
		Config:      cfg,
		DB:          db,
		Progression: progressionService,
		Leaderboard: leaderboardService,
		Strava:      stravaService,
		Routes:      routeArchive,
		Version:     version,
	}
	h.RegisterRoutes(app)

	scheduler := startScheduler(cfg, stravaService)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("Starting server", slog.String("type", "sys"), slog.String("address", address))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := app.Listen(address); err != nil {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
			sig <- syscall.SIGTERM
		}
	}()

	<-sig
	slog.Info("Shutting down...", slog.String("type", "sys"))

	if scheduler != nil {
		_ = scheduler.Shutdown()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	if err := db.Close(shutdownCtx); err != nil {
		slog.Error("Database shutdown error", slog.String("error", err.Error()))
	}

	slog.Info("Shutdown complete", slog.String("type", "sys"))
}

// buildRuleSet starts from the stock rule-set and applies the config file's
// overrides, so a deployment can switch to the linear curve or the flat
// session formula without recompiling.
func buildRuleSet(game config.GameConfig) *progression.Config {
	ruleSet := progression.NewDefaultConfig()

	if game.XPCurve != "" {
		ruleSet.Curve.Mode = progression.CurveMode(game.XPCurve)
	}
	if game.BaseXP > 0 {
		ruleSet.Curve.BaseXP = game.BaseXP
	}
	if game.GrowthRate > 0 {
		ruleSet.Curve.GrowthRate = game.GrowthRate
	}
	if game.LinearIncrement > 0 {
		ruleSet.Curve.Increment = game.LinearIncrement
	}
	if game.SessionFormula != "" {
		ruleSet.Session.Formula = progression.FormulaMode(game.SessionFormula)
	}
	if game.MinSessionXP > 0 {
		ruleSet.Session.MinXP = game.MinSessionXP
	}
	return ruleSet
}

// startScheduler wires the periodic Strava sweep when the integration is
// configured with a sync interval.
func startScheduler(cfg *config.Config, stravaService *services.StravaService) gocron.Scheduler {
	if stravaService == nil || cfg.Strava.SyncEvery <= 0 {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		slog.Error("Failed to create scheduler", slog.String("error", err.Error()))
		return nil
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Duration(cfg.Strava.SyncEvery)*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			stravaService.SyncAll(ctx)
		}),
	)
	if err != nil {
		slog.Error("Failed to schedule Strava sync", slog.String("error", err.Error()))
		return nil
	}

	scheduler.Start()
	slog.Info("Strava auto-sync scheduled",
		slog.String("type", "sys"),
		slog.Int("every_minutes", cfg.Strava.SyncEvery))
	return scheduler
}
