package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads the TOML config file and applies environment overrides.
// Secrets (Mongo URI, Strava credentials, Spaces keys) can always be supplied
// via environment so the config file can be committed without them.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return &cfg, nil
}

// DefaultConfig returns a runnable local-development configuration, used when
// no config file is present.
func DefaultConfig() *Config {
	cfg := &Config{
		Log: LogConfig{
			Level:     slog.LevelInfo,
			AddSource: false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "runleveling",
		},
	}
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	// MONGO_URL is the name some hosts inject; MONGO_URI wins when both are set
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.DB.URI = v
	} else if v := os.Getenv("MONGO_URL"); v != "" {
		c.DB.URI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.DB.Database = v
	}
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("STRAVA_CLIENT_ID"); v != "" {
		c.Strava.ClientID = v
	}
	if v := os.Getenv("STRAVA_CLIENT_SECRET"); v != "" {
		c.Strava.ClientSecret = v
	}
	if v := os.Getenv("SPACES_KEY"); v != "" {
		c.Spaces.Key = v
	}
	if v := os.Getenv("SPACES_SECRET"); v != "" {
		c.Spaces.Secret = v
	}
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	DB     DBConfig     `toml:"db"`
	Game   GameConfig   `toml:"game"`
	Strava StravaConfig `toml:"strava"`
	Spaces struct {
		Key       string `toml:"key"`
		Secret    string `toml:"secret"`
		Region    string `toml:"region"`
		Bucket    string `toml:"bucket"`
		RouteRoot string `toml:"routeroot"`
	} `toml:"spaces"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type DBConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// GameConfig carries the tunable progression knobs. Zero values mean "use the
// progression package defaults"; only deployments that diverge from the stock
// rule-set need to set anything here.
type GameConfig struct {
	XPCurve         string  `toml:"xp_curve"`         // "geometric" or "linear"
	BaseXP          int     `toml:"base_xp"`          // XP needed for level 1 -> 2
	GrowthRate      float64 `toml:"growth_rate"`      // geometric curve only
	LinearIncrement int     `toml:"linear_increment"` // linear curve only
	SessionFormula  string  `toml:"session_formula"`  // "weighted" or "flat"
	MinSessionXP    int     `toml:"min_session_xp"`
}

type StravaConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	SyncEvery    int    `toml:"sync_every_minutes"` // 0 disables the background job
}

// SpacesEnabled reports whether route archiving to object storage is configured.
func (c *Config) SpacesEnabled() bool {
	return c.Spaces.Key != "" && c.Spaces.Secret != "" && c.Spaces.Bucket != ""
}

// StravaEnabled reports whether the Strava integration is configured.
func (c *Config) StravaEnabled() bool {
	return c.Strava.ClientID != "" && c.Strava.ClientSecret != ""
}
