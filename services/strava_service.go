package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appconfig "github.com/runleveling/server/config"
	"github.com/runleveling/server/database/models"
	"github.com/runleveling/server/database/repositories"
	"github.com/runleveling/server/progression"
)

const stravaAPI = "https://www.strava.com/api/v3"

var ErrStravaNotConnected = errors.New("strava not connected")

// stravaTokenResponse is the OAuth token payload Strava returns on exchange
// and refresh.
type stravaTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Athlete      struct {
		ID        int64  `json:"id"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
	} `json:"athlete"`
}

// stravaActivity is the subset of the activity payload the pipeline needs.
type stravaActivity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	Distance           float64 `json:"distance"`       // meters
	MovingTime         int     `json:"moving_time"`    // seconds
	TotalElevationGain float64 `json:"total_elevation_gain"`
	AverageSpeed       float64 `json:"average_speed"` // m/s
	Calories           float64 `json:"calories"`
	StartDate          string  `json:"start_date"` // RFC3339
}

// StravaService connects devices to Strava and imports their runs through
// the regular settlement pipeline, deduplicated by activity id.
type StravaService struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	tokenRepo   repositories.StravaTokenRepository
	sessionRepo repositories.SessionRepository
	progression *progression.Service
}

func NewStravaService(cfg appconfig.StravaConfig, tokenRepo repositories.StravaTokenRepository, sessionRepo repositories.SessionRepository, prog *progression.Service) *StravaService {
	return &StravaService{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: appconfig.StravaRequestTimeout,
		},
		tokenRepo:   tokenRepo,
		sessionRepo: sessionRepo,
		progression: prog,
	}
}

// Connect exchanges an authorization code for tokens and stores them for
// the device.
func (s *StravaService) Connect(ctx context.Context, deviceID, code string) (*models.StravaToken, error) {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)

	tokResp, err := s.tokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	token := &models.StravaToken{
		DeviceID:     deviceID,
		AccessToken:  tokResp.AccessToken,
		RefreshToken: tokResp.RefreshToken,
		ExpiresAt:    tokResp.ExpiresAt,
		AthleteID:    tokResp.Athlete.ID,
		AthleteName:  strings.TrimSpace(tokResp.Athlete.Firstname + " " + tokResp.Athlete.Lastname),
	}
	if err := s.tokenRepo.Upsert(ctx, token); err != nil {
		return nil, err
	}

	slog.Info("Strava connected",
		slog.String("type", "sys"),
		slog.String("device_id", deviceID),
		slog.Int64("athlete_id", token.AthleteID))
	return token, nil
}

// Status returns the stored connection, or ErrStravaNotConnected.
func (s *StravaService) Status(ctx context.Context, deviceID string) (*models.StravaToken, error) {
	token, err := s.tokenRepo.Get(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrStravaNotConnected
	}
	return token, err
}

// Disconnect forgets the device's tokens.
func (s *StravaService) Disconnect(ctx context.Context, deviceID string) error {
	return s.tokenRepo.Delete(ctx, deviceID)
}

// SyncActivities pulls the device's recent runs and settles every one not
// already imported. Returns how many new sessions were created.
func (s *StravaService) SyncActivities(ctx context.Context, deviceID string) (int, error) {
	token, err := s.Status(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	if token.Expired(time.Now()) {
		token, err = s.refresh(ctx, token)
		if err != nil {
			return 0, err
		}
	}

	activities, err := s.fetchActivities(ctx, token.AccessToken)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, act := range activities {
		if act.Type != "Run" && act.Type != "TrailRun" && act.Type != "VirtualRun" {
			continue
		}
		stravaID := strconv.FormatInt(act.ID, 10)
		exists, err := s.sessionRepo.ExistsByStravaID(ctx, stravaID)
		if err != nil {
			return imported, err
		}
		if exists {
			continue
		}

		input, err := s.toSessionInput(act, stravaID)
		if err != nil {
			slog.Warn("Skipping malformed activity",
				slog.String("type", "sys"),
				slog.String("strava_id", stravaID),
				slog.Any("error", err))
			continue
		}
		if _, err := s.progression.SettleSession(ctx, deviceID, input); err != nil {
			return imported, fmt.Errorf("failed to settle activity %s: %w", stravaID, err)
		}
		imported++
	}

	if imported > 0 {
		slog.Info("Strava sync complete",
			slog.String("type", "sys"),
			slog.String("device_id", deviceID),
			slog.Int("imported", imported))
	}
	return imported, nil
}

// SyncAll runs SyncActivities for every connected device. Per-device errors
// are logged, not fatal, so one broken token cannot stall the sweep.
func (s *StravaService) SyncAll(ctx context.Context) {
	devices, err := s.tokenRepo.ConnectedDevices(ctx)
	if err != nil {
		slog.Error("Failed to list connected devices",
			slog.String("type", "sys"),
			slog.Any("error", err))
		return
	}
	for _, deviceID := range devices {
		if _, err := s.SyncActivities(ctx, deviceID); err != nil {
			slog.Error("Strava sync failed",
				slog.String("type", "sys"),
				slog.String("device_id", deviceID),
				slog.Any("error", err))
		}
	}
}

func (s *StravaService) toSessionInput(act stravaActivity, stravaID string) (progression.SessionInput, error) {
	completedAt, err := time.Parse(time.RFC3339, act.StartDate)
	if err != nil {
		return progression.SessionInput{}, fmt.Errorf("bad start date %q: %w", act.StartDate, err)
	}

	distanceKm := act.Distance / 1000
	durationMin := float64(act.MovingTime) / 60
	var paceSec float64
	if distanceKm > 0 {
		paceSec = float64(act.MovingTime) / distanceKm
	}

	return progression.SessionInput{
		DurationMinutes: durationMin,
		DistanceKm:      distanceKm,
		Calories:        int(act.Calories),
		AvgPaceSec:      paceSec,
		AvgSpeedKmh:     act.AverageSpeed * 3.6,
		ElevationGain:   act.TotalElevationGain,
		Name:            act.Name,
		StravaID:        stravaID,
		CompletedAt:     completedAt,
	}, nil
}

func (s *StravaService) refresh(ctx context.Context, token *models.StravaToken) (*models.StravaToken, error) {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", token.RefreshToken)

	tokResp, err := s.tokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	token.AccessToken = tokResp.AccessToken
	if tokResp.RefreshToken != "" {
		token.RefreshToken = tokResp.RefreshToken
	}
	token.ExpiresAt = tokResp.ExpiresAt
	if err := s.tokenRepo.Upsert(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *StravaService) tokenRequest(ctx context.Context, data url.Values) (*stravaTokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", "https://www.strava.com/oauth/token",
		strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach strava: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("strava token error: %s", string(body))
	}

	var tokResp stravaTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tokResp, nil
}

func (s *StravaService) fetchActivities(ctx context.Context, accessToken string) ([]stravaActivity, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", stravaAPI+"/athlete/activities?per_page=30", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("strava API error: %s", string(body))
	}

	var activities []stravaActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}
