package utils

import (
	"fmt"
	"regexp"

	"github.com/runleveling/server/config"
	"github.com/runleveling/server/models"
)

var (
	// ValidDeviceIDRegex validates device identifiers
	ValidDeviceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9\-_]{4,64}$`)

	// ValidUsernameRegex validates display names
	ValidUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9À-ÿ\s\-_.]+$`)

	// ValidTimeRegex validates HH:MM notification times
	ValidTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ValidateDeviceID checks a device identifier.
func ValidateDeviceID(deviceID string) []models.ValidationError {
	var errors []models.ValidationError
	if deviceID == "" {
		errors = append(errors, models.ValidationError{
			Field:   "device_id",
			Message: "Device ID is required",
		})
	} else if !ValidDeviceIDRegex.MatchString(deviceID) {
		errors = append(errors, models.ValidationError{
			Field:   "device_id",
			Message: "Device ID must be 4-64 alphanumeric characters",
		})
	}
	return errors
}

// ValidateUsername checks a display name.
func ValidateUsername(username string) []models.ValidationError {
	var errors []models.ValidationError
	switch {
	case username == "":
		errors = append(errors, models.ValidationError{
			Field:   "username",
			Message: "Username is required",
		})
	case len(username) < config.MinUsernameLength || len(username) > config.MaxUsernameLength:
		errors = append(errors, models.ValidationError{
			Field: "username",
			Message: fmt.Sprintf("Username must be %d-%d characters",
				config.MinUsernameLength, config.MaxUsernameLength),
		})
	case !ValidUsernameRegex.MatchString(username):
		errors = append(errors, models.ValidationError{
			Field:   "username",
			Message: "Username contains invalid characters",
		})
	}
	return errors
}

// ValidateNotificationTime checks an HH:MM reminder time.
func ValidateNotificationTime(at string) []models.ValidationError {
	var errors []models.ValidationError
	if at != "" && !ValidTimeRegex.MatchString(at) {
		errors = append(errors, models.ValidationError{
			Field:   "notification_time",
			Message: "Time must be HH:MM",
		})
	}
	return errors
}

// ClampLimit normalizes a client-supplied page size.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
