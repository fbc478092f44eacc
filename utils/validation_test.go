package utils

import (
	"testing"
)

func TestValidateDeviceID(t *testing.T) {
	tests := []struct {
		name     string
		deviceID string
		wantErr  bool
	}{
		{name: "valid uuid-ish", deviceID: "a1b2c3d4-e5f6", wantErr: false},
		{name: "valid plain", deviceID: "device_1234", wantErr: false},
		{name: "empty", deviceID: "", wantErr: true},
		{name: "too short", deviceID: "abc", wantErr: true},
		{name: "spaces", deviceID: "device 1234", wantErr: true},
		{name: "path traversal", deviceID: "../etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateDeviceID(tt.deviceID)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateDeviceID(%q) errs = %v, wantErr %v", tt.deviceID, errs, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "simple", username: "Antoine", wantErr: false},
		{name: "accented", username: "Héloïse", wantErr: false},
		{name: "with separator", username: "run-master_3", wantErr: false},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "a", wantErr: true},
		{name: "too long", username: "abcdefghijklmnopqrstu", wantErr: true},
		{name: "html", username: "<script>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateUsername(tt.username)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) errs = %v, wantErr %v", tt.username, errs, tt.wantErr)
			}
		})
	}
}

func TestValidateNotificationTime(t *testing.T) {
	for _, valid := range []string{"", "00:00", "09:30", "23:59"} {
		if errs := ValidateNotificationTime(valid); len(errs) > 0 {
			t.Errorf("ValidateNotificationTime(%q) = %v, want valid", valid, errs)
		}
	}
	for _, invalid := range []string{"24:00", "9:30", "12:60", "noon"} {
		if errs := ValidateNotificationTime(invalid); len(errs) == 0 {
			t.Errorf("ValidateNotificationTime(%q) accepted", invalid)
		}
	}
}

func TestClampLimit(t *testing.T) {
	if got := ClampLimit(0, 20, 100); got != 20 {
		t.Errorf("ClampLimit(0) = %d, want default 20", got)
	}
	if got := ClampLimit(-5, 20, 100); got != 20 {
		t.Errorf("ClampLimit(-5) = %d, want default 20", got)
	}
	if got := ClampLimit(50, 20, 100); got != 50 {
		t.Errorf("ClampLimit(50) = %d", got)
	}
	if got := ClampLimit(500, 20, 100); got != 100 {
		t.Errorf("ClampLimit(500) = %d, want max 100", got)
	}
}
