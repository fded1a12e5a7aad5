package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Athlete.LactateThresholdHR != 168 {
		t.Errorf("Athlete.LactateThresholdHR = %v, want 168", cfg.Athlete.LactateThresholdHR)
	}

	// Test display defaults
	if cfg.Display.DistanceUnit != "km" {
		t.Errorf("Display.DistanceUnit = %q, want %q", cfg.Display.DistanceUnit, "km")
	}
	if cfg.Display.PaceUnit != "min/km" {
		t.Errorf("Display.PaceUnit = %q, want %q", cfg.Display.PaceUnit, "min/km")
	}

	// Credentials should be empty by default
	if cfg.Strava.ClientID != "" {
		t.Errorf("Strava.ClientID should be empty, got %q", cfg.Strava.ClientID)
	}
	if cfg.Nightscout.URL != "" {
		t.Errorf("Nightscout.URL should be empty, got %q", cfg.Nightscout.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := StravaConfig{
		ClientID:     "12345",
		ClientSecret: "abc123secret",
	}

	tests := []struct {
		name        string
		config      Config
		expectError bool
		errContains string
	}{
		{
			name:        "valid config",
			config:      Config{Strava: valid},
			expectError: false,
		},
		{
			name: "empty client ID",
			config: Config{
				Strava: StravaConfig{ClientID: "", ClientSecret: "abc123secret"},
			},
			expectError: true,
			errContains: "client_id",
		},
		{
			name: "placeholder client ID",
			config: Config{
				Strava: StravaConfig{ClientID: "YOUR_CLIENT_ID", ClientSecret: "abc123secret"},
			},
			expectError: true,
			errContains: "client_id",
		},
		{
			name: "empty client secret",
			config: Config{
				Strava: StravaConfig{ClientID: "12345", ClientSecret: ""},
			},
			expectError: true,
			errContains: "client_secret",
		},
		{
			name: "nightscout url without credential",
			config: Config{
				Strava:     valid,
				Nightscout: NightscoutConfig{URL: "https://cgm.example.com"},
			},
			expectError: true,
			errContains: "nightscout",
		},
		{
			name: "nightscout with secret",
			config: Config{
				Strava:     valid,
				Nightscout: NightscoutConfig{URL: "https://cgm.example.com", APISecret: "hunter2hunter2"},
			},
			expectError: false,
		},
		{
			name: "nightscout placeholder secret",
			config: Config{
				Strava:     valid,
				Nightscout: NightscoutConfig{URL: "https://cgm.example.com", APISecret: "YOUR_API_SECRET"},
			},
			expectError: true,
			errContains: "placeholder",
		},
		{
			name: "bad distance unit",
			config: Config{
				Strava:  valid,
				Display: DisplayConfig{DistanceUnit: "furlongs"},
			},
			expectError: true,
			errContains: "distance_unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestHasNightscout(t *testing.T) {
	cfg := Config{}
	if cfg.HasNightscout() {
		t.Error("HasNightscout() should be false with no URL")
	}
	cfg.Nightscout.URL = "https://cgm.example.com"
	if !cfg.HasNightscout() {
		t.Error("HasNightscout() should be true with URL set")
	}
}
