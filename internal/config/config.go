package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Strava     StravaConfig     `json:"strava"`
	Nightscout NightscoutConfig `json:"nightscout"`
	Athlete    AthleteConfig    `json:"athlete"`
	Display    DisplayConfig    `json:"display"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// NightscoutConfig holds the CGM server connection settings.
// Either api_secret or api_token must be set; token wins when both are.
type NightscoutConfig struct {
	URL       string `json:"url"`
	APISecret string `json:"api_secret"`
	APIToken  string `json:"api_token"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	LactateThresholdHR float64 `json:"lactate_threshold_hr"`

	// DefaultFuelRateG is assumed for runs without a logged fuel rate,
	// grams of carbs per hour. Leave unset to treat those runs as unfueled.
	DefaultFuelRateG *float64 `json:"default_fuel_rate_g,omitempty"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			LactateThresholdHR: 168,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
	}
}

// Load reads the configuration from ~/.springa/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Athlete.LactateThresholdHR == 0 {
		cfg.Athlete.LactateThresholdHR = defaults.Athlete.LactateThresholdHR
	}
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if cfg.Display.PaceUnit == "" {
		cfg.Display.PaceUnit = defaults.Display.PaceUnit
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.springa/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := Config{
		Strava: StravaConfig{
			ClientID:     "YOUR_CLIENT_ID",
			ClientSecret: "YOUR_CLIENT_SECRET",
		},
		Nightscout: NightscoutConfig{
			URL:       "https://your-site.nightscout.example",
			APISecret: "YOUR_API_SECRET",
		},
		Athlete: AthleteConfig{
			LactateThresholdHR: 168,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
	}

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	// Nightscout is optional; when configured it needs a credential
	if c.Nightscout.URL != "" {
		if c.Nightscout.APISecret == "" && c.Nightscout.APIToken == "" {
			return errors.New("nightscout.api_secret or nightscout.api_token is required when nightscout.url is set")
		}
		if c.Nightscout.APISecret == "YOUR_API_SECRET" {
			return errors.New("nightscout.api_secret is still the placeholder value")
		}
	}

	if c.Athlete.LactateThresholdHR < 0 {
		return fmt.Errorf("athlete.lactate_threshold_hr must be positive, got %v", c.Athlete.LactateThresholdHR)
	}

	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	return nil
}

// HasNightscout reports whether a CGM server is configured.
func (c *Config) HasNightscout() bool {
	return c.Nightscout.URL != ""
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".springa", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".springa"), nil
}
