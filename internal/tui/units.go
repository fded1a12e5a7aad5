package tui

import (
	"fmt"

	"springa/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.1f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.1f km", meters/metersPerKm)
}

// FormatPace formats pace from total seconds and meters to the user's preferred unit
func (u Units) FormatPace(seconds int, meters float64) string {
	if meters <= 0 || seconds <= 0 {
		return "-"
	}

	var paceSeconds float64
	if u.cfg.PaceUnit == "min/mi" {
		paceSeconds = float64(seconds) / (meters / metersPerMile)
	} else {
		paceSeconds = float64(seconds) / (meters / metersPerKm)
	}

	mins := int(paceSeconds) / 60
	secs := int(paceSeconds) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatPaceMinKm formats a decimal min/km pace as M:SS in the preferred unit
func (u Units) FormatPaceMinKm(pace float64) string {
	if pace <= 0 {
		return "-"
	}
	if u.cfg.PaceUnit == "min/mi" {
		pace = pace * metersPerMile / metersPerKm
	}
	mins := int(pace)
	secs := int((pace - float64(mins)) * 60)
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// PaceLabel returns the pace unit label ("min/mi" or "min/km")
func (u Units) PaceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "min/mi"
	}
	return "min/km"
}

// FormatMmol formats a glucose value in mmol/L
func FormatMmol(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// FormatRate formats a BG rate in mmol/L per 10 min with sign
func FormatRate(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}
