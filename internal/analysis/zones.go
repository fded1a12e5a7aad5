package analysis

// Zone is a discretized effort-intensity bucket derived from %LTHR.
type Zone string

const (
	ZoneEasy   Zone = "easy"
	ZoneSteady Zone = "steady"
	ZoneTempo  Zone = "tempo"
	ZoneHard   Zone = "hard"
)

// ZoneOrder lists zones from lowest to highest intensity, for stable
// iteration and display.
var ZoneOrder = []Zone{ZoneEasy, ZoneSteady, ZoneTempo, ZoneHard}

// ClassifyZone maps a heart rate to an effort zone via percentage of LTHR.
// Thresholds are lower-inclusive: exactly 99% of LTHR is hard. Efforts below
// 66% are lumped into easy rather than tracked separately.
func ClassifyZone(hr, lthr float64) Zone {
	pct := hr / lthr * 100

	switch {
	case pct >= HardPctLTHR:
		return ZoneHard
	case pct >= TempoPctLTHR:
		return ZoneTempo
	case pct >= SteadyPctLTHR:
		return ZoneSteady
	default:
		return ZoneEasy
	}
}

// zoneIndex returns the zone's position in intensity order.
// Used as the x coordinate when extrapolating across zones.
func zoneIndex(z Zone) int {
	for i, zone := range ZoneOrder {
		if zone == z {
			return i
		}
	}
	return 0
}
