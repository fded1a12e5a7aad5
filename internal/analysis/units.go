package analysis

// NormalizeGlucose converts a glucose series to mmol/L.
// Unit metadata does not survive the upstream APIs, so the encoding is
// inferred from magnitude: a series that averages above 15 or peaks above 20
// is taken to be mg/dL and divided by 18.018, otherwise it passes through
// unchanged. A genuinely high mmol/L series would be mis-converted; that
// risk is accepted until the sources carry explicit units.
func NormalizeGlucose(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}

	var sum, max float64
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	if mean <= MgdlMeanThreshold && max <= MgdlMaxThreshold {
		return values
	}

	converted := make([]float64, len(values))
	for i, v := range values {
		converted[i] = v / MgdlPerMmoll
	}
	return converted
}
