package analysis

// Effort zone thresholds as a percentage of LTHR.
// Boundaries are lower-inclusive: a value exactly on a threshold
// belongs to the higher zone.
const (
	EasyPctLTHR   = 66.0 // below this is lumped into easy
	SteadyPctLTHR = 78.0
	TempoPctLTHR  = 89.0
	HardPctLTHR   = 99.0
)

// Stream alignment and observation windows (minutes).
const (
	ObservationWindowMin = 5 // sliding window length
	SkipStartMin         = 5 // warmup minutes excluded from windows
	SkipEndMin           = 2 // cooldown minutes excluded from windows

	// MinAlignedMinutes is the smallest usable aligned timeline:
	// skip-start + one full window + skip-end.
	MinAlignedMinutes = SkipStartMin + ObservationWindowMin + SkipEndMin
)

// Glucose unit handling. Streams arrive in either mg/dL or mmol/L with no
// metadata; values are normalized to mmol/L by magnitude heuristic.
const (
	MgdlPerMmoll = 18.018

	// mg/dL detection: a plausible mmol/L series never averages above 15
	// or peaks above 20.
	MgdlMeanThreshold = 15.0
	MgdlMaxThreshold  = 20.0
)

// Confidence tiers for aggregated statistics.
const (
	ConfidenceLowBelow    = 10 // fewer samples than this is low
	ConfidenceMediumBelow = 30 // fewer than this is medium, at or above is high
)

// Start-BG band edges (mmol/L) and relative-time bucket edges (minutes).
// Both are half-open with inclusive lower bounds.
var (
	BGBandEdges     = []float64{8, 10, 12}
	TimeBucketEdges = []float64{15, 30, 45}
)

// Fueling policy: how many grams/hour offset a BG drop of 1 mmol/L per
// 10 minutes over a ~2 hour run, and the drop rate considered acceptable.
const (
	FuelGramsPerRateUnit  = 12.0
	AcceptableBGRate      = -1.0 // mmol/L per 10 min
	FuelSuggestionStepG   = 6.0  // suggestions come in 6 g/h increments
	FuelSuggestionPerStep = 0.5  // each step covers this much excess drop rate
)

// Pace calibration.
const (
	MinValidPaceMinKm = 2.0  // faster than this is GPS noise
	MaxValidPaceMinKm = 12.0 // slower than this is walking or a pause

	PaceTrendWindowDays  = 90
	PaceTrendMinSegments = 3
	PaceTrendMinSpanDays = 14
)

// Insulin pharmacokinetics (Fiasp-type rapid-acting analogue).
const (
	InsulinTauMinutes  = 55.0  // time constant of the decay curve
	IOBLookbackMinutes = 300.0 // doses older than 5 hours are spent
	ISFMmolPerUnit     = 3.1   // expected BG drop per unit of active insulin
	BasalBlockMinutes  = 5.0   // discretization step for basal integration
)
