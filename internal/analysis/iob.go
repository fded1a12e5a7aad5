package analysis

import (
	"math"
	"sort"
	"time"
)

// DoseType distinguishes insulin delivery and meal events.
type DoseType string

const (
	DoseBolus        DoseType = "bolus"
	DoseBasalRate    DoseType = "basal-rate"
	DoseCarbohydrate DoseType = "carbohydrate"
)

// DoseEvent is one pump or meal event. Value is units for a bolus,
// units/hour for a basal rate change, and grams for carbohydrates.
type DoseEvent struct {
	Timestamp time.Time
	Type      DoseType
	Value     float64
	Unit      string
}

// InsulinContext is a point-in-time snapshot of active insulin and recent
// meals, computed fresh for one run-start instant.
type InsulinContext struct {
	LastBolusTime      time.Time
	LastBolusUnits     float64
	LastMealTime       time.Time
	LastMealCarbs      float64
	IOBAtStart         float64 // bolus insulin still active, units
	BasalIOBAtStart    float64 // basal insulin still active, units
	TotalIOBAtStart    float64
	TimeSinceLastMeal  int // whole minutes
	TimeSinceLastBolus int
	ExpectedBGImpact   float64 // mmol/L drop if all active insulin plays out
	LastBasalRate      float64 // units/hour, 0 if the pump was disconnected
}

// InsulinOnBoard returns the units of a dose still active minutesAgo after
// delivery, using an exponential curve for rapid-acting analogues:
//
//	IOB = units * (1 + t/τ) * e^(-t/τ), τ = 55 min
//
// A dose with a future timestamp is treated as fully active.
func InsulinOnBoard(units, minutesAgo float64) float64 {
	if minutesAgo < 0 {
		return units
	}
	t := minutesAgo / InsulinTauMinutes
	return units * (1 + t) * math.Exp(-t)
}

// BuildInsulinContext computes the insulin picture at runStart from dose
// events within the 5-hour lookback. Returns nil when no bolus falls in the
// window; a run with no recent bolus has nothing worth modeling.
//
// Bolus IOB is summed directly. Basal delivery is continuous, so each
// basal-rate segment (valid until the next rate change or runStart) is
// discretized into 5-minute blocks treated as micro-boluses at the block
// midpoint. Sources without a basal stream simply contribute no basal term.
func BuildInsulinContext(events []DoseEvent, runStart time.Time) *InsulinContext {
	var boluses, basals, carbs []DoseEvent
	for _, e := range events {
		if runStart.Sub(e.Timestamp).Minutes() > IOBLookbackMinutes {
			continue
		}
		switch e.Type {
		case DoseBolus:
			boluses = append(boluses, e)
		case DoseBasalRate:
			basals = append(basals, e)
		case DoseCarbohydrate:
			carbs = append(carbs, e)
		}
	}
	if len(boluses) == 0 {
		return nil
	}

	ctx := &InsulinContext{}

	var bolusIOB float64
	for _, b := range boluses {
		age := runStart.Sub(b.Timestamp).Minutes()
		bolusIOB += InsulinOnBoard(b.Value, age)
		if b.Timestamp.After(ctx.LastBolusTime) {
			ctx.LastBolusTime = b.Timestamp
			ctx.LastBolusUnits = b.Value
		}
	}
	ctx.IOBAtStart = round2(bolusIOB)

	ctx.BasalIOBAtStart = round2(basalIOB(basals, runStart))
	ctx.TotalIOBAtStart = round2(ctx.IOBAtStart + ctx.BasalIOBAtStart)
	ctx.ExpectedBGImpact = round1(ctx.TotalIOBAtStart * ISFMmolPerUnit)

	// Meal context: the most recent carb entry, or if none was logged
	// separately, assume the last bolus covered an unlogged meal.
	for _, c := range carbs {
		if c.Timestamp.After(ctx.LastMealTime) {
			ctx.LastMealTime = c.Timestamp
			ctx.LastMealCarbs = c.Value
		}
	}
	if ctx.LastMealTime.IsZero() {
		ctx.LastMealTime = ctx.LastBolusTime
		ctx.LastMealCarbs = 0
	}

	ctx.TimeSinceLastBolus = int(runStart.Sub(ctx.LastBolusTime).Minutes())
	ctx.TimeSinceLastMeal = int(runStart.Sub(ctx.LastMealTime).Minutes())

	var lastBasal time.Time
	for _, b := range basals {
		if b.Timestamp.After(lastBasal) {
			lastBasal = b.Timestamp
			ctx.LastBasalRate = b.Value
		}
	}

	return ctx
}

// basalIOB integrates basal delivery over the lookback by midpoint rule.
// Each rate entry is valid until the next entry or runStart; every 5-minute
// block of a segment delivers rate/60*blockMinutes units, decayed from the
// block's midpoint.
func basalIOB(basals []DoseEvent, runStart time.Time) float64 {
	if len(basals) == 0 {
		return 0
	}

	// Entries arrive unordered from the upstream API.
	sorted := make([]DoseEvent, len(basals))
	copy(sorted, basals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var total float64
	for i, entry := range sorted {
		segEnd := runStart
		if i+1 < len(sorted) && sorted[i+1].Timestamp.Before(runStart) {
			segEnd = sorted[i+1].Timestamp
		}
		if !entry.Timestamp.Before(segEnd) || entry.Value <= 0 {
			continue
		}

		for blockStart := entry.Timestamp; blockStart.Before(segEnd); {
			blockEnd := blockStart.Add(time.Duration(BasalBlockMinutes * float64(time.Minute)))
			if blockEnd.After(segEnd) {
				blockEnd = segEnd
			}
			blockMinutes := blockEnd.Sub(blockStart).Minutes()
			delivered := entry.Value / 60 * blockMinutes

			midpoint := blockStart.Add(blockEnd.Sub(blockStart) / 2)
			age := runStart.Sub(midpoint).Minutes()
			total += InsulinOnBoard(delivered, age)

			blockStart = blockEnd
		}
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
