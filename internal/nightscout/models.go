package nightscout

import "time"

// Entry is a single CGM reading from /api/v1/entries
type Entry struct {
	ID        string  `json:"_id"`
	SGV       float64 `json:"sgv"`  // sensor glucose value in mg/dL
	Date      int64   `json:"date"` // unix milliseconds
	DateStr   string  `json:"dateString"`
	Direction string  `json:"direction"`
	Device    string  `json:"device"`
	Type      string  `json:"type"`
}

// Time returns the time of the entry
func (e *Entry) Time() time.Time {
	return time.UnixMilli(e.Date)
}

// ValueMmolL returns the glucose value in mmol/L
func (e *Entry) ValueMmolL() float64 {
	return e.SGV / 18.018
}

// Treatment is a pump or meal event from /api/v1/treatments
type Treatment struct {
	ID        string  `json:"_id"`
	EventType string  `json:"eventType"`
	Date      int64   `json:"date"` // unix milliseconds
	CreatedAt string  `json:"created_at"`
	Insulin   float64 `json:"insulin"` // units
	Carbs     float64 `json:"carbs"`   // grams
	Duration  float64 `json:"duration"` // minutes, for temp basals
	Absolute  float64 `json:"absolute"` // U/h, for temp basals
	EnteredBy string  `json:"enteredBy"`
}

// Time returns the time of the treatment, falling back to created_at
// when the millisecond date is absent.
func (t *Treatment) Time() time.Time {
	if t.Date > 0 {
		return time.UnixMilli(t.Date)
	}
	parsed, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// IsBolus reports whether this treatment delivers a bolus dose.
func (t *Treatment) IsBolus() bool {
	switch t.EventType {
	case "Bolus", "Snack Bolus", "Meal Bolus", "Correction Bolus", "Combo Bolus", "Bolus Wizard":
		return true
	}
	return t.Insulin > 0 && t.EventType != "Temp Basal"
}

// IsBasalRate reports whether this treatment sets a basal delivery rate.
func (t *Treatment) IsBasalRate() bool {
	return t.EventType == "Temp Basal"
}

// IsCarbs reports whether this treatment records carbohydrate intake.
func (t *Treatment) IsCarbs() bool {
	return t.Carbs > 0
}
