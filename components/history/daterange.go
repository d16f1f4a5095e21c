package history

import "time"

// Preset names a quick-select date range.
type Preset string

const (
	PresetToday             Preset = "today"
	PresetLast7             Preset = "last7"
	PresetLast30            Preset = "last30"
	PresetLastCalendarMonth Preset = "last-calendar-month"
)

// RangeResolver normalizes date and date-range selections. It holds no state
// beyond the clock; resolution is a pure function of its inputs.
type RangeResolver struct {
	now func() time.Time
}

// NewRangeResolver builds a resolver. A nil clock uses time.Now.
func NewRangeResolver(now func() time.Time) *RangeResolver {
	if now == nil {
		now = time.Now
	}
	return &RangeResolver{now: now}
}

// Resolve expands a preset into a concrete DateRange.
func (r *RangeResolver) Resolve(preset Preset) (DateRange, error) {
	today := Day(r.now())
	switch preset {
	case PresetToday:
		return DateRange{Start: today, End: today}, nil
	case PresetLast7:
		return DateRange{Start: today.AddDate(0, 0, -6), End: today}, nil
	case PresetLast30:
		return DateRange{Start: today.AddDate(0, 0, -29), End: today}, nil
	case PresetLastCalendarMonth:
		firstOfThisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{
			Start: firstOfThisMonth.AddDate(0, -1, 0),
			End:   firstOfThisMonth.AddDate(0, 0, -1),
		}, nil
	default:
		return DateRange{}, &ValidationError{Field: "preset", Reason: "unknown preset " + string(preset)}
	}
}

// ResolveRange validates an explicit selection. Start > End and End > today
// are both rejected.
func (r *RangeResolver) ResolveRange(start, end time.Time) (DateRange, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return DateRange{}, &ValidationError{Field: "range", Reason: "start is after end"}
	}
	if end.After(Day(r.now())) {
		return DateRange{}, &ValidationError{Field: "range", Reason: "end is in the future"}
	}
	return DateRange{Start: start, End: end}, nil
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
