package history

import "time"

// operatingHoursPerDay converts a daily order count into the busyness
// orders-per-hour figure.
const operatingHoursPerDay = 12

// horizon offsets in series positions, not calendar days: the week horizon is
// 7 records back, the year horizon 364 records back (same weekday).
const (
	weekOffset = 7
	yearOffset = 364
)

// Synthesizer derives a three-horizon ComparisonRecord for one metric from
// the raw daily series, used when the authoritative comparison endpoint has
// no data. Alignment is index-based over the ascending series: a series
// shorter than 8 entries degenerates the week horizon to index 0 and the
// comparison collapses to "same value" (change percent 0) rather than
// failing; a series shorter than 365 entries degenerates the year horizon the
// same way.
type Synthesizer struct {
	store *SeriesStore
}

// NewSynthesizer builds a synthesizer over the given store.
func NewSynthesizer(store *SeriesStore) *Synthesizer {
	if store == nil {
		store = NewSeriesStore()
	}
	return &Synthesizer{store: store}
}

// Synthesize derives the comparison for a metric at the target date. The only
// failure mode is an empty store.
func (s *Synthesizer) Synthesize(metric Metric, date time.Time) (ComparisonRecord, error) {
	n := s.store.Len()
	if n == 0 {
		return ComparisonRecord{}, &InsufficientDataError{Op: "synthesize", Need: 1, Got: 0}
	}

	todayIdx := s.store.IndexOf(date)
	if todayIdx < 0 {
		// target precedes the series; no extrapolation, use what we have
		todayIdx = n - 1
	}
	weekIdx := todayIdx - weekOffset
	if weekIdx < 0 {
		weekIdx = 0
	}
	yearIdx := todayIdx - yearOffset
	if yearIdx < 0 {
		yearIdx = 0
	}

	today, _ := s.store.At(todayIdx)
	week, _ := s.store.At(weekIdx)
	year, _ := s.store.At(yearIdx)

	rec := ComparisonRecord{
		Metric:   metric,
		Today:    newPeriod(metric, today, nil),
		LastWeek: newPeriod(metric, week, &today),
		LastYear: newPeriod(metric, year, &today),
		Source:   SourceSynthesized,
	}
	rec.Insight = synthesizedInsight(metric, rec)
	return rec, nil
}

func newPeriod(metric Metric, rec DailyRecord, current *DailyRecord) ComparisonPeriod {
	value, count := metricValue(metric, rec)
	period := ComparisonPeriod{
		Date:  Day(rec.Date),
		Value: &value,
	}
	if count != nil {
		period.Count = count
	}
	if current != nil {
		curr, _ := metricValue(metric, *current)
		change := curr - value
		pct := ChangePercent(curr, value)
		period.Change = &change
		period.ChangePercent = &pct
	}
	return period
}

// metricValue extracts the compared figure for a metric from a daily record.
// Busyness is orders per hour assuming a 12-hour operating day.
func metricValue(metric Metric, rec DailyRecord) (float64, *int) {
	switch metric {
	case MetricWaitTime:
		return rec.WaitTimeMinutes, nil
	case MetricSales:
		count := rec.OrderCount
		return rec.SalesTotal, &count
	case MetricBusyness:
		count := rec.OrderCount
		return float64(rec.OrderCount) / operatingHoursPerDay, &count
	default:
		return 0, nil
	}
}

// ChangePercent computes the relative change of curr against prev. A zero
// baseline yields 0, never NaN or Inf.
func ChangePercent(curr, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (curr - prev) / prev * 100
}
