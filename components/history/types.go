package history

import (
	"context"
	"time"
)

// Metric identifies one of the compared operational metrics.
type Metric string

const (
	MetricWaitTime Metric = "wait_time"
	MetricSales    Metric = "sales"
	MetricBusyness Metric = "busyness"
)

// Metrics returns every metric the aggregator compares, in a stable order.
func Metrics() []Metric {
	return []Metric{MetricWaitTime, MetricSales, MetricBusyness}
}

// Source discriminates authoritative backend data from client-side synthesis.
type Source string

const (
	SourceAuthoritative Source = "authoritative"
	SourceSynthesized   Source = "synthesized"
)

// TrendDirection classifies how a window trends over time.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// DateRange is a closed day-granular interval. Start <= End <= today holds for
// every value produced by RangeResolver; a new value replaces an old one, the
// range itself is never mutated downstream.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days the range covers, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// DailyRecord is one calendar day of operational figures. Series are ordered
// by date ascending with no duplicate dates.
type DailyRecord struct {
	Date            time.Time
	WaitTimeMinutes float64
	SalesTotal      float64
	OrderCount      int
}

// ComparisonPeriod captures one horizon (selected day, week prior, year prior)
// for a single metric. Nil fields mean the backend had no figure for the
// period.
type ComparisonPeriod struct {
	Date          time.Time
	Value         *float64
	Count         *int
	Change        *float64
	ChangePercent *float64
}

// ComparisonRecord is the full three-horizon comparison for one metric.
// Source is always tagged so callers can distinguish real from derived data.
type ComparisonRecord struct {
	Metric   Metric
	Today    ComparisonPeriod
	LastWeek ComparisonPeriod
	LastYear ComparisonPeriod
	Insight  string
	Source   Source
}

// TrendSummary reduces a window of daily records to display statistics. It is
// derived on demand and never persisted.
type TrendSummary struct {
	PeakWaitTime     float64
	AvgDailySales    float64
	TotalOrders      int
	BusiestDayOfWeek time.Weekday
	TrendDirection   TrendDirection
	DaysAnalyzed     int
}

// HistoricalSummary reports what the backend holds, per record kind.
type HistoricalSummary struct {
	RecordCounts map[string]int
	DateRange    *DateRange
}

// ComparisonSource is the authoritative backend comparison endpoint. A missing
// comparison is signalled with ErrComparisonNotFound; any other error is a
// real outage and must not trigger synthesis.
type ComparisonSource interface {
	FetchComparison(ctx context.Context, metric Metric, date time.Time) (ComparisonRecord, error)
}

// SeriesSource loads a raw daily series ending at the given date.
type SeriesSource interface {
	FetchDailySeries(ctx context.Context, windowDays int, end time.Time) ([]DailyRecord, error)
}

// SummarySource reports backend data availability.
type SummarySource interface {
	FetchHistoricalSummary(ctx context.Context) (HistoricalSummary, error)
}
