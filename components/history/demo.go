package history

import (
	"context"
	"time"
)

// DemoSeriesSource serves a deterministic synthetic daily series for demos
// and tests. The same window always produces the same records.
type DemoSeriesSource struct{}

func (DemoSeriesSource) FetchDailySeries(_ context.Context, windowDays int, end time.Time) ([]DailyRecord, error) {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	end = Day(end)
	records := make([]DailyRecord, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i)
		seed := day.YearDay()
		orders := 90 + (seed*7)%60
		if wd := day.Weekday(); wd == time.Friday || wd == time.Saturday {
			orders += 40
		}
		records = append(records, DailyRecord{
			Date:            day,
			WaitTimeMinutes: float64(12 + (seed*3)%18),
			SalesTotal:      float64(orders) * 24.5,
			OrderCount:      orders,
		})
	}
	return records, nil
}

// StaticSeriesSource always serves the provided records.
type StaticSeriesSource struct {
	Records []DailyRecord
}

func (s StaticSeriesSource) FetchDailySeries(context.Context, int, time.Time) ([]DailyRecord, error) {
	out := make([]DailyRecord, len(s.Records))
	copy(out, s.Records)
	return out, nil
}

// NotFoundComparisonSource models a backend without comparison support, so
// every comparison goes through synthesis.
type NotFoundComparisonSource struct{}

func (NotFoundComparisonSource) FetchComparison(context.Context, Metric, time.Time) (ComparisonRecord, error) {
	return ComparisonRecord{}, ErrComparisonNotFound
}
