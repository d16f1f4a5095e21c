package history

import (
	"testing"
	"time"
)

func TestSummarizeEmptyWindow(t *testing.T) {
	_, err := Summarize(nil)
	if _, ok := err.(*InsufficientDataError); !ok {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestSummarizeStatistics(t *testing.T) {
	// 14 days starting on a Saturday. Saturdays carry the heaviest order load
	// and the peak wait sits mid-window.
	start := date(2025, 3, 1)
	if start.Weekday() != time.Saturday {
		t.Fatalf("fixture start must be a Saturday, got %v", start.Weekday())
	}
	records := make([]DailyRecord, 14)
	for i := range records {
		day := start.AddDate(0, 0, i)
		rec := DailyRecord{Date: day, WaitTimeMinutes: 10, SalesTotal: 1000, OrderCount: 100}
		if day.Weekday() == time.Saturday {
			rec.OrderCount = 180
		}
		records[i] = rec
	}
	records[6].WaitTimeMinutes = 42

	sum, err := Summarize(records)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sum.PeakWaitTime != 42 {
		t.Fatalf("peak wait %v, want 42", sum.PeakWaitTime)
	}
	if sum.AvgDailySales != 1000 {
		t.Fatalf("avg daily sales %v, want 1000", sum.AvgDailySales)
	}
	if want := 12*100 + 2*180; sum.TotalOrders != want {
		t.Fatalf("total orders %v, want %v", sum.TotalOrders, want)
	}
	if sum.BusiestDayOfWeek != time.Saturday {
		t.Fatalf("busiest weekday %v, want Saturday", sum.BusiestDayOfWeek)
	}
	if sum.TrendDirection != TrendStable {
		t.Fatalf("flat sales should read stable, got %q", sum.TrendDirection)
	}
	if sum.DaysAnalyzed != 14 {
		t.Fatalf("days analyzed %v, want 14", sum.DaysAnalyzed)
	}
}

func TestSummarizeDirection(t *testing.T) {
	start := date(2025, 3, 1)
	build := func(firstHalf, secondHalf float64) []DailyRecord {
		records := make([]DailyRecord, 10)
		for i := range records {
			sales := firstHalf
			if i >= 5 {
				sales = secondHalf
			}
			records[i] = DailyRecord{Date: start.AddDate(0, 0, i), SalesTotal: sales, OrderCount: 50}
		}
		return records
	}

	cases := []struct {
		name                  string
		firstHalf, secondHalf float64
		want                  TrendDirection
	}{
		{"rising", 1000, 1100, TrendUp},
		{"falling", 1000, 900, TrendDown},
		{"within threshold", 1000, 1020, TrendStable},
		{"just below threshold", 1000, 975, TrendStable},
		{"zero baseline rising", 0, 500, TrendUp},
		{"all zero", 0, 0, TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum, err := Summarize(build(tc.firstHalf, tc.secondHalf))
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if sum.TrendDirection != tc.want {
				t.Fatalf("direction %q, want %q", sum.TrendDirection, tc.want)
			}
		})
	}
}

func TestSummarizeSingleDay(t *testing.T) {
	sum, err := Summarize(seriesFrom(date(2025, 3, 3), 1))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sum.TrendDirection != TrendStable {
		t.Fatalf("one-day window should read stable, got %q", sum.TrendDirection)
	}
	if sum.DaysAnalyzed != 1 {
		t.Fatalf("days analyzed %v, want 1", sum.DaysAnalyzed)
	}
}

func TestSummarizeWeeks(t *testing.T) {
	start := date(2025, 1, 1)
	records := seriesFrom(start, 30)

	sum, err := SummarizeWeeks(records, 2)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sum.DaysAnalyzed != 14 {
		t.Fatalf("trailing two weeks should cover 14 days, got %v", sum.DaysAnalyzed)
	}

	if _, err := SummarizeWeeks(records, 0); err == nil {
		t.Fatal("expected validation error for zero weeks")
	}

	// window shorter than the requested weeks uses everything available
	sum, err = SummarizeWeeks(records[:5], 4)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sum.DaysAnalyzed != 5 {
		t.Fatalf("short series should use all 5 days, got %v", sum.DaysAnalyzed)
	}
}
