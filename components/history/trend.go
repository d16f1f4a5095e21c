package history

import "time"

// trendThreshold is the relative movement between window halves below which
// the direction reads as stable.
const trendThreshold = 0.03

// Summarize reduces a window of daily records to trend statistics in a single
// pass. The trend direction compares the mean daily sales of the second half
// of the window against the first half, with a 3% relative threshold. An
// empty window fails with InsufficientDataError.
func Summarize(records []DailyRecord) (TrendSummary, error) {
	n := len(records)
	if n == 0 {
		return TrendSummary{}, &InsufficientDataError{Op: "summarize", Need: 1, Got: 0}
	}

	var (
		peakWait     float64
		totalSales   float64
		totalOrders  int
		weekdaySum   [7]float64
		weekdayCount [7]int
		firstHalf    float64
		secondHalf   float64
	)
	half := n / 2
	for i, rec := range records {
		if rec.WaitTimeMinutes > peakWait {
			peakWait = rec.WaitTimeMinutes
		}
		totalSales += rec.SalesTotal
		totalOrders += rec.OrderCount
		wd := int(Day(rec.Date).Weekday())
		weekdaySum[wd] += float64(rec.OrderCount)
		weekdayCount[wd]++
		if i < half {
			firstHalf += rec.SalesTotal
		} else {
			secondHalf += rec.SalesTotal
		}
	}

	return TrendSummary{
		PeakWaitTime:     peakWait,
		AvgDailySales:    totalSales / float64(n),
		TotalOrders:      totalOrders,
		BusiestDayOfWeek: busiestWeekday(weekdaySum, weekdayCount),
		TrendDirection:   direction(firstHalf, float64(half), secondHalf, float64(n-half)),
		DaysAnalyzed:     n,
	}, nil
}

// SummarizeWeeks summarizes the trailing whole weeks of a series.
func SummarizeWeeks(records []DailyRecord, weeks int) (TrendSummary, error) {
	if weeks < 1 {
		return TrendSummary{}, &ValidationError{Field: "weeks", Reason: "must be at least 1"}
	}
	days := weeks * 7
	if len(records) > days {
		records = records[len(records)-days:]
	}
	return Summarize(records)
}

func busiestWeekday(sum [7]float64, count [7]int) time.Weekday {
	best, bestMean := 0, -1.0
	for wd := 0; wd < 7; wd++ {
		if count[wd] == 0 {
			continue
		}
		mean := sum[wd] / float64(count[wd])
		if mean > bestMean {
			best, bestMean = wd, mean
		}
	}
	return time.Weekday(best)
}

func direction(firstSum, firstN, secondSum, secondN float64) TrendDirection {
	if firstN == 0 || secondN == 0 {
		return TrendStable
	}
	firstMean := firstSum / firstN
	secondMean := secondSum / secondN
	if firstMean == 0 {
		if secondMean > 0 {
			return TrendUp
		}
		return TrendStable
	}
	relative := (secondMean - firstMean) / firstMean
	switch {
	case relative > trendThreshold:
		return TrendUp
	case relative < -trendThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}
