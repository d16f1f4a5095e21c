package history

import (
	"fmt"
	"math"
	"strings"
)

// Insight thresholds: small movements read as "similar"/"stable" instead of
// flapping between directions on every refresh.
const (
	waitTimeInsightMinutes = 5.0
	salesInsightPercent    = 10.0
	busynessInsightPercent = 15.0
)

// synthesizedInsight builds the presentational one-liner for a comparison.
// The text is chosen deterministically from the sign and size of the
// week-over-week change; it is not statistically validated.
func synthesizedInsight(metric Metric, rec ComparisonRecord) string {
	switch metric {
	case MetricWaitTime:
		return waitTimeInsight(rec)
	case MetricSales:
		return salesInsight(rec)
	case MetricBusyness:
		return busynessInsight(rec)
	default:
		return ""
	}
}

func waitTimeInsight(rec ComparisonRecord) string {
	if rec.Today.Value == nil {
		return "No wait time data available for the selected day"
	}
	var parts []string
	if rec.LastWeek.Change != nil {
		change := *rec.LastWeek.Change
		switch {
		case change > waitTimeInsightMinutes:
			parts = append(parts, fmt.Sprintf("Wait times are %.1f minutes longer than last week", math.Abs(change)))
		case change < -waitTimeInsightMinutes:
			parts = append(parts, fmt.Sprintf("Wait times are %.1f minutes shorter than last week", math.Abs(change)))
		default:
			parts = append(parts, "Wait times are similar to last week")
		}
	}
	if rec.LastYear.Change != nil {
		change := *rec.LastYear.Change
		if math.Abs(change) > waitTimeInsightMinutes {
			direction := "longer"
			if change < 0 {
				direction = "shorter"
			}
			parts = append(parts, fmt.Sprintf("%.1f minutes %s than last year", math.Abs(change), direction))
		}
	}
	if len(parts) == 0 {
		return "Insufficient historical data for comparison"
	}
	return strings.Join(parts, ". ")
}

func salesInsight(rec ComparisonRecord) string {
	var parts []string
	if rec.LastWeek.ChangePercent != nil {
		pct := *rec.LastWeek.ChangePercent
		if math.Abs(pct) > salesInsightPercent {
			direction := "up"
			if pct < 0 {
				direction = "down"
			}
			parts = append(parts, fmt.Sprintf("Sales are %s %.1f%% vs last week", direction, math.Abs(pct)))
		}
	}
	if rec.LastYear.ChangePercent != nil {
		pct := *rec.LastYear.ChangePercent
		if math.Abs(pct) > salesInsightPercent {
			direction := "higher"
			if pct < 0 {
				direction = "lower"
			}
			parts = append(parts, fmt.Sprintf("%.1f%% %s than last year", math.Abs(pct), direction))
		}
	}
	if len(parts) == 0 {
		return "Sales are relatively stable"
	}
	return strings.Join(parts, ". ")
}

func busynessInsight(rec ComparisonRecord) string {
	if rec.LastWeek.ChangePercent != nil {
		pct := *rec.LastWeek.ChangePercent
		if math.Abs(pct) > busynessInsightPercent {
			direction := "busier"
			if pct < 0 {
				direction = "quieter"
			}
			return fmt.Sprintf("Restaurant is %s than last week (%.1f%%)", direction, math.Abs(pct))
		}
	}
	return "Busyness levels are normal"
}
