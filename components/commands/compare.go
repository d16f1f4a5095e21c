package commands

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"

	"github.com/dinemetra/go-insights/components/history"
)

type compareService interface {
	Compare(ctx context.Context, metric history.Metric, date time.Time) (history.ComparisonRecord, error)
	CompareAll(ctx context.Context, date time.Time) history.Snapshot
	Trend(ctx context.Context, end time.Time) (history.TrendSummary, error)
}

// CompareInput requests one metric comparison for a date.
type CompareInput struct {
	Metric history.Metric `json:"metric"`
	Date   time.Time      `json:"date"`
}

// CompareQuery resolves a single metric comparison so transports can invoke
// the aggregator without linking directly against it.
type CompareQuery struct {
	service compareService
}

// NewCompareQuery builds the query.
func NewCompareQuery(service compareService) *CompareQuery {
	return &CompareQuery{service: service}
}

var _ gocommand.Querier[CompareInput, history.ComparisonRecord] = (*CompareQuery)(nil)

// Query resolves the comparison.
func (q *CompareQuery) Query(ctx context.Context, msg CompareInput) (history.ComparisonRecord, error) {
	return q.service.Compare(ctx, msg.Metric, msg.Date)
}

// SnapshotInput requests the full cross-metric snapshot for a date.
type SnapshotInput struct {
	Date time.Time `json:"date"`
}

// SnapshotQuery resolves all three metric comparisons plus the trend summary.
type SnapshotQuery struct {
	service   compareService
	telemetry Telemetry
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(service compareService, telemetry Telemetry) *SnapshotQuery {
	return &SnapshotQuery{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Querier[SnapshotInput, history.Snapshot] = (*SnapshotQuery)(nil)

// Query assembles the snapshot and records how many metrics resolved.
func (q *SnapshotQuery) Query(ctx context.Context, msg SnapshotInput) (history.Snapshot, error) {
	snapshot := q.service.CompareAll(ctx, msg.Date)
	resolved := 0
	for _, metric := range history.Metrics() {
		if snapshot.Record(metric) != nil {
			resolved++
		}
	}
	q.telemetry.Record(ctx, "insights.snapshot", map[string]any{
		"date":     msg.Date.Format("2006-01-02"),
		"resolved": resolved,
		"failed":   len(snapshot.Errors),
	})
	return snapshot, nil
}

// TrendInput requests the trend summary of the window ending at a date.
type TrendInput struct {
	End time.Time `json:"end"`
}

// TrendQuery resolves the trend summary of the stored series.
type TrendQuery struct {
	service compareService
}

// NewTrendQuery builds the query.
func NewTrendQuery(service compareService) *TrendQuery {
	return &TrendQuery{service: service}
}

var _ gocommand.Querier[TrendInput, history.TrendSummary] = (*TrendQuery)(nil)

// Query resolves the trend summary.
func (q *TrendQuery) Query(ctx context.Context, msg TrendInput) (history.TrendSummary, error) {
	return q.service.Trend(ctx, msg.End)
}
