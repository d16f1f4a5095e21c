package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeComparisonSource struct {
	mu    sync.Mutex
	calls int
	fn    func(metric Metric, date time.Time) (ComparisonRecord, error)
}

func (f *fakeComparisonSource) FetchComparison(_ context.Context, metric Metric, date time.Time) (ComparisonRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(metric, date)
}

type fakeSeriesSource struct {
	mu      sync.Mutex
	calls   int
	records []DailyRecord
	err     error
}

func (f *fakeSeriesSource) FetchDailySeries(_ context.Context, _ int, _ time.Time) ([]DailyRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.records, f.err
}

// sequencedSeriesSource returns one canned response per call and can hold a
// response open until its gate closes.
type sequencedSeriesSource struct {
	mu        sync.Mutex
	calls     int
	responses [][]DailyRecord
	gates     []chan struct{}
}

func (s *sequencedSeriesSource) FetchDailySeries(_ context.Context, _ int, _ time.Time) ([]DailyRecord, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	records := s.responses[i]
	gate := s.gates[i]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return records, nil
}

func floatPtr(v float64) *float64 { return &v }

func TestAggregatorPrefersAuthoritative(t *testing.T) {
	comparisons := &fakeComparisonSource{fn: func(metric Metric, date time.Time) (ComparisonRecord, error) {
		return ComparisonRecord{
			Metric:  metric,
			Today:   ComparisonPeriod{Date: date, Value: floatPtr(18)},
			Insight: "from the endpoint",
		}, nil
	}}
	series := &fakeSeriesSource{records: seriesFrom(date(2025, 3, 1), 30)}
	agg := NewAggregator(AggregatorOptions{Comparisons: comparisons, Series: series})

	rec, err := agg.Compare(context.Background(), MetricWaitTime, date(2025, 3, 30))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if rec.Source != SourceAuthoritative {
		t.Fatalf("source %q, want authoritative", rec.Source)
	}
	if series.calls != 0 {
		t.Fatalf("series source touched %d times on the authoritative path", series.calls)
	}
}

func TestAggregatorFallsBackOnlyOnNotFound(t *testing.T) {
	comparisons := &fakeComparisonSource{fn: func(Metric, time.Time) (ComparisonRecord, error) {
		return ComparisonRecord{}, ErrComparisonNotFound
	}}
	series := &fakeSeriesSource{records: seriesFrom(date(2025, 3, 1), 30)}
	agg := NewAggregator(AggregatorOptions{Comparisons: comparisons, Series: series})

	rec, err := agg.Compare(context.Background(), MetricSales, date(2025, 3, 30))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if rec.Source != SourceSynthesized {
		t.Fatalf("source %q, want synthesized", rec.Source)
	}
	if series.calls != 1 {
		t.Fatalf("series loaded %d times, want 1", series.calls)
	}
}

func TestAggregatorPropagatesOtherErrors(t *testing.T) {
	boom := errors.New("backend: internal server error")
	comparisons := &fakeComparisonSource{fn: func(Metric, time.Time) (ComparisonRecord, error) {
		return ComparisonRecord{}, boom
	}}
	series := &fakeSeriesSource{records: seriesFrom(date(2025, 3, 1), 30)}
	agg := NewAggregator(AggregatorOptions{Comparisons: comparisons, Series: series})

	_, err := agg.Compare(context.Background(), MetricSales, date(2025, 3, 30))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the backend error untouched, got %v", err)
	}
	if series.calls != 0 {
		t.Fatalf("a non-not-found error must not trigger synthesis, series loaded %d times", series.calls)
	}
}

func TestAggregatorNilComparisonsSynthesizes(t *testing.T) {
	series := &fakeSeriesSource{records: seriesFrom(date(2025, 3, 1), 30)}
	agg := NewAggregator(AggregatorOptions{Series: series})

	rec, err := agg.Compare(context.Background(), MetricBusyness, date(2025, 3, 30))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if rec.Source != SourceSynthesized {
		t.Fatalf("source %q, want synthesized", rec.Source)
	}
}

func TestCompareAllPartialFailure(t *testing.T) {
	// wait_time and busyness fail upstream with distinct errors; sales
	// resolves. The snapshot must carry both failures and the one record.
	waitErr := errors.New("backend: wait time endpoint down")
	busyErr := errors.New("backend: busyness endpoint down")
	comparisons := &fakeComparisonSource{fn: func(metric Metric, date time.Time) (ComparisonRecord, error) {
		switch metric {
		case MetricWaitTime:
			return ComparisonRecord{}, waitErr
		case MetricBusyness:
			return ComparisonRecord{}, busyErr
		default:
			return ComparisonRecord{Metric: metric, Today: ComparisonPeriod{Date: date, Value: floatPtr(1200)}}, nil
		}
	}}
	series := &fakeSeriesSource{records: seriesFrom(date(2025, 3, 1), 30)}
	agg := NewAggregator(AggregatorOptions{Comparisons: comparisons, Series: series})

	snapshot := agg.CompareAll(context.Background(), date(2025, 3, 30))
	if snapshot.Sales == nil {
		t.Fatal("sales comparison missing from snapshot")
	}
	if !errors.Is(snapshot.Errors[MetricWaitTime], waitErr) {
		t.Fatalf("wait time error %v, want %v", snapshot.Errors[MetricWaitTime], waitErr)
	}
	if !errors.Is(snapshot.Errors[MetricBusyness], busyErr) {
		t.Fatalf("busyness error %v, want %v", snapshot.Errors[MetricBusyness], busyErr)
	}
	if snapshot.WaitTime != nil || snapshot.Busyness != nil {
		t.Fatal("failed metrics must leave their record slots nil")
	}
	if snapshot.Trend == nil {
		t.Fatalf("trend missing, err %v", snapshot.TrendErr)
	}
}

func TestCompareAllTrendFromLoadedSeries(t *testing.T) {
	series := &fakeSeriesSource{records: seriesFrom(date(2025, 3, 1), 14)}
	agg := NewAggregator(AggregatorOptions{Series: series})

	snapshot := agg.CompareAll(context.Background(), date(2025, 3, 14))
	if snapshot.Trend == nil {
		t.Fatalf("trend missing, err %v", snapshot.TrendErr)
	}
	if snapshot.Trend.DaysAnalyzed != 14 {
		t.Fatalf("trend covers %d days, want 14", snapshot.Trend.DaysAnalyzed)
	}
}

func TestLoadSeriesStaleGenerationDiscarded(t *testing.T) {
	// The first request is issued before the second but its response arrives
	// after. The store must keep the newer request's series.
	gate := make(chan struct{})
	source := &sequencedSeriesSource{
		responses: [][]DailyRecord{
			seriesFrom(date(2025, 1, 1), 5),
			seriesFrom(date(2025, 2, 1), 10),
		},
		gates: []chan struct{}{gate, nil},
	}

	store := NewSeriesStore()
	agg := NewAggregator(AggregatorOptions{Series: source, Store: store})

	done := make(chan error, 1)
	go func() {
		done <- agg.LoadSeries(context.Background(), 5, date(2025, 1, 5))
	}()
	for {
		source.mu.Lock()
		started := source.calls == 1
		source.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// the newer request completes while the older one is still in flight
	if err := agg.LoadSeries(context.Background(), 10, date(2025, 2, 10)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if store.Len() != 10 {
		t.Fatalf("store holds %d records, want the newer request's 10", store.Len())
	}
	if got := store.Generation(); got != 2 {
		t.Fatalf("store generation %d, want 2", got)
	}
	if first, _ := store.At(0); !first.Date.Equal(date(2025, 2, 1)) {
		t.Fatalf("stale response overwrote the store, first record at %v", first.Date)
	}
}

func TestLoadSeriesWithoutSource(t *testing.T) {
	agg := NewAggregator(AggregatorOptions{})
	if err := agg.LoadSeries(context.Background(), 30, date(2025, 3, 1)); err == nil {
		t.Fatal("expected error when no series source configured")
	}
}

func TestAggregatorTelemetryEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	telemetry := telemetryFunc(func(_ context.Context, event string, _ map[string]any) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	})
	series := &fakeSeriesSource{records: seriesFrom(date(2025, 3, 1), 30)}
	agg := NewAggregator(AggregatorOptions{Series: series, Telemetry: telemetry})

	if _, err := agg.Compare(context.Background(), MetricSales, date(2025, 3, 30)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	var loaded, compared bool
	for _, ev := range events {
		switch ev {
		case "history.series.load":
			loaded = true
		case "history.compare":
			compared = true
		}
	}
	if !loaded || !compared {
		t.Fatalf("expected load and compare events, got %v", events)
	}
}

type telemetryFunc func(ctx context.Context, event string, payload map[string]any)

func (f telemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}
