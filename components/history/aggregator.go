package history

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const defaultWindowDays = 30

var errMissingSeriesSource = errors.New("history: series source not configured")

// AggregatorOptions configures the comparison Aggregator. Collaborators are
// provided via interface so applications can swap transports without
// importing adapter packages.
type AggregatorOptions struct {
	Comparisons ComparisonSource
	Series      SeriesSource
	Store       *SeriesStore
	Telemetry   Telemetry
	WindowDays  int
}

// Aggregator orchestrates per-metric comparisons: authoritative endpoint
// first, synthesis from the raw series strictly on a not-found signal, and
// error propagation for everything else.
type Aggregator struct {
	opts       AggregatorOptions
	synth      *Synthesizer
	generation atomic.Uint64
}

// Snapshot is the assembled result of CompareAll. Metrics that failed are nil
// with the paired error recorded under Errors; the snapshot stays usable with
// partial data.
type Snapshot struct {
	Date     time.Time
	WaitTime *ComparisonRecord
	Sales    *ComparisonRecord
	Busyness *ComparisonRecord
	Trend    *TrendSummary
	TrendErr error
	Errors   map[Metric]error
}

// Record returns the comparison slot for a metric.
func (s *Snapshot) Record(metric Metric) *ComparisonRecord {
	switch metric {
	case MetricWaitTime:
		return s.WaitTime
	case MetricSales:
		return s.Sales
	case MetricBusyness:
		return s.Busyness
	default:
		return nil
	}
}

func (s *Snapshot) setRecord(metric Metric, rec *ComparisonRecord) {
	switch metric {
	case MetricWaitTime:
		s.WaitTime = rec
	case MetricSales:
		s.Sales = rec
	case MetricBusyness:
		s.Busyness = rec
	}
}

// NewAggregator builds an Aggregator with safe defaults. A nil Comparisons
// source behaves as an endpoint that has nothing, so every comparison is
// synthesized.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	if opts.Store == nil {
		opts.Store = NewSeriesStore()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.WindowDays <= 0 {
		opts.WindowDays = defaultWindowDays
	}
	return &Aggregator{
		opts:  opts,
		synth: NewSynthesizer(opts.Store),
	}
}

// Store exposes the series store owned by the aggregator.
func (a *Aggregator) Store() *SeriesStore {
	return a.opts.Store
}

// Compare resolves one metric for one date. The authoritative source is
// consulted first; only ErrComparisonNotFound falls back to synthesis from
// the most recently loaded series (loading a default window when the store is
// empty). Any other error class propagates untouched.
func (a *Aggregator) Compare(ctx context.Context, metric Metric, date time.Time) (ComparisonRecord, error) {
	date = Day(date)
	if a.opts.Comparisons != nil {
		rec, err := a.opts.Comparisons.FetchComparison(ctx, metric, date)
		if err == nil {
			rec.Source = SourceAuthoritative
			a.record(ctx, "history.compare", map[string]any{
				"metric": string(metric),
				"source": string(SourceAuthoritative),
			})
			return rec, nil
		}
		if !errors.Is(err, ErrComparisonNotFound) {
			return ComparisonRecord{}, err
		}
	}

	if a.opts.Store.Len() == 0 {
		if err := a.LoadSeries(ctx, a.opts.WindowDays, date); err != nil {
			return ComparisonRecord{}, err
		}
	}
	rec, err := a.synth.Synthesize(metric, date)
	if err != nil {
		return ComparisonRecord{}, err
	}
	a.record(ctx, "history.compare", map[string]any{
		"metric": string(metric),
		"source": string(SourceSynthesized),
	})
	return rec, nil
}

// CompareAll issues the three metric comparisons concurrently. Metrics fail
// independently; completion order carries no meaning. The trend summary is
// computed over whatever series the comparisons loaded.
func (a *Aggregator) CompareAll(ctx context.Context, date time.Time) Snapshot {
	date = Day(date)
	snapshot := Snapshot{Date: date, Errors: map[Metric]error{}}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, metric := range Metrics() {
		wg.Add(1)
		go func(metric Metric) {
			defer wg.Done()
			rec, err := a.Compare(ctx, metric, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				snapshot.Errors[metric] = err
				return
			}
			snapshot.setRecord(metric, &rec)
		}(metric)
	}
	wg.Wait()

	if a.opts.Store.Len() == 0 {
		if err := a.LoadSeries(ctx, a.opts.WindowDays, date); err != nil {
			snapshot.TrendErr = err
			return snapshot
		}
	}
	trend, err := Summarize(a.opts.Store.Snapshot())
	if err != nil {
		snapshot.TrendErr = err
		return snapshot
	}
	snapshot.Trend = &trend
	return snapshot
}

// LoadSeries fetches a window of daily records ending at the given date into
// the store. The generation token is taken at request issuance: when rapid
// date changes race, a slow stale response can never overwrite the series a
// newer request installed.
func (a *Aggregator) LoadSeries(ctx context.Context, windowDays int, end time.Time) error {
	if a.opts.Series == nil {
		return errMissingSeriesSource
	}
	if windowDays <= 0 {
		windowDays = a.opts.WindowDays
	}
	generation := a.generation.Add(1)
	records, err := a.opts.Series.FetchDailySeries(ctx, windowDays, Day(end))
	if err != nil {
		return err
	}
	accepted := a.opts.Store.Replace(records, generation)
	a.record(ctx, "history.series.load", map[string]any{
		"window_days": windowDays,
		"records":     len(records),
		"accepted":    accepted,
	})
	return nil
}

// Trend summarizes the currently stored series, loading the default window
// when the store is empty.
func (a *Aggregator) Trend(ctx context.Context, end time.Time) (TrendSummary, error) {
	if a.opts.Store.Len() == 0 {
		if err := a.LoadSeries(ctx, a.opts.WindowDays, end); err != nil {
			return TrendSummary{}, err
		}
	}
	return Summarize(a.opts.Store.Snapshot())
}

func (a *Aggregator) record(ctx context.Context, event string, payload map[string]any) {
	a.opts.Telemetry.Record(ctx, event, payload)
}
