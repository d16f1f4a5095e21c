package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"github.com/rs/zerolog"

	"github.com/dinemetra/go-insights/components/commands"
	"github.com/dinemetra/go-insights/components/history"
	"github.com/dinemetra/go-insights/components/predictions"
	"github.com/dinemetra/go-insights/pkg/backend"
	"github.com/dinemetra/go-insights/pkg/push"
)

type cli struct {
	BaseURL string `default:"http://localhost:8000" help:"Dashboard backend base URL."`
	APIKey  string `env:"INSIGHTS_API_KEY" help:"Bearer token for the backend API."`
	Demo    bool   `help:"Use generated demo data instead of the live backend."`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Compare compareCmd `cmd:"" help:"Compare today's metrics against last week and last year."`
	Trends  trendsCmd  `cmd:"" help:"Summarize the recent trend window."`
	Predict predictCmd `cmd:"" help:"Refresh and print the prediction slots."`
	Watch   watchCmd   `cmd:"" help:"Stream live push events from the backend."`
}

type compareCmd struct {
	Metric string `help:"Single metric to compare (wait_time, sales, busyness). Defaults to all."`
	Preset string `default:"today" help:"Date preset (today, last7, last30, last-calendar-month)."`
	Date   string `help:"Explicit date (YYYY-MM-DD), overrides the preset."`
}

type trendsCmd struct {
	Weeks int `default:"4" help:"Number of trailing whole weeks to summarize."`
}

type predictCmd struct {
	Type     string `help:"Single prediction type (wait_time, busyness, item_sales). Defaults to all."`
	Manifest string `type:"path" help:"Optional YAML manifest overriding the built-in definitions."`
}

type watchCmd struct {
	URL string `default:"ws://localhost:8000/ws/updates" help:"Push endpoint."`
}

type appContext struct {
	logger     zerolog.Logger
	aggregator *history.Aggregator
	client     *backend.Client
}

// logTelemetry forwards component telemetry into the CLI log stream.
type logTelemetry struct {
	logger zerolog.Logger
}

func (t logTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.logger.Debug().Fields(payload).Msg(event)
}

func main() {
	root := &cli{}
	ctx := kong.Parse(root,
		kong.Description("Restaurant insights console for the dashboard backend."),
		kong.UsageOnError(),
	)

	level := zerolog.InfoLevel
	if root.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	app, err := root.buildApp(logger)
	ctx.FatalIfErrorf(err)
	err = ctx.Run(app)
	ctx.FatalIfErrorf(err)
}

func (c *cli) buildApp(logger zerolog.Logger) (*appContext, error) {
	app := &appContext{logger: logger}
	telemetry := logTelemetry{logger: logger}

	if c.Demo {
		app.aggregator = history.NewAggregator(history.AggregatorOptions{
			Comparisons: history.NotFoundComparisonSource{},
			Series:      history.DemoSeriesSource{},
			Telemetry:   telemetry,
		})
		return app, nil
	}

	client, err := backend.NewClient(backend.Config{BaseURL: c.BaseURL, APIKey: c.APIKey})
	if err != nil {
		return nil, err
	}
	app.client = client
	app.aggregator = history.NewAggregator(history.AggregatorOptions{
		Comparisons: client,
		Series:      client,
		Telemetry:   telemetry,
	})
	return app, nil
}

func (cmd *compareCmd) Run(app *appContext) error {
	date, err := cmd.resolveDate()
	if err != nil {
		return err
	}

	if cmd.Metric != "" {
		query := commands.NewCompareQuery(app.aggregator)
		rec, err := query.Query(context.Background(), commands.CompareInput{
			Metric: history.Metric(cmd.Metric),
			Date:   date,
		})
		if err != nil {
			return err
		}
		printComparison(rec)
		return nil
	}

	query := commands.NewSnapshotQuery(app.aggregator, logTelemetry{logger: app.logger})
	snapshot, err := query.Query(context.Background(), commands.SnapshotInput{Date: date})
	if err != nil {
		return err
	}
	for _, metric := range history.Metrics() {
		if rec := snapshot.Record(metric); rec != nil {
			printComparison(*rec)
			continue
		}
		if err, ok := snapshot.Errors[metric]; ok {
			fmt.Printf("%s: unavailable (%v)\n", metricLabel(metric), err)
		}
	}
	if snapshot.Trend != nil {
		printTrend(*snapshot.Trend)
	}
	return nil
}

func (cmd *compareCmd) resolveDate() (time.Time, error) {
	if cmd.Date != "" {
		parsed, err := time.Parse(time.DateOnly, cmd.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("insightsctl: parse date %q: %w", cmd.Date, err)
		}
		return parsed, nil
	}
	resolved, err := history.NewRangeResolver(nil).Resolve(history.Preset(cmd.Preset))
	if err != nil {
		return time.Time{}, err
	}
	return resolved.End, nil
}

func (cmd *trendsCmd) Run(app *appContext) error {
	end := history.Day(time.Now())
	if err := app.aggregator.LoadSeries(context.Background(), cmd.Weeks*7, end); err != nil {
		return err
	}
	summary, err := history.SummarizeWeeks(app.aggregator.Store().Snapshot(), cmd.Weeks)
	if err != nil {
		return err
	}
	printTrend(summary)
	return nil
}

func (cmd *predictCmd) Run(app *appContext) error {
	if app.client == nil {
		return fmt.Errorf("insightsctl: predictions require a live backend (drop --demo)")
	}
	opts := predictions.Options{
		Predictor: app.client,
		Telemetry: logTelemetry{logger: app.logger},
	}
	if cmd.Manifest != "" {
		doc, err := predictions.ReadManifest(cmd.Manifest)
		if err != nil {
			return err
		}
		opts.Definitions = doc.Definitions
	}
	orch := predictions.NewOrchestrator(opts)
	refresh := commands.NewRefreshPredictionsCommand(orch, logTelemetry{logger: app.logger})

	err := refresh.Execute(context.Background(), commands.RefreshPredictionsInput{
		Type: predictions.MetricType(cmd.Type),
	})
	for _, state := range orch.States() {
		label := strcase.ToCase(string(state.Type), strcase.TitleCase, ' ')
		switch state.Status {
		case predictions.StatusReady:
			fmt.Printf("%s: %v\n", label, state.Data)
		case predictions.StatusError:
			fmt.Printf("%s: failed (%v)\n", label, state.Err)
		default:
			fmt.Printf("%s: %s\n", label, state.Status)
		}
	}
	return err
}

func (cmd *watchCmd) Run(app *appContext) error {
	logger := app.logger
	mgr, err := push.NewManager(push.Options{
		URL:    cmd.URL,
		Logger: &logger,
		Handler: func(event push.Event) {
			logger.Info().
				Str("type", event.Type).
				Time("timestamp", event.Timestamp).
				Fields(event.Data).
				Msg("push event")
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr.Start(ctx)
	logger.Info().Str("url", cmd.URL).Str("client_id", mgr.ClientID()).Msg("watching push events")
	select {
	case <-ctx.Done():
		mgr.Stop()
		<-mgr.Done()
		return nil
	case <-mgr.Done():
		return mgr.Err()
	}
}

func metricLabel(metric history.Metric) string {
	return strcase.ToCase(string(metric), strcase.TitleCase, ' ')
}

func printComparison(rec history.ComparisonRecord) {
	fmt.Printf("%s [%s]\n", metricLabel(rec.Metric), rec.Source)
	printPeriod("  today     ", rec.Today)
	printPeriod("  last week ", rec.LastWeek)
	printPeriod("  last year ", rec.LastYear)
	if rec.Insight != "" {
		fmt.Printf("  %s\n", rec.Insight)
	}
}

func printPeriod(label string, period history.ComparisonPeriod) {
	fmt.Printf("%s %s", label, period.Date.Format(time.DateOnly))
	if period.Value != nil {
		fmt.Printf("  value=%.2f", *period.Value)
	}
	if period.Count != nil {
		fmt.Printf("  orders=%d", *period.Count)
	}
	if period.ChangePercent != nil {
		fmt.Printf("  change=%+.1f%%", *period.ChangePercent)
	}
	fmt.Println()
}

func printTrend(summary history.TrendSummary) {
	fmt.Printf("Trend over %d days: %s\n", summary.DaysAnalyzed, summary.TrendDirection)
	fmt.Printf("  peak wait       %.1f min\n", summary.PeakWaitTime)
	fmt.Printf("  avg daily sales %.2f\n", summary.AvgDailySales)
	fmt.Printf("  total orders    %d\n", summary.TotalOrders)
	fmt.Printf("  busiest day     %s\n", summary.BusiestDayOfWeek)
}
