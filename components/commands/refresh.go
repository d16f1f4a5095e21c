package commands

import (
	"context"
	"errors"
	"time"

	gocommand "github.com/goliatone/go-command"

	"github.com/dinemetra/go-insights/components/history"
	"github.com/dinemetra/go-insights/components/predictions"
)

type predictionService interface {
	Refresh(ctx context.Context, metric predictions.MetricType, params map[string]any) error
	RefreshAll(ctx context.Context) map[predictions.MetricType]error
}

// RefreshPredictionsInput requests fresh predictions. With no Type set every
// registered type refreshes.
type RefreshPredictionsInput struct {
	Type   predictions.MetricType `json:"type,omitempty"`
	Params map[string]any         `json:"params,omitempty"`
}

// RefreshPredictionsCommand wraps the orchestrator refresh so transports and
// push handlers can trigger it without linking against the orchestrator.
type RefreshPredictionsCommand struct {
	service   predictionService
	telemetry Telemetry
}

// NewRefreshPredictionsCommand creates the command.
func NewRefreshPredictionsCommand(service predictionService, telemetry Telemetry) *RefreshPredictionsCommand {
	return &RefreshPredictionsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshPredictionsInput] = (*RefreshPredictionsCommand)(nil)

// Execute refreshes one type, or all of them when none is named. A partial
// RefreshAll failure is reported as a joined error; slots that resolved keep
// their fresh data regardless.
func (c *RefreshPredictionsCommand) Execute(ctx context.Context, msg RefreshPredictionsInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if msg.Type != "" {
		if err := c.service.Refresh(ctx, msg.Type, msg.Params); err != nil {
			return err
		}
		c.telemetry.Record(ctx, "insights.predictions.refresh", map[string]any{
			"type": string(msg.Type),
		})
		return nil
	}
	failed := c.service.RefreshAll(ctx)
	c.telemetry.Record(ctx, "insights.predictions.refresh", map[string]any{
		"type":   "all",
		"failed": len(failed),
	})
	if len(failed) > 0 {
		errs := make([]error, 0, len(failed))
		for _, err := range failed {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}
	return nil
}

type seriesService interface {
	LoadSeries(ctx context.Context, windowDays int, end time.Time) error
}

// LoadSeriesInput requests a reload of the daily series window.
type LoadSeriesInput struct {
	WindowDays int       `json:"window_days"`
	End        time.Time `json:"end"`
}

// LoadSeriesCommand reloads the aggregator's series store, typically in
// response to a date range change.
type LoadSeriesCommand struct {
	service   seriesService
	telemetry Telemetry
}

// NewLoadSeriesCommand creates the command.
func NewLoadSeriesCommand(service seriesService, telemetry Telemetry) *LoadSeriesCommand {
	return &LoadSeriesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadSeriesInput] = (*LoadSeriesCommand)(nil)

// Execute loads the requested window into the store.
func (c *LoadSeriesCommand) Execute(ctx context.Context, msg LoadSeriesInput) error {
	if c.service == nil {
		return errors.New("load series command requires service")
	}
	if err := c.service.LoadSeries(ctx, msg.WindowDays, msg.End); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "insights.series.load", map[string]any{
		"window_days": msg.WindowDays,
		"end":         history.Day(msg.End).Format("2006-01-02"),
	})
	return nil
}
