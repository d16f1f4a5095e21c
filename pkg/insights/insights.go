// Package insights wires the comparison aggregator, prediction orchestrator,
// backend client, and push channel into one service for applications that
// want the full stack without assembling it by hand.
package insights

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinemetra/go-insights/components/history"
	"github.com/dinemetra/go-insights/components/predictions"
	"github.com/dinemetra/go-insights/pkg/backend"
	"github.com/dinemetra/go-insights/pkg/push"
)

// Config configures the composed service. With an empty BaseURL the service
// runs on generated demo data and predictions stay disabled.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	// PushURL enables the live push channel when set.
	PushURL string
	Dialer  push.Dialer

	// Definitions overrides the built-in prediction definitions, typically
	// from a YAML manifest.
	Definitions []predictions.Definition

	Logger    *zerolog.Logger
	Telemetry Telemetry
}

// Telemetry matches the component telemetry contracts so one recorder can
// observe the whole stack.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Service is the assembled insights stack.
type Service struct {
	aggregator   *history.Aggregator
	orchestrator *predictions.Orchestrator
	manager      *push.Manager
	client       *backend.Client
	logger       zerolog.Logger
}

// New builds the service. Nothing connects until Start.
func New(cfg Config) (*Service, error) {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	svc := &Service{logger: logger}

	if cfg.BaseURL == "" {
		svc.aggregator = history.NewAggregator(history.AggregatorOptions{
			Comparisons: history.NotFoundComparisonSource{},
			Series:      history.DemoSeriesSource{},
			Telemetry:   cfg.Telemetry,
		})
		return svc, nil
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	svc.client = client
	svc.aggregator = history.NewAggregator(history.AggregatorOptions{
		Comparisons: client,
		Series:      client,
		Telemetry:   cfg.Telemetry,
	})
	svc.orchestrator = predictions.NewOrchestrator(predictions.Options{
		Predictor:   client,
		Definitions: cfg.Definitions,
		Telemetry:   cfg.Telemetry,
	})

	if cfg.PushURL != "" {
		manager, err := push.NewManager(push.Options{
			URL:     cfg.PushURL,
			Dialer:  cfg.Dialer,
			Logger:  &logger,
			Handler: svc.handlePush,
		})
		if err != nil {
			return nil, err
		}
		svc.manager = manager
	}
	return svc, nil
}

// Aggregator exposes the comparison aggregator.
func (s *Service) Aggregator() *history.Aggregator { return s.aggregator }

// Orchestrator exposes the prediction orchestrator. Nil in demo mode.
func (s *Service) Orchestrator() *predictions.Orchestrator { return s.orchestrator }

// Push exposes the push manager when one is configured.
func (s *Service) Push() *push.Manager { return s.manager }

// Backend exposes the raw backend client. Nil in demo mode.
func (s *Service) Backend() *backend.Client { return s.client }

// Start kicks off the initial prediction refresh and, when configured, the
// push connection loop.
func (s *Service) Start(ctx context.Context) {
	if s.orchestrator != nil {
		s.orchestrator.Start(ctx)
	}
	if s.manager != nil {
		s.manager.Start(ctx)
	}
}

// Stop tears down the push connection.
func (s *Service) Stop() {
	if s.manager != nil {
		s.manager.Stop()
	}
}

// Snapshot resolves the full cross-metric comparison for a date.
func (s *Service) Snapshot(ctx context.Context, date time.Time) history.Snapshot {
	return s.aggregator.CompareAll(ctx, date)
}

// handlePush reacts to live events: a prediction update refreshes the named
// slot so consumers always read fresh data.
func (s *Service) handlePush(event push.Event) {
	switch event.Type {
	case push.EventPredictionUpdate:
		if s.orchestrator == nil {
			return
		}
		metric, _ := event.Data["type"].(string)
		if metric == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.orchestrator.Refresh(ctx, predictions.MetricType(metric), nil); err != nil {
			s.logger.Warn().Err(err).Str("type", metric).Msg("insights: push refresh failed")
		}
	case push.EventAlert:
		s.logger.Info().Fields(event.Data).Msg("insights: backend alert")
	}
}
