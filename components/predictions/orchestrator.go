package predictions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errMissingPredictor = errors.New("predictions: predictor not configured")

// Predictor produces a prediction result for one metric type. Implementations
// typically call the dashboard backend.
type Predictor interface {
	Predict(ctx context.Context, metric MetricType, params map[string]any) (Result, error)
}

// Options configures the Orchestrator. Every collaborator is provided via
// interface so applications can swap implementations without importing
// adapter packages.
type Options struct {
	Predictor   Predictor
	Definitions []Definition
	Validator   ParamsValidator
	Telemetry   Telemetry
	Clock       func() time.Time
}

// Orchestrator tracks one prediction slot per registered metric type. Slots
// move idle -> loading -> ready or error independently; one type failing
// never disturbs the others.
type Orchestrator struct {
	opts  Options
	order []MetricType
	defs  map[MetricType]Definition

	mu     sync.RWMutex
	states map[MetricType]State

	startOnce sync.Once
}

// NewOrchestrator builds an Orchestrator with safe defaults. Without explicit
// definitions the built-in set is registered.
func NewOrchestrator(opts Options) *Orchestrator {
	if len(opts.Definitions) == 0 {
		opts.Definitions = DefaultDefinitions()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	o := &Orchestrator{
		opts:   opts,
		defs:   make(map[MetricType]Definition, len(opts.Definitions)),
		states: make(map[MetricType]State, len(opts.Definitions)),
	}
	for _, def := range opts.Definitions {
		if _, exists := o.defs[def.Type]; exists {
			continue
		}
		o.defs[def.Type] = def
		o.order = append(o.order, def.Type)
		o.states[def.Type] = State{Type: def.Type, Status: StatusIdle}
	}
	return o
}

// Definition returns the registered definition for a metric type.
func (o *Orchestrator) Definition(metric MetricType) (Definition, bool) {
	def, ok := o.defs[metric]
	return def, ok
}

// State returns the current slot state for a metric type.
func (o *Orchestrator) State(metric MetricType) (State, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	state, ok := o.states[metric]
	return state, ok
}

// States returns every slot state in registration order.
func (o *Orchestrator) States() []State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]State, 0, len(o.order))
	for _, metric := range o.order {
		out = append(out, o.states[metric])
	}
	return out
}

// Refresh requests a fresh prediction for one metric type. Parameters are
// merged over the definition defaults and validated against the definition
// schema before the slot enters loading. The returned error matches the
// error recorded on the slot.
func (o *Orchestrator) Refresh(ctx context.Context, metric MetricType, params map[string]any) error {
	def, ok := o.defs[metric]
	if !ok {
		return fmt.Errorf("predictions: unknown metric type %q", metric)
	}
	if o.opts.Predictor == nil {
		return errMissingPredictor
	}

	merged := mergeParams(def.Defaults, params)
	if err := o.opts.Validator.Validate(def, merged); err != nil {
		o.setState(State{Type: metric, Status: StatusError, Err: err, UpdatedAt: o.opts.Clock()})
		o.record(ctx, metric, StatusError)
		return err
	}

	o.setState(State{Type: metric, Status: StatusLoading, UpdatedAt: o.opts.Clock()})
	result, err := o.opts.Predictor.Predict(ctx, metric, merged)
	if err != nil {
		o.setState(State{Type: metric, Status: StatusError, Err: err, UpdatedAt: o.opts.Clock()})
		o.record(ctx, metric, StatusError)
		return err
	}
	o.setState(State{Type: metric, Status: StatusReady, Data: result, UpdatedAt: o.opts.Clock()})
	o.record(ctx, metric, StatusReady)
	return nil
}

// RefreshAll refreshes every registered type concurrently with default
// parameters and waits until all slots settle. Failures are returned per
// type; types absent from the map refreshed cleanly.
func (o *Orchestrator) RefreshAll(ctx context.Context) map[MetricType]error {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed = map[MetricType]error{}
	)
	for _, metric := range o.order {
		wg.Add(1)
		go func(metric MetricType) {
			defer wg.Done()
			if err := o.Refresh(ctx, metric, nil); err != nil {
				mu.Lock()
				failed[metric] = err
				mu.Unlock()
			}
		}(metric)
	}
	wg.Wait()
	return failed
}

// Start triggers the initial RefreshAll exactly once. Later calls are no-ops.
func (o *Orchestrator) Start(ctx context.Context) map[MetricType]error {
	var failed map[MetricType]error
	o.startOnce.Do(func() {
		failed = o.RefreshAll(ctx)
	})
	return failed
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states[state.Type] = state
}

func (o *Orchestrator) record(ctx context.Context, metric MetricType, status Status) {
	o.opts.Telemetry.Record(ctx, "predictions.refresh", map[string]any{
		"metric": string(metric),
		"status": string(status),
	})
}

func mergeParams(defaults, params map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(params))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}
