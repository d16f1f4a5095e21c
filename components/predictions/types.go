package predictions

import "time"

// MetricType identifies a prediction stream.
type MetricType string

const (
	TypeWaitTime  MetricType = "wait_time"
	TypeBusyness  MetricType = "busyness"
	TypeItemSales MetricType = "item_sales"
)

// Types lists the built-in prediction types in a stable order.
func Types() []MetricType {
	return []MetricType{TypeWaitTime, TypeBusyness, TypeItemSales}
}

// Status is the lifecycle phase of one prediction slot.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Result is the payload returned by a prediction backend. The shape varies by
// metric type, so it stays a loose map the way provider payloads do.
type Result map[string]any

// State is the observable condition of one prediction slot. Data is only
// meaningful when Status is ready; Err only when Status is error.
type State struct {
	Type      MetricType
	Status    Status
	Data      Result
	Err       error
	UpdatedAt time.Time
}

// Definition describes a prediction type: its request parameter schema and
// the defaults merged under caller parameters before validation.
type Definition struct {
	Type        MetricType     `json:"type" yaml:"type"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Defaults    map[string]any `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// DefaultDefinitions returns the built-in prediction definitions.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Type:        TypeWaitTime,
			Name:        "Wait Time Forecast",
			Description: "Expected customer wait in minutes for the coming hours.",
			Schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"horizon_hours": map[string]any{"type": "integer", "minimum": 1, "maximum": 24},
					"party_size":    map[string]any{"type": "integer", "minimum": 1, "maximum": 20},
				},
			},
			Defaults: map[string]any{"horizon_hours": 2},
		},
		{
			Type:        TypeBusyness,
			Name:        "Busyness Forecast",
			Description: "Expected order volume relative to a normal day.",
			Schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"horizon_hours": map[string]any{"type": "integer", "minimum": 1, "maximum": 24},
				},
			},
			Defaults: map[string]any{"horizon_hours": 4},
		},
		{
			Type:        TypeItemSales,
			Name:        "Item Sales Forecast",
			Description: "Projected sales volume for top menu items.",
			Schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"top_n":         map[string]any{"type": "integer", "minimum": 1, "maximum": 50},
					"horizon_hours": map[string]any{"type": "integer", "minimum": 1, "maximum": 72},
				},
			},
			Defaults: map[string]any{"top_n": 5, "horizon_hours": 24},
		},
	}
}
