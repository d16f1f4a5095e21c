package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dinemetra/go-insights/components/history"
	"github.com/dinemetra/go-insights/components/predictions"
)

// Config configures the HTTP backend client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client talks to the dashboard backend REST API. It implements the history
// source contracts and the prediction Predictor so components never import
// transport code directly.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client capable of hitting the live backend.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

var (
	_ history.ComparisonSource = (*Client)(nil)
	_ history.SeriesSource     = (*Client)(nil)
	_ history.SummarySource    = (*Client)(nil)
	_ predictions.Predictor    = (*Client)(nil)
)

// comparePaths maps metric identifiers to their REST path segments.
var comparePaths = map[history.Metric]string{
	history.MetricWaitTime: "wait-times",
	history.MetricSales:    "sales",
	history.MetricBusyness: "busyness",
}

// predictionPaths maps prediction types to their REST path segments.
var predictionPaths = map[predictions.MetricType]string{
	predictions.TypeWaitTime:  "wait-time",
	predictions.TypeBusyness:  "busyness",
	predictions.TypeItemSales: "sales",
}

// FetchComparison implements history.ComparisonSource. A 404 maps to
// history.ErrComparisonNotFound so the aggregator can synthesize; every other
// failure surfaces as a transport error.
func (c *Client) FetchComparison(ctx context.Context, metric history.Metric, date time.Time) (history.ComparisonRecord, error) {
	segment, ok := comparePaths[metric]
	if !ok {
		return history.ComparisonRecord{}, fmt.Errorf("backend: unknown metric %q", metric)
	}
	path := "/api/historical/compare/" + segment + "?date=" + url.QueryEscape(date.Format(time.DateOnly))
	var payload comparisonPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return history.ComparisonRecord{}, err
	}
	return payload.toRecord(metric)
}

// FetchDailySeries implements history.SeriesSource.
func (c *Client) FetchDailySeries(ctx context.Context, windowDays int, end time.Time) ([]history.DailyRecord, error) {
	path := fmt.Sprintf("/api/historical/series?days=%d&end=%s", windowDays, url.QueryEscape(end.Format(time.DateOnly)))
	var payload []dailyRecordPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	records := make([]history.DailyRecord, 0, len(payload))
	for _, item := range payload {
		rec, err := item.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchHistoricalSummary implements history.SummarySource.
func (c *Client) FetchHistoricalSummary(ctx context.Context) (history.HistoricalSummary, error) {
	var payload summaryPayload
	if err := c.do(ctx, http.MethodGet, "/api/historical/summary", nil, &payload); err != nil {
		return history.HistoricalSummary{}, err
	}
	return payload.toSummary()
}

// Predict implements predictions.Predictor by posting the request parameters
// to the matching prediction endpoint.
func (c *Client) Predict(ctx context.Context, metric predictions.MetricType, params map[string]any) (predictions.Result, error) {
	segment, ok := predictionPaths[metric]
	if !ok {
		return nil, fmt.Errorf("backend: unknown prediction type %q", metric)
	}
	if params == nil {
		params = map[string]any{}
	}
	var result predictions.Result
	if err := c.do(ctx, http.MethodPost, "/api/predictions/"+segment, params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// envelope is the backend response wrapper. Errors travel either as non-2xx
// statuses or as success=false bodies.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("backend: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return history.ErrComparisonNotFound
	}
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("backend: remote error %d: %s", resp.StatusCode, buf.String())
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	if !env.Success {
		if env.Error == "not found" {
			return history.ErrComparisonNotFound
		}
		return fmt.Errorf("backend: request failed: %s", env.Error)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("backend: decode data: %w", err)
	}
	return nil
}

type periodPayload struct {
	Date          string   `json:"date"`
	Value         *float64 `json:"value,omitempty"`
	Count         *int     `json:"count,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
}

func (p periodPayload) toPeriod() (history.ComparisonPeriod, error) {
	parsed, err := time.Parse(time.DateOnly, p.Date)
	if err != nil {
		return history.ComparisonPeriod{}, fmt.Errorf("backend: parse period date %q: %w", p.Date, err)
	}
	return history.ComparisonPeriod{
		Date:          parsed,
		Value:         p.Value,
		Count:         p.Count,
		Change:        p.Change,
		ChangePercent: p.ChangePercent,
	}, nil
}

type comparisonPayload struct {
	Today    periodPayload `json:"today"`
	LastWeek periodPayload `json:"last_week"`
	LastYear periodPayload `json:"last_year"`
	Insight  string        `json:"insight"`
}

func (p comparisonPayload) toRecord(metric history.Metric) (history.ComparisonRecord, error) {
	today, err := p.Today.toPeriod()
	if err != nil {
		return history.ComparisonRecord{}, err
	}
	lastWeek, err := p.LastWeek.toPeriod()
	if err != nil {
		return history.ComparisonRecord{}, err
	}
	lastYear, err := p.LastYear.toPeriod()
	if err != nil {
		return history.ComparisonRecord{}, err
	}
	return history.ComparisonRecord{
		Metric:   metric,
		Today:    today,
		LastWeek: lastWeek,
		LastYear: lastYear,
		Insight:  p.Insight,
		Source:   history.SourceAuthoritative,
	}, nil
}

type dailyRecordPayload struct {
	Date            string  `json:"date"`
	WaitTimeMinutes float64 `json:"wait_time_minutes"`
	SalesTotal      float64 `json:"sales_total"`
	OrderCount      int     `json:"order_count"`
}

func (p dailyRecordPayload) toRecord() (history.DailyRecord, error) {
	parsed, err := time.Parse(time.DateOnly, p.Date)
	if err != nil {
		return history.DailyRecord{}, fmt.Errorf("backend: parse record date %q: %w", p.Date, err)
	}
	return history.DailyRecord{
		Date:            parsed,
		WaitTimeMinutes: p.WaitTimeMinutes,
		SalesTotal:      p.SalesTotal,
		OrderCount:      p.OrderCount,
	}, nil
}

type summaryPayload struct {
	RecordCounts map[string]int `json:"record_counts"`
	StartDate    string         `json:"start_date,omitempty"`
	EndDate      string         `json:"end_date,omitempty"`
}

func (p summaryPayload) toSummary() (history.HistoricalSummary, error) {
	summary := history.HistoricalSummary{RecordCounts: p.RecordCounts}
	if p.StartDate == "" || p.EndDate == "" {
		return summary, nil
	}
	start, err := time.Parse(time.DateOnly, p.StartDate)
	if err != nil {
		return history.HistoricalSummary{}, fmt.Errorf("backend: parse summary start %q: %w", p.StartDate, err)
	}
	end, err := time.Parse(time.DateOnly, p.EndDate)
	if err != nil {
		return history.HistoricalSummary{}, fmt.Errorf("backend: parse summary end %q: %w", p.EndDate, err)
	}
	summary.DateRange = &history.DateRange{Start: start, End: end}
	return summary, nil
}
