package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/storage"
)

// HTTPClient implements DataSource by calling the ZeppVault REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// errNotFound marks a 404 from the API; callers that return a nullable
// single record translate it to nil.
type errNotFound struct{ path string }

func (e errNotFound) Error() string { return "httpclient: " + e.path + " returned 404" }

// bucketToAgg maps MCP bucket values to REST API agg parameter values.
func bucketToAgg(bucket string) string {
	switch bucket {
	case "1 day":
		return "daily"
	case "1 month":
		return "monthly"
	default:
		return "weekly"
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound{path}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QueryDayRecord(ctx context.Context, date models.Date) (*models.DayRecord, error) {
	body, err := c.get(ctx, "/api/v1/summary/"+date.String(), nil)
	if _, ok := err.(errNotFound); ok {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec models.DayRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("httpclient: decode day record: %w", err)
	}
	return &rec, nil
}

func (c *HTTPClient) QueryHeartRate(ctx context.Context, date models.Date) ([]models.HeartRateSample, error) {
	body, err := c.get(ctx, "/api/v1/heartrate/"+date.String(), nil)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Samples []models.HeartRateSample `json:"samples"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("httpclient: decode heart rate: %w", err)
	}
	return wrapper.Samples, nil
}

func (c *HTTPClient) QueryStepSummary(ctx context.Context, date models.Date) (*models.StepSummary, error) {
	body, err := c.get(ctx, "/api/v1/steps/"+date.String(), nil)
	if _, ok := err.(errNotFound); ok {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary models.StepSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("httpclient: decode step summary: %w", err)
	}
	return &summary, nil
}

func (c *HTTPClient) QueryActivitySegments(ctx context.Context, date models.Date) ([]models.ActivitySegment, error) {
	body, err := c.get(ctx, "/api/v1/activity/"+date.String(), nil)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Segments []models.ActivitySegment `json:"segments"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("httpclient: decode activity: %w", err)
	}
	return wrapper.Segments, nil
}

func (c *HTTPClient) QuerySleepSessions(ctx context.Context, date models.Date) ([]models.SleepSession, error) {
	body, err := c.get(ctx, "/api/v1/sleep/"+date.String(), nil)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Sessions []models.SleepSession `json:"sessions"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("httpclient: decode sleep: %w", err)
	}
	return wrapper.Sessions, nil
}

func (c *HTTPClient) QueryStressDay(ctx context.Context, date models.Date) (*models.StressDaySummary, error) {
	body, err := c.get(ctx, "/api/v1/stress/"+date.String(), nil)
	if _, ok := err.(errNotFound); ok {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var day models.StressDaySummary
	if err := json.Unmarshal(body, &day); err != nil {
		return nil, fmt.Errorf("httpclient: decode stress: %w", err)
	}
	return &day, nil
}

func (c *HTTPClient) QueryTrainingLoad(ctx context.Context, start, end time.Time) ([]models.TrainingLoadPoint, error) {
	body, err := c.get(ctx, "/api/v1/trainingload", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var points []models.TrainingLoadPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("httpclient: decode training load: %w", err)
	}
	return points, nil
}

func (c *HTTPClient) QuerySportLoad(ctx context.Context, start, end time.Time) ([]models.SportLoadDay, error) {
	body, err := c.get(ctx, "/api/v1/sportload", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var days []models.SportLoadDay
	if err := json.Unmarshal(body, &days); err != nil {
		return nil, fmt.Errorf("httpclient: decode sport load: %w", err)
	}
	return days, nil
}

func (c *HTTPClient) GetSleepSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.SleepSummaryPeriod, error) {
	params := timeParams(start, end)
	params.Set("agg", bucketToAgg(bucket))

	body, err := c.get(ctx, "/api/v1/sleep/summary", params)
	if err != nil {
		return nil, err
	}

	var periods []storage.SleepSummaryPeriod
	if err := json.Unmarshal(body, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode sleep summary: %w", err)
	}
	return periods, nil
}

func (c *HTTPClient) GetDataStats(ctx context.Context) (*storage.DataStats, error) {
	body, err := c.get(ctx, "/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats storage.DataStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &stats, nil
}
