// Package zeppapi is the HTTP client for the unofficial Zepp/Huami cloud
// API. The API is undocumented and adversarial: envelopes vary per endpoint,
// payload fields are base64 or double-encoded JSON, and error signaling
// mixes HTTP status with an in-band code. This package handles transport and
// envelope unwrapping only; payload decoding lives in internal/decode.
package zeppapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
)

// Regional API hosts. The account's region is fixed at signup; querying the
// wrong host returns empty data, not an error.
var regions = map[string]string{
	"us":     "https://api-mifit-us2.zepp.com",
	"global": "https://api-mifit.huami.com",
	"eu":     "https://api-mifit-de2.zepp.com",
}

// ErrAuth marks a 401 from the upstream API: the apptoken has expired and a
// fresh one must be obtained by the user. Retrying is pointless.
var ErrAuth = errors.New("zepp token expired or invalid")

// APIError is a non-auth upstream failure: unexpected HTTP status or an
// in-band error code in a 200 response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zepp api error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to the Zepp cloud API for one account.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
	cache      *Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the regional base URL entirely (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCache attaches a response cache for immutable past-day data.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient creates a Client for the given credentials. region is one of
// us, global, eu; empty defaults to us.
func NewClient(token, userID, region string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token configured", ErrAuth)
	}
	if userID == "" {
		return nil, errors.New("zepp user id is required")
	}
	base, ok := regions[region]
	if region == "" {
		base = regions["us"]
	} else if !ok {
		return nil, fmt.Errorf("unknown zepp region %q", region)
	}

	c := &Client{
		baseURL: base,
		token:   token,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// webHeaders are sent on band_data requests; iosHeaders on the events
// endpoints, which reject the web platform headers.
func (c *Client) webHeaders(req *http.Request) {
	req.Header.Set("apptoken", c.token)
	req.Header.Set("appPlatform", "web")
	req.Header.Set("appname", "com.xiaomi.hm.health")
}

func (c *Client) iosHeaders(req *http.Request) {
	req.Header.Set("apptoken", c.token)
	req.Header.Set("appplatform", "ios_phone")
	req.Header.Set("appname", "com.huami.midong")
	req.Header.Set("v", "2.0")
	req.Header.Set("accept", "*/*")
}

// get performs one authenticated GET with bounded retries. Network errors
// and 5xx responses retry with exponential backoff; 401 and other 4xx fail
// immediately.
func (c *Client) get(ctx context.Context, path string, query url.Values, ios bool) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		if ios {
			c.iosHeaders(req)
		} else {
			c.webHeaders(req)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, ErrAuth
		case resp.StatusCode >= 500:
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: truncate(body)}
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, &APIError{StatusCode: resp.StatusCode, Message: truncate(body)}
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func truncate(body []byte) string {
	const max = 500
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}

// BandData fetches the raw day payloads for an inclusive date range. The
// response is the primary health feed: per-day summaries plus heart rate and
// activity timelines, all still encoded. Past days are served from the cache
// when one is attached; today is always fetched live, its data grows until
// the next band sync.
func (c *Client) BandData(ctx context.Context, from, to models.Date) ([]models.RawDayPayload, error) {
	cacheKey := fmt.Sprintf("band_data:%s:%s", from, to)
	if c.cache != nil && to.Before(models.DateOf(time.Now()).Time) {
		if body, ok := c.cache.Get(cacheKey); ok {
			return unwrapBandData(body)
		}
	}

	query := url.Values{
		"query_type":  {"detail"},
		"device_type": {"android_phone"},
		"userid":      {c.userID},
		"from_date":   {from.String()},
		"to_date":     {to.String()},
	}
	body, err := c.get(ctx, "/v1/data/band_data.json", query, false)
	if err != nil {
		return nil, err
	}

	days, err := unwrapBandData(body)
	if err != nil {
		return nil, err
	}
	if c.cache != nil && to.Before(models.DateOf(time.Now()).Time) {
		c.cache.Put(cacheKey, body)
	}
	return days, nil
}

// unwrapBandData parses the band_data envelope. code 1 is success; anything
// else carries an error message in a 200 response.
func unwrapBandData(body []byte) ([]models.RawDayPayload, error) {
	var env models.BandEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding band_data response: %w", err)
	}
	if env.Code != 1 {
		msg := env.Message
		if msg == "" {
			msg = "unknown"
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return env.Data, nil
}

// Day fetches the single payload for one date, or nil when the API has no
// data for it.
func (c *Client) Day(ctx context.Context, date models.Date) (*models.RawDayPayload, error) {
	days, err := c.BandData(ctx, date, date)
	if err != nil {
		return nil, err
	}
	for i := range days {
		if days[i].Date.Equal(date) {
			return &days[i], nil
		}
	}
	return nil, nil
}

// StressEvents fetches all_day_stress events for the inclusive date range
// from the v1 events endpoint. One event per day with synced data. Items
// come back raw; assemble.DecodeStressEvents parses them.
func (c *Client) StressEvents(ctx context.Context, from, to models.Date) ([]json.RawMessage, error) {
	query := url.Values{
		"eventType": {"all_day_stress"},
		"from":      {strconv.FormatInt(startOfDayMS(from), 10)},
		"to":        {strconv.FormatInt(endOfDayMS(to), 10)},
		"limit":     {"200"},
	}
	body, err := c.get(ctx, "/users/"+url.PathEscape(c.userID)+"/events", query, true)
	if err != nil {
		return nil, err
	}

	var env models.EventsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding stress events: %w", err)
	}
	return env.Items, nil
}

// ExertionEvents fetches exertion/algo_result events from the v2 endpoint.
// ATL/CTL/TSB are rolling metrics, so the query always starts from zero and
// bounds only the upper end.
func (c *Client) ExertionEvents(ctx context.Context, to models.Date) ([]json.RawMessage, error) {
	return c.eventsV2(ctx, "exertion", "algo_result", to)
}

// PHNEvents fetches phn/daily_analysis events from the v2 endpoint. Like
// exertion, the analysis carries rolling loads, so the query starts from
// zero.
func (c *Client) PHNEvents(ctx context.Context, to models.Date) ([]json.RawMessage, error) {
	return c.eventsV2(ctx, "phn", "daily_analysis", to)
}

func (c *Client) eventsV2(ctx context.Context, eventType, subType string, to models.Date) ([]json.RawMessage, error) {
	query := url.Values{
		"eventType": {eventType},
		"subType":   {subType},
		"from":      {"0"},
		"to":        {strconv.FormatInt(endOfDayMS(to), 10)},
		"limit":     {"200"},
	}
	body, err := c.get(ctx, "/v2/users/me/events", query, true)
	if err != nil {
		return nil, err
	}

	var env models.EventsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding %s events: %w", eventType, err)
	}
	return env.Items, nil
}

// SportLoad fetches the SPORT_LOAD rows from the watch statistics endpoint
// for the inclusive date range.
func (c *Client) SportLoad(ctx context.Context, from, to models.Date) ([]json.RawMessage, error) {
	return c.watchStatistics(ctx, "SPORT_LOAD", from, to)
}

// VO2Max fetches the VO2_MAX rows from the watch statistics endpoint for
// the inclusive date range.
func (c *Client) VO2Max(ctx context.Context, from, to models.Date) ([]json.RawMessage, error) {
	return c.watchStatistics(ctx, "VO2_MAX", from, to)
}

// watchStatistics queries /WatchSportStatistics/{metric}. Unlike the events
// endpoints this one is bounded by calendar day strings, not timestamps.
func (c *Client) watchStatistics(ctx context.Context, metric string, from, to models.Date) ([]json.RawMessage, error) {
	query := url.Values{
		"startDay":  {from.String()},
		"endDay":    {to.String()},
		"limit":     {"900"},
		"isReverse": {"true"},
	}
	path := "/v2/watch/users/" + url.PathEscape(c.userID) + "/WatchSportStatistics/" + metric
	body, err := c.get(ctx, path, query, true)
	if err != nil {
		return nil, err
	}

	var env models.EventsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding %s statistics: %w", metric, err)
	}
	return env.Items, nil
}

func startOfDayMS(d models.Date) int64 {
	return d.Unix() * 1000
}

func endOfDayMS(d models.Date) int64 {
	return d.Unix()*1000 + 86400000 - 1
}
