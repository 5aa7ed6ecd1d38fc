package predicthq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

const (
	eventsPath   = "/v1/events/"
	defaultLimit = 100
	// maxBodyBytes bounds how much of a provider response we are willing to read.
	maxBodyBytes = 8 << 20
	dateLayout   = "2006-01-02"
)

// ErrUnauthorized is wrapped into the returned ProviderError on HTTP 401.
var ErrUnauthorized = errors.New("provider rejected token")

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Limit   int
	// RatePerMinute caps outbound requests. Zero disables the limiter.
	RatePerMinute int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Now overrides the clock used for the date window (tests).
	Now func() time.Time
}

// Client queries the PredictHQ events API.
type Client struct {
	baseURL string
	token   string
	limit   int
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// searchResponse mirrors the subset of the provider payload we consume.
type searchResponse struct {
	Count   int              `json:"count"`
	Results []model.RawEvent `json:"results"`
}

// NewClient creates a provider client. A missing token is allowed; Search
// then fails fast with a ProviderError so callers fall back to synthesis.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		limit:   opts.Limit,
		client:  opts.HTTPClient,
		now:     opts.Now,
	}
	if c.limit <= 0 {
		c.limit = defaultLimit
	}
	if c.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		c.client = &http.Client{Timeout: timeout}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.RatePerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.RatePerMinute)
	}
	return c
}

// Configured reports whether a token is set.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// Search performs one request for events starting within
// [today, today+weeks*7 days] inside the query circle. Every failure is
// returned wrapped in model.ErrProvider; there are no retries.
func (c *Client) Search(ctx context.Context, query model.LocationQuery, categories string, weeks int) ([]model.RawEvent, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: no provider token configured", model.ErrProvider)
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, fmt.Errorf("%w: local request rate exceeded", model.ErrProvider)
	}
	if weeks <= 0 {
		weeks = 4
	}
	if weeks > model.MaxWeeks {
		weeks = model.MaxWeeks
	}

	reqURL, err := c.searchURL(query, categories, weeks)
	if err != nil {
		return nil, fmt.Errorf("%w: build request url: %v", model.ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	appLog.Info("provider search start",
		"host", redactURL(c.baseURL),
		"location_within", query.String(),
		"categories", categories,
		"weeks", weeks,
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProvider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %w: %s", model.ErrProvider, ErrUnauthorized, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: unexpected status %s", model.ErrProvider, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrProvider, err)
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %v", model.ErrProvider, err)
	}
	if payload.Results == nil {
		payload.Results = []model.RawEvent{}
	}

	appLog.Info("provider search success",
		"host", redactURL(c.baseURL),
		"status", resp.StatusCode,
		"result_count", len(payload.Results),
	)
	return payload.Results, nil
}

func (c *Client) searchURL(query model.LocationQuery, categories string, weeks int) (string, error) {
	u, err := url.Parse(c.baseURL + eventsPath)
	if err != nil {
		return "", err
	}

	today := c.now()
	until := today.AddDate(0, 0, weeks*7)

	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.limit))
	if categories = strings.Join(model.SplitCategories(categories), ","); categories != "" {
		q.Set("category", categories)
	}
	q.Set("start.gte", today.Format(dateLayout))
	q.Set("start.lte", until.Format(dateLayout))
	q.Set("location.within", query.String())
	q.Set("sort", "start")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// redactURL keeps only scheme and host for logging purposes.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "provider://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host
}
