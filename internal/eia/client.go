// Package eia implements a client for the EIA API v2 (U.S. Energy
// Information Administration open data).
//
// Requires a free API key from https://www.eia.gov/opendata/register.php
// Docs: https://www.eia.gov/opendata/documentation.php
package eia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petrostat/eiapipe/internal/infra"
)

const (
	// DefaultBaseURL is the production EIA API v2 root.
	DefaultBaseURL = "https://api.eia.gov/v2"

	// seriesRoute is the petroleum supply-and-disposition data route all
	// distillate series live under.
	seriesRoute = "petroleum/sum/snd/data/"
)

// Client is an EIA API v2 client. Requests are throttled with a fixed
// inter-request delay to respect the API's courtesy limits.
type Client struct {
	baseURL    string
	apiKey     string
	pageLength int
	timeout    time.Duration
	throttle   *infra.Throttle
	log        *logrus.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL      string        // defaults to DefaultBaseURL
	APIKey       string        // required
	PageLength   int           // records per request; must cover the whole range
	Timeout      time.Duration // per-request timeout
	RequestDelay time.Duration // minimum delay between requests
}

// NewClient creates an EIA client. The API key must be set.
func NewClient(opts Options, log *logrus.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("eia: API key not set")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageLength <= 0 {
		opts.PageLength = 5000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		pageLength: opts.PageLength,
		timeout:    opts.Timeout,
		throttle:   infra.NewThrottle(opts.RequestDelay),
		log:        log,
	}, nil
}

// SeriesData fetches all monthly observations for one series from
// startPeriod (YYYY-MM) to the present, sorted ascending by period. The
// returned envelope is the decoded response body as-is, so the bronze
// layer can persist it without loss.
func (c *Client) SeriesData(ctx context.Context, seriesID, startPeriod string) (Envelope, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("frequency", "monthly")
	q.Set("data[0]", "value")
	q.Add("facets[series][]", seriesID)
	q.Set("start", startPeriod)
	q.Set("sort[0][column]", "period")
	q.Set("sort[0][direction]", "asc")
	q.Set("offset", "0")
	q.Set("length", fmt.Sprintf("%d", c.pageLength))

	c.log.WithFields(logrus.Fields{
		"series_id": seriesID,
		"start":     startPeriod,
	}).Debug("Requesting series data")

	env, err := c.get(ctx, seriesRoute, q)
	if err != nil {
		return nil, fmt.Errorf("eia: fetch series %s: %w", seriesID, err)
	}
	return env, nil
}

// Ping checks connectivity and key validity with a minimal request.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("frequency", "monthly")
	q.Set("data[0]", "value")
	q.Set("length", "1")

	if _, err := c.get(ctx, seriesRoute, q); err != nil {
		return fmt.Errorf("eia ping: %w", err)
	}
	return nil
}

// get performs a throttled GET against the API and decodes the JSON
// body into a generic envelope.
func (c *Client) get(ctx context.Context, route string, q url.Values) (Envelope, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, route, q.Encode())
	body, _, err := infra.DoGet(ctx, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read EIA response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse EIA JSON: %w", err)
	}
	return env, nil
}
