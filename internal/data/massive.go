// Package data provides market data provider implementations.
//
// This file contains a Massive-backed Provider that retrieves daily
// aggregate bars over the Massive (formerly Polygon) HTTP API.
//
// Design notes:
//   - Uses raw HTTP calls instead of the official Massive SDK
//   - Supports pagination, rate-limit waits, and fallback providers
//   - Logging is verbose at Debug/Trace levels for diagnostics
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/contactkeval/option-lattice/internal/logger"
)

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider
}

// massiveAggsResp models one page of the aggregates endpoint.
type massiveAggsResp struct {
	Ticker   string `json:"ticker"`
	Adjusted bool   `json:"adjusted"`
	Results  []struct {
		Open      float64 `json:"o"`
		Close     float64 `json:"c"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		VWAP      float64 `json:"vw"` // volume-weighted average price
		Volume    float64 `json:"v"`  // trading volume in the window
		Trades    int64   `json:"n"`  // number of transactions in the window
		Timestamp int64   `json:"t"`  // epoch millis
	} `json:"results"`
	Status  string `json:"status"`
	NextURL string `json:"next_url"`
	Message string `json:"message"`
}

// untilNextMinute is how long a rate-limited request waits before retrying.
var untilNextMinute = func(now time.Time) time.Duration {
	return time.Until(now.Truncate(time.Minute).Add(time.Minute))
}

// NewMassiveDataProvider constructs a Massive-backed data provider.
//
// It initializes an HTTP client with sensible defaults for:
//   - timeouts
//   - connection pooling
//   - HTTP/2 support
//   - gzip decompression
//
// Parameters:
//   - apiKey: Massive API key for authentication
//   - secondary: provider consulted when Massive cannot serve a request (may be nil)
func NewMassiveDataProvider(apiKey string, secondary Provider) *massiveDataProvider {
	logger.Infof("initializing Massive data provider")

	return &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // keeps gzip auto-decompression on
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL:   "https://api.massive.com",
		secondary: secondary,
	}
}

func (massiveDataProv *massiveDataProvider) Name() string { return KindMassive }

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetBars retrieves adjusted daily bars for an underlying, following
// pagination until the API stops returning a next_url.
//
// Parameters:
//   - ctx: cancels in-flight requests and rate-limit waits
//   - underlying: ticker symbol (e.g. "SPY")
//   - fromDate, toDate: inclusive date window
//
// Returns:
//   - []Bar: bars sorted by date
//   - error: request, decoding or status failure (after trying the secondary)
func (massiveDataProv *massiveDataProvider) GetBars(
	ctx context.Context,
	underlying string,
	fromDate, toDate time.Time,
) ([]Bar, error) {

	bars, err := massiveDataProv.fetchBars(ctx, underlying, fromDate, toDate)
	if err == nil && len(bars) == 0 {
		err = fmt.Errorf("%w for %s between %s and %s", ErrNoBars, underlying,
			fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return fallback(ctx, massiveDataProv, err, underlying, fromDate, toDate)
	}
	return bars, nil
}

func (massiveDataProv *massiveDataProvider) fetchBars(
	ctx context.Context,
	underlying string,
	fromDate, toDate time.Time,
) ([]Bar, error) {

	maxLimit := 50000

	logger.Debugf(
		"fetching bars: %s from=%s to=%s",
		underlying,
		fromDate.Format("2006-01-02"),
		toDate.Format("2006-01-02"),
	)

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=%d",
		massiveDataProv.BaseURL,
		url.PathEscape(underlying),
		fromDate.Format("2006-01-02"),
		toDate.Format("2006-01-02"),
		maxLimit,
	)

	var out []Bar
	for page := 1; reqURL != ""; page++ {
		logger.Tracef("bars request page=%d", page)

		body, err := massiveDataProv.getPage(ctx, reqURL)
		if err != nil {
			return nil, err
		}

		logger.Tracef("bars received: %d records", len(body.Results))
		for _, r := range body.Results {
			out = append(out, Bar{
				Date:  time.UnixMilli(r.Timestamp).UTC(),
				Open:  r.Open,
				High:  r.High,
				Low:   r.Low,
				Close: r.Close,
				Vol:   r.Volume,
			})
		}

		reqURL = body.NextURL
	}

	return filterBars(out, fromDate, toDate), nil
}

// getPage performs one authenticated GET and decodes the aggregates page.
func (massiveDataProv *massiveDataProvider) getPage(ctx context.Context, reqURL string) (*massiveAggsResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		logger.Errorf("bars request errored=%v", err)
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := massiveDataProv.processGetRequest(req)
	if err != nil {
		return nil, fmt.Errorf("massive api request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading massive response: %w", err)
	}

	var body massiveAggsResp
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil, fmt.Errorf("parsing massive response: %w", err)
	}
	return &body, nil
}

// processGetRequest executes an HTTP GET request with rate-limit handling.
//
// Behavior:
//   - Waits until the next minute boundary on HTTP 429, then retries
//   - Returns immediately on success (<400)
//   - Returns an error for other status codes
//   - Gives up when the request context is done
func (massiveDataProv *massiveDataProvider) processGetRequest(
	req *http.Request,
) (*http.Response, error) {

	for {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		// Success
		if resp.StatusCode < 400 {
			return resp, nil
		}

		// Handle per-minute rate limit (commonly 429)
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			wait := untilNextMinute(time.Now())
			logger.Infof("rate limit hit, sleeping for %s", wait)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(wait):
			}
			continue
		}

		var dbg struct {
			Message string `json:"message"`
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		_ = json.Unmarshal(bodyBytes, &dbg)

		logger.Errorf("massive aggs API error status=%d message=%s", resp.StatusCode, dbg.Message)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
