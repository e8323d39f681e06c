package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Client is an AlphaVantage API client.
// All calls are expected to be routed through the outbound queue by the
// caller; AlphaVantage's free tier is aggressively rate limited.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewClient creates a new AlphaVantage client
func NewClient(apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		log:     log.With().Str("client", "alphavantage").Logger(),
	}
}

// Name identifies the provider in quote sources
func (c *Client) Name() string {
	return "alphavantage"
}

// Configured reports whether an API key is available
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != "demo"
}

// globalQuoteResponse represents the GLOBAL_QUOTE payload
type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// Quote fetches the current price for a symbol via GLOBAL_QUOTE
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Add("function", "GLOBAL_QUOTE")
	params.Add("symbol", symbol)
	params.Add("apikey", c.apiKey)

	body, err := c.get(ctx, params)
	if err != nil {
		return 0, err
	}

	var result globalQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	raw, ok := result.GlobalQuote["05. price"]
	if !ok || raw == "" || raw == "0.0000" {
		return 0, fmt.Errorf("no valid price in response for symbol %s", symbol)
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price %q: %w", raw, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price returned for symbol %s", symbol)
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", price).Msg("Fetched quote")

	return price, nil
}

// timeSeriesResponse represents the TIME_SERIES_DAILY payload
type timeSeriesResponse struct {
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
}

// DailySeries fetches the daily close series for a symbol, keyed by
// YYYY-MM-DD trading date. The series is sparse (trading days only) and
// limited to the provider's compact window.
func (c *Client) DailySeries(ctx context.Context, symbol string) (map[string]float64, error) {
	params := url.Values{}
	params.Add("function", "TIME_SERIES_DAILY")
	params.Add("symbol", symbol)
	params.Add("apikey", c.apiKey)
	// Note: outputsize=full requires the premium tier

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var result timeSeriesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.TimeSeries) == 0 {
		return nil, fmt.Errorf("no time series data returned for symbol %s", symbol)
	}

	series := make(map[string]float64, len(result.TimeSeries))
	for date, fields := range result.TimeSeries {
		raw, ok := fields["4. close"]
		if !ok {
			continue
		}
		px, err := strconv.ParseFloat(raw, 64)
		if err != nil || px <= 0 {
			continue
		}
		series[date] = px
	}

	c.log.Debug().Str("symbol", symbol).Int("count", len(series)).Msg("Fetched daily series")

	return series, nil
}

// get performs a GET against the query endpoint
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AlphaVantage API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
