package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// Client is a Finnhub quote API client
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewClient creates a new Finnhub client
func NewClient(apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		log:     log.With().Str("client", "finnhub").Logger(),
	}
}

// Name identifies the provider in quote sources
func (c *Client) Name() string {
	return "finnhub"
}

// Configured reports whether an API key is available
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != "demo"
}

// quoteResponse represents the Finnhub /quote payload.
// "c" is the current price; zero means no data.
type quoteResponse struct {
	Current float64 `json:"c"`
}

// Quote fetches the current price for a symbol
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("token", c.apiKey)

	reqURL := c.baseURL + "/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("Finnhub API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var result quoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Current <= 0 {
		return 0, fmt.Errorf("no price data returned for symbol %s", symbol)
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", result.Current).Msg("Fetched quote")

	return result.Current, nil
}
