package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Client talks to the Financial Modeling Prep REST API. All calls go through
// a shared rate limiter and circuit breaker so a misbehaving provider slows
// us down instead of taking the pipeline down.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(apiKey, baseURL string, requestsPerSecond float64) *Client {
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com"
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "fmp",
			MaxRequests: 1,
			Interval:    0,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *Client) call(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fmp api error (status %d): %s", resp.StatusCode, string(data))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

// Mover is one row of the biggest-losers endpoint.
type Mover struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
}

// BiggestLosers returns today's worst percentage movers, best (most negative)
// first. limit <= 0 returns the full provider list.
func (c *Client) BiggestLosers(ctx context.Context, limit int) ([]Mover, error) {
	body, err := c.call(ctx, "/api/v3/stock_market/losers", nil)
	if err != nil {
		return nil, err
	}
	var movers []Mover
	if err := json.Unmarshal(body, &movers); err != nil {
		return nil, fmt.Errorf("decode losers response: %w", err)
	}
	if limit > 0 && len(movers) > limit {
		movers = movers[:limit]
	}
	return movers, nil
}

// Profile is the company profile record. MktCap of zero means the provider
// has no figure.
type Profile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Description string  `json:"description"`
	MktCap      float64 `json:"mktCap"`
}

func (c *Client) CompanyProfile(ctx context.Context, ticker string) (Profile, error) {
	body, err := c.call(ctx, "/api/v3/profile/"+url.PathEscape(ticker), nil)
	if err != nil {
		return Profile{}, err
	}
	var profiles []Profile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return Profile{}, fmt.Errorf("decode profile response: %w", err)
	}
	if len(profiles) == 0 {
		return Profile{}, fmt.Errorf("no profile for %s", ticker)
	}
	return profiles[0], nil
}

// Quote is the full quote record; PE is a pointer because the provider sends
// null for unprofitable companies and that absence must survive decoding.
type Quote struct {
	Symbol            string   `json:"symbol"`
	Price             float64  `json:"price"`
	ChangesPercentage float64  `json:"changesPercentage"`
	Volume            int64    `json:"volume"`
	PE                *float64 `json:"pe"`
	MarketCap         float64  `json:"marketCap"`
	Timestamp         int64    `json:"timestamp"`
}

func (c *Client) FullQuote(ctx context.Context, ticker string) (Quote, error) {
	body, err := c.call(ctx, "/api/v3/quote/"+url.PathEscape(ticker), nil)
	if err != nil {
		return Quote{}, err
	}
	var quotes []Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return Quote{}, fmt.Errorf("decode quote response: %w", err)
	}
	if len(quotes) == 0 {
		return Quote{}, fmt.Errorf("no quote for %s", ticker)
	}
	return quotes[0], nil
}
