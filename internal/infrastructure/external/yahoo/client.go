package yahoo

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Client fetches daily price history from the Yahoo Finance chart API and
// recent headlines from the Yahoo Finance RSS feed. Both are unauthenticated
// endpoints, so the rate limiter is the only thing keeping us polite.
type Client struct {
	chartBaseURL string
	rssBaseURL   string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

func NewClient(chartBaseURL, rssBaseURL string, requestsPerSecond float64) *Client {
	if chartBaseURL == "" {
		chartBaseURL = "https://query1.finance.yahoo.com"
	}
	if rssBaseURL == "" {
		rssBaseURL = "https://feeds.finance.yahoo.com"
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}
	return &Client{
		chartBaseURL: chartBaseURL,
		rssBaseURL:   rssBaseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	// Yahoo rejects the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stock-scout/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo api error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History is one month of daily closes, oldest first, with the latest
// regular-market price. Sessions the provider reports with a null close
// (halts, partial days) are skipped.
type History struct {
	Ticker      string
	LatestPrice float64
	DailyCloses []float64
}

func (c *Client) DailyHistory(ctx context.Context, ticker string) (History, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1mo&interval=1d", c.chartBaseURL, url.PathEscape(ticker))
	body, err := c.get(ctx, u)
	if err != nil {
		return History{}, err
	}

	var decoded chartResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return History{}, fmt.Errorf("decode chart response: %w", err)
	}
	if decoded.Chart.Error != nil {
		return History{}, fmt.Errorf("yahoo chart error: %s", decoded.Chart.Error.Description)
	}
	if len(decoded.Chart.Result) == 0 || len(decoded.Chart.Result[0].Indicators.Quote) == 0 {
		return History{}, fmt.Errorf("no chart data for %s", ticker)
	}

	result := decoded.Chart.Result[0]
	h := History{Ticker: ticker, LatestPrice: result.Meta.RegularMarketPrice}
	for _, close := range result.Indicators.Quote[0].Close {
		if close != nil {
			h.DailyCloses = append(h.DailyCloses, *close)
		}
	}
	return h, nil
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Headline is one news entry from the ticker's RSS feed.
type Headline struct {
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
}

// Headlines fetches the ticker's feed. Entries whose publish date cannot be
// parsed keep a zero time; the caller decides whether undated items count as
// recent.
func (c *Client) Headlines(ctx context.Context, ticker string) ([]Headline, error) {
	u := fmt.Sprintf("%s/rss/2.0/headline?s=%s&region=US&lang=en-US", c.rssBaseURL, url.QueryEscape(ticker))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode rss feed: %w", err)
	}

	headlines := make([]Headline, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		h := Headline{Title: item.Title, Link: item.Link, Description: item.Description}
		if t, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
			h.PublishedAt = t
		} else if t, err := time.Parse(time.RFC1123, item.PubDate); err == nil {
			h.PublishedAt = t
		}
		headlines = append(headlines, h)
	}
	return headlines, nil
}
