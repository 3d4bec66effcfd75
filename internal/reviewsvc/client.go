package reviewsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:9090/v1"

// ScoreRequest asks the review service for one marketplace's figures.
type ScoreRequest struct {
	Query  string `json:"query"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

// ScoreResponse is the subset of the service response we care about.
type ScoreResponse struct {
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
	ReviewCount int     `json:"review_count"`
	Price       string  `json:"price"`
	Link        string  `json:"link"`
}

// ReviewScorer captures the ability to score a product on one marketplace.
type ReviewScorer interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error)
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reviewsvc: api error %d: %s", e.Code, e.Body)
}

// Client is a thin wrapper around the review-analysis REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient constructs a client with sane defaults.
func NewClient(opts ...func(*Client)) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient overrides the internal HTTP client.
func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) func(*Client) {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) func(*Client) {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithRateLimit paces outbound calls to rps requests per second. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) func(*Client) {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Score requests marketplace figures for a product.
func (c *Client) Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "reviewsvc: wait for rate limiter")
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "reviewsvc: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "reviewsvc: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "reviewsvc: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	var payload ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, eris.Wrap(err, "reviewsvc: decode response")
	}
	return &payload, nil
}
