// Package httpstore is a store.Store that talks to another journal server's
// /store/v1 routes.
package httpstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/store"
)

// BasePath is the prefix of the store routes on the server.
const BasePath = "/store/v1"

const maxRetries = 3

// Client is a client for a remote trade store.
// It implements store.Store.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	// backoff returns the wait before retry attempt i (0-based).
	backoff func(i int) time.Duration
}

// ensure Client implements the interface
var _ store.Store = (*Client)(nil)

// CreateResponse is the body returned by POST /trades.
type CreateResponse struct {
	ID string `json:"id"`
}

// DeleteBatchResponse is the body returned by DELETE /trades?batch=.
type DeleteBatchResponse struct {
	Deleted int `json:"deleted"`
}

// ErrorResponse is the body of a non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates a client for the server at cfg.BaseURL.
func New(cfg config.Remote, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	client := resty.New().
		SetBaseURL(cfg.BaseURL + BasePath).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	logger = logger.Named("httpstore")
	logger.Info("Using remote trade store", zap.String("base_url", cfg.BaseURL))

	return &Client{
		client:  client,
		logger:  logger,
		limiter: limiter,
		backoff: exponentialBackoff,
	}
}

// Exponential backoff: 1s, 2s, 4s
func exponentialBackoff(i int) time.Duration {
	return time.Duration(math.Pow(2, float64(i))) * time.Second
}

func (c *Client) CreateTrade(ctx context.Context, trade models.Trade) (string, error) {
	trade.ID = ""
	req := c.client.R().
		SetBody(trade).
		SetResult(&CreateResponse{})

	resp, err := c.doRequest(ctx, http.MethodPost, "/trades", req)
	if err != nil {
		c.logger.Error("Failed to create trade", zap.Error(err))
		return "", fmt.Errorf("failed to create trade: %w", err)
	}

	result := resp.Result().(*CreateResponse)
	if result.ID == "" {
		return "", fmt.Errorf("failed to create trade: empty id in response")
	}
	return result.ID, nil
}

func (c *Client) ListTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	req := c.client.R().
		SetQueryParam("limit", strconv.Itoa(store.ClampLimit(limit))).
		SetResult(&trades)

	if _, err := c.doRequest(ctx, http.MethodGet, "/trades", req); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	if trades == nil {
		trades = []models.Trade{}
	}
	return trades, nil
}

func (c *Client) UpdateTrade(ctx context.Context, id string, trade models.Trade) error {
	trade.ID = ""
	req := c.client.R().SetBody(trade)

	if _, err := c.doRequest(ctx, http.MethodPatch, "/trades/"+url.PathEscape(id), req); err != nil {
		c.logger.Error("Failed to update trade", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update trade %s: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteTrade(ctx context.Context, id string) error {
	req := c.client.R()

	_, err := c.doRequest(ctx, http.MethodDelete, "/trades/"+url.PathEscape(id), req)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.logger.Error("Failed to delete trade", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete trade %s: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteTrades(ctx context.Context, maxBatch int) (int, error) {
	req := c.client.R().
		SetQueryParam("batch", strconv.Itoa(store.ClampBatch(maxBatch))).
		SetResult(&DeleteBatchResponse{})

	resp, err := c.doRequest(ctx, http.MethodDelete, "/trades", req)
	if err != nil {
		c.logger.Error("Failed to delete trades", zap.Error(err))
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	return resp.Result().(*DeleteBatchResponse).Deleted, nil
}

func (c *Client) GetSettings(ctx context.Context) (models.AppSettings, error) {
	req := c.client.R().SetResult(&models.AppSettings{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/settings", req)
	if err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return *resp.Result().(*models.AppSettings), nil
}

func (c *Client) SetSettings(ctx context.Context, settings models.AppSettings) error {
	req := c.client.R().SetBody(settings)

	if _, err := c.doRequest(ctx, http.MethodPut, "/settings", req); err != nil {
		c.logger.Error("Failed to save settings", zap.Error(err))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Close is a no-op; the underlying http.Client holds no resources worth releasing.
func (c *Client) Close() error {
	return nil
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Code)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Message)
}

// Unwrap maps 404 onto store.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return store.ErrNotFound
	}
	return nil
}

// doRequest handles the request execution with rate limiting. Only reads are
// retried: a write that timed out may still have been applied.
func (c *Client) doRequest(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	attempts := 1
	if method == http.MethodGet {
		attempts = maxRetries
	}
	req.SetContext(ctx).SetError(&ErrorResponse{})

	tries := 0
	for i := 0; i < attempts; i++ {
		tries++
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+path))
		resp, err = req.Execute(method, path)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			err = statusErrorFrom(resp)
		} else {
			// Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry || i == attempts-1 {
			break
		}

		if retryAfter == 0 {
			retryAfter = c.backoff(i)
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if tries > 1 {
		return nil, fmt.Errorf("request failed after %d attempts: %w", tries, err)
	}
	return nil, err
}

func statusErrorFrom(resp *resty.Response) *StatusError {
	se := &StatusError{Code: resp.StatusCode()}
	if body, ok := resp.Error().(*ErrorResponse); ok && body != nil {
		se.Message = body.Error
	}
	return se
}
