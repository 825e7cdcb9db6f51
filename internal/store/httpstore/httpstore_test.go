package httpstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trading-journal-go/internal/models"
	"trading-journal-go/internal/store"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL + BasePath),
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
		backoff: func(int) time.Duration { return time.Millisecond },
	}

	return c, server
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateTrade(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/store/v1/trades", r.URL.Path)

			var body models.Trade
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "XAUUSD", body.Pair)
			assert.Empty(t, body.ID)
			assert.True(t, body.Profit.Equal(decimal.RequireFromString("45.5")))

			writeJSON(w, http.StatusCreated, CreateResponse{ID: "abc123"})
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		id, err := c.CreateTrade(context.Background(), models.Trade{
			ID:     "temp-1",
			Pair:   "XAUUSD",
			Profit: decimal.RequireFromString("45.5"),
		})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "abc123", id)
	})

	t.Run("WritesAreNotRetried", func(t *testing.T) {
		// Arrange
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "boom"})
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		id, err := c.CreateTrade(context.Background(), models.Trade{Pair: "EURUSD"})

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create trade")
		assert.Contains(t, err.Error(), "boom")
		assert.Empty(t, id)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestListTrades(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/store/v1/trades", r.URL.Path)
			assert.Equal(t, "200", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, []models.Trade{
				{ID: "1", Pair: "EURUSD", Result: models.ResultWin, Profit: decimal.NewFromInt(5)},
				{ID: "2", Pair: "GBPUSD", Result: models.ResultLoss, Profit: decimal.NewFromInt(-5)},
			})
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		trades, err := c.ListTrades(context.Background(), 0)

		// Assert
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, "GBPUSD", trades[1].Pair)
		assert.True(t, trades[1].Profit.Equal(decimal.NewFromInt(-5)))
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		// Arrange
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, []models.Trade{})
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		trades, err := c.ListTrades(context.Background(), 10)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, trades)
		assert.NotNil(t, trades)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("GivesUp", func(t *testing.T) {
		// Arrange
		var calls int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		_, err := c.ListTrades(context.Background(), 10)

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "request failed after 3 attempts")
		assert.Equal(t, int32(maxRetries), atomic.LoadInt32(&calls))
	})
}

func TestUpdateTrade_NotFound(t *testing.T) {
	// Arrange
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/store/v1/trades/missing", r.URL.Path)
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "trade not found"})
	})

	c, server := setupTestServer(handler)
	defer server.Close()

	// Act
	err := c.UpdateTrade(context.Background(), "missing", models.Trade{Pair: "EURUSD"})

	// Assert
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteTrade_MissingIsNotAnError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	c, server := setupTestServer(handler)
	defer server.Close()

	assert.NoError(t, c.DeleteTrade(context.Background(), "gone"))
}

func TestDeleteTrades(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/store/v1/trades", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("batch"))
		writeJSON(w, http.StatusOK, DeleteBatchResponse{Deleted: 42})
	})

	c, server := setupTestServer(handler)
	defer server.Close()

	n, err := c.DeleteTrades(context.Background(), 10_000)

	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestSettings(t *testing.T) {
	var saved models.AppSettings
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/store/v1/settings", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, models.AppSettings{InitialCapital: decimal.RequireFromString("1250.5")})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	c, server := setupTestServer(handler)
	defer server.Close()

	require.NoError(t, c.SetSettings(context.Background(), models.AppSettings{InitialCapital: decimal.NewFromInt(900)}))
	assert.True(t, saved.InitialCapital.Equal(decimal.NewFromInt(900)))

	settings, err := c.GetSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.InitialCapital.Equal(decimal.RequireFromString("1250.5")))
}
