package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/filter"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/prefs"
	"trading-journal-go/internal/session"
	"trading-journal-go/internal/store"
	"trading-journal-go/internal/store/httpstore"
	"trading-journal-go/internal/store/sqlstore"
)

// setupTestServer serves a loaded session over a fresh SQLite store.
func setupTestServer(t *testing.T) (*httptest.Server, *session.Session, store.Store) {
	dir := t.TempDir()
	st, err := sqlstore.Open(filepath.Join(dir, "journal.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sess := session.New(st, prefs.NewFileStore(filepath.Join(dir, "prefs.yml")), zap.NewNop(), session.Options{})
	require.NoError(t, sess.Load(context.Background()))

	server := httptest.NewServer(NewRouter(sess, st, zap.NewNop()))
	t.Cleanup(server.Close)
	return server, sess, st
}

func do(t *testing.T, method, url string, body interface{}) *http.Response {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func tradeForm(pair, profit, notes string) models.TradeForm {
	return models.TradeForm{
		DateStr:  "2024-01-15",
		Pair:     pair,
		Position: models.PositionBuy,
		Lot:      decimal.RequireFromString("0.01"),
		Profit:   decimal.RequireFromString(profit),
		Notes:    notes,
	}
}

func TestHealth(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp := do(t, http.MethodGet, server.URL+"/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	server, _, _ := setupTestServer(t)
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/status", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestTradeLifecycle(t *testing.T) {
	server, sess, _ := setupTestServer(t)

	// Create
	resp := do(t, http.MethodPost, server.URL+"/api/trades", tradeForm("xauusd", "45.5", "nice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var state session.State
	decode(t, resp, &state)
	require.Len(t, state.Trades, 1)
	id := state.Trades[0].ID
	assert.Equal(t, "XAUUSD", state.Trades[0].Pair)
	assert.Equal(t, session.ViewDashboard, state.View)

	do(t, http.MethodPost, server.URL+"/api/trades", tradeForm("EURUSD", "-10", "stopped"))

	// Filter
	resp = do(t, http.MethodGet, server.URL+"/api/trades?result=Loss", nil)
	var filtered []models.Trade
	decode(t, resp, &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, "EURUSD", filtered[0].Pair)
	assert.Empty(t, sess.Snapshot().Filters.Result, "GET never saves filters")

	resp = do(t, http.MethodPut, server.URL+"/api/filters", filter.Criteria{Pair: "XAUUSD"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, "XAUUSD", sess.Snapshot().Filters.Pair)

	resp = do(t, http.MethodGet, server.URL+"/api/trades", nil)
	decode(t, resp, &filtered)
	require.Len(t, filtered, 1, "no query uses the saved filters")
	assert.Equal(t, "XAUUSD", filtered[0].Pair)

	// Statistics
	resp = do(t, http.MethodGet, server.URL+"/api/statistics", nil)
	var kpi models.KPI
	decode(t, resp, &kpi)
	assert.Equal(t, 2, kpi.TotalTrades)
	assert.True(t, kpi.TotalProfit.Equal(decimal.RequireFromString("35.5")))
	assert.Equal(t, "XAUUSD", kpi.BestPair)
	assert.Equal(t, "EURUSD", kpi.WorstPair)

	// Edit
	resp = do(t, http.MethodPost, server.URL+"/api/trades/"+id+"/edit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prefilled models.TradeForm
	decode(t, resp, &prefilled)
	assert.Equal(t, "XAUUSD", prefilled.Pair)
	assert.Equal(t, "2024-01-15", prefilled.DateStr)

	resp = do(t, http.MethodPut, server.URL+"/api/trades/"+id, tradeForm("XAUUSD", "0", "flat"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &state)
	assert.Equal(t, session.ViewJournal, state.View)

	resp = do(t, http.MethodPost, server.URL+"/api/trades/temp-01HZX/edit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "unconfirmed trades cannot be edited")

	// Delete
	resp = do(t, http.MethodDelete, server.URL+"/api/trades/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, server.URL+"/api/pairs", nil)
	var pairs []string
	decode(t, resp, &pairs)
	assert.Equal(t, []string{"EURUSD"}, pairs)
}

func TestCreateTrade_InvalidForm(t *testing.T) {
	server, sess, _ := setupTestServer(t)

	resp := do(t, http.MethodPost, server.URL+"/api/trades", tradeForm("", "1", ""))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, sess.Snapshot().Trades)
}

func TestReset(t *testing.T) {
	server, sess, _ := setupTestServer(t)
	do(t, http.MethodPost, server.URL+"/api/trades", tradeForm("EURUSD", "1", ""))

	t.Run("Requires confirmation", func(t *testing.T) {
		resp := do(t, http.MethodDelete, server.URL+"/api/trades", nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Len(t, sess.Snapshot().Trades, 1)
	})

	t.Run("Confirmed", func(t *testing.T) {
		resp := do(t, http.MethodDelete, server.URL+"/api/trades?confirm=true", nil)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, sess.Snapshot().Trades)
	})
}

func TestSettings(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp := do(t, http.MethodPut, server.URL+"/api/settings", CapitalRequest{Input: "abc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out CapitalResponse
	decode(t, resp, &out)
	assert.False(t, out.Applied)
	assert.True(t, out.InitialCapital.Equal(decimal.NewFromInt(1000)))

	resp = do(t, http.MethodPut, server.URL+"/api/settings", CapitalRequest{Input: "2500"})
	decode(t, resp, &out)
	assert.True(t, out.Applied)
	assert.True(t, out.InitialCapital.Equal(decimal.NewFromInt(2500)))

	resp = do(t, http.MethodGet, server.URL+"/api/settings", nil)
	var settings models.AppSettings
	decode(t, resp, &settings)
	assert.True(t, settings.InitialCapital.Equal(decimal.NewFromInt(2500)))
}

func TestThemeAndView(t *testing.T) {
	server, sess, _ := setupTestServer(t)

	resp := do(t, http.MethodPut, server.URL+"/api/theme", nil)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "dark", body["theme"])

	resp = do(t, http.MethodPut, server.URL+"/api/view", map[string]string{"view": "stats"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, session.ViewStats, sess.Snapshot().View)

	resp = do(t, http.MethodPut, server.URL+"/api/view", map[string]string{"view": "nowhere"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport(t *testing.T) {
	server, _, _ := setupTestServer(t)
	do(t, http.MethodPost, server.URL+"/api/trades", tradeForm("XAUUSD", "45.5", `nice "setup"`))

	resp := do(t, http.MethodGet, server.URL+"/api/export.csv", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "trades_export.csv")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(string(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Jan 15, 2024",XAUUSD,Buy,0.01,45.5,Win,"nice ""setup"""`, lines[1])
}

func TestChartsAndStatus(t *testing.T) {
	server, _, _ := setupTestServer(t)
	do(t, http.MethodPost, server.URL+"/api/trades", tradeForm("XAUUSD", "10", ""))

	resp := do(t, http.MethodGet, server.URL+"/api/charts", nil)
	var charts struct {
		Equity []json.RawMessage `json:"equity"`
		Daily  []json.RawMessage `json:"daily"`
	}
	decode(t, resp, &charts)
	assert.Len(t, charts.Equity, 1)
	assert.Len(t, charts.Daily, 1)

	resp = do(t, http.MethodGet, server.URL+"/api/status", nil)
	var status StatusResponse
	decode(t, resp, &status)
	assert.Equal(t, 1, status.TradeCount)
	assert.Equal(t, "light", status.Theme)
	assert.Nil(t, status.Error)
}

// TestStoreRoutes drives the /store/v1 routes through the HTTP store client.
func TestStoreRoutes(t *testing.T) {
	server, _, _ := setupTestServer(t)
	client := httpstore.New(config.Remote{
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
		RateLimit:      1000,
		RateLimitBurst: 100,
	}, zap.NewNop())
	ctx := context.Background()

	id, err := client.CreateTrade(ctx, models.Trade{
		Date:     1705276800000,
		Pair:     "GBPUSD",
		Position: models.PositionSell,
		Lot:      decimal.RequireFromString("0.2"),
		Profit:   decimal.RequireFromString("-7.25"),
		Result:   models.ResultLoss,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	trades, err := client.ListTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Profit.Equal(decimal.RequireFromString("-7.25")))

	err = client.UpdateTrade(ctx, "missing", trades[0])
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, client.SetSettings(ctx, models.AppSettings{InitialCapital: decimal.NewFromInt(42)}))
	settings, err := client.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.InitialCapital.Equal(decimal.NewFromInt(42)))

	n, err := client.DeleteTrades(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, client.DeleteTrade(ctx, id))
}
