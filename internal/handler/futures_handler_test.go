package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/market-data-service/internal/registry"
	"github.com/yourorg/market-data-service/internal/service"
	"github.com/yourorg/market-data-service/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// envelope mirrors the response wrapper for decoding in assertions.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterWithEndpoints(t, upstream.DefaultEndpoints())
}

func newTestRouterWithEndpoints(t *testing.T, ep upstream.Endpoints) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	httpClient := upstream.NewClient(time.Second, time.Second, logger)
	futuresService := service.NewFuturesService(registry.New(), nil, httpClient, ep, 50, 8, logger)
	h := NewFuturesHandler(futuresService, logger)

	router := gin.New()
	futures := router.Group("/futures")
	{
		futures.GET("/exchanges", h.GetExchanges)
		futures.GET("/symbols", h.GetSymbols)
		futures.GET("/symbols/:exchange", h.GetSymbols)
		futures.POST("/batch", h.BatchQuotes)
		futures.GET("/inventory99", h.GetInventory)
		futures.GET("/spot_price", h.GetSpotPrice)
		futures.GET("/spot_price_daily", h.GetSpotPriceDaily)
		futures.GET("/foreign/symbols", h.GetForeignSymbols)
		futures.GET("/:symbol", h.GetQuote)
		futures.GET("/:symbol/minute", h.GetMinute)
	}
	return router
}

// quoteFeedRouter serves a canned quote feed so requests run through the full
// handler, service and adapter stack.
func quoteFeedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "XX9999") {
			fmt.Fprint(w, `var hq_str_nf_XX9999="";`)
			return
		}
		fmt.Fprint(w, `var hq_str_nf_CU2602="CU2602,145958,68500.000,68720.000,68230.000,0,0,0,68400.000,0,68300.000,0,0,285730,120404";`)
	}))
	t.Cleanup(srv.Close)

	ep := upstream.DefaultEndpoints()
	ep.SinaRealtime = srv.URL
	return newTestRouterWithEndpoints(t, ep)
}

func doRequest(t *testing.T, router *gin.Engine, method, target, body string) (int, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w.Code, env
}

func TestGetExchanges(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/exchanges", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)

	var exchanges []map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &exchanges))
	assert.NotEmpty(t, exchanges)
}

func TestGetForeignSymbols(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/foreign/symbols", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	var symbols []map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &symbols))
	assert.NotEmpty(t, symbols)
}

func TestGetQuoteServesUpstreamData(t *testing.T) {
	router := quoteFeedRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/CU2602", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)

	var quote map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, "CU2602", quote["symbol"])
	assert.InDelta(t, 68400.0, quote["current_price"], 1e-9)
	assert.InDelta(t, 68720.0, quote["high"], 1e-9)
}

func TestBatchQuotesReportsPerSymbolFailures(t *testing.T) {
	router := quoteFeedRouter(t)

	status, env := doRequest(t, router, http.MethodPost, "/futures/batch", `["CU2602","XX9999"]`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success, "slot failures must not fail the request")
	assert.Nil(t, env.Error)

	var results []struct {
		Symbol  string          `json:"symbol"`
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *string         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 2)

	assert.Equal(t, "CU2602", results[0].Symbol)
	assert.True(t, results[0].Success)
	assert.Nil(t, results[0].Error)

	assert.Equal(t, "XX9999", results[1].Symbol)
	assert.False(t, results[1].Success)
	require.NotNil(t, results[1].Error)
	assert.NotEmpty(t, *results[1].Error)
}

func TestGetSymbolsBeforeRegistryLoad(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/symbols", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.NotEmpty(t, *env.Error)
}

func TestBatchQuotesRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodPost, "/futures/batch", `{"symbols": "CU2602"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Contains(t, *env.Error, "JSON array")
}

func TestBatchQuotesRejectsEmptyList(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodPost, "/futures/batch", `[]`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestGetMinuteRejectsInvalidPeriod(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/CU2602/minute?period=7", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestGetInventoryRequiresSymbol(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/inventory99", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Contains(t, *env.Error, "symbol")
}

func TestGetSpotPriceRequiresDate(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/spot_price", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestGetSpotPriceDailyRequiresRange(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/futures/spot_price_daily?start_date=20260201", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestSplitSymbols(t *testing.T) {
	assert.Nil(t, splitSymbols(""))
	assert.Equal(t, []string{"CU", "RB"}, splitSymbols("CU, RB"))
	assert.Equal(t, []string{"CU"}, splitSymbols("CU,,"))
}
