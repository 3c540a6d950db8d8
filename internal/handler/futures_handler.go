package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"
	"github.com/yourorg/market-data-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FuturesHandler handles futures-related HTTP requests
type FuturesHandler struct {
	futuresService *service.FuturesService
	logger         *zap.Logger
}

// NewFuturesHandler creates a new futures handler
func NewFuturesHandler(futuresService *service.FuturesService, logger *zap.Logger) *FuturesHandler {
	return &FuturesHandler{
		futuresService: futuresService,
		logger:         logger,
	}
}

// respondError writes the failure envelope with the status mapped from the
// error kind.
func respondError(c *gin.Context, err error) {
	c.JSON(model.HTTPStatus(err), model.Fail(err.Error()))
}

// parseLimit reads an optional positive integer query parameter.
func parseLimit(c *gin.Context, name string) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// GetExchanges handles listing the supported exchanges
// GET /futures/exchanges
func (h *FuturesHandler) GetExchanges(c *gin.Context) {
	c.JSON(http.StatusOK, model.OK(h.futuresService.Exchanges()))
}

// GetSymbols handles listing product mappings
// GET /futures/symbols and GET /futures/symbols/:exchange
func (h *FuturesHandler) GetSymbols(c *gin.Context) {
	mappings, err := h.futuresService.Symbols(c.Param("exchange"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(mappings))
}

// ListFutures handles sampling the most held contracts
// GET /futures?exchange=&limit=
func (h *FuturesHandler) ListFutures(c *gin.Context) {
	quotes, err := h.futuresService.ListFutures(c.Request.Context(), c.Query("exchange"), parseLimit(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(quotes))
}

// GetQuote handles fetching one contract's realtime quote
// GET /futures/:symbol
func (h *FuturesHandler) GetQuote(c *gin.Context) {
	quote, err := h.futuresService.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(quote))
}

// BatchQuotes handles fetching quotes for several contracts at once
// POST /futures/batch with body ["CU2602","RB2605"]
func (h *FuturesHandler) BatchQuotes(c *gin.Context) {
	var symbols []string
	if err := c.ShouldBindJSON(&symbols); err != nil {
		respondError(c, model.NewInvalidRequest("request body must be a JSON array of symbols"))
		return
	}

	results, err := h.futuresService.BatchQuotes(c.Request.Context(), symbols)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(results))
}

// GetRealtimeByProduct handles fetching all contract quotes of one product
// GET /futures/realtime/:symbol
func (h *FuturesHandler) GetRealtimeByProduct(c *gin.Context) {
	quotes, err := h.futuresService.RealtimeByProduct(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(quotes))
}

// GetHistory handles fetching a contract's daily bars
// GET /futures/:symbol/history?limit=
func (h *FuturesHandler) GetHistory(c *gin.Context) {
	bars, err := h.futuresService.History(c.Request.Context(), c.Param("symbol"), parseLimit(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(bars))
}

// GetMinute handles fetching a contract's minute bars
// GET /futures/:symbol/minute?period=
func (h *FuturesHandler) GetMinute(c *gin.Context) {
	bars, err := h.futuresService.Minute(c.Request.Context(), c.Param("symbol"), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(bars))
}

// GetContractDetail handles fetching a contract's trading rules
// GET /futures/:symbol/detail
func (h *FuturesHandler) GetContractDetail(c *gin.Context) {
	detail, err := h.futuresService.ContractDetail(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(detail))
}

// GetDisplayMainContracts handles listing the continuous contracts
// GET /futures/main/display
func (h *FuturesHandler) GetDisplayMainContracts(c *gin.Context) {
	contracts, err := h.futuresService.DisplayMainContracts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(contracts))
}

// GetMainContracts handles resolving an exchange's dominant contracts
// GET /futures/main/:symbol where :symbol is an exchange code
func (h *FuturesHandler) GetMainContracts(c *gin.Context) {
	mains, err := h.futuresService.MainContracts(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(mains))
}

// GetMainDaily handles fetching a continuous contract's daily series
// GET /futures/main/:symbol/daily?start_date=&end_date=
func (h *FuturesHandler) GetMainDaily(c *gin.Context) {
	bars, err := h.futuresService.MainDaily(
		c.Request.Context(),
		c.Param("symbol"),
		c.Query("start_date"),
		c.Query("end_date"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(bars))
}

// GetHoldPos handles fetching a broker position ranking
// GET /futures/hold_pos?type=&contract=&date=
func (h *FuturesHandler) GetHoldPos(c *gin.Context) {
	entries, err := h.futuresService.HoldPos(
		c.Request.Context(),
		c.DefaultQuery("type", "volume"),
		c.Query("contract"),
		c.Query("date"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(entries))
}

// GetFees handles fetching the fee reference table
// GET /futures/fees
func (h *FuturesHandler) GetFees(c *gin.Context) {
	records, err := h.futuresService.Fees(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(records))
}

// GetCommInfo handles fetching the commission table
// GET /futures/comm_info?exchange=
func (h *FuturesHandler) GetCommInfo(c *gin.Context) {
	records, err := h.futuresService.CommInfo(c.Request.Context(), c.Query("exchange"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(records))
}

// GetRule handles fetching the trading-parameter calendar
// GET /futures/rule?date=
func (h *FuturesHandler) GetRule(c *gin.Context) {
	rules, err := h.futuresService.Rule(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(rules))
}

// GetInventorySymbols handles listing the inventory product map
// GET /futures/inventory99/symbols
func (h *FuturesHandler) GetInventorySymbols(c *gin.Context) {
	products, err := h.futuresService.InventoryProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(products))
}

// GetInventory handles fetching a product's inventory series
// GET /futures/inventory99?symbol=
func (h *FuturesHandler) GetInventory(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		respondError(c, model.NewInvalidRequest("symbol query parameter is required"))
		return
	}

	records, err := h.futuresService.Inventory(c.Request.Context(), symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(records))
}

// splitSymbols parses an optional comma-separated symbols parameter.
func splitSymbols(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			symbols = append(symbols, p)
		}
	}
	return symbols
}

// GetSpotPrice handles fetching the spot/basis table for one date
// GET /futures/spot_price?date=&symbols=
func (h *FuturesHandler) GetSpotPrice(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, model.NewInvalidRequest("date query parameter is required"))
		return
	}

	records, err := h.futuresService.SpotPrice(c.Request.Context(), date, splitSymbols(c.Query("symbols")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(records))
}

// GetSpotPriceSummary handles fetching the spot/basis summary table
// GET /futures/spot_price_previous?date=
func (h *FuturesHandler) GetSpotPriceSummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, model.NewInvalidRequest("date query parameter is required"))
		return
	}

	records, err := h.futuresService.SpotPriceSummary(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(records))
}

// GetSpotPriceDaily handles fetching spot/basis rows over a date range
// GET /futures/spot_price_daily?start_date=&end_date=&symbols=
func (h *FuturesHandler) GetSpotPriceDaily(c *gin.Context) {
	startDate, endDate := c.Query("start_date"), c.Query("end_date")
	if startDate == "" || endDate == "" {
		respondError(c, model.NewInvalidRequest("start_date and end_date query parameters are required"))
		return
	}

	records, err := h.futuresService.SpotPriceDaily(c.Request.Context(), startDate, endDate, splitSymbols(c.Query("symbols")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(records))
}

// GetForeignSymbols handles listing the foreign product table
// GET /futures/foreign/symbols
func (h *FuturesHandler) GetForeignSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, model.OK(h.futuresService.ForeignSymbols()))
}

// ForeignRealtime handles fetching foreign quotes
// POST /futures/foreign/realtime with body ["CL","GC"]
func (h *FuturesHandler) ForeignRealtime(c *gin.Context) {
	var codes []string
	if err := c.ShouldBindJSON(&codes); err != nil {
		respondError(c, model.NewInvalidRequest("request body must be a JSON array of product codes"))
		return
	}

	results, err := h.futuresService.ForeignRealtime(c.Request.Context(), codes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(results))
}

// GetForeignHistory handles fetching a foreign contract's daily bars
// GET /futures/foreign/:symbol/history
func (h *FuturesHandler) GetForeignHistory(c *gin.Context) {
	bars, err := h.futuresService.ForeignHistory(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(bars))
}

// GetForeignDetail handles fetching a foreign contract's detail table
// GET /futures/foreign/:symbol/detail
func (h *FuturesHandler) GetForeignDetail(c *gin.Context) {
	detail, err := h.futuresService.ForeignDetail(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(detail))
}
