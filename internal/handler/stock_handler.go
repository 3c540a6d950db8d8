package handler

import (
	"net/http"

	"github.com/yourorg/market-data-service/internal/model"
	"github.com/yourorg/market-data-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StockHandler handles stock-related HTTP requests
type StockHandler struct {
	stockService *service.StockService
	logger       *zap.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockService *service.StockService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// ListStocks handles listing the A-share market
// GET /stocks?limit=
func (h *StockHandler) ListStocks(c *gin.Context) {
	quotes, err := h.stockService.List(c.Request.Context(), parseLimit(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(quotes))
}

// GetQuote handles fetching one stock's realtime quote
// GET /stocks/:symbol
func (h *StockHandler) GetQuote(c *gin.Context) {
	quote, err := h.stockService.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(quote))
}

// GetHistory handles fetching one stock's daily bars
// GET /stocks/:symbol/history?limit=
func (h *StockHandler) GetHistory(c *gin.Context) {
	bars, err := h.stockService.History(c.Request.Context(), c.Param("symbol"), parseLimit(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OK(bars))
}
