package service

import (
	"context"

	"github.com/yourorg/market-data-service/internal/model"
	"github.com/yourorg/market-data-service/internal/upstream"

	"go.uber.org/zap"
)

// StockService exposes the A-share operations over the Sina stock adapters.
type StockService struct {
	stocks *upstream.StockClient
	logger *zap.Logger
}

// NewStockService creates a stock service.
func NewStockService(httpClient *upstream.Client, ep upstream.Endpoints, logger *zap.Logger) *StockService {
	return &StockService{
		stocks: upstream.NewStockClient(ep, httpClient, logger),
		logger: logger,
	}
}

// Quote returns the realtime quote for one stock symbol such as sh600000.
func (s *StockService) Quote(ctx context.Context, symbol string) (*model.StockQuote, error) {
	return s.stocks.FetchQuote(ctx, symbol)
}

// History returns a stock's daily bars, most recent first.
func (s *StockService) History(ctx context.Context, symbol string, limit int) ([]model.StockBar, error) {
	return s.stocks.FetchHistory(ctx, symbol, limit)
}

// List returns the first limit entries of the A-share market list.
func (s *StockService) List(ctx context.Context, limit int) ([]model.StockQuote, error) {
	return s.stocks.FetchList(ctx, limit)
}
