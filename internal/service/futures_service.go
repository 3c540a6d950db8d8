package service

import (
	"context"
	"sort"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"
	"github.com/yourorg/market-data-service/internal/registry"
	"github.com/yourorg/market-data-service/internal/upstream"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// validMinutePeriods are the minute K-line intervals the upstream serves.
var validMinutePeriods = map[string]bool{
	"1":  true,
	"5":  true,
	"15": true,
	"30": true,
	"60": true,
}

// listExchanges are the exchanges sampled when a market-wide contract list is
// requested.
var listExchanges = []string{"SHFE", "DCE", "CZCE", "CFFEX"}

// quoteSource is the realtime quote surface the orchestrator fans out over.
type quoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (*model.FuturesQuote, error)
	FetchProductQuotes(ctx context.Context, node string, limit int) ([]model.FuturesQuote, error)
	Exchanges() []model.Exchange
}

// foreignSource is the foreign futures surface, fanned out per product code
// the same way domestic batch quotes are.
type foreignSource interface {
	Symbols() []model.ForeignSymbol
	FetchQuote(ctx context.Context, code string) (*model.FuturesQuote, error)
}

// FuturesService composes the upstream adapters and the symbol registry into
// the futures operations exposed over HTTP.
type FuturesService struct {
	registry  *registry.Registry
	refresher *registry.Refresher

	quotes     quoteSource
	kline      *upstream.KlineClient
	holdPos    *upstream.HoldPosClient
	detail     *upstream.DetailClient
	fees       *upstream.FeesClient
	commission *upstream.CommissionClient
	rule       *upstream.RuleClient
	inventory  *upstream.InventoryClient
	spot       *upstream.SpotClient
	foreign    foreignSource

	maxBatchSize  int
	maxConcurrent int
	logger        *zap.Logger
}

// NewFuturesService creates a futures service over the given adapters.
func NewFuturesService(
	reg *registry.Registry,
	refresher *registry.Refresher,
	httpClient *upstream.Client,
	ep upstream.Endpoints,
	maxBatchSize int,
	maxConcurrent int,
	logger *zap.Logger,
) *FuturesService {
	return &FuturesService{
		registry:      reg,
		refresher:     refresher,
		quotes:        upstream.NewQuoteClient(ep, httpClient, logger),
		kline:         upstream.NewKlineClient(ep, httpClient, logger),
		holdPos:       upstream.NewHoldPosClient(ep, httpClient, logger),
		detail:        upstream.NewDetailClient(ep, httpClient, logger),
		fees:          upstream.NewFeesClient(ep, httpClient, logger),
		commission:    upstream.NewCommissionClient(ep, httpClient, logger),
		rule:          upstream.NewRuleClient(ep, httpClient, logger),
		inventory:     upstream.NewInventoryClient(ep, httpClient, logger),
		spot:          upstream.NewSpotClient(ep, httpClient, logger),
		foreign:       upstream.NewForeignClient(ep, httpClient, logger),
		maxBatchSize:  maxBatchSize,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Exchanges returns the supported exchange table.
func (s *FuturesService) Exchanges() []model.Exchange {
	return s.quotes.Exchanges()
}

// Symbols lists the product mappings, optionally for one exchange code.
func (s *FuturesService) Symbols(exchange string) ([]model.SymbolMapping, error) {
	mappings, err := s.registry.List(exchange)
	if err != nil {
		s.requestRefreshOnMiss(err)
		return nil, err
	}
	return mappings, nil
}

// Quote retrieves the realtime quote for one contract code such as CU2602.
func (s *FuturesService) Quote(ctx context.Context, symbol string) (*model.FuturesQuote, error) {
	return s.quotes.FetchQuote(ctx, symbol)
}

// BatchQuotes retrieves quotes for up to maxBatchSize contracts concurrently.
// The result preserves input order; each slot succeeds or fails on its own.
func (s *FuturesService) BatchQuotes(ctx context.Context, symbols []string) ([]model.BatchResult, error) {
	if len(symbols) == 0 {
		return nil, model.NewInvalidRequest("symbol list must not be empty")
	}
	if len(symbols) > s.maxBatchSize {
		return nil, model.NewInvalidRequest("batch size %d exceeds the maximum of %d", len(symbols), s.maxBatchSize)
	}

	results := make([]model.BatchResult, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			quote, err := s.quotes.FetchQuote(gctx, symbol)
			if err != nil {
				s.logger.Warn("Batch slot failed",
					zap.String("symbol", symbol),
					zap.Error(err))
				results[i] = model.BatchFail(symbol, err)
				return nil
			}
			results[i] = model.BatchOK(symbol, quote)
			return nil
		})
	}

	// Workers never return errors; Wait only bounds the fan-out.
	_ = g.Wait()
	return results, nil
}

// RealtimeByProduct resolves a product name (e.g. 螺纹钢) to its quote node
// and returns all of its contract quotes, most held first.
func (s *FuturesService) RealtimeByProduct(ctx context.Context, name string) ([]model.FuturesQuote, error) {
	node, err := s.registry.Resolve(name)
	if err != nil {
		s.requestRefreshOnMiss(err)
		return nil, err
	}
	return s.quotes.FetchProductQuotes(ctx, node, 0)
}

// ListFutures samples the most held contracts, either across one exchange or
// across the major exchanges when none is given.
func (s *FuturesService) ListFutures(ctx context.Context, exchange string, limit int) ([]model.FuturesQuote, error) {
	if limit <= 0 {
		limit = 20
	}

	var all []model.FuturesQuote
	if exchange != "" {
		mappings, err := s.registry.List(exchange)
		if err != nil {
			s.requestRefreshOnMiss(err)
			return nil, err
		}
		for i, m := range mappings {
			if i >= 5 || len(all) >= limit {
				break
			}
			all = s.appendNodeQuotes(ctx, all, m, 1)
		}
	} else {
		for _, ex := range listExchanges {
			mappings, err := s.registry.List(ex)
			if err != nil {
				s.requestRefreshOnMiss(err)
				return nil, err
			}
			for i, m := range mappings {
				if i >= 2 {
					break
				}
				all = s.appendNodeQuotes(ctx, all, m, 1)
			}
		}
	}

	sortByOpenInterest(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *FuturesService) appendNodeQuotes(ctx context.Context, all []model.FuturesQuote, m model.SymbolMapping, limit int) []model.FuturesQuote {
	quotes, err := s.quotes.FetchProductQuotes(ctx, m.Mark, limit)
	if err != nil {
		s.logger.Warn("Product node fetch failed",
			zap.String("product", m.Symbol),
			zap.String("node", m.Mark),
			zap.Error(err))
		return all
	}
	return append(all, quotes...)
}

func sortByOpenInterest(quotes []model.FuturesQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return openInterestOf(quotes[i]) > openInterestOf(quotes[j])
	})
}

func openInterestOf(q model.FuturesQuote) uint64 {
	if q.OpenInterest == nil {
		return 0
	}
	return *q.OpenInterest
}

// DisplayMainContracts lists the exchange-published continuous contracts,
// the node rows whose name carries 连续 and whose code ends in 0.
func (s *FuturesService) DisplayMainContracts(ctx context.Context) ([]model.MainContract, error) {
	var contracts []model.MainContract

	for _, ex := range []string{"DCE", "CZCE", "SHFE", "CFFEX", "GFEX"} {
		mappings, err := s.registry.List(ex)
		if err != nil {
			s.requestRefreshOnMiss(err)
			return nil, err
		}

		for _, m := range mappings {
			quotes, err := s.quotes.FetchProductQuotes(ctx, m.Mark, 0)
			if err != nil {
				s.logger.Warn("Continuous contract scan failed",
					zap.String("node", m.Mark),
					zap.Error(err))
				continue
			}
			for _, q := range quotes {
				if strings.Contains(q.Name, "连续") && strings.HasSuffix(q.Symbol, "0") {
					contracts = append(contracts, model.MainContract{
						Symbol:   q.Symbol,
						Name:     q.Name,
						Exchange: ex,
					})
				}
			}
		}
	}

	if len(contracts) == 0 {
		return nil, model.NewEmptyPayload("no continuous contracts found")
	}
	return contracts, nil
}

// MainContracts determines each product's dominant contract on one exchange
// by the highest open interest among its most held contracts.
func (s *FuturesService) MainContracts(ctx context.Context, exchange string) ([]string, error) {
	mappings, err := s.registry.List(exchange)
	if err != nil {
		s.requestRefreshOnMiss(err)
		return nil, err
	}

	var mains []string
	for _, m := range mappings {
		quotes, err := s.quotes.FetchProductQuotes(ctx, m.Mark, 5)
		if err != nil {
			s.logger.Warn("Dominant contract scan failed",
				zap.String("product", m.Symbol),
				zap.Error(err))
			continue
		}

		best := -1
		for i, q := range quotes {
			if best < 0 || openInterestOf(q) > openInterestOf(quotes[best]) {
				best = i
			}
		}
		if best >= 0 {
			mains = append(mains, quotes[best].Symbol)
		}
	}

	if len(mains) == 0 {
		return nil, model.NewEmptyPayload("no dominant contracts resolved for %s", exchange)
	}
	return mains, nil
}

// MainDaily returns the daily series of a continuous contract such as RB0,
// optionally bounded by YYYYMMDD dates.
func (s *FuturesService) MainDaily(ctx context.Context, symbol, startDate, endDate string) ([]model.MainContractBar, error) {
	return s.kline.FetchMainDaily(ctx, symbol, startDate, endDate)
}

// History returns a contract's daily bars, most recent first.
func (s *FuturesService) History(ctx context.Context, symbol string, limit int) ([]model.FuturesBar, error) {
	return s.kline.FetchDaily(ctx, symbol, limit)
}

// Minute returns a contract's minute bars for the given period. An empty
// period defaults to 5 minutes.
func (s *FuturesService) Minute(ctx context.Context, symbol, period string) ([]model.FuturesBar, error) {
	if period == "" {
		period = "5"
	}
	if !validMinutePeriods[period] {
		return nil, model.NewInvalidRequest("invalid minute period %q, expected 1, 5, 15, 30 or 60", period)
	}
	return s.kline.FetchMinute(ctx, symbol, period)
}

// ContractDetail returns a contract's trading rules page.
func (s *FuturesService) ContractDetail(ctx context.Context, symbol string) (*model.ContractDetail, error) {
	return s.detail.FetchContractDetail(ctx, symbol)
}

// HoldPos returns the broker position ranking of one type for a contract and
// date.
func (s *FuturesService) HoldPos(ctx context.Context, posType, contract, date string) ([]model.HoldPositionEntry, error) {
	return s.holdPos.Fetch(ctx, posType, contract, date)
}

// Fees returns the openctp fee reference table.
func (s *FuturesService) Fees(ctx context.Context) ([]model.FeeRecord, error) {
	return s.fees.Fetch(ctx)
}

// CommInfo returns the commission table, optionally filtered by exchange
// name.
func (s *FuturesService) CommInfo(ctx context.Context, exchange string) ([]model.CommissionRecord, error) {
	return s.commission.Fetch(ctx, exchange)
}

// Rule returns the trading-parameter calendar for a date.
func (s *FuturesService) Rule(ctx context.Context, date string) ([]model.RuleRecord, error) {
	return s.rule.Fetch(ctx, date)
}

// InventoryProducts returns the inventory product id map.
func (s *FuturesService) InventoryProducts(ctx context.Context) ([]model.InventoryProduct, error) {
	return s.inventory.FetchProducts(ctx)
}

// Inventory returns a product's registered inventory series.
func (s *FuturesService) Inventory(ctx context.Context, symbol string) ([]model.InventoryRecord, error) {
	return s.inventory.FetchInventory(ctx, symbol)
}

// SpotPrice returns the spot/basis rows for one date.
func (s *FuturesService) SpotPrice(ctx context.Context, date string, symbols []string) ([]model.SpotPriceRecord, error) {
	return s.spot.FetchSpotPrices(ctx, date, symbols)
}

// SpotPriceSummary returns the spot/basis summary with 180-day statistics.
func (s *FuturesService) SpotPriceSummary(ctx context.Context, date string) ([]model.SpotPriceSummary, error) {
	return s.spot.FetchSpotPriceSummary(ctx, date)
}

// SpotPriceDaily returns spot/basis rows over an inclusive date range.
func (s *FuturesService) SpotPriceDaily(ctx context.Context, startDate, endDate string, symbols []string) ([]model.SpotPriceRecord, error) {
	return s.spot.FetchSpotPriceRange(ctx, startDate, endDate, symbols)
}

// ForeignSymbols returns the supported foreign product table.
func (s *FuturesService) ForeignSymbols() []model.ForeignSymbol {
	return s.foreign.Symbols()
}

// ForeignRealtime retrieves quotes for up to maxBatchSize foreign product
// codes concurrently. The result preserves input order; each slot succeeds or
// fails on its own.
func (s *FuturesService) ForeignRealtime(ctx context.Context, codes []string) ([]model.BatchResult, error) {
	if len(codes) == 0 {
		return nil, model.NewInvalidRequest("code list must not be empty")
	}
	if len(codes) > s.maxBatchSize {
		return nil, model.NewInvalidRequest("batch size %d exceeds the maximum of %d", len(codes), s.maxBatchSize)
	}

	results := make([]model.BatchResult, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			quote, err := s.foreign.FetchQuote(gctx, code)
			if err != nil {
				s.logger.Warn("Foreign batch slot failed",
					zap.String("code", code),
					zap.Error(err))
				results[i] = model.BatchFail(code, err)
				return nil
			}
			results[i] = model.BatchOK(code, quote)
			return nil
		})
	}

	// Workers never return errors; Wait only bounds the fan-out.
	_ = g.Wait()
	return results, nil
}

// ForeignHistory returns a foreign contract's daily bars, most recent first.
func (s *FuturesService) ForeignHistory(ctx context.Context, symbol string) ([]model.ForeignBar, error) {
	return s.kline.FetchForeignDaily(ctx, symbol)
}

// ForeignDetail returns a foreign contract's detail table.
func (s *FuturesService) ForeignDetail(ctx context.Context, symbol string) (*model.ForeignDetail, error) {
	return s.detail.FetchForeignDetail(ctx, symbol)
}

// requestRefreshOnMiss nudges the refresher when a lookup failed because the
// mappings are missing or possibly stale.
func (s *FuturesService) requestRefreshOnMiss(err error) {
	if s.refresher == nil {
		return
	}
	switch model.KindOf(err) {
	case model.KindNotFound, model.KindRegistryUnavailable:
		s.refresher.RequestRefresh()
	}
}
