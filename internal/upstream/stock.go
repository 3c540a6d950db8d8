package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"go.uber.org/zap"
)

const (
	sinaStockKlineAPI = "https://quotes.sina.cn/cn/api/jsonp_v2.php/=/CN_MarketDataService.getKLineData"
	sinaStockListAPI  = "http://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php/Market_Center.getHQNodeData"
)

// DefaultStockLimit bounds stock history and list requests when the caller
// omits a limit.
const DefaultStockLimit = 30

// StockClient fetches A-share quotes, daily history and the market list from
// the Sina stock endpoints.
type StockClient struct {
	realtimeAPI string
	klineAPI    string
	listAPI     string
	http        *Client
	logger      *zap.Logger
}

// NewStockClient creates a stock data client.
func NewStockClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *StockClient {
	return &StockClient{
		realtimeAPI: ep.SinaRealtime,
		klineAPI:    ep.SinaStockKline,
		listAPI:     ep.SinaStockList,
		http:        httpClient,
		logger:      logger,
	}
}

// FetchQuote retrieves the realtime quote for one stock symbol such as
// sh600000.
func (c *StockClient) FetchQuote(ctx context.Context, symbol string) (*model.StockQuote, error) {
	reqURL := fmt.Sprintf("%s/list=%s", c.realtimeAPI, strings.ToLower(symbol))

	body, err := c.http.Get(ctx, reqURL, financeHeaders())
	if err != nil {
		return nil, err
	}

	payload, err := DecodeGBK(body)
	if err != nil {
		return nil, err
	}

	return ParseStockQuote(payload, symbol)
}

// FetchHistory retrieves a stock's daily bars, most recent first. scale=240
// selects the daily series.
func (c *StockClient) FetchHistory(ctx context.Context, symbol string, limit int) ([]model.StockBar, error) {
	if limit <= 0 {
		limit = DefaultStockLimit
	}
	reqURL := fmt.Sprintf("%s?symbol=%s&scale=240&ma=no&datalen=%d", c.klineAPI, strings.ToLower(symbol), limit)

	body, err := c.http.Get(ctx, reqURL, financeHeaders())
	if err != nil {
		return nil, err
	}

	return ParseStockHistory(string(body), symbol)
}

// FetchList retrieves the first page of the A-share market list, limit
// entries sorted by symbol.
func (c *StockClient) FetchList(ctx context.Context, limit int) ([]model.StockQuote, error) {
	if limit <= 0 {
		limit = DefaultStockLimit
	}
	reqURL := fmt.Sprintf("%s?node=hs_a&page=1&num=%d&sort=symbol&asc=1", c.listAPI, limit)

	body, err := c.http.Get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}

	return ParseStockList(body, beijingNow())
}

// ParseStockQuote parses a Sina stock realtime payload. Fields 30 and 31
// carry the quote's date and time.
func ParseStockQuote(payload, symbol string) (*model.StockQuote, error) {
	start := strings.Index(payload, `"`)
	end := strings.LastIndex(payload, `"`)
	if start < 0 || end <= start {
		return nil, model.NewParseError("stock quote payload has no quoted body")
	}

	content := payload[start+1 : end]
	if content == "" {
		return nil, model.NewNotFound("stock %s is unknown or delisted", symbol)
	}

	fields := strings.Split(content, ",")
	if len(fields) < 32 {
		return nil, model.NewParseError("stock quote for %s has %d fields, expected at least 32", symbol, len(fields))
	}

	prevClose := parseFloat(fields[2])
	current := parseFloat(fields[3])

	change, changePercent := 0.0, 0.0
	if prevClose > 0 {
		change = current - prevClose
		changePercent = change / prevClose * 100
	}

	return &model.StockQuote{
		Symbol:        strings.ToUpper(symbol),
		Name:          fields[0],
		CurrentPrice:  current,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        parseUint(fields[8]),
		UpdatedAt:     fields[30] + " " + fields[31],
	}, nil
}

// stockHistoryItem is one bar of the getKLineData JSONP payload. All numbers
// arrive as strings.
type stockHistoryItem struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// ParseStockHistory parses a stock daily K-line payload into bars sorted by
// descending recency.
func ParseStockHistory(payload, symbol string) ([]model.StockBar, error) {
	jsonStr, err := extractJSONP(payload)
	if err != nil {
		return nil, err
	}

	var items []stockHistoryItem
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		return nil, model.NewParseError("failed to decode stock K-line array: %v", err)
	}
	if len(items) == 0 {
		return nil, model.NewEmptyPayload("stock K-line returned no bars for %s", symbol)
	}

	bars := make([]model.StockBar, 0, len(items))
	for _, item := range items {
		bars = append(bars, model.StockBar{
			Symbol: strings.ToUpper(symbol),
			Date:   item.Day,
			Open:   parseFloat(item.Open),
			High:   parseFloat(item.High),
			Low:    parseFloat(item.Low),
			Close:  parseFloat(item.Close),
			Volume: parseUint(item.Volume),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date > bars[j].Date })
	return bars, nil
}

// stockListItem is one row of the HQNodeData market list. The feed mixes
// string and numeric fields; mktcap is denominated in 万元.
type stockListItem struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Trade         string  `json:"trade"`
	PriceChange   string  `json:"pricechange"`
	ChangePercent string  `json:"changepercent"`
	Volume        string  `json:"volume"`
	MktCap        float64 `json:"mktcap"`
}

// ParseStockList parses the A-share market list into quotes.
func ParseStockList(body []byte, observedAt string) ([]model.StockQuote, error) {
	var items []stockListItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, model.NewParseError("failed to decode stock list: %v", err)
	}
	if len(items) == 0 {
		return nil, model.NewEmptyPayload("stock list returned no entries")
	}

	quotes := make([]model.StockQuote, 0, len(items))
	for _, item := range items {
		marketCap := item.MktCap * 10000
		quotes = append(quotes, model.StockQuote{
			Symbol:        item.Symbol,
			Name:          item.Name,
			CurrentPrice:  parseFloat(item.Trade),
			Change:        parseFloat(item.PriceChange),
			ChangePercent: parseFloat(item.ChangePercent),
			Volume:        parseUint(item.Volume),
			MarketCap:     &marketCap,
			UpdatedAt:     observedAt,
		})
	}
	return quotes, nil
}
