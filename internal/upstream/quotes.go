package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/market-data-service/internal/model"

	"go.uber.org/zap"
)

const (
	sinaRealtimeAPI = "https://hq.sinajs.cn"
	sinaListAPI     = "https://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php/Market_Center.getHQFuturesData"
)

// cffexProducts are the financial futures products quoted under the CFF_ prefix.
var cffexProducts = []string{"IF", "IC", "IH", "IM", "T", "TF", "TS", "TL"}

// QuoteClient fetches realtime futures quotes and per-product contract lists
// from the Sina quote feeds.
type QuoteClient struct {
	realtimeAPI string
	listAPI     string
	http        *Client
	logger      *zap.Logger
}

// NewQuoteClient creates a Sina realtime quote client.
func NewQuoteClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *QuoteClient {
	return &QuoteClient{
		realtimeAPI: ep.SinaRealtime,
		listAPI:     ep.SinaFuturesList,
		http:        httpClient,
		logger:      logger,
	}
}

// FetchQuote retrieves the realtime quote for a single contract.
func (c *QuoteClient) FetchQuote(ctx context.Context, symbol string) (*model.FuturesQuote, error) {
	reqURL := fmt.Sprintf("%s/rn=%s&list=%s", c.realtimeAPI, randomCode(), FormatRealtimeSymbol(symbol))

	body, err := c.http.Get(ctx, reqURL, sinaHeaders())
	if err != nil {
		return nil, err
	}

	payload, err := DecodeGBK(body)
	if err != nil {
		return nil, err
	}

	return ParseQuotePayload(payload, symbol, beijingNow())
}

// FetchProductQuotes retrieves realtime quotes for every contract of a
// product node, most held contracts first. A limit of 0 keeps all rows.
func (c *QuoteClient) FetchProductQuotes(ctx context.Context, node string, limit int) ([]model.FuturesQuote, error) {
	reqURL := fmt.Sprintf("%s?page=1&sort=position&asc=0&node=%s&base=futures", c.listAPI, node)

	body, err := c.http.Get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}

	return ParseProductList(body, limit, beijingNow())
}

// Exchanges returns the supported exchange table.
func (c *QuoteClient) Exchanges() []model.Exchange {
	return []model.Exchange{
		{Code: "DCE", Name: "大连商品交易所", Description: "Dalian Commodity Exchange"},
		{Code: "CZCE", Name: "郑州商品交易所", Description: "Zhengzhou Commodity Exchange"},
		{Code: "SHFE", Name: "上海期货交易所", Description: "Shanghai Futures Exchange"},
		{Code: "INE", Name: "上海国际能源交易中心", Description: "Shanghai International Energy Exchange"},
		{Code: "CFFEX", Name: "中国金融期货交易所", Description: "China Financial Futures Exchange"},
		{Code: "GFEX", Name: "广州期货交易所", Description: "Guangzhou Futures Exchange"},
	}
}

// FormatRealtimeSymbol converts a contract code into the quote feed's list
// parameter: CFFEX products are prefixed CFF_, everything else nf_.
func FormatRealtimeSymbol(symbol string) string {
	upper := strings.ToUpper(symbol)

	if strings.HasPrefix(upper, "NF_") {
		return "nf_" + upper[3:]
	}
	if strings.HasPrefix(upper, "CFF_") {
		return "CFF_" + upper[4:]
	}

	for _, product := range cffexProducts {
		if strings.HasPrefix(upper, product) {
			return "CFF_" + upper
		}
	}
	return "nf_" + upper
}

// ParseQuotePayload parses one var-assignment quote line into a quote record.
// The payload layout is positional: name, _, open, high, low, _, _, _, last,
// _, prev settlement, _, _, open interest, volume, ...
func ParseQuotePayload(payload, symbol, observedAt string) (*model.FuturesQuote, error) {
	if strings.TrimSpace(payload) == "" || strings.Contains(payload, `=""`) {
		return nil, model.NewEmptyPayload("quote feed returned no data for %s", symbol)
	}

	for _, item := range strings.Split(payload, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		parts := strings.SplitN(item, "=", 2)
		if len(parts) < 2 {
			continue
		}

		dataPart := strings.Trim(strings.Trim(parts[1], `"`), "'")
		if dataPart == "" {
			continue
		}

		fields := strings.Split(dataPart, ",")
		if len(fields) < 15 {
			return nil, model.NewParseError("quote payload for %s has %d fields, expected at least 15", symbol, len(fields))
		}

		currentPrice := parseFloat(fields[8])
		prevSettlement := parseFloat(fields[10])
		change := currentPrice - prevSettlement
		changePercent := 0.0
		if prevSettlement != 0 {
			changePercent = change / prevSettlement * 100
		}

		quote := &model.FuturesQuote{
			Symbol:         symbol,
			Name:           fields[0],
			CurrentPrice:   currentPrice,
			Change:         change,
			ChangePercent:  changePercent,
			Volume:         parseUint(fields[14]),
			Open:           parseFloat(fields[2]),
			High:           parseFloat(fields[3]),
			Low:            parseFloat(fields[4]),
			PrevSettlement: &prevSettlement,
			UpdatedAt:      observedAt,
		}
		if oi, err := strconv.ParseUint(fields[13], 10, 64); err == nil {
			quote.OpenInterest = &oi
		}
		return quote, nil
	}

	return nil, model.NewParseError("could not parse quote payload for %s", symbol)
}

// sinaListItem is one row of the Market_Center product list; every numeric
// field arrives as a string.
type sinaListItem struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Trade         string `json:"trade"`
	PreSettlement string `json:"presettlement"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Volume        string `json:"volume"`
	Position      string `json:"position"`
	Settlement    string `json:"settlement"`
}

// ParseProductList parses the JSON contract list of one product node.
func ParseProductList(body []byte, limit int, observedAt string) ([]model.FuturesQuote, error) {
	var items []sinaListItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, model.NewParseError("failed to decode product list: %v", err)
	}
	if len(items) == 0 {
		return nil, model.NewEmptyPayload("product list returned no contracts")
	}

	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	quotes := make([]model.FuturesQuote, 0, limit)
	for _, item := range items[:limit] {
		currentPrice := parseFloat(item.Trade)
		prevSettlement := parseFloat(item.PreSettlement)
		change := currentPrice - prevSettlement
		changePercent := 0.0
		if prevSettlement != 0 {
			changePercent = change / prevSettlement * 100
		}

		quote := model.FuturesQuote{
			Symbol:         item.Symbol,
			Name:           item.Name,
			CurrentPrice:   currentPrice,
			Change:         change,
			ChangePercent:  changePercent,
			Volume:         parseUint(item.Volume),
			Open:           parseFloat(item.Open),
			High:           parseFloat(item.High),
			Low:            parseFloat(item.Low),
			PrevSettlement: &prevSettlement,
			UpdatedAt:      observedAt,
		}
		if oi, err := strconv.ParseUint(item.Position, 10, 64); err == nil {
			quote.OpenInterest = &oi
		}
		if settlement, err := strconv.ParseFloat(item.Settlement, 64); err == nil {
			quote.Settlement = &settlement
		}
		quotes = append(quotes, quote)
	}

	return quotes, nil
}

// randomCode mimics the rn cache-buster the quote feed expects.
func randomCode() string {
	return strconv.FormatInt(time.Now().UnixMilli()%0x7FFFFFFF, 16)
}

var beijing = time.FixedZone("CST", 8*60*60)

// beijingNow is the observation timestamp stamped onto realtime quotes.
func beijingNow() string {
	return time.Now().In(beijing).Format("2006-01-02 15:04:05")
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseUint(s string) uint64 {
	v, _ := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return v
}
