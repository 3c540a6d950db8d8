package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yourorg/market-data-service/internal/model"

	"go.uber.org/zap"
)

const (
	sinaDailyKlineAPI  = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php/var%20_temp=/InnerFuturesNewService.getDailyKLine"
	sinaMinuteKlineAPI = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php/=/InnerFuturesNewService.getFewMinLine"
	sinaJSONPBase      = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php"
)

// DefaultDailyLimit is how many daily bars a history request returns when the
// caller omits a limit.
const DefaultDailyLimit = 30

// KlineClient fetches daily and minute K-line series from the Sina JSONP
// endpoints, for per-contract, main-continuous and foreign series.
type KlineClient struct {
	dailyAPI  string
	minuteAPI string
	jsonpBase string
	http      *Client
	logger    *zap.Logger
}

// NewKlineClient creates a K-line client.
func NewKlineClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *KlineClient {
	return &KlineClient{
		dailyAPI:  ep.SinaDailyKline,
		minuteAPI: ep.SinaMinuteKline,
		jsonpBase: ep.SinaJSONPBase,
		http:      httpClient,
		logger:    logger,
	}
}

// FetchDaily retrieves a contract's daily bars, most recent first, truncated
// to limit entries.
func (c *KlineClient) FetchDaily(ctx context.Context, symbol string, limit int) ([]model.FuturesBar, error) {
	reqURL := fmt.Sprintf("%s?symbol=%s", c.dailyAPI, symbol)

	body, err := c.http.Get(ctx, reqURL, financeHeaders())
	if err != nil {
		return nil, err
	}

	return ParseDailyBars(string(body), symbol, limit)
}

// FetchMinute retrieves a contract's minute bars for the given period
// (1, 5, 15, 30 or 60 minutes), most recent first.
func (c *KlineClient) FetchMinute(ctx context.Context, symbol, period string) ([]model.FuturesBar, error) {
	reqURL := fmt.Sprintf("%s?symbol=%s&type=%s", c.minuteAPI, symbol, period)

	body, err := c.http.Get(ctx, reqURL, financeHeaders())
	if err != nil {
		return nil, err
	}

	return ParseMinuteBars(string(body), symbol)
}

// FetchMainDaily retrieves the daily series of a main-continuous contract
// (e.g. RB0), optionally filtered by YYYYMMDD start/end dates.
func (c *KlineClient) FetchMainDaily(ctx context.Context, symbol, startDate, endDate string) ([]model.MainContractBar, error) {
	stamp := time.Now().In(beijing).Format("2006_01_02")
	reqURL := fmt.Sprintf("%s/var%%20_%s%s=/InnerFuturesNewService.getDailyKLine?symbol=%s&_=%s",
		c.jsonpBase, symbol, stamp, symbol, stamp)

	body, err := c.http.Get(ctx, reqURL, financeHeaders())
	if err != nil {
		return nil, err
	}

	bars, err := ParseMainDailyBars(string(body))
	if err != nil {
		return nil, err
	}

	return FilterMainBars(bars, startDate, endDate), nil
}

// FetchForeignDaily retrieves a foreign contract's daily bars, most recent
// first.
func (c *KlineClient) FetchForeignDaily(ctx context.Context, symbol string) ([]model.ForeignBar, error) {
	now := time.Now().In(beijing)
	stamp := fmt.Sprintf("%d_%d_%d", now.Year(), int(now.Month()), now.Day())
	reqURL := fmt.Sprintf("%s/var%%20_S%s=/GlobalFuturesService.getGlobalFuturesDailyKLine?symbol=%s&_=%s&source=web",
		c.jsonpBase, stamp, symbol, stamp)

	body, err := c.http.Get(ctx, reqURL, financeHeaders())
	if err != nil {
		return nil, err
	}

	return ParseForeignDailyBars(string(body))
}

// klineItem is one bar of the JSONP K-line payloads. Items arrive either as
// objects with single-letter string fields or as positional string arrays.
type klineItem struct {
	D string `json:"d"`
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
	V string `json:"v"`
	P string `json:"p"`
	S string `json:"s"`
}

// extractJSONP slices the JSON array out of a JSONP-wrapped payload.
func extractJSONP(payload string) (string, error) {
	start := strings.Index(payload, "([")
	end := strings.LastIndex(payload, "])")
	if start < 0 || end < 0 || end <= start {
		return "", model.NewParseError("payload is not a JSONP array")
	}
	return payload[start+1 : end+1], nil
}

func parseKlineItems(jsonStr string) ([]klineItem, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, model.NewParseError("failed to decode K-line array: %v", err)
	}

	items := make([]klineItem, 0, len(raw))
	for _, r := range raw {
		trimmed := strings.TrimSpace(string(r))
		if strings.HasPrefix(trimmed, "{") {
			var item klineItem
			if err := json.Unmarshal(r, &item); err != nil {
				continue
			}
			items = append(items, item)
			continue
		}

		var fields []string
		if err := json.Unmarshal(r, &fields); err != nil || len(fields) < 6 {
			continue
		}
		item := klineItem{D: fields[0], O: fields[1], H: fields[2], L: fields[3], C: fields[4], V: fields[5]}
		if len(fields) >= 7 {
			item.P = fields[6]
		}
		if len(fields) >= 8 {
			item.S = fields[7]
		}
		items = append(items, item)
	}

	return items, nil
}

func (item klineItem) toBar(symbol string, withSettlement bool) model.FuturesBar {
	bar := model.FuturesBar{
		Symbol: symbol,
		Date:   item.D,
		Open:   parseFloat(item.O),
		High:   parseFloat(item.H),
		Low:    parseFloat(item.L),
		Close:  parseFloat(item.C),
		Volume: parseUint(item.V),
	}
	if oi := parseUint(item.P); item.P != "" {
		bar.OpenInterest = &oi
	}
	if withSettlement && item.S != "" {
		settlement := parseFloat(item.S)
		bar.Settlement = &settlement
	}
	return bar
}

// ParseDailyBars parses a daily K-line payload into bars sorted by descending
// recency, truncated to limit entries (DefaultDailyLimit when limit <= 0).
func ParseDailyBars(payload, symbol string, limit int) ([]model.FuturesBar, error) {
	jsonStr, err := extractJSONP(payload)
	if err != nil {
		return nil, err
	}

	items, err := parseKlineItems(jsonStr)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, model.NewEmptyPayload("daily K-line returned no bars for %s", symbol)
	}

	bars := make([]model.FuturesBar, 0, len(items))
	for _, item := range items {
		bars = append(bars, item.toBar(symbol, true))
	}

	sortBarsDescending(bars)

	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if len(bars) > limit {
		bars = bars[:limit]
	}
	return bars, nil
}

// ParseMinuteBars parses a minute K-line payload into bars sorted by
// descending recency. Minute bars carry no settlement.
func ParseMinuteBars(payload, symbol string) ([]model.FuturesBar, error) {
	jsonStr, err := extractJSONP(payload)
	if err != nil {
		return nil, err
	}

	items, err := parseKlineItems(jsonStr)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, model.NewEmptyPayload("minute K-line returned no bars for %s", symbol)
	}

	bars := make([]model.FuturesBar, 0, len(items))
	for _, item := range items {
		bars = append(bars, item.toBar(symbol, false))
	}

	sortBarsDescending(bars)
	return bars, nil
}

// ParseMainDailyBars parses a main-continuous daily payload. The series stays
// in ascending date order for charting.
func ParseMainDailyBars(payload string) ([]model.MainContractBar, error) {
	jsonStr, err := extractJSONP(payload)
	if err != nil {
		return nil, err
	}

	items, err := parseKlineItems(jsonStr)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, model.NewEmptyPayload("main-continuous K-line returned no bars")
	}

	bars := make([]model.MainContractBar, 0, len(items))
	for _, item := range items {
		bar := model.MainContractBar{
			Date:   item.D,
			Open:   parseFloat(item.O),
			High:   parseFloat(item.H),
			Low:    parseFloat(item.L),
			Close:  parseFloat(item.C),
			Volume: parseUint(item.V),
			Hold:   parseUint(item.P),
		}
		if item.S != "" {
			settle := parseFloat(item.S)
			bar.Settle = &settle
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// FilterMainBars keeps the bars whose date falls within the YYYYMMDD
// start/end bounds. Empty bounds are open-ended.
func FilterMainBars(bars []model.MainContractBar, startDate, endDate string) []model.MainContractBar {
	filtered := make([]model.MainContractBar, 0, len(bars))
	for _, bar := range bars {
		compact := strings.ReplaceAll(bar.Date, "-", "")
		if startDate != "" && compact < startDate {
			continue
		}
		if endDate != "" && compact > endDate {
			continue
		}
		filtered = append(filtered, bar)
	}
	return filtered
}

// foreignBarItem tolerates numeric fields arriving as strings or numbers.
type foreignBarItem struct {
	Date   string      `json:"date"`
	Open   interface{} `json:"open"`
	High   interface{} `json:"high"`
	Low    interface{} `json:"low"`
	Close  interface{} `json:"close"`
	Volume interface{} `json:"volume"`
}

// ParseForeignDailyBars parses a foreign daily K-line payload into bars
// sorted by descending recency.
func ParseForeignDailyBars(payload string) ([]model.ForeignBar, error) {
	start := strings.Index(payload, "[")
	end := strings.LastIndex(payload, "]")
	if start < 0 || end <= start {
		return nil, model.NewParseError("foreign K-line payload is not a JSON array")
	}

	var items []foreignBarItem
	if err := json.Unmarshal([]byte(payload[start:end+1]), &items); err != nil {
		return nil, model.NewParseError("failed to decode foreign K-line array: %v", err)
	}
	if len(items) == 0 {
		return nil, model.NewEmptyPayload("foreign K-line returned no bars")
	}

	bars := make([]model.ForeignBar, 0, len(items))
	for _, item := range items {
		bars = append(bars, model.ForeignBar{
			Date:   item.Date,
			Open:   anyToFloat(item.Open),
			High:   anyToFloat(item.High),
			Low:    anyToFloat(item.Low),
			Close:  anyToFloat(item.Close),
			Volume: anyToUint(item.Volume),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date > bars[j].Date })
	return bars, nil
}

func sortBarsDescending(bars []model.FuturesBar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date > bars[j].Date })
}

func anyToFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return parseFloat(t)
	default:
		return 0
	}
}

func anyToUint(v interface{}) uint64 {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return uint64(t)
	case string:
		return parseUint(t)
	default:
		return 0
	}
}
