package upstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"go.uber.org/zap"
)

// foreignSymbols is the fixed table of foreign futures products quoted by the
// Sina hf_ feed.
var foreignSymbols = []model.ForeignSymbol{
	{Symbol: "新加坡铁矿石", Code: "FEF"},
	{Symbol: "马棕油", Code: "FCPO"},
	{Symbol: "日橡胶", Code: "RSS3"},
	{Symbol: "美国原糖", Code: "RS"},
	{Symbol: "CME比特币期货", Code: "BTC"},
	{Symbol: "NYBOT-棉花", Code: "CT"},
	{Symbol: "LME镍3个月", Code: "NID"},
	{Symbol: "LME铅3个月", Code: "PBD"},
	{Symbol: "LME锡3个月", Code: "SND"},
	{Symbol: "LME锌3个月", Code: "ZSD"},
	{Symbol: "LME铝3个月", Code: "AHD"},
	{Symbol: "LME铜3个月", Code: "CAD"},
	{Symbol: "CBOT-黄豆", Code: "S"},
	{Symbol: "CBOT-小麦", Code: "W"},
	{Symbol: "CBOT-玉米", Code: "C"},
	{Symbol: "CBOT-黄豆油", Code: "BO"},
	{Symbol: "CBOT-黄豆粉", Code: "SM"},
	{Symbol: "COMEX铜", Code: "HG"},
	{Symbol: "NYMEX天然气", Code: "NG"},
	{Symbol: "NYMEX原油", Code: "CL"},
	{Symbol: "COMEX白银", Code: "SI"},
	{Symbol: "COMEX黄金", Code: "GC"},
	{Symbol: "布伦特原油", Code: "OIL"},
	{Symbol: "伦敦金", Code: "XAU"},
	{Symbol: "伦敦银", Code: "XAG"},
	{Symbol: "伦敦铂金", Code: "XPT"},
	{Symbol: "伦敦钯金", Code: "XPD"},
	{Symbol: "欧洲碳排放", Code: "EUA"},
}

// ForeignClient fetches foreign futures quotes from the Sina hf_ realtime
// feed.
type ForeignClient struct {
	realtimeAPI string
	http        *Client
	logger      *zap.Logger
}

// NewForeignClient creates a foreign futures client.
func NewForeignClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *ForeignClient {
	return &ForeignClient{
		realtimeAPI: ep.SinaRealtime,
		http:        httpClient,
		logger:      logger,
	}
}

// Symbols returns the supported foreign futures product table.
func (c *ForeignClient) Symbols() []model.ForeignSymbol {
	out := make([]model.ForeignSymbol, len(foreignSymbols))
	copy(out, foreignSymbols)
	return out
}

// FetchQuote retrieves the realtime quote for one foreign product code such
// as GC or CL.
func (c *ForeignClient) FetchQuote(ctx context.Context, code string) (*model.FuturesQuote, error) {
	reqURL := fmt.Sprintf("%s/?list=hf_%s", c.realtimeAPI, code)

	body, err := c.http.Get(ctx, reqURL, financeHeaders())
	if err != nil {
		return nil, err
	}

	payload, err := DecodeGBK(body)
	if err != nil {
		return nil, err
	}

	quotes, err := ParseForeignQuotes(payload, []string{code}, beijingNow())
	if err != nil {
		return nil, err
	}
	return &quotes[0], nil
}

// ParseForeignQuotes parses an hf_ realtime payload into quotes matched
// positionally against the requested codes. Foreign quote entries order their
// fields differently from domestic ones: current price leads and the open
// sits behind the previous settlement.
func ParseForeignQuotes(payload string, codes []string, observedAt string) ([]model.FuturesQuote, error) {
	names := make(map[string]string, len(foreignSymbols))
	for _, s := range foreignSymbols {
		names[s.Code] = s.Symbol
	}

	var quotes []model.FuturesQuote
	entries := strings.Split(payload, ";")
	index := 0
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		if index >= len(codes) {
			break
		}
		code := codes[index]
		index++

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) < 2 {
			continue
		}

		data := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if data == "" {
			continue
		}

		fields := strings.Split(data, ",")
		if len(fields) < 13 {
			continue
		}

		current := parseFloat(fields[0])
		prevSettlement := parseFloat(fields[7])

		change := current - prevSettlement
		changePercent := 0.0
		if prevSettlement != 0 {
			changePercent = change / prevSettlement * 100
		}

		name := names[code]
		if name == "" {
			name = code
		}

		quote := model.FuturesQuote{
			Symbol:         code,
			Name:           name,
			CurrentPrice:   current,
			Change:         change,
			ChangePercent:  changePercent,
			Open:           parseFloat(fields[8]),
			High:           parseFloat(fields[4]),
			Low:            parseFloat(fields[5]),
			PrevSettlement: &prevSettlement,
			UpdatedAt:      observedAt,
		}
		if oi := parseUint(fields[9]); fields[9] != "" && fields[9] != "0" {
			quote.OpenInterest = &oi
		}
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil, model.NewEmptyPayload("foreign realtime feed returned no quotes")
	}
	return quotes, nil
}
