package upstream

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const sinaContractDetailURL = "https://finance.sina.com.cn/futures/quotes"

// detailFields are the labeled values extracted from a contract detail page.
var detailFields = map[string]*regexp.Regexp{
	"name":              regexp.MustCompile(`<title>([^<]+)</title>`),
	"exchange":          regexp.MustCompile(`上市交易所[：:]\s*([^<\n]+)`),
	"trading_unit":      regexp.MustCompile(`交易单位[：:]\s*([^<\n]+)`),
	"quote_unit":        regexp.MustCompile(`报价单位[：:]\s*([^<\n]+)`),
	"min_price_change":  regexp.MustCompile(`最小变动价位[：:]\s*([^<\n]+)`),
	"price_limit":       regexp.MustCompile(`涨跌停板幅度[：:]\s*([^<\n]+)`),
	"contract_months":   regexp.MustCompile(`合约交割月份[：:]\s*([^<\n]+)`),
	"trading_hours":     regexp.MustCompile(`交易时间[：:]\s*([^<\n]+)`),
	"last_trading_day":  regexp.MustCompile(`最后交易日[：:]\s*([^<\n]+)`),
	"last_delivery_day": regexp.MustCompile(`最后交割日[：:]\s*([^<\n]+)`),
	"delivery_grade":    regexp.MustCompile(`交割品级[：:]\s*([^<\n]+)`),
	"margin":            regexp.MustCompile(`最低交易保证金[：:]\s*([^<\n]+)`),
	"delivery_method":   regexp.MustCompile(`交割方式[：:]\s*([^<\n]+)`),
}

// DetailClient fetches contract detail pages for domestic and foreign
// contracts from the Sina quote pages.
type DetailClient struct {
	baseURL string
	http    *Client
	logger  *zap.Logger
}

// NewDetailClient creates a contract detail client.
func NewDetailClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *DetailClient {
	return &DetailClient{
		baseURL: ep.SinaQuotePages,
		http:    httpClient,
		logger:  logger,
	}
}

// FetchContractDetail retrieves a domestic contract's trading rules.
func (c *DetailClient) FetchContractDetail(ctx context.Context, symbol string) (*model.ContractDetail, error) {
	body, err := c.http.Get(ctx, fmt.Sprintf("%s/%s.shtml", c.baseURL, symbol), nil)
	if err != nil {
		return nil, err
	}

	html, err := DecodeGBK(body)
	if err != nil {
		return nil, err
	}

	return ParseContractDetail(html, symbol), nil
}

// FetchForeignDetail retrieves a foreign contract's detail table.
func (c *DetailClient) FetchForeignDetail(ctx context.Context, symbol string) (*model.ForeignDetail, error) {
	body, err := c.http.Get(ctx, fmt.Sprintf("%s/%s.shtml", c.baseURL, symbol), nil)
	if err != nil {
		return nil, err
	}

	html, err := DecodeGBK(body)
	if err != nil {
		return nil, err
	}

	return ParseForeignDetailHTML(html)
}

// ParseContractDetail extracts the labeled trading-rule fields from a
// contract detail page. Missing labels leave their field empty.
func ParseContractDetail(html, symbol string) *model.ContractDetail {
	extract := func(key string) string {
		if match := detailFields[key].FindStringSubmatch(html); match != nil {
			return strings.TrimSpace(match[1])
		}
		return ""
	}

	return &model.ContractDetail{
		Symbol:          symbol,
		Name:            extract("name"),
		Exchange:        extract("exchange"),
		TradingUnit:     extract("trading_unit"),
		QuoteUnit:       extract("quote_unit"),
		MinPriceChange:  extract("min_price_change"),
		PriceLimit:      extract("price_limit"),
		ContractMonths:  extract("contract_months"),
		TradingHours:    extract("trading_hours"),
		LastTradingDay:  extract("last_trading_day"),
		LastDeliveryDay: extract("last_delivery_day"),
		DeliveryGrade:   extract("delivery_grade"),
		Margin:          extract("margin"),
		DeliveryMethod:  extract("delivery_method"),
	}
}

// ParseForeignDetailHTML extracts name/value rows from the seventh table of a
// foreign contract detail page. Rows hold up to two labeled pairs each.
func ParseForeignDetailHTML(html string) (*model.ForeignDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse detail page: %v", err)
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, model.NewParseError("detail page contained no tables")
	}
	tableIndex := 6
	if tables.Length() <= tableIndex {
		tableIndex = tables.Length() - 1
	}

	detail := &model.ForeignDetail{}
	tables.Eq(tableIndex).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(cell.Text()))
		})

		for i := 0; i+1 < len(texts) && i < 4; i += 2 {
			if texts[i] != "" && texts[i+1] != "" {
				detail.Items = append(detail.Items, model.ForeignDetailItem{
					Name:  texts[i],
					Value: texts[i+1],
				})
			}
		}
	})

	if len(detail.Items) == 0 {
		return nil, model.NewEmptyPayload("detail table contained no labeled values")
	}
	return detail, nil
}
