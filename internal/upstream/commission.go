package upstream

import (
	"context"
	"strconv"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const qihuoCommURL = "https://www.9qihuo.com/qihuoshouxufei"

// commExchangeMarkers are the section header names splitting the commission
// table by exchange.
var commExchangeMarkers = []string{
	"上海期货交易所",
	"大连商品交易所",
	"郑州商品交易所",
	"上海国际能源交易中心",
	"广州期货交易所",
	"中国金融期货交易所",
}

// CommissionClient fetches the 9qihuo per-contract commission table. The host
// serves an expired certificate, so requests skip verification.
type CommissionClient struct {
	url    string
	http   *Client
	logger *zap.Logger
}

// NewCommissionClient creates a commission table client.
func NewCommissionClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *CommissionClient {
	return &CommissionClient{
		url:    ep.QihuoCommission,
		http:   httpClient,
		logger: logger,
	}
}

// Fetch retrieves the commission table, optionally filtered to one exchange
// by its Chinese name ("所有" or empty keeps all).
func (c *CommissionClient) Fetch(ctx context.Context, exchange string) ([]model.CommissionRecord, error) {
	headers := map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}

	body, err := c.http.GetInsecure(ctx, c.url, headers)
	if err != nil {
		return nil, err
	}

	return ParseCommissionHTML(string(body), exchange)
}

// ParseCommissionHTML walks the single commission table. Exchange marker rows
// switch the current section and are followed by two header rows.
func ParseCommissionHTML(html, exchange string) ([]model.CommissionRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse commission page: %v", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, model.NewParseError("commission page contained no table")
	}

	var records []model.CommissionRecord
	currentExchange := ""
	skipRows := 0

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(cell.Text()))
		})

		for _, marker := range commExchangeMarkers {
			if strings.Contains(texts[0], marker) {
				currentExchange = marker
				skipRows = 2
				return
			}
		}
		if skipRows > 0 {
			skipRows--
			return
		}
		if currentExchange == "" || len(texts) < 12 {
			return
		}
		if exchange != "" && exchange != "所有" && currentExchange != exchange {
			return
		}

		records = append(records, parseCommissionRow(currentExchange, texts))
	})

	if len(records) == 0 {
		return nil, model.NewEmptyPayload("commission table contained no contract rows")
	}
	return records, nil
}

func parseCommissionRow(exchange string, cells []string) model.CommissionRecord {
	name, code := cells[0], ""
	if idx := strings.Index(cells[0], "("); idx >= 0 {
		name = strings.TrimSpace(cells[0][:idx])
		code = strings.TrimSuffix(cells[0][idx+1:], ")")
	}

	record := model.CommissionRecord{
		Exchange:     exchange,
		ContractName: name,
		ContractCode: code,
		CurrentPrice: optionalFloat(cells[1]),
	}

	if idx := strings.Index(cells[2], "/"); idx >= 0 {
		record.LimitUp = optionalFloat(cells[2][:idx])
		record.LimitDown = optionalFloat(cells[2][idx+1:])
	}

	record.MarginBuy = optionalFloat(strings.TrimSuffix(cells[3], "%"))
	record.MarginSell = optionalFloat(strings.TrimSuffix(cells[4], "%"))
	record.MarginPerLot = optionalFloat(strings.TrimSuffix(cells[5], "元"))

	record.FeeOpenRatio, record.FeeOpenYuan = parseFeeCell(cells[6])
	record.FeeCloseYesterdayRatio, record.FeeCloseYesterdayYuan = parseFeeCell(cells[7])
	record.FeeCloseTodayRatio, record.FeeCloseTodayYuan = parseFeeCell(cells[8])

	record.ProfitPerTick = optionalFloat(cells[9])
	record.FeeTotal = optionalFloat(strings.TrimSuffix(cells[10], "元"))
	record.NetProfitPerTick = optionalFloat(cells[11])

	if len(cells) > 12 && cells[12] != "" {
		remark := cells[12]
		record.Remark = &remark
	}

	return record
}

// parseFeeCell splits a fee cell into its ratio and flat-yuan forms.
// "万分之1.5" yields a 1.5/10000 ratio; "3元" yields a flat 3 yuan per lot.
func parseFeeCell(s string) (*float64, *float64) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "万分之") {
		value := strings.ReplaceAll(s, "万分之", "")
		if idx := strings.Index(value, "/"); idx >= 0 {
			value = value[:idx]
		}
		if ratio := optionalFloat(value); ratio != nil {
			scaled := *ratio / 10000
			return &scaled, nil
		}
		return nil, nil
	}
	if strings.Contains(s, "元") {
		return nil, optionalFloat(strings.ReplaceAll(s, "元", ""))
	}
	return nil, nil
}

// optionalFloat parses a number that may carry thousands separators,
// returning nil when the cell is not numeric.
func optionalFloat(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
