package upstream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const gtjaCalendarURL = "https://www.gtjaqh.com/pc/calendar"

// RuleClient fetches the GTJA trading-parameter calendar, which lists margin
// rates, price limits and order caps per product for one trading day.
type RuleClient struct {
	url    string
	http   *Client
	logger *zap.Logger
}

// NewRuleClient creates a trading-rule calendar client.
func NewRuleClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *RuleClient {
	return &RuleClient{
		url:    ep.GtjaCalendar,
		http:   httpClient,
		logger: logger,
	}
}

// Fetch retrieves the trading rules for a YYYYMMDD date. An empty date means
// the current Beijing trading day.
func (c *RuleClient) Fetch(ctx context.Context, date string) ([]model.RuleRecord, error) {
	if date == "" {
		date = time.Now().In(beijing).Format("20060102")
	}

	headers := map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}

	body, err := c.http.GetInsecure(ctx, fmt.Sprintf("%s?date=%s", c.url, date), headers)
	if err != nil {
		return nil, err
	}

	return ParseRuleHTML(string(body))
}

// ParseRuleHTML extracts the per-product rule rows from the calendar page.
// Some calendars render data rows with th cells, so both are read.
func ParseRuleHTML(html string) ([]model.RuleRecord, error) {
	if !strings.Contains(html, "交易保证金比例") && !strings.Contains(html, "涨跌停板幅度") {
		return nil, model.NewEmptyPayload("calendar page carries no trading-rule table")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse calendar page: %v", err)
	}

	var rules []model.RuleRecord
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := ruleRowCells(row)
		if len(cells) < 6 || ruleRowIsHeader(cells) {
			return
		}

		exchange, product, code := cells[0], cells[1], cells[2]
		if exchange == "" && product == "" {
			return
		}
		if exchange == "交易所" || product == "品种" {
			return
		}

		rule := model.RuleRecord{
			Exchange:   exchange,
			Product:    product,
			Code:       code,
			MarginRate: rulePercent(cells[3]),
			PriceLimit: rulePercent(cells[4]),
		}
		rule.ContractSize = optionalFloat(cells[5])
		if len(cells) > 6 {
			rule.PriceTick = optionalFloat(cells[6])
		}
		if len(cells) > 7 {
			if v, err := strconv.ParseUint(cells[7], 10, 64); err == nil {
				rule.MaxOrderSize = &v
			}
		}
		if len(cells) > 8 && cells[8] != "" {
			note := cells[8]
			rule.SpecialNote = &note
		}
		if len(cells) > 9 && cells[9] != "" {
			remark := cells[9]
			rule.Remark = &remark
		}

		rules = append(rules, rule)
	})

	if len(rules) == 0 {
		return nil, model.NewEmptyPayload("calendar table contained no rule rows")
	}
	return rules, nil
}

func ruleRowCells(row *goquery.Selection) []string {
	cells := row.Find("td")
	if cells.Length() == 0 {
		cells = row.Find("th")
	}

	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(cell.Text()))
	})
	return texts
}

func ruleRowIsHeader(cells []string) bool {
	for i, cell := range cells {
		if i >= 4 {
			break
		}
		if strings.Contains(cell, "交易所") || strings.Contains(cell, "交易保证金比例") ||
			cell == "品种" || strings.Contains(cell, "保证金收取标准") {
			return true
		}
	}
	return false
}

func rulePercent(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == "--" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
