package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const sinaHoldPosAPI = "https://vip.stock.finance.sina.com.cn/q/view/vFutures_Positions_cjcc.php"

// holdPosTableIndex maps a ranking type to its table position on the page.
var holdPosTableIndex = map[string]int{
	"volume": 2,
	"long":   3,
	"short":  4,
}

// HoldPosClient fetches daily broker position rankings for one contract.
type HoldPosClient struct {
	api    string
	http   *Client
	logger *zap.Logger
}

// NewHoldPosClient creates a position ranking client.
func NewHoldPosClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *HoldPosClient {
	return &HoldPosClient{
		api:    ep.SinaHoldPos,
		http:   httpClient,
		logger: logger,
	}
}

// Fetch retrieves the ranking of the given type (volume, long or short) for a
// contract on a YYYYMMDD or YYYY-MM-DD date.
func (c *HoldPosClient) Fetch(ctx context.Context, posType, contract, date string) ([]model.HoldPositionEntry, error) {
	tableIndex, ok := holdPosTableIndex[posType]
	if !ok {
		return nil, model.NewInvalidRequest("invalid position type %q, expected volume, long or short", posType)
	}

	if len(date) == 8 && !strings.Contains(date, "-") {
		date = date[:4] + "-" + date[4:6] + "-" + date[6:]
	}

	reqURL := fmt.Sprintf("%s?t_breed=%s&t_date=%s", c.api, contract, date)

	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Referer":         "https://vip.stock.finance.sina.com.cn/",
		"User-Agent":      browserUserAgent,
	}

	status, body, err := c.http.GetWithStatus(ctx, reqURL, headers)
	if err != nil {
		return nil, err
	}
	if status == 456 || status == http.StatusForbidden {
		return nil, model.NewUpstreamUnavailable("ranking host has blocked this address, retry later", nil)
	}
	if status < 200 || status >= 300 {
		return nil, model.NewUpstreamUnavailable("ranking host returned status "+http.StatusText(status), nil)
	}

	html, err := DecodeGBK(body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(html, "拒绝访问") || strings.Contains(html, "IP 存在异常访问") {
		return nil, model.NewUpstreamUnavailable("ranking host has blocked this address, retry later", nil)
	}

	return ParseHoldPosHTML(html, tableIndex)
}

// ParseHoldPosHTML extracts the ranking rows from the table at tableIndex.
// The header row and the 合计 (total) rows are skipped.
func ParseHoldPosHTML(html string, tableIndex int) ([]model.HoldPositionEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse ranking page: %v", err)
	}

	tables := doc.Find("table")
	if tables.Length() <= tableIndex {
		return nil, model.NewParseError("ranking page has %d tables, expected at least %d", tables.Length(), tableIndex+1)
	}

	var entries []model.HoldPositionEntry
	tables.Eq(tableIndex).Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}

		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		rankText := strings.TrimSpace(cells.Eq(0).Text())
		company := strings.TrimSpace(cells.Eq(1).Text())
		if strings.Contains(rankText, "合计") || strings.Contains(company, "合计") {
			return
		}

		rank, err := strconv.Atoi(rankText)
		if err != nil || rank <= 0 {
			return
		}

		entry := model.HoldPositionEntry{
			Rank:    rank,
			Company: company,
			Value:   parseThousands(cells.Eq(2).Text()),
		}
		if cells.Length() >= 4 {
			entry.Change = parseThousands(cells.Eq(3).Text())
		}
		entries = append(entries, entry)
	})

	if len(entries) == 0 {
		return nil, model.NewEmptyPayload("ranking table contained no rows")
	}
	return entries, nil
}

// parseThousands parses an integer that may carry thousands separators.
func parseThousands(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
