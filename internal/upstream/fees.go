package upstream

import (
	"context"
	"regexp"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const openctpFeesURL = "http://openctp.cn/fees.html"

var feesGeneratedAtRe = regexp.MustCompile(`Generated at ([^.]+)\.`)

// FeesClient fetches the openctp per-contract fee reference table.
type FeesClient struct {
	url    string
	http   *Client
	logger *zap.Logger
}

// NewFeesClient creates a fee table client.
func NewFeesClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *FeesClient {
	return &FeesClient{
		url:    ep.OpenctpFees,
		http:   httpClient,
		logger: logger,
	}
}

// Fetch retrieves the current fee table.
func (c *FeesClient) Fetch(ctx context.Context) ([]model.FeeRecord, error) {
	body, err := c.http.Get(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	return ParseFeesHTML(string(body))
}

// ParseFeesHTML extracts the fee rows and the page's generation timestamp.
// The margin columns carry an extra cell between the long and short rates.
func ParseFeesHTML(html string) ([]model.FeeRecord, error) {
	updatedAt := "未知"
	if match := feesGeneratedAtRe.FindStringSubmatch(html); match != nil {
		updatedAt = strings.TrimSpace(match[1])
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse fee page: %v", err)
	}

	var records []model.FeeRecord
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 16 {
			return
		}

		text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

		records = append(records, model.FeeRecord{
			Exchange:          text(0),
			ContractCode:      text(1),
			ContractName:      text(2),
			ProductCode:       text(3),
			ProductName:       text(4),
			ContractSize:      text(5),
			PriceTick:         text(6),
			OpenFeeRate:       text(7),
			OpenFee:           text(8),
			CloseFeeRate:      text(9),
			CloseFee:          text(10),
			CloseTodayFeeRate: text(11),
			CloseTodayFee:     text(12),
			LongMarginRate:    text(13),
			ShortMarginRate:   text(15),
			UpdatedAt:         updatedAt,
		})
	})

	if len(records) == 0 {
		return nil, model.NewEmptyPayload("fee table contained no rows")
	}
	return records, nil
}
