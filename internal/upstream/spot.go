package upstream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	spotPriceURL         = "https://www.100ppi.com/sf"
	spotPricePreviousURL = "https://www.100ppi.com/sf2"
)

// commodityCodes maps Chinese commodity names on the spot-price pages to
// their exchange product codes.
var commodityCodes = map[string]string{
	"铜":     "CU",
	"螺纹钢":   "RB",
	"锌":     "ZN",
	"铝":     "AL",
	"黄金":    "AU",
	"线材":    "WR",
	"天然橡胶":  "RU",
	"铅":     "PB",
	"白银":    "AG",
	"沥青":    "BU",
	"石油沥青":  "BU",
	"热轧卷板":  "HC",
	"镍":     "NI",
	"锡":     "SN",
	"燃料油":   "FU",
	"不锈钢":   "SS",
	"纸浆":    "SP",
	"氧化铝":   "AO",
	"丁二烯橡胶": "BR",
	"豆一":    "A",
	"豆二":    "B",
	"豆粕":    "M",
	"豆油":    "Y",
	"玉米":    "C",
	"玉米淀粉":  "CS",
	"棕榈油":   "P",
	"鸡蛋":    "JD",
	"聚乙烯":   "L",
	"LLDPE": "L",
	"聚氯乙烯":  "V",
	"PVC":   "V",
	"聚丙烯":   "PP",
	"PP":    "PP",
	"焦炭":    "J",
	"焦煤":    "JM",
	"铁矿石":   "I",
	"乙二醇":   "EG",
	"苯乙烯":   "EB",
	"液化石油气": "PG",
	"LPG":   "PG",
	"生猪":    "LH",
	"白糖":    "SR",
	"棉花":    "CF",
	"PTA":   "TA",
	"菜籽油":   "OI",
	"菜油":    "OI",
	"菜籽油OI": "OI",
	"菜籽粕":   "RM",
	"菜粕":    "RM",
	"甲醇":    "MA",
	"甲醇MA":  "MA",
	"玻璃":    "FG",
	"动力煤":   "ZC",
	"硅铁":    "SF",
	"锰硅":    "SM",
	"苹果":    "AP",
	"红枣":    "CJ",
	"尿素":    "UR",
	"纯碱":    "SA",
	"短纤":    "PF",
	"涤纶短纤":  "PF",
	"花生":    "PK",
	"菜籽":    "RS",
	"棉纱":    "CY",
	"粳稻":    "JR",
	"晚籼稻":   "LR",
	"早籼稻":   "RI",
	"强麦":    "WH",
	"强麦WH":  "WH",
	"普麦":    "PM",
	"烧碱":    "SH",
	"原油":    "SC",
	"20号胶":  "NR",
	"低硫燃料油": "LU",
	"国际铜":   "BC",
	"工业硅":   "SI",
	"碳酸锂":   "LC",
	"沪深300": "IF",
	"上证50":  "IH",
	"中证500": "IC",
	"中证1000": "IM",
	"2年期国债":  "TS",
	"5年期国债":  "TF",
	"10年期国债": "T",
	"30年期国债": "TL",
	"PX":     "PX",
}

// commodityCode resolves a Chinese commodity name to its product code. Names
// not in the table fall back to substring matches for renamed products, then
// to plain ASCII names used verbatim.
func commodityCode(name string) (string, bool) {
	if code, ok := commodityCodes[name]; ok {
		return code, true
	}
	switch {
	case strings.Contains(name, "菜籽油"):
		return "OI", true
	case strings.Contains(name, "甲醇"):
		return "MA", true
	case strings.Contains(name, "强麦"):
		return "WH", true
	case strings.Contains(name, "棉纱"):
		return "CY", true
	}
	if name != "" && isASCIIAlpha(name) {
		return strings.ToUpper(name), true
	}
	return "", false
}

func isASCIIAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// SpotClient fetches commodity spot prices and futures basis tables from
// 100ppi.
type SpotClient struct {
	baseURL     string
	previousURL string
	http        *Client
	logger      *zap.Logger
}

// NewSpotClient creates a spot price client.
func NewSpotClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *SpotClient {
	return &SpotClient{
		baseURL:     ep.SpotPrice,
		previousURL: ep.SpotPriceSummary,
		http:        httpClient,
		logger:      logger,
	}
}

// FetchSpotPrices retrieves the spot/basis table for one YYYYMMDD date,
// optionally filtered to the given product codes.
func (c *SpotClient) FetchSpotPrices(ctx context.Context, date string, symbols []string) ([]model.SpotPriceRecord, error) {
	body, err := c.http.Get(ctx, fmt.Sprintf("%s/day-%s.html", c.baseURL, dashDate(date)), nil)
	if err != nil {
		return nil, err
	}
	return ParseSpotPriceHTML(string(body), compactDate(date), symbols)
}

// FetchSpotPriceSummary retrieves the spot/basis summary table with 180-day
// basis statistics for one YYYYMMDD date.
func (c *SpotClient) FetchSpotPriceSummary(ctx context.Context, date string) ([]model.SpotPriceSummary, error) {
	body, err := c.http.Get(ctx, fmt.Sprintf("%s/day-%s.html", c.previousURL, dashDate(date)), nil)
	if err != nil {
		return nil, err
	}
	return ParseSpotPriceSummaryHTML(string(body))
}

// FetchSpotPriceRange retrieves spot/basis rows for every day in the
// inclusive YYYYMMDD range. Days without data (weekends, holidays) are
// skipped.
func (c *SpotClient) FetchSpotPriceRange(ctx context.Context, startDate, endDate string, symbols []string) ([]model.SpotPriceRecord, error) {
	start, err := time.ParseInLocation("20060102", startDate, beijing)
	if err != nil {
		return nil, model.NewInvalidRequest("invalid start date %q, expected YYYYMMDD", startDate)
	}
	end, err := time.ParseInLocation("20060102", endDate, beijing)
	if err != nil {
		return nil, model.NewInvalidRequest("invalid end date %q, expected YYYYMMDD", endDate)
	}
	if start.After(end) {
		return nil, model.NewInvalidRequest("start date %s is after end date %s", startDate, endDate)
	}

	var all []model.SpotPriceRecord
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		records, err := c.FetchSpotPrices(ctx, day.Format("20060102"), symbols)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				if errors.Is(ctxErr, context.DeadlineExceeded) {
					return nil, model.NewUpstreamTimeout("spot price range fetch timed out", ctxErr)
				}
				return nil, model.NewUpstreamUnavailable("spot price range fetch cancelled", ctxErr)
			}
			c.logger.Debug("No spot data for day, skipping",
				zap.String("date", day.Format("20060102")),
				zap.Error(err))
			continue
		}
		all = append(all, records...)
	}

	if len(all) == 0 {
		return nil, model.NewEmptyPayload("no spot price data between %s and %s", startDate, endDate)
	}
	return all, nil
}

// spotCell strips the non-breaking spaces and thousands separators the table
// pads its numbers with.
func spotCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

func spotFloat(s string) float64 {
	v, _ := strconv.ParseFloat(spotCell(s), 64)
	return v
}

// contractMonth keeps the last four digits of a contract label, the YYMM part
// of names like RB2605 or 螺纹钢2605.
func contractMonth(contract string) string {
	digits := make([]rune, 0, len(contract))
	for _, r := range contract {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) >= 4 {
		return string(digits[len(digits)-4:])
	}
	return string(digits)
}

// ParseSpotPriceHTML extracts the spot/basis rows from the #fdata table.
// Commodities without a known product code are dropped.
func ParseSpotPriceHTML(html, date string, symbols []string) ([]model.SpotPriceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse spot price page: %v", err)
	}

	table := doc.Find("table#fdata").First()
	if table.Length() == 0 {
		return nil, model.NewParseError("spot price page carries no #fdata table")
	}

	filter := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		filter[strings.ToUpper(s)] = true
	}

	var records []model.SpotPriceRecord
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 10 {
			return
		}

		text := func(i int) string { return spotCell(cells.Eq(i).Text()) }

		name := text(0)
		if name == "" || name == "商品" || strings.Contains(name, "交易所") {
			return
		}

		symbol, ok := commodityCode(name)
		if !ok {
			return
		}
		if len(filter) > 0 && !filter[symbol] {
			return
		}

		spotPrice := spotFloat(text(1))
		if spotPrice == 0 {
			return
		}

		nearPrice := spotFloat(text(3))
		domPrice := spotFloat(text(8))
		lower := strings.ToLower(symbol)

		records = append(records, model.SpotPriceRecord{
			Date:                  date,
			Symbol:                symbol,
			SpotPrice:             spotPrice,
			NearContract:          lower + contractMonth(text(2)),
			NearContractPrice:     nearPrice,
			DominantContract:      lower + contractMonth(text(7)),
			DominantContractPrice: domPrice,
			NearBasis:             nearPrice - spotPrice,
			DomBasis:              domPrice - spotPrice,
			NearBasisRate:         nearPrice/spotPrice - 1,
			DomBasisRate:          domPrice/spotPrice - 1,
		})
	})

	if len(records) == 0 {
		return nil, model.NewEmptyPayload("spot price table contained no commodity rows")
	}
	return records, nil
}

// ParseSpotPriceSummaryHTML extracts the summary rows with 180-day basis
// statistics from the #fdata table.
func ParseSpotPriceSummaryHTML(html string) ([]model.SpotPriceSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse spot summary page: %v", err)
	}

	table := doc.Find("table#fdata").First()
	if table.Length() == 0 {
		return nil, model.NewParseError("spot summary page carries no #fdata table")
	}

	var records []model.SpotPriceSummary
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 8 {
			return
		}

		text := func(i int) string { return spotCell(cells.Eq(i).Text()) }

		commodity := text(0)
		if commodity == "" || commodity == "商品" || strings.Contains(commodity, "交易所") {
			return
		}

		spotPrice := spotFloat(text(1))
		if spotPrice == 0 {
			return
		}

		basis, basisRate := parseBasisCell(text(4))

		records = append(records, model.SpotPriceSummary{
			Commodity:        commodity,
			SpotPrice:        spotPrice,
			DominantContract: text(2),
			DominantPrice:    spotFloat(text(3)),
			Basis:            basis,
			BasisRate:        basisRate,
			Basis180dHigh:    optionalFloat(text(5)),
			Basis180dLow:     optionalFloat(text(6)),
			Basis180dAvg:     optionalFloat(text(7)),
		})
	})

	if len(records) == 0 {
		return nil, model.NewEmptyPayload("spot summary table contained no commodity rows")
	}
	return records, nil
}

// parseBasisCell splits a fused basis cell such as "-176-0.22%" into its
// absolute and percentage parts. A lone percentage like "80.03%" yields only
// the rate.
func parseBasisCell(s string) (float64, float64) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}

	pct := strings.LastIndex(s, "%")
	if pct < 0 {
		v, _ := strconv.ParseFloat(s, 64)
		return v, 0
	}

	before := s[:pct]
	if rate, err := strconv.ParseFloat(before, 64); err == nil {
		return 0, rate
	}

	runes := []rune(before)
	for i := len(runes) - 1; i > 0; i-- {
		if (runes[i] == '-' || runes[i] == '+') && runes[i-1] >= '0' && runes[i-1] <= '9' {
			basis, _ := strconv.ParseFloat(string(runes[:i]), 64)
			rate, _ := strconv.ParseFloat(string(runes[i:]), 64)
			return basis, rate
		}
	}

	rate, _ := strconv.ParseFloat(before, 64)
	return 0, rate
}

// dashDate renders a YYYYMMDD date as YYYY-MM-DD; dashed input passes
// through.
func dashDate(date string) string {
	if len(date) == 8 && !strings.Contains(date, "-") {
		return date[:4] + "-" + date[4:6] + "-" + date[6:]
	}
	return date
}

// compactDate strips the dashes from a date.
func compactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}
