package upstream

import (
	"context"
	"regexp"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"go.uber.org/zap"
)

const sinaSymbolScriptURL = "https://vip.stock.finance.sina.com.cn/quotes_service/view/js/qihuohangqing.js"

// scriptExchange pairs an exchange key inside the mapping script with the
// exchange it describes.
type scriptExchange struct {
	key  string
	code string
	name string
}

var scriptExchanges = []scriptExchange{
	{"czce", "CZCE", "郑州商品交易所"},
	{"dce", "DCE", "大连商品交易所"},
	{"shfe", "SHFE", "上海期货交易所"},
	{"cffex", "CFFEX", "中国金融期货交易所"},
	{"gfex", "GFEX", "广州期货交易所"},
}

var (
	scriptItemRe = regexp.MustCompile(`\['([^']+)',\s*'([^']+)',\s*'[^']*'`)
	scriptKeyRe  = map[string]*regexp.Regexp{}
)

func init() {
	for _, ex := range scriptExchanges {
		scriptKeyRe[ex.key] = regexp.MustCompile(ex.key + `\s*:\s*\[`)
	}
}

// SymbolScriptClient fetches the dynamically served product mapping script.
// The script is JS; it is never evaluated, only pattern-extracted.
type SymbolScriptClient struct {
	url    string
	http   *Client
	logger *zap.Logger
}

// NewSymbolScriptClient creates a mapping script client.
func NewSymbolScriptClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *SymbolScriptClient {
	return &SymbolScriptClient{
		url:    ep.SinaSymbolScript,
		http:   httpClient,
		logger: logger,
	}
}

// Fetch downloads and parses the current product mappings.
func (c *SymbolScriptClient) Fetch(ctx context.Context) ([]model.SymbolMapping, error) {
	body, err := c.http.Get(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}

	script, err := DecodeGBK(body)
	if err != nil {
		return nil, err
	}

	mappings, err := ParseSymbolScript(script)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Parsed symbol mapping script", zap.Int("mappings", len(mappings)))
	return mappings, nil
}

// ParseSymbolScript extracts product mappings from the ARRFUTURESNODES block
// of the quote-navigation script. Only entries whose mark ends in "_qh" are
// product nodes; the rest are navigation links.
func ParseSymbolScript(script string) ([]model.SymbolMapping, error) {
	start := strings.Index(script, "ARRFUTURESNODES = {")
	end := strings.Index(script, "};")
	if start < 0 || end < 0 || end <= start {
		return nil, model.NewParseError("mapping script missing ARRFUTURESNODES block")
	}
	content := script[start : end+2]

	var mappings []model.SymbolMapping
	for _, ex := range scriptExchanges {
		loc := scriptKeyRe[ex.key].FindStringIndex(content)
		if loc == nil {
			continue
		}
		section := content[loc[1]:]

		// Bound the section at the next exchange key so one exchange's
		// items are never attributed to another.
		next := len(section)
		for _, other := range scriptExchanges {
			if other.key == ex.key {
				continue
			}
			if l := scriptKeyRe[other.key].FindStringIndex(section); l != nil && l[0] < next {
				next = l[0]
			}
		}
		section = section[:next]

		for _, match := range scriptItemRe.FindAllStringSubmatch(section, -1) {
			name, mark := match[1], match[2]
			if name == "" || mark == "" || !strings.HasSuffix(mark, "_qh") {
				continue
			}
			mappings = append(mappings, model.SymbolMapping{
				ExchangeCode: ex.code,
				ExchangeName: ex.name,
				Symbol:       name,
				Mark:         mark,
			})
		}
	}

	if len(mappings) == 0 {
		return nil, model.NewEmptyPayload("mapping script contained no product nodes")
	}
	return mappings, nil
}
