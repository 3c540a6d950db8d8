package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const qh99StockURL = "https://www.99qh.com/data/stockIn"

// InventoryClient fetches registered warehouse inventory series from the
// 99qihuo site, which ships its data inside a Next.js __NEXT_DATA__ blob.
type InventoryClient struct {
	url    string
	http   *Client
	logger *zap.Logger
}

// NewInventoryClient creates an inventory data client.
func NewInventoryClient(ep Endpoints, httpClient *Client, logger *zap.Logger) *InventoryClient {
	return &InventoryClient{
		url:    ep.Qh99Inventory,
		http:   httpClient,
		logger: logger,
	}
}

// FetchProducts retrieves the product id map used to address inventory
// series.
func (c *InventoryClient) FetchProducts(ctx context.Context) ([]model.InventoryProduct, error) {
	body, err := c.http.GetInsecure(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	return ParseInventoryProducts(string(body))
}

// FetchInventory retrieves the inventory series for a product named by its
// Chinese name (豆一) or code (A), ascending by date.
func (c *InventoryClient) FetchInventory(ctx context.Context, symbol string) ([]model.InventoryRecord, error) {
	products, err := c.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}

	productID := int64(0)
	for _, p := range products {
		if p.Name == symbol || strings.EqualFold(p.Code, symbol) {
			productID = p.ProductID
			break
		}
	}
	if productID == 0 {
		return nil, model.NewNotFound("no inventory product matches %q", symbol)
	}

	body, err := c.http.GetInsecure(ctx, fmt.Sprintf("%s?productId=%d", c.url, productID), nil)
	if err != nil {
		return nil, err
	}
	return ParseInventorySeries(string(body))
}

// extractNextData pulls the JSON out of the page's __NEXT_DATA__ script tag.
func extractNextData(html string) (map[string]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, model.NewParseError("failed to parse inventory page: %v", err)
	}

	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil, model.NewParseError("inventory page carries no __NEXT_DATA__ script")
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
		return nil, model.NewParseError("failed to decode __NEXT_DATA__ JSON: %v", err)
	}
	return data, nil
}

// nextDataPath walks nested objects by key, returning nil when any level is
// missing.
func nextDataPath(data map[string]interface{}, keys ...string) interface{} {
	var current interface{} = data
	for _, key := range keys {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

// ParseInventoryProducts extracts the product id map from the inventory page.
func ParseInventoryProducts(html string) ([]model.InventoryProduct, error) {
	data, err := extractNextData(html)
	if err != nil {
		return nil, err
	}

	varieties, _ := nextDataPath(data, "props", "pageProps", "data", "varietyListData").([]interface{})

	var products []model.InventoryProduct
	for _, variety := range varieties {
		obj, ok := variety.(map[string]interface{})
		if !ok {
			continue
		}
		list, _ := obj["productList"].([]interface{})
		for _, item := range list {
			p, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			id, _ := p["productId"].(float64)
			name, _ := p["name"].(string)
			code, _ := p["code"].(string)
			if id > 0 && name != "" {
				products = append(products, model.InventoryProduct{
					ProductID: int64(id),
					Name:      name,
					Code:      code,
				})
			}
		}
	}

	if len(products) == 0 {
		return nil, model.NewEmptyPayload("inventory page listed no products")
	}
	return products, nil
}

// ParseInventorySeries extracts the [date, close, inventory] triples from a
// product's inventory page, sorted ascending by date.
func ParseInventorySeries(html string) ([]model.InventoryRecord, error) {
	data, err := extractNextData(html)
	if err != nil {
		return nil, err
	}

	list, _ := nextDataPath(data, "props", "pageProps", "data", "positionTrendChartListData", "list").([]interface{})

	var records []model.InventoryRecord
	for _, item := range list {
		triple, ok := item.([]interface{})
		if !ok || len(triple) == 0 {
			continue
		}
		date, _ := triple[0].(string)
		if date == "" {
			continue
		}

		record := model.InventoryRecord{Date: date}
		if len(triple) > 1 {
			record.ClosePrice = numberOrNil(triple[1])
		}
		if len(triple) > 2 {
			record.Inventory = numberOrNil(triple[2])
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, model.NewEmptyPayload("inventory series contained no rows")
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records, nil
}

// numberOrNil reads a JSON value that may be a number, a numeric string or
// null.
func numberOrNil(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		return optionalFloat(t)
	default:
		return nil
	}
}
