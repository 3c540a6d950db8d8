package upstream

import (
	"testing"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryProductsFixture = `
<html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"data":{"varietyListData":[
  {"varietyName":"上期所","productList":[
    {"productId":7,"name":"铜","code":"CU"},
    {"productId":9,"name":"螺纹钢","code":"RB"}
  ]},
  {"varietyName":"大商所","productList":[
    {"productId":31,"name":"豆一","code":"A"},
    {"productId":0,"name":"无效","code":"XX"}
  ]}
]}}}}
</script>
</body></html>`

func TestParseInventoryProducts(t *testing.T) {
	products, err := ParseInventoryProducts(inventoryProductsFixture)
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, int64(7), products[0].ProductID)
	assert.Equal(t, "铜", products[0].Name)
	assert.Equal(t, "CU", products[0].Code)
	assert.Equal(t, "豆一", products[2].Name)
}

func TestParseInventoryProductsMissingScript(t *testing.T) {
	_, err := ParseInventoryProducts("<html><body><p>maintenance</p></body></html>")
	require.Error(t, err)
	assert.Equal(t, model.KindParseError, model.KindOf(err))
}

const inventorySeriesFixture = `
<html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"data":{"positionTrendChartListData":{"list":[
  ["2026-02-10", 68450, 120345],
  ["2026-02-06", "68200", null],
  ["2026-02-09", 68300, "118200"]
]}}}}}
</script>
</body></html>`

func TestParseInventorySeries(t *testing.T) {
	records, err := ParseInventorySeries(inventorySeriesFixture)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "2026-02-06", records[0].Date, "series must be ascending by date")
	assert.Equal(t, "2026-02-09", records[1].Date)
	assert.Equal(t, "2026-02-10", records[2].Date)

	require.NotNil(t, records[0].ClosePrice)
	assert.Equal(t, 68200.0, *records[0].ClosePrice)
	assert.Nil(t, records[0].Inventory)

	require.NotNil(t, records[1].Inventory)
	assert.Equal(t, 118200.0, *records[1].Inventory)
	require.NotNil(t, records[2].Inventory)
	assert.Equal(t, 120345.0, *records[2].Inventory)
}

func TestParseInventorySeriesEmpty(t *testing.T) {
	html := `<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"data":{"positionTrendChartListData":{"list":[]}}}}}</script>`

	_, err := ParseInventorySeries(html)
	require.Error(t, err)

	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.True(t, modelErr.EmptyPayload)
}
