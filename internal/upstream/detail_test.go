package upstream

import (
	"testing"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractDetailFixture = `
<html>
<head><title>沪铜2602期货行情</title></head>
<body>
<p>上市交易所：上海期货交易所</p>
<p>交易单位：5吨/手</p>
<p>报价单位：元（人民币）/吨</p>
<p>最小变动价位：10元/吨</p>
<p>涨跌停板幅度：上一交易日结算价±3%</p>
<p>合约交割月份：1-12月</p>
<p>交易时间：上午9:00-11:30，下午13:30-15:00</p>
<p>最后交易日：合约交割月份的15日</p>
<p>最后交割日：最后交易日后连续五个工作日</p>
<p>最低交易保证金：合约价值的5%</p>
<p>交割方式：实物交割</p>
</body>
</html>`

func TestParseContractDetail(t *testing.T) {
	detail := ParseContractDetail(contractDetailFixture, "CU2602")

	assert.Equal(t, "CU2602", detail.Symbol)
	assert.Equal(t, "沪铜2602期货行情", detail.Name)
	assert.Equal(t, "上海期货交易所", detail.Exchange)
	assert.Equal(t, "5吨/手", detail.TradingUnit)
	assert.Equal(t, "元（人民币）/吨", detail.QuoteUnit)
	assert.Equal(t, "10元/吨", detail.MinPriceChange)
	assert.Equal(t, "上一交易日结算价±3%", detail.PriceLimit)
	assert.Equal(t, "1-12月", detail.ContractMonths)
	assert.Equal(t, "合约交割月份的15日", detail.LastTradingDay)
	assert.Equal(t, "合约价值的5%", detail.Margin)
	assert.Equal(t, "实物交割", detail.DeliveryMethod)
	assert.Empty(t, detail.DeliveryGrade)
}

func TestParseContractDetailMissingLabels(t *testing.T) {
	detail := ParseContractDetail("<html><body>nothing here</body></html>", "CU2602")

	assert.Equal(t, "CU2602", detail.Symbol)
	assert.Empty(t, detail.Name)
	assert.Empty(t, detail.Exchange)
}

func TestParseForeignDetailHTML(t *testing.T) {
	html := `<html><body><table>
<tr><td>交易品种</td><td>COMEX黄金</td><td>交易单位</td><td>100金衡盎司</td></tr>
<tr><td>报价单位</td><td>美元/盎司</td><td></td><td></td></tr>
</table></body></html>`

	detail, err := ParseForeignDetailHTML(html)
	require.NoError(t, err)
	require.Len(t, detail.Items, 3)

	assert.Equal(t, "交易品种", detail.Items[0].Name)
	assert.Equal(t, "COMEX黄金", detail.Items[0].Value)
	assert.Equal(t, "交易单位", detail.Items[1].Name)
	assert.Equal(t, "美元/盎司", detail.Items[2].Value)
}

func TestParseForeignDetailHTMLPicksSeventhTable(t *testing.T) {
	var html string
	html += "<html><body>"
	for i := 0; i < 6; i++ {
		html += "<table><tr><td>其它</td></tr></table>"
	}
	html += "<table><tr><td>交易时间</td><td>全天</td></tr></table>"
	html += "</body></html>"

	detail, err := ParseForeignDetailHTML(html)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "交易时间", detail.Items[0].Name)
}

func TestParseForeignDetailHTMLNoTables(t *testing.T) {
	_, err := ParseForeignDetailHTML("<html><body></body></html>")
	require.Error(t, err)
	assert.Equal(t, model.KindParseError, model.KindOf(err))
}

func TestParseForeignDetailHTMLEmptyTable(t *testing.T) {
	_, err := ParseForeignDetailHTML("<html><body><table><tr><td></td><td></td></tr></table></body></html>")
	require.Error(t, err)

	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.True(t, modelErr.EmptyPayload)
}
