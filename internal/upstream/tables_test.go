package upstream

import (
	"testing"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holdPosFixture = `
<html><body>
<table><tr><td>nav</td></tr></table>
<table><tr><td>header</td></tr></table>
<table>
 <tr><th>名次</th><th>会员简称</th><th>成交量</th><th>增减</th></tr>
 <tr><td>1</td><td>中信期货</td><td>120,340</td><td>5,210</td></tr>
 <tr><td>2</td><td>国泰君安</td><td>98,100</td><td>-1,450</td></tr>
 <tr><td>合计</td><td></td><td>218,000</td><td>3,760</td></tr>
</table>
</body></html>`

func TestParseHoldPosHTML(t *testing.T) {
	entries, err := ParseHoldPosHTML(holdPosFixture, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "中信期货", entries[0].Company)
	assert.Equal(t, int64(120340), entries[0].Value)
	assert.Equal(t, int64(5210), entries[0].Change)
	assert.Equal(t, int64(-1450), entries[1].Change)
}

func TestParseHoldPosHTMLMissingTable(t *testing.T) {
	_, err := ParseHoldPosHTML("<html><table></table></html>", 2)
	require.Error(t, err)
	assert.Equal(t, model.KindParseError, model.KindOf(err))
}

const feesFixture = `
<html><body>
<p>Generated at 2026-02-10 09:00:00.</p>
<table><tbody>
<tr>
 <td>SHFE</td><td>cu2602</td><td>沪铜2602</td><td>cu</td><td>铜</td>
 <td>5</td><td>10</td><td>0.0001</td><td>0</td><td>0.0001</td>
 <td>0</td><td>0.0001</td><td>0</td><td>0.08</td><td>x</td><td>0.08</td>
</tr>
</tbody></table>
</body></html>`

func TestParseFeesHTML(t *testing.T) {
	records, err := ParseFeesHTML(feesFixture)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "SHFE", r.Exchange)
	assert.Equal(t, "cu2602", r.ContractCode)
	assert.Equal(t, "0.08", r.LongMarginRate)
	assert.Equal(t, "0.08", r.ShortMarginRate)
	assert.Equal(t, "2026-02-10 09:00:00", r.UpdatedAt)
}

func TestParseFeesHTMLEmpty(t *testing.T) {
	_, err := ParseFeesHTML("<html><table><tbody></tbody></table></html>")
	require.Error(t, err)

	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.True(t, modelErr.EmptyPayload)
}

const commissionFixture = `
<html><body><table>
<tr><td>上海期货交易所</td></tr>
<tr><td>品种</td><td>现价</td><td>涨/跌停板</td></tr>
<tr><td>单位</td><td>元</td><td>元</td></tr>
<tr>
 <td>沪铜(CU2602)</td><td>68,450</td><td>73200/63700</td>
 <td>9%</td><td>9%</td><td>30800元</td>
 <td>万分之0.5</td><td>万分之0.5</td><td>万分之1</td>
 <td>50</td><td>6.85元</td><td>43.15</td><td>保证金按9%收取</td>
</tr>
<tr><td>中国金融期货交易所</td></tr>
<tr><td>品种</td><td>现价</td><td>涨/跌停板</td></tr>
<tr><td>单位</td><td>元</td><td>元</td></tr>
<tr>
 <td>沪深300(IF2603)</td><td>4,120.4</td><td>4532/3708</td>
 <td>12%</td><td>12%</td><td>148334元</td>
 <td>万分之0.23</td><td>万分之0.23</td><td>万分之3.45</td>
 <td>60</td><td>28.43元</td><td>31.57</td><td></td>
</tr>
</table></body></html>`

func TestParseCommissionHTML(t *testing.T) {
	records, err := ParseCommissionHTML(commissionFixture, "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	cu := records[0]
	assert.Equal(t, "上海期货交易所", cu.Exchange)
	assert.Equal(t, "沪铜", cu.ContractName)
	assert.Equal(t, "CU2602", cu.ContractCode)
	require.NotNil(t, cu.CurrentPrice)
	assert.Equal(t, 68450.0, *cu.CurrentPrice)
	require.NotNil(t, cu.LimitUp)
	assert.Equal(t, 73200.0, *cu.LimitUp)
	require.NotNil(t, cu.MarginBuy)
	assert.Equal(t, 9.0, *cu.MarginBuy)
	require.NotNil(t, cu.FeeOpenRatio)
	assert.InDelta(t, 0.5/10000, *cu.FeeOpenRatio, 1e-12)
	assert.Nil(t, cu.FeeOpenYuan)
	require.NotNil(t, cu.FeeTotal)
	assert.Equal(t, 6.85, *cu.FeeTotal)
	require.NotNil(t, cu.Remark)
	assert.Equal(t, "保证金按9%收取", *cu.Remark)

	assert.Equal(t, "中国金融期货交易所", records[1].Exchange)
	assert.Equal(t, "IF2603", records[1].ContractCode)
}

func TestParseCommissionHTMLExchangeFilter(t *testing.T) {
	records, err := ParseCommissionHTML(commissionFixture, "中国金融期货交易所")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "IF2603", records[0].ContractCode)

	all, err := ParseCommissionHTML(commissionFixture, "所有")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

const ruleFixture = `
<html><body>
<p>交易保证金比例与涨跌停板幅度</p>
<table>
<tr><th>交易所</th><th>品种</th><th>代码</th><th>交易保证金比例</th><th>涨跌停板幅度</th><th>合约乘数</th><th>最小变动价位</th><th>限价单每笔最大下单手数</th></tr>
<tr><td>上期所</td><td>铜</td><td>cu</td><td>10%</td><td>8%</td><td>5</td><td>10</td><td>500</td><td></td><td>主力合约</td></tr>
<tr><td>郑商所</td><td>白糖</td><td>SR</td><td>--</td><td>7%</td><td>10</td><td>1</td><td>200</td></tr>
</table>
</body></html>`

func TestParseRuleHTML(t *testing.T) {
	rules, err := ParseRuleHTML(ruleFixture)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	cu := rules[0]
	assert.Equal(t, "上期所", cu.Exchange)
	assert.Equal(t, "铜", cu.Product)
	assert.Equal(t, "cu", cu.Code)
	require.NotNil(t, cu.MarginRate)
	assert.Equal(t, 10.0, *cu.MarginRate)
	require.NotNil(t, cu.PriceLimit)
	assert.Equal(t, 8.0, *cu.PriceLimit)
	require.NotNil(t, cu.MaxOrderSize)
	assert.Equal(t, uint64(500), *cu.MaxOrderSize)
	require.NotNil(t, cu.Remark)
	assert.Equal(t, "主力合约", *cu.Remark)

	assert.Nil(t, rules[1].MarginRate)
}

func TestParseRuleHTMLNoRuleTable(t *testing.T) {
	_, err := ParseRuleHTML("<html><body><p>节假日安排</p></body></html>")
	require.Error(t, err)

	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.True(t, modelErr.EmptyPayload)
}
