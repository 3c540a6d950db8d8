package upstream

import (
	"testing"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const symbolScriptFixture = `
var ARRFUTURESNODES = {
	czce: [
		['郑州商品交易所', 'czce', ''],
		['白糖', 'baitang_qh', ''],
		['棉花', 'mianhua_qh', ''],
		['郑州指数', 'zzzs', '']
	],
	dce: [
		['大连商品交易所', 'dce', ''],
		['豆一', 'douyi_qh', ''],
		['铁矿石', 'tiekuangshi_qh', '']
	],
	shfe: [
		['上海期货交易所', 'shfe', ''],
		['沪铜', 'hutong_qh', '']
	]
};
`

func TestParseSymbolScript(t *testing.T) {
	mappings, err := ParseSymbolScript(symbolScriptFixture)
	require.NoError(t, err)
	require.Len(t, mappings, 5)

	byExchange := map[string][]string{}
	for _, m := range mappings {
		byExchange[m.ExchangeCode] = append(byExchange[m.ExchangeCode], m.Symbol)
	}

	assert.Equal(t, []string{"白糖", "棉花"}, byExchange["CZCE"])
	assert.Equal(t, []string{"豆一", "铁矿石"}, byExchange["DCE"])
	assert.Equal(t, []string{"沪铜"}, byExchange["SHFE"])
}

// Items in a later exchange section must never be attributed to an earlier
// one, even though the earlier section's scan starts before them.
func TestParseSymbolScriptSectionBoundaries(t *testing.T) {
	mappings, err := ParseSymbolScript(symbolScriptFixture)
	require.NoError(t, err)

	for _, m := range mappings {
		if m.Symbol == "铁矿石" {
			assert.Equal(t, "DCE", m.ExchangeCode)
		}
		if m.Symbol == "沪铜" {
			assert.Equal(t, "SHFE", m.ExchangeCode)
		}
	}
}

func TestParseSymbolScriptDeterministic(t *testing.T) {
	first, err := ParseSymbolScript(symbolScriptFixture)
	require.NoError(t, err)
	second, err := ParseSymbolScript(symbolScriptFixture)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseSymbolScriptMissingBlock(t *testing.T) {
	_, err := ParseSymbolScript("var SOMETHING_ELSE = 1;")
	require.Error(t, err)
	assert.Equal(t, model.KindParseError, model.KindOf(err))
}

func TestParseSymbolScriptNoProducts(t *testing.T) {
	_, err := ParseSymbolScript("var ARRFUTURESNODES = {czce: [['郑州指数', 'zzzs', '']]};")
	require.Error(t, err)

	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.True(t, modelErr.EmptyPayload)
}
