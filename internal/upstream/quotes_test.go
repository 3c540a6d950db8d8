package upstream

import (
	"testing"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteFixture = `var hq_str_nf_CU2602="沪铜2602,145959,68500.000,68720.000,68310.000,68400.000,68410.000,68420.000,68450.000,68430.000,68200.000,68410.000,68420.000,285730,168034,322,1,0.000";`

func TestParseQuotePayload(t *testing.T) {
	quote, err := ParseQuotePayload(quoteFixture, "CU2602", "2026-02-10 14:59:59")
	require.NoError(t, err)

	assert.Equal(t, "CU2602", quote.Symbol)
	assert.Equal(t, "沪铜2602", quote.Name)
	assert.Equal(t, 68500.0, quote.Open)
	assert.Equal(t, 68720.0, quote.High)
	assert.Equal(t, 68310.0, quote.Low)
	assert.Equal(t, 68450.0, quote.CurrentPrice)
	require.NotNil(t, quote.PrevSettlement)
	assert.Equal(t, 68200.0, *quote.PrevSettlement)
	require.NotNil(t, quote.OpenInterest)
	assert.Equal(t, uint64(285730), *quote.OpenInterest)
	assert.Equal(t, uint64(168034), quote.Volume)
	assert.InDelta(t, 250.0, quote.Change, 1e-9)
	assert.InDelta(t, 250.0/68200.0*100, quote.ChangePercent, 1e-9)
	assert.Equal(t, "2026-02-10 14:59:59", quote.UpdatedAt)
}

func TestParseQuotePayloadDeterministic(t *testing.T) {
	first, err := ParseQuotePayload(quoteFixture, "CU2602", "2026-02-10 14:59:59")
	require.NoError(t, err)
	second, err := ParseQuotePayload(quoteFixture, "CU2602", "2026-02-10 14:59:59")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseQuotePayloadEmpty(t *testing.T) {
	_, err := ParseQuotePayload(`var hq_str_nf_XX9999="";`, "XX9999", "2026-02-10 14:59:59")
	require.Error(t, err)
	assert.Equal(t, model.KindParseError, model.KindOf(err))

	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.True(t, modelErr.EmptyPayload)
}

func TestParseQuotePayloadTooFewFields(t *testing.T) {
	_, err := ParseQuotePayload(`var hq_str_nf_CU2602="沪铜2602,145959,68500.000";`, "CU2602", "2026-02-10 14:59:59")
	require.Error(t, err)
	assert.Equal(t, model.KindParseError, model.KindOf(err))
}

func TestFormatRealtimeSymbol(t *testing.T) {
	cases := map[string]string{
		"CU2602":     "nf_CU2602",
		"rb2605":     "nf_RB2605",
		"IF2603":     "CFF_IF2603",
		"T2606":      "CFF_T2606",
		"TL2609":     "CFF_TL2609",
		"nf_AU2604":  "nf_AU2604",
		"CFF_IC2603": "CFF_IC2603",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, FormatRealtimeSymbol(input), "input %q", input)
	}
}

func TestParseProductList(t *testing.T) {
	body := []byte(`[
		{"symbol":"RB2605","name":"螺纹钢2605","trade":"3350.000","presettlement":"3300.000","open":"3310.000","high":"3360.000","low":"3295.000","volume":"1204512","position":"1834220","settlement":"3345.000"},
		{"symbol":"RB2610","name":"螺纹钢2610","trade":"3390.000","presettlement":"3380.000","open":"3382.000","high":"3395.000","low":"3375.000","volume":"20451","position":"93420","settlement":"3388.000"}
	]`)

	quotes, err := ParseProductList(body, 0, "2026-02-10 15:00:00")
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "RB2605", quotes[0].Symbol)
	assert.Equal(t, 3350.0, quotes[0].CurrentPrice)
	require.NotNil(t, quotes[0].Settlement)
	assert.Equal(t, 3345.0, *quotes[0].Settlement)
	require.NotNil(t, quotes[0].OpenInterest)
	assert.Equal(t, uint64(1834220), *quotes[0].OpenInterest)
	assert.InDelta(t, 50.0, quotes[0].Change, 1e-9)

	limited, err := ParseProductList(body, 1, "2026-02-10 15:00:00")
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestParseProductListEmpty(t *testing.T) {
	_, err := ParseProductList([]byte(`[]`), 0, "2026-02-10 15:00:00")
	require.Error(t, err)
	assert.Equal(t, model.KindParseError, model.KindOf(err))
}
