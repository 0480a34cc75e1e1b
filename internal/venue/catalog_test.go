package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEligible_RequiresTwoTokensAndThresholds(t *testing.T) {
	cfg := Config{MinVolume24h: 1000, MinLiquidity: 500}
	markets := []gammaMarket{
		{ID: "m1", Active: true, ClobTokenIDs: `["1","2"]`, Volume24hr: "5000", LiquidityNum: "1000"},
		{ID: "m2", Active: false, ClobTokenIDs: `["3","4"]`, Volume24hr: "5000", LiquidityNum: "1000"},
		{ID: "m3", Active: true, Closed: true, ClobTokenIDs: `["5","6"]`, Volume24hr: "5000", LiquidityNum: "1000"},
		{ID: "m4", Active: true, ClobTokenIDs: `["7"]`, Volume24hr: "5000", LiquidityNum: "1000"},
		{ID: "m5", Active: true, ClobTokenIDs: `["8","9"]`, Volume24hr: "100", LiquidityNum: "1000"},
		{ID: "m6", Active: true, ClobTokenIDs: `["10","11"]`, Volume24hr: "5000", LiquidityNum: "10"},
	}

	got := filterEligible(markets, cfg)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].MarketID)
	assert.Equal(t, [2]string{"1", "2"}, got[0].TokenIDs)
	assert.False(t, got[0].NegRisk)
}

func TestDecimalPtr_NilPreserved(t *testing.T) {
	assert.Nil(t, decimalPtr(nil))
	v := 0.5
	d := decimalPtr(&v)
	require.NotNil(t, d)
	assert.True(t, d.InexactFloat64() == 0.5)
}

func TestCentsToFloat_ZeroIsAbsent(t *testing.T) {
	assert.Nil(t, centsToFloat(0))
	f := centsToFloat(55)
	require.NotNil(t, f)
	assert.Equal(t, 0.55, *f)
}
