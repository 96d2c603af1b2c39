package core

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "BUY", SideBuy.String())
	assert.Equal(t, "SELL", SideSell.String())
	assert.Equal(t, "STOP_MARKET", TypeStopMarket.String())
	assert.Equal(t, "TAKE_PROFIT", TypeTakeProfit.String())
	assert.Equal(t, "PARTIALLY_FILLED", StatusPartiallyFilled.String())
	assert.Equal(t, "GTX", GTX.String())
	assert.Equal(t, "SHORT", PositionShort.String())
}

func TestEnumJSONRoundTrip(t *testing.T) {
	payload, err := sonic.Marshal(struct {
		Side   OrderSide   `json:"side"`
		Type   OrderType   `json:"type"`
		Status OrderStatus `json:"status"`
		TIF    TimeInForce `json:"tif"`
	}{SideSell, TypeTakeProfitMarket, StatusCanceled, IOC})
	require.NoError(t, err)
	assert.JSONEq(t, `{"side":"SELL","type":"TAKE_PROFIT_MARKET","status":"CANCELED","tif":"IOC"}`, string(payload))

	var decoded struct {
		Side   OrderSide   `json:"side"`
		Type   OrderType   `json:"type"`
		Status OrderStatus `json:"status"`
		TIF    TimeInForce `json:"tif"`
	}
	require.NoError(t, sonic.Unmarshal(payload, &decoded))
	assert.Equal(t, SideSell, decoded.Side)
	assert.Equal(t, TypeTakeProfitMarket, decoded.Type)
	assert.Equal(t, StatusCanceled, decoded.Status)
	assert.Equal(t, IOC, decoded.TIF)
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusNew.IsTerminal())
	assert.False(t, StatusPartiallyFilled.IsTerminal())
	assert.True(t, StatusFilled.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}
