package futures

import (
	"context"
	"net/http"

	"asterex/pkg/core"
)

// Account returns the full account snapshot: permissions, aggregate
// balances, per-asset balances, and open positions.
func (c *Client) Account(ctx context.Context) (*core.AccountInfo, error) {
	var data wireAccount
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/account",
		signed: true,
		weight: 5,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeAccount(&data), nil
}

// Balances returns the wallet balance for every asset.
func (c *Client) Balances(ctx context.Context) ([]core.Balance, error) {
	var data []wireBalance
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/balance",
		signed: true,
		weight: 5,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeBalances(data), nil
}

// Positions returns the open positions. An empty symbol returns positions
// for all symbols; flat symbols are filtered out.
func (c *Client) Positions(ctx context.Context, symbol string) ([]core.Position, error) {
	params := core.NewParams()
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var data []wirePosition
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/positionRisk",
		params: params,
		signed: true,
		weight: 5,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizePositions(data), nil
}

// PlaceOrder submits a new order built with NewOrderBuilder.
func (c *Client) PlaceOrder(ctx context.Context, order *OrderRequest) (*core.Order, error) {
	if order == nil {
		return nil, paramError("order is required")
	}
	params, err := order.params()
	if err != nil {
		return nil, err
	}
	var data wireOrder
	err = c.getJSON(ctx, call{
		method:  http.MethodPost,
		path:    "/fapi/v1/order",
		params:  params,
		signed:  true,
		weight:  1,
		isOrder: true,
	}, &data)
	if err != nil {
		return nil, err
	}
	result, err := c.norm.NormalizeOrder(&data)
	if err != nil {
		return nil, core.WrapError(core.ErrorTypeMalformedResponse, err, "decode order")
	}
	c.logger.Info().
		Str("symbol", result.Symbol).
		Int64("order_id", result.ID).
		Str("status", result.Status.String()).
		Msg("order placed")
	return result, nil
}

// CancelOrder cancels an order by exchange ID or client order ID; exactly
// one of the two must be set.
func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64, clientOrderID string) (*core.Order, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	if (orderID == 0) == (clientOrderID == "") {
		return nil, paramError("exactly one of orderID and clientOrderID must be set")
	}
	params := core.NewParams().Set("symbol", symbol)
	if orderID != 0 {
		params.Set("orderId", orderID)
	} else {
		params.Set("origClientOrderId", clientOrderID)
	}
	var data wireOrder
	err := c.getJSON(ctx, call{
		method: http.MethodDelete,
		path:   "/fapi/v1/order",
		params: params,
		signed: true,
		weight: 1,
	}, &data)
	if err != nil {
		return nil, err
	}
	result, err := c.norm.NormalizeOrder(&data)
	if err != nil {
		return nil, core.WrapError(core.ErrorTypeMalformedResponse, err, "decode order")
	}
	return result, nil
}

// GetOrder looks up an order by exchange ID or client order ID.
func (c *Client) GetOrder(ctx context.Context, symbol string, orderID int64, clientOrderID string) (*core.Order, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	if (orderID == 0) == (clientOrderID == "") {
		return nil, paramError("exactly one of orderID and clientOrderID must be set")
	}
	params := core.NewParams().Set("symbol", symbol)
	if orderID != 0 {
		params.Set("orderId", orderID)
	} else {
		params.Set("origClientOrderId", clientOrderID)
	}
	var data wireOrder
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/order",
		params: params,
		signed: true,
		weight: 1,
	}, &data)
	if err != nil {
		return nil, err
	}
	result, err := c.norm.NormalizeOrder(&data)
	if err != nil {
		return nil, core.WrapError(core.ErrorTypeMalformedResponse, err, "decode order")
	}
	return result, nil
}

// OpenOrders returns the resting orders. An empty symbol returns open
// orders across all symbols at a higher request weight.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]core.Order, error) {
	params := core.NewParams()
	weight := 40
	if symbol != "" {
		params.Set("symbol", symbol)
		weight = 1
	}
	var data []wireOrder
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/openOrders",
		params: params,
		signed: true,
		weight: weight,
	}, &data)
	if err != nil {
		return nil, err
	}
	orders, err := c.norm.NormalizeOrders(data)
	if err != nil {
		return nil, core.WrapError(core.ErrorTypeMalformedResponse, err, "decode orders")
	}
	return orders, nil
}

// AllOrders returns the order history for a symbol, up to limit entries.
func (c *Client) AllOrders(ctx context.Context, symbol string, limit int) ([]core.Order, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	params := core.NewParams().Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", limit)
	}
	var data []wireOrder
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/allOrders",
		params: params,
		signed: true,
		weight: 5,
	}, &data)
	if err != nil {
		return nil, err
	}
	orders, err := c.norm.NormalizeOrders(data)
	if err != nil {
		return nil, core.WrapError(core.ErrorTypeMalformedResponse, err, "decode orders")
	}
	return orders, nil
}

// CommissionRate returns the maker and taker fee rates for a symbol.
func (c *Client) CommissionRate(ctx context.Context, symbol string) (*core.CommissionRate, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	var data wireCommissionRate
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/commissionRate",
		params: core.NewParams().Set("symbol", symbol),
		signed: true,
		weight: 20,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeCommissionRate(&data), nil
}
