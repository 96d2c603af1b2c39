package futures

import (
	"context"
	"net/http"

	"asterex/pkg/core"
)

// ExchangeInfo returns the exchange metadata: server time and tradable
// symbols with their precision rules.
func (c *Client) ExchangeInfo(ctx context.Context) (*core.ExchangeInfo, error) {
	var data wireExchangeInfo
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/exchangeInfo",
		weight: 1,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeExchangeInfo(&data), nil
}

// TickerPrice returns the latest traded price for a symbol.
func (c *Client) TickerPrice(ctx context.Context, symbol string) (*core.PriceTicker, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	var data wirePriceTicker
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/ticker/price",
		params: core.NewParams().Set("symbol", symbol),
		weight: 1,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizePriceTicker(&data), nil
}

// Ticker24h returns rolling 24-hour statistics for a symbol.
func (c *Client) Ticker24h(ctx context.Context, symbol string) (*core.Ticker24h, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	var data wireTicker24h
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/ticker/24hr",
		params: core.NewParams().Set("symbol", symbol),
		weight: 1,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeTicker24h(&data), nil
}

// AllTickers24h returns 24-hour statistics for every symbol.
func (c *Client) AllTickers24h(ctx context.Context) ([]core.Ticker24h, error) {
	var data []wireTicker24h
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/ticker/24hr",
		weight: 40,
	}, &data)
	if err != nil {
		return nil, err
	}
	tickers := make([]core.Ticker24h, 0, len(data))
	for i := range data {
		tickers = append(tickers, *c.norm.NormalizeTicker24h(&data[i]))
	}
	return tickers, nil
}

// BookTicker returns the best bid and ask for a symbol.
func (c *Client) BookTicker(ctx context.Context, symbol string) (*core.BookTicker, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	var data wireBookTicker
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/ticker/bookTicker",
		params: core.NewParams().Set("symbol", symbol),
		weight: 1,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeBookTicker(&data), nil
}

// FundingRate returns up to limit historical funding rate settlements for a
// symbol. A zero limit uses the server default.
func (c *Client) FundingRate(ctx context.Context, symbol string, limit int) ([]core.FundingRate, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	params := core.NewParams().Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", limit)
	}
	var data []wireFundingRate
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/fundingRate",
		params: params,
		weight: 1,
	}, &data)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeFundingRates(data), nil
}

// Klines returns up to limit candlesticks for a symbol at the given
// interval ("1m", "5m", "1h", "1d", ...), oldest first.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]core.Kline, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	if interval == "" {
		interval = "1m"
	}
	params := core.NewParams().
		Set("symbol", symbol).
		Set("interval", interval)
	if limit > 0 {
		params.Set("limit", limit)
	}
	var data []wireKline
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/klines",
		params: params,
		weight: 5,
	}, &data)
	if err != nil {
		return nil, err
	}
	klines, err := c.norm.NormalizeKlines(symbol, data)
	if err != nil {
		return nil, core.WrapError(core.ErrorTypeMalformedResponse, err, "decode klines")
	}
	return klines, nil
}

// Depth returns an order book snapshot for a symbol with up to limit levels
// per side.
func (c *Client) Depth(ctx context.Context, symbol string, limit int) (*core.OrderBook, error) {
	if symbol == "" {
		return nil, paramError("symbol is required")
	}
	params := core.NewParams().Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", limit)
	}
	var data wireDepth
	err := c.getJSON(ctx, call{
		method: http.MethodGet,
		path:   "/fapi/v1/depth",
		params: params,
		weight: depthWeight(limit),
	}, &data)
	if err != nil {
		return nil, err
	}
	book, err := c.norm.NormalizeDepth(symbol, &data)
	if err != nil {
		return nil, core.WrapError(core.ErrorTypeMalformedResponse, err, "decode depth")
	}
	return book, nil
}

// depthWeight follows the documented weight tiers for depth snapshots.
func depthWeight(limit int) int {
	switch {
	case limit == 0 || limit <= 100:
		return 5
	case limit <= 500:
		return 10
	default:
		return 20
	}
}
