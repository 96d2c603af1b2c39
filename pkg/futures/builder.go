package futures

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"asterex/pkg/core"
)

// OrderRequest is a validated new-order submission. Construct it with
// NewOrderBuilder.
type OrderRequest struct {
	Symbol        string
	Side          core.OrderSide
	Type          core.OrderType
	TimeInForce   core.TimeInForce
	Quantity      apd.Decimal
	Price         apd.Decimal
	StopPrice     apd.Decimal
	ReduceOnly    bool
	ClientOrderID string

	hasTIF bool
}

// params renders the order as wire parameters. The parameter order is fixed
// so identical orders sign identically.
func (o *OrderRequest) params() (*core.Params, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	p := core.NewParams().
		Set("symbol", o.Symbol).
		Set("side", o.Side).
		Set("type", o.Type)
	if o.hasTIF {
		p.Set("timeInForce", o.TimeInForce)
	}
	p.Set("quantity", o.Quantity.Text('f'))
	if !o.Price.IsZero() {
		p.Set("price", o.Price.Text('f'))
	}
	if !o.StopPrice.IsZero() {
		p.Set("stopPrice", o.StopPrice.Text('f'))
	}
	if o.ReduceOnly {
		p.Set("reduceOnly", true)
	}
	p.Set("newClientOrderId", o.ClientOrderID)
	return p, nil
}

func (o *OrderRequest) validate() error {
	if o.Symbol == "" {
		return paramError("symbol is required")
	}
	if o.Quantity.IsZero() || o.Quantity.Negative {
		return paramError("quantity must be positive")
	}
	switch o.Type {
	case core.TypeLimit, core.TypeStop, core.TypeTakeProfit:
		if o.Price.IsZero() || o.Price.Negative {
			return paramError("price must be positive for %s orders", o.Type)
		}
	}
	switch o.Type {
	case core.TypeStop, core.TypeStopMarket, core.TypeTakeProfit, core.TypeTakeProfitMarket:
		if o.StopPrice.IsZero() || o.StopPrice.Negative {
			return paramError("stop price must be positive for %s orders", o.Type)
		}
	}
	if o.ClientOrderID == "" {
		return paramError("client order id is required")
	}
	return nil
}

// OrderBuilder provides a fluent interface for constructing order requests.
// It accumulates validation errors and reports them on Build.
//
// Example:
//
//	order, err := futures.NewOrderBuilder("BTCUSDT").
//	    Buy().
//	    Limit().
//	    Price("50000").
//	    Quantity("0.001").
//	    Build()
type OrderBuilder struct {
	order *OrderRequest
	err   error
}

// NewOrderBuilder creates an order builder for the given symbol.
func NewOrderBuilder(symbol string) *OrderBuilder {
	return &OrderBuilder{
		order: &OrderRequest{Symbol: symbol},
	}
}

// Side sets the order side (buy or sell).
func (b *OrderBuilder) Side(side core.OrderSide) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.order.Side = side
	return b
}

// Buy sets the order side to buy.
func (b *OrderBuilder) Buy() *OrderBuilder {
	return b.Side(core.SideBuy)
}

// Sell sets the order side to sell.
func (b *OrderBuilder) Sell() *OrderBuilder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *OrderBuilder) Type(orderType core.OrderType) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.order.Type = orderType
	return b
}

// Market sets the order type to market.
func (b *OrderBuilder) Market() *OrderBuilder {
	return b.Type(core.TypeMarket)
}

// Limit sets the order type to limit.
func (b *OrderBuilder) Limit() *OrderBuilder {
	return b.Type(core.TypeLimit)
}

// StopMarket sets the order type to stop-market with the given trigger price.
func (b *OrderBuilder) StopMarket(stopPrice string) *OrderBuilder {
	b.Type(core.TypeStopMarket)
	return b.StopPrice(stopPrice)
}

// TakeProfitMarket sets the order type to take-profit-market with the given
// trigger price.
func (b *OrderBuilder) TakeProfitMarket(stopPrice string) *OrderBuilder {
	b.Type(core.TypeTakeProfitMarket)
	return b.StopPrice(stopPrice)
}

// Price sets the limit price from a string representation.
func (b *OrderBuilder) Price(price string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.order.Price.SetString(price); err != nil {
		b.err = core.WrapError(core.ErrorTypeConfiguration, err, "parse price")
	}
	return b
}

// PriceDecimal sets the limit price from an apd.Decimal value.
func (b *OrderBuilder) PriceDecimal(price apd.Decimal) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.order.Price.Set(&price)
	return b
}

// Quantity sets the order quantity from a string representation.
func (b *OrderBuilder) Quantity(qty string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.order.Quantity.SetString(qty); err != nil {
		b.err = core.WrapError(core.ErrorTypeConfiguration, err, "parse quantity")
	}
	return b
}

// QuantityDecimal sets the order quantity from an apd.Decimal value.
func (b *OrderBuilder) QuantityDecimal(qty apd.Decimal) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.order.Quantity.Set(&qty)
	return b
}

// StopPrice sets the trigger price from a string representation.
func (b *OrderBuilder) StopPrice(price string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.order.StopPrice.SetString(price); err != nil {
		b.err = core.WrapError(core.ErrorTypeConfiguration, err, "parse stop price")
	}
	return b
}

// TimeInForce sets the time-in-force policy.
func (b *OrderBuilder) TimeInForce(tif core.TimeInForce) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.order.TimeInForce = tif
	b.order.hasTIF = true
	return b
}

// GTC sets the time-in-force to Good-Till-Canceled.
func (b *OrderBuilder) GTC() *OrderBuilder {
	return b.TimeInForce(core.GTC)
}

// IOC sets the time-in-force to Immediate-Or-Cancel.
func (b *OrderBuilder) IOC() *OrderBuilder {
	return b.TimeInForce(core.IOC)
}

// FOK sets the time-in-force to Fill-Or-Kill.
func (b *OrderBuilder) FOK() *OrderBuilder {
	return b.TimeInForce(core.FOK)
}

// ReduceOnly marks the order as position-reducing only.
func (b *OrderBuilder) ReduceOnly() *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.order.ReduceOnly = true
	return b
}

// ClientOrderID sets a client-assigned identifier for order tracking.
// When unset, Build generates a UUID.
func (b *OrderBuilder) ClientOrderID(id string) *OrderBuilder {
	if b.err != nil {
		return b
	}
	b.order.ClientOrderID = id
	return b
}

// Build validates and returns the constructed order request. Limit orders
// without an explicit time-in-force default to GTC.
func (b *OrderBuilder) Build() (*OrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.order.Type == core.TypeLimit && !b.order.hasTIF {
		b.order.TimeInForce = core.GTC
		b.order.hasTIF = true
	}
	if b.order.ClientOrderID == "" {
		b.order.ClientOrderID = uuid.NewString()
	}
	if err := b.order.validate(); err != nil {
		return nil, err
	}
	return b.order, nil
}
