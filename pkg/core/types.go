package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the string representation of the order side ("BUY" or "SELL").
func (s OrderSide) String() string {
	return [...]string{"BUY", "SELL"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"BUY"`, `"buy"`:
		*s = SideBuy
	case `"SELL"`, `"sell"`:
		*s = SideSell
	}
	return nil
}

// OrderType represents the execution type of a futures order.
type OrderType int

// Order type constants define how an order is executed.
const (
	// TypeMarket executes immediately at the best available price.
	TypeMarket OrderType = iota
	// TypeLimit executes at a specified price or better.
	TypeLimit
	// TypeStop triggers a limit order when price reaches the stop price.
	TypeStop
	// TypeStopMarket triggers a market order when price reaches the stop price.
	TypeStopMarket
	// TypeTakeProfit triggers a limit order when price reaches the target.
	TypeTakeProfit
	// TypeTakeProfitMarket triggers a market order when price reaches the target.
	TypeTakeProfitMarket
)

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return [...]string{"MARKET", "LIMIT", "STOP", "STOP_MARKET", "TAKE_PROFIT", "TAKE_PROFIT_MARKET"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"MARKET"`, `"market"`:
		*t = TypeMarket
	case `"LIMIT"`, `"limit"`:
		*t = TypeLimit
	case `"STOP"`, `"stop"`:
		*t = TypeStop
	case `"STOP_MARKET"`, `"stop_market"`:
		*t = TypeStopMarket
	case `"TAKE_PROFIT"`, `"take_profit"`:
		*t = TypeTakeProfit
	case `"TAKE_PROFIT_MARKET"`, `"take_profit_market"`:
		*t = TypeTakeProfitMarket
	}
	return nil
}

// OrderStatus represents the current state of an order.
type OrderStatus int

// Order status constants define the lifecycle state of an order.
const (
	// StatusNew indicates the order has been accepted by the exchange.
	StatusNew OrderStatus = iota
	// StatusPartiallyFilled indicates the order has been partially filled.
	StatusPartiallyFilled
	// StatusFilled indicates the order has been completely filled.
	StatusFilled
	// StatusCanceled indicates the order has been canceled.
	StatusCanceled
	// StatusRejected indicates the order was rejected by the exchange.
	StatusRejected
	// StatusExpired indicates the order has expired.
	StatusExpired
)

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return [...]string{"NEW", "PARTIALLY_FILLED", "FILLED", "CANCELED", "REJECTED", "EXPIRED"}[s]
}

// IsTerminal returns true if the order is in a terminal state.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusRejected || s == StatusExpired
}

// MarshalJSON implements json.Marshaler for OrderStatus.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderStatus.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"NEW"`, `"new"`:
		*s = StatusNew
	case `"PARTIALLY_FILLED"`, `"partially_filled"`:
		*s = StatusPartiallyFilled
	case `"FILLED"`, `"filled"`:
		*s = StatusFilled
	case `"CANCELED"`, `"canceled"`:
		*s = StatusCanceled
	case `"REJECTED"`, `"rejected"`:
		*s = StatusRejected
	case `"EXPIRED"`, `"expired"`:
		*s = StatusExpired
	}
	return nil
}

// TimeInForce defines how long an order remains active.
type TimeInForce int

// Time in force constants define order lifetime behavior.
const (
	// GTC (Good Till Canceled) keeps the order active until filled or canceled.
	GTC TimeInForce = iota
	// IOC (Immediate Or Cancel) requires immediate execution; unfilled portion is canceled.
	IOC
	// FOK (Fill Or Kill) requires complete immediate execution or cancellation.
	FOK
	// GTX (Good Till Crossing) rests on the book and is rejected if it would take.
	GTX
)

// String returns the string representation of time in force.
func (t TimeInForce) String() string {
	return [...]string{"GTC", "IOC", "FOK", "GTX"}[t]
}

// MarshalJSON implements json.Marshaler for TimeInForce.
func (t TimeInForce) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for TimeInForce.
func (t *TimeInForce) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"GTC"`, `"gtc"`:
		*t = GTC
	case `"IOC"`, `"ioc"`:
		*t = IOC
	case `"FOK"`, `"fok"`:
		*t = FOK
	case `"GTX"`, `"gtx"`:
		*t = GTX
	}
	return nil
}

// PositionSide represents the direction of a futures position.
type PositionSide int

// Position side constants for one-way and hedge position modes.
const (
	// PositionBoth is the single position of one-way mode.
	PositionBoth PositionSide = iota
	// PositionLong is the long leg in hedge mode.
	PositionLong
	// PositionShort is the short leg in hedge mode.
	PositionShort
)

// String returns the string representation of the position side.
func (p PositionSide) String() string {
	return [...]string{"BOTH", "LONG", "SHORT"}[p]
}

// PriceTicker is the latest traded price for a symbol.
type PriceTicker struct {
	// Symbol is the trading pair identifier (e.g., "BTCUSDT").
	Symbol string `json:"symbol"`
	// Price is the price of the most recent trade.
	Price apd.Decimal `json:"price"`
	// Time is when the price was recorded.
	Time time.Time `json:"time"`
}

// Ticker24h contains rolling 24-hour price change statistics for a symbol.
type Ticker24h struct {
	Symbol             string      `json:"symbol"`
	PriceChange        apd.Decimal `json:"price_change"`
	PriceChangePercent apd.Decimal `json:"price_change_percent"`
	LastPrice          apd.Decimal `json:"last_price"`
	OpenPrice          apd.Decimal `json:"open_price"`
	HighPrice          apd.Decimal `json:"high_price"`
	LowPrice           apd.Decimal `json:"low_price"`
	// Volume is the base asset volume over the window.
	Volume apd.Decimal `json:"volume"`
	// QuoteVolume is the quote asset volume over the window.
	QuoteVolume apd.Decimal `json:"quote_volume"`
	OpenTime    time.Time   `json:"open_time"`
	CloseTime   time.Time   `json:"close_time"`
	// Count is the number of trades in the window.
	Count int64 `json:"count"`
}

// BookTicker is the best bid and ask currently on the order book.
type BookTicker struct {
	Symbol   string      `json:"symbol"`
	BidPrice apd.Decimal `json:"bid_price"`
	BidQty   apd.Decimal `json:"bid_qty"`
	AskPrice apd.Decimal `json:"ask_price"`
	AskQty   apd.Decimal `json:"ask_qty"`
	Time     time.Time   `json:"time"`
}

// FundingRate is a single historical funding rate settlement.
type FundingRate struct {
	Symbol      string      `json:"symbol"`
	Rate        apd.Decimal `json:"rate"`
	FundingTime time.Time   `json:"funding_time"`
}

// SymbolInfo describes a tradable symbol from the exchange metadata.
type SymbolInfo struct {
	Symbol            string `json:"symbol"`
	Status            string `json:"status"`
	BaseAsset         string `json:"base_asset"`
	QuoteAsset        string `json:"quote_asset"`
	PricePrecision    int    `json:"price_precision"`
	QuantityPrecision int    `json:"quantity_precision"`
}

// ExchangeInfo is the exchange metadata snapshot: server time and the set
// of tradable symbols.
type ExchangeInfo struct {
	Timezone   string       `json:"timezone"`
	ServerTime time.Time    `json:"server_time"`
	Symbols    []SymbolInfo `json:"symbols"`
}

// Kline represents a candlestick/OHLCV data point for a time period.
type Kline struct {
	Symbol    string      `json:"symbol"`
	OpenTime  time.Time   `json:"open_time"`
	Open      apd.Decimal `json:"open"`
	High      apd.Decimal `json:"high"`
	Low       apd.Decimal `json:"low"`
	Close     apd.Decimal `json:"close"`
	Volume    apd.Decimal `json:"volume"`
	CloseTime time.Time   `json:"close_time"`
	// QuoteVolume is the total value traded in quote currency.
	QuoteVolume apd.Decimal `json:"quote_volume"`
	// NumTrades is the number of trades executed during the period.
	NumTrades int64 `json:"num_trades"`
}

// PriceLevel represents a single price level in the order book.
type PriceLevel struct {
	Price    apd.Decimal `json:"price"`
	Quantity apd.Decimal `json:"quantity"`
}

// OrderBook represents a depth snapshot for a trading pair.
type OrderBook struct {
	Symbol string `json:"symbol"`
	// LastUpdateID orders snapshots relative to stream updates.
	LastUpdateID int64 `json:"last_update_id"`
	// Bids are buy orders sorted by price descending.
	Bids []PriceLevel `json:"bids"`
	// Asks are sell orders sorted by price ascending.
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// Balance represents the futures wallet balance for a single asset.
type Balance struct {
	// Asset is the currency symbol (e.g., "USDT").
	Asset string `json:"asset"`
	// Total is the wallet balance including unrealized PnL.
	Total apd.Decimal `json:"total"`
	// Available is the balance usable for new positions and orders.
	Available apd.Decimal `json:"available"`
	// CrossWallet is the balance allocated to cross-margin positions.
	CrossWallet apd.Decimal `json:"cross_wallet"`
}

// Position represents a single open futures position.
type Position struct {
	Symbol string       `json:"symbol"`
	Side   PositionSide `json:"side"`
	// Quantity is the signed position size (negative for shorts in one-way mode).
	Quantity         apd.Decimal `json:"quantity"`
	EntryPrice       apd.Decimal `json:"entry_price"`
	MarkPrice        apd.Decimal `json:"mark_price"`
	UnrealizedPnL    apd.Decimal `json:"unrealized_pnl"`
	LiquidationPrice apd.Decimal `json:"liquidation_price"`
	Leverage         int         `json:"leverage"`
	Isolated         bool        `json:"isolated"`
}

// AccountInfo is the account-level snapshot: trading permissions and
// aggregate margin balances.
type AccountInfo struct {
	CanTrade           bool        `json:"can_trade"`
	CanDeposit         bool        `json:"can_deposit"`
	CanWithdraw        bool        `json:"can_withdraw"`
	TotalWalletBalance apd.Decimal `json:"total_wallet_balance"`
	TotalUnrealizedPnL apd.Decimal `json:"total_unrealized_pnl"`
	TotalMarginBalance apd.Decimal `json:"total_margin_balance"`
	AvailableBalance   apd.Decimal `json:"available_balance"`
	Assets             []Balance   `json:"assets"`
	Positions          []Position  `json:"positions"`
	UpdateTime         time.Time   `json:"update_time"`
}

// Order represents an exchange order with all its details.
type Order struct {
	// ID is the exchange-assigned order identifier.
	ID int64 `json:"id"`
	// ClientOrderID is the client-assigned order identifier.
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          OrderSide `json:"side"`
	Type          OrderType `json:"type"`
	// Price is the limit price, zero for market orders.
	Price apd.Decimal `json:"price"`
	// AvgPrice is the average fill price so far.
	AvgPrice apd.Decimal `json:"avg_price"`
	Quantity apd.Decimal `json:"quantity"`
	// FilledQuantity is the amount that has been executed.
	FilledQuantity apd.Decimal `json:"filled_quantity"`
	// RemainingQty is the unfilled portion of the order.
	RemainingQty apd.Decimal `json:"remaining_quantity"`
	Status       OrderStatus `json:"status"`
	TimeInForce  TimeInForce `json:"time_in_force"`
	ReduceOnly   bool        `json:"reduce_only"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// CommissionRate holds the maker and taker fee rates for a symbol.
type CommissionRate struct {
	Symbol string      `json:"symbol"`
	Maker  apd.Decimal `json:"maker"`
	Taker  apd.Decimal `json:"taker"`
}
