package futures

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"asterex/pkg/core"
)

// wireServerTime is the raw server time response.
type wireServerTime struct {
	ServerTime int64 `json:"serverTime"`
}

// wirePriceTicker is the raw latest-price response.
type wirePriceTicker struct {
	Symbol string      `json:"symbol"`
	Price  apd.Decimal `json:"price"`
	Time   int64       `json:"time"`
}

// wireTicker24h is the raw 24-hour statistics response.
type wireTicker24h struct {
	Symbol             string      `json:"symbol"`
	PriceChange        apd.Decimal `json:"priceChange"`
	PriceChangePercent apd.Decimal `json:"priceChangePercent"`
	LastPrice          apd.Decimal `json:"lastPrice"`
	OpenPrice          apd.Decimal `json:"openPrice"`
	HighPrice          apd.Decimal `json:"highPrice"`
	LowPrice           apd.Decimal `json:"lowPrice"`
	Volume             apd.Decimal `json:"volume"`
	QuoteVolume        apd.Decimal `json:"quoteVolume"`
	OpenTime           int64       `json:"openTime"`
	CloseTime          int64       `json:"closeTime"`
	Count              int64       `json:"count"`
}

// wireBookTicker is the raw best bid/ask response.
type wireBookTicker struct {
	Symbol   string      `json:"symbol"`
	BidPrice apd.Decimal `json:"bidPrice"`
	BidQty   apd.Decimal `json:"bidQty"`
	AskPrice apd.Decimal `json:"askPrice"`
	AskQty   apd.Decimal `json:"askQty"`
	Time     int64       `json:"time"`
}

// wireFundingRate is one raw funding rate settlement.
type wireFundingRate struct {
	Symbol      string      `json:"symbol"`
	FundingRate apd.Decimal `json:"fundingRate"`
	FundingTime int64       `json:"fundingTime"`
}

// wireExchangeInfo is the raw exchange metadata response.
type wireExchangeInfo struct {
	Timezone   string           `json:"timezone"`
	ServerTime int64            `json:"serverTime"`
	Symbols    []wireSymbolInfo `json:"symbols"`
}

type wireSymbolInfo struct {
	Symbol            string `json:"symbol"`
	Status            string `json:"status"`
	BaseAsset         string `json:"baseAsset"`
	QuoteAsset        string `json:"quoteAsset"`
	PricePrecision    int    `json:"pricePrecision"`
	QuantityPrecision int    `json:"quantityPrecision"`
}

// wireKline is a raw candlestick array:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...].
type wireKline []any

// wireDepth is the raw order book snapshot with levels as [price, qty] pairs.
type wireDepth struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Time         int64       `json:"E"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// wireBalance is one asset entry of the raw balance response.
type wireBalance struct {
	Asset            string      `json:"asset"`
	Balance          apd.Decimal `json:"balance"`
	AvailableBalance apd.Decimal `json:"availableBalance"`
	CrossWallet      apd.Decimal `json:"crossWalletBalance"`
}

// wireAccountAsset is one asset entry of the raw account response.
type wireAccountAsset struct {
	Asset            string      `json:"asset"`
	WalletBalance    apd.Decimal `json:"walletBalance"`
	AvailableBalance apd.Decimal `json:"availableBalance"`
	CrossWallet      apd.Decimal `json:"crossWalletBalance"`
}

// wirePosition is one raw position entry (account response or positionRisk).
type wirePosition struct {
	Symbol           string      `json:"symbol"`
	PositionSide     string      `json:"positionSide"`
	PositionAmt      apd.Decimal `json:"positionAmt"`
	EntryPrice       apd.Decimal `json:"entryPrice"`
	MarkPrice        apd.Decimal `json:"markPrice"`
	UnrealizedProfit apd.Decimal `json:"unRealizedProfit"`
	LiquidationPrice apd.Decimal `json:"liquidationPrice"`
	Leverage         apd.Decimal `json:"leverage"`
	MarginType       string      `json:"marginType"`
}

// wireAccount is the raw account information response.
type wireAccount struct {
	CanTrade           bool               `json:"canTrade"`
	CanDeposit         bool               `json:"canDeposit"`
	CanWithdraw        bool               `json:"canWithdraw"`
	TotalWalletBalance apd.Decimal        `json:"totalWalletBalance"`
	TotalUnrealized    apd.Decimal        `json:"totalUnrealizedProfit"`
	TotalMarginBalance apd.Decimal        `json:"totalMarginBalance"`
	AvailableBalance   apd.Decimal        `json:"availableBalance"`
	Assets             []wireAccountAsset `json:"assets"`
	Positions          []wirePosition     `json:"positions"`
	UpdateTime         int64              `json:"updateTime"`
}

// wireOrder is the raw order response.
type wireOrder struct {
	OrderID       int64       `json:"orderId"`
	ClientOrderID string      `json:"clientOrderId"`
	Symbol        string      `json:"symbol"`
	Status        string      `json:"status"`
	Price         apd.Decimal `json:"price"`
	AvgPrice      apd.Decimal `json:"avgPrice"`
	OrigQty       apd.Decimal `json:"origQty"`
	ExecutedQty   apd.Decimal `json:"executedQty"`
	Side          string      `json:"side"`
	Type          string      `json:"type"`
	TimeInForce   string      `json:"timeInForce"`
	ReduceOnly    bool        `json:"reduceOnly"`
	Time          int64       `json:"time"`
	UpdateTime    int64       `json:"updateTime"`
}

// wireCommissionRate is the raw commission rate response.
type wireCommissionRate struct {
	Symbol string      `json:"symbol"`
	Maker  apd.Decimal `json:"makerCommissionRate"`
	Taker  apd.Decimal `json:"takerCommissionRate"`
}

// wireAPIError is the error body the exchange attaches to non-2xx responses.
type wireAPIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Normalizer converts raw exchange responses to canonical core types.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizePriceTicker converts a raw price ticker to a canonical PriceTicker.
func (n *Normalizer) NormalizePriceTicker(data *wirePriceTicker) *core.PriceTicker {
	return &core.PriceTicker{
		Symbol: data.Symbol,
		Price:  data.Price,
		Time:   time.UnixMilli(data.Time),
	}
}

// NormalizeTicker24h converts raw 24-hour statistics to a canonical Ticker24h.
func (n *Normalizer) NormalizeTicker24h(data *wireTicker24h) *core.Ticker24h {
	return &core.Ticker24h{
		Symbol:             data.Symbol,
		PriceChange:        data.PriceChange,
		PriceChangePercent: data.PriceChangePercent,
		LastPrice:          data.LastPrice,
		OpenPrice:          data.OpenPrice,
		HighPrice:          data.HighPrice,
		LowPrice:           data.LowPrice,
		Volume:             data.Volume,
		QuoteVolume:        data.QuoteVolume,
		OpenTime:           time.UnixMilli(data.OpenTime),
		CloseTime:          time.UnixMilli(data.CloseTime),
		Count:              data.Count,
	}
}

// NormalizeBookTicker converts a raw book ticker to a canonical BookTicker.
func (n *Normalizer) NormalizeBookTicker(data *wireBookTicker) *core.BookTicker {
	return &core.BookTicker{
		Symbol:   data.Symbol,
		BidPrice: data.BidPrice,
		BidQty:   data.BidQty,
		AskPrice: data.AskPrice,
		AskQty:   data.AskQty,
		Time:     time.UnixMilli(data.Time),
	}
}

// NormalizeFundingRates converts raw funding settlements to canonical records.
func (n *Normalizer) NormalizeFundingRates(data []wireFundingRate) []core.FundingRate {
	rates := make([]core.FundingRate, 0, len(data))
	for _, r := range data {
		rates = append(rates, core.FundingRate{
			Symbol:      r.Symbol,
			Rate:        r.FundingRate,
			FundingTime: time.UnixMilli(r.FundingTime),
		})
	}
	return rates
}

// NormalizeExchangeInfo converts raw exchange metadata to canonical ExchangeInfo.
func (n *Normalizer) NormalizeExchangeInfo(data *wireExchangeInfo) *core.ExchangeInfo {
	info := &core.ExchangeInfo{
		Timezone:   data.Timezone,
		ServerTime: time.UnixMilli(data.ServerTime),
		Symbols:    make([]core.SymbolInfo, 0, len(data.Symbols)),
	}
	for _, s := range data.Symbols {
		info.Symbols = append(info.Symbols, core.SymbolInfo{
			Symbol:            s.Symbol,
			Status:            s.Status,
			BaseAsset:         s.BaseAsset,
			QuoteAsset:        s.QuoteAsset,
			PricePrecision:    s.PricePrecision,
			QuantityPrecision: s.QuantityPrecision,
		})
	}
	return info
}

// NormalizeKlines converts raw candlestick arrays to canonical Klines.
// Each array carries numbers and decimal strings in fixed positions.
func (n *Normalizer) NormalizeKlines(symbol string, data []wireKline) ([]core.Kline, error) {
	klines := make([]core.Kline, 0, len(data))
	for i, raw := range data {
		if len(raw) < 9 {
			return nil, fmt.Errorf("kline %d: expected at least 9 fields, got %d", i, len(raw))
		}
		k := core.Kline{
			Symbol:    symbol,
			OpenTime:  time.UnixMilli(asInt64(raw[0])),
			CloseTime: time.UnixMilli(asInt64(raw[6])),
			NumTrades: asInt64(raw[8]),
		}
		for _, f := range []struct {
			dst *apd.Decimal
			idx int
		}{
			{&k.Open, 1}, {&k.High, 2}, {&k.Low, 3}, {&k.Close, 4},
			{&k.Volume, 5}, {&k.QuoteVolume, 7},
		} {
			if err := setDecimalField(f.dst, raw[f.idx]); err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, f.idx, err)
			}
		}
		klines = append(klines, k)
	}
	return klines, nil
}

// NormalizeDepth converts a raw depth snapshot to a canonical OrderBook.
func (n *Normalizer) NormalizeDepth(symbol string, data *wireDepth) (*core.OrderBook, error) {
	book := &core.OrderBook{
		Symbol:       symbol,
		LastUpdateID: data.LastUpdateID,
		Bids:         make([]core.PriceLevel, 0, len(data.Bids)),
		Asks:         make([]core.PriceLevel, 0, len(data.Asks)),
	}
	if data.Time > 0 {
		book.Timestamp = time.UnixMilli(data.Time)
	}
	for _, b := range data.Bids {
		level, err := parsePriceLevel(b)
		if err != nil {
			return nil, fmt.Errorf("bid level: %w", err)
		}
		book.Bids = append(book.Bids, level)
	}
	for _, a := range data.Asks {
		level, err := parsePriceLevel(a)
		if err != nil {
			return nil, fmt.Errorf("ask level: %w", err)
		}
		book.Asks = append(book.Asks, level)
	}
	return book, nil
}

// NormalizeBalances converts raw balance entries to canonical Balances.
func (n *Normalizer) NormalizeBalances(data []wireBalance) []core.Balance {
	balances := make([]core.Balance, 0, len(data))
	for _, b := range data {
		balances = append(balances, core.Balance{
			Asset:       b.Asset,
			Total:       b.Balance,
			Available:   b.AvailableBalance,
			CrossWallet: b.CrossWallet,
		})
	}
	return balances
}

// NormalizePositions converts raw position entries to canonical Positions.
// Entries with a zero quantity (flat symbols) are dropped.
func (n *Normalizer) NormalizePositions(data []wirePosition) []core.Position {
	positions := make([]core.Position, 0, len(data))
	for _, p := range data {
		if p.PositionAmt.IsZero() {
			continue
		}
		leverage, _ := p.Leverage.Int64()
		positions = append(positions, core.Position{
			Symbol:           p.Symbol,
			Side:             parsePositionSide(p.PositionSide),
			Quantity:         p.PositionAmt,
			EntryPrice:       p.EntryPrice,
			MarkPrice:        p.MarkPrice,
			UnrealizedPnL:    p.UnrealizedProfit,
			LiquidationPrice: p.LiquidationPrice,
			Leverage:         int(leverage),
			Isolated:         strings.EqualFold(p.MarginType, "isolated"),
		})
	}
	return positions
}

// NormalizeAccount converts the raw account response to canonical AccountInfo.
func (n *Normalizer) NormalizeAccount(data *wireAccount) *core.AccountInfo {
	account := &core.AccountInfo{
		CanTrade:           data.CanTrade,
		CanDeposit:         data.CanDeposit,
		CanWithdraw:        data.CanWithdraw,
		TotalWalletBalance: data.TotalWalletBalance,
		TotalUnrealizedPnL: data.TotalUnrealized,
		TotalMarginBalance: data.TotalMarginBalance,
		AvailableBalance:   data.AvailableBalance,
		Assets:             make([]core.Balance, 0, len(data.Assets)),
		Positions:          n.NormalizePositions(data.Positions),
		UpdateTime:         time.UnixMilli(data.UpdateTime),
	}
	for _, a := range data.Assets {
		account.Assets = append(account.Assets, core.Balance{
			Asset:       a.Asset,
			Total:       a.WalletBalance,
			Available:   a.AvailableBalance,
			CrossWallet: a.CrossWallet,
		})
	}
	return account
}

// NormalizeOrder converts a raw order response to a canonical Order.
// The remaining quantity is derived from total and filled quantities.
func (n *Normalizer) NormalizeOrder(data *wireOrder) (*core.Order, error) {
	order := &core.Order{
		ID:             data.OrderID,
		ClientOrderID:  data.ClientOrderID,
		Symbol:         data.Symbol,
		Side:           parseOrderSide(data.Side),
		Type:           parseOrderType(data.Type),
		Status:         parseOrderStatus(data.Status),
		TimeInForce:    parseTimeInForce(data.TimeInForce),
		Price:          data.Price,
		AvgPrice:       data.AvgPrice,
		Quantity:       data.OrigQty,
		FilledQuantity: data.ExecutedQty,
		ReduceOnly:     data.ReduceOnly,
	}
	if data.Time > 0 {
		order.CreatedAt = time.UnixMilli(data.Time)
	}
	if data.UpdateTime > 0 {
		order.UpdatedAt = time.UnixMilli(data.UpdateTime)
	}

	var remaining apd.Decimal
	if _, err := apd.BaseContext.Sub(&remaining, &order.Quantity, &order.FilledQuantity); err != nil {
		return nil, fmt.Errorf("calculate remaining: %w", err)
	}
	order.RemainingQty = remaining
	return order, nil
}

// NormalizeOrders converts a slice of raw orders to canonical Orders.
func (n *Normalizer) NormalizeOrders(data []wireOrder) ([]core.Order, error) {
	orders := make([]core.Order, 0, len(data))
	for i := range data {
		order, err := n.NormalizeOrder(&data[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// NormalizeCommissionRate converts a raw commission rate to a canonical record.
func (n *Normalizer) NormalizeCommissionRate(data *wireCommissionRate) *core.CommissionRate {
	return &core.CommissionRate{
		Symbol: data.Symbol,
		Maker:  data.Maker,
		Taker:  data.Taker,
	}
}

func parsePriceLevel(pair [2]string) (core.PriceLevel, error) {
	var level core.PriceLevel
	if _, _, err := level.Price.SetString(pair[0]); err != nil {
		return level, fmt.Errorf("price %q: %w", pair[0], err)
	}
	if _, _, err := level.Quantity.SetString(pair[1]); err != nil {
		return level, fmt.Errorf("quantity %q: %w", pair[1], err)
	}
	return level, nil
}

func setDecimalField(dst *apd.Decimal, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected decimal string, got %T", v)
	}
	if _, _, err := dst.SetString(s); err != nil {
		return err
	}
	return nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func parseOrderSide(s string) core.OrderSide {
	if strings.EqualFold(s, "SELL") {
		return core.SideSell
	}
	return core.SideBuy
}

func parseOrderType(s string) core.OrderType {
	switch strings.ToUpper(s) {
	case "LIMIT":
		return core.TypeLimit
	case "STOP":
		return core.TypeStop
	case "STOP_MARKET":
		return core.TypeStopMarket
	case "TAKE_PROFIT":
		return core.TypeTakeProfit
	case "TAKE_PROFIT_MARKET":
		return core.TypeTakeProfitMarket
	default:
		return core.TypeMarket
	}
}

func parseOrderStatus(s string) core.OrderStatus {
	switch strings.ToUpper(s) {
	case "PARTIALLY_FILLED":
		return core.StatusPartiallyFilled
	case "FILLED":
		return core.StatusFilled
	case "CANCELED":
		return core.StatusCanceled
	case "REJECTED":
		return core.StatusRejected
	case "EXPIRED":
		return core.StatusExpired
	default:
		return core.StatusNew
	}
}

func parseTimeInForce(s string) core.TimeInForce {
	switch strings.ToUpper(s) {
	case "IOC":
		return core.IOC
	case "FOK":
		return core.FOK
	case "GTX":
		return core.GTX
	default:
		return core.GTC
	}
}

func parsePositionSide(s string) core.PositionSide {
	switch strings.ToUpper(s) {
	case "LONG":
		return core.PositionLong
	case "SHORT":
		return core.PositionShort
	default:
		return core.PositionBoth
	}
}
