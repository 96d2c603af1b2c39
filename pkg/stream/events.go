package stream

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"asterex/pkg/core"
)

// Wire event type tags.
const (
	eventTicker   = "24hrTicker"
	eventKline    = "kline"
	eventDepth    = "depthUpdate"
	eventAggTrade = "aggTrade"
)

// TickerEvent is a rolling 24-hour statistics update.
type TickerEvent struct {
	Symbol             string      `json:"symbol"`
	Time               time.Time   `json:"time"`
	LastPrice          apd.Decimal `json:"last_price"`
	PriceChange        apd.Decimal `json:"price_change"`
	PriceChangePercent apd.Decimal `json:"price_change_percent"`
	Open               apd.Decimal `json:"open"`
	High               apd.Decimal `json:"high"`
	Low                apd.Decimal `json:"low"`
	Volume             apd.Decimal `json:"volume"`
	QuoteVolume        apd.Decimal `json:"quote_volume"`
}

// KlineEvent is a candlestick update. Closed is true once the candle's
// interval has elapsed; until then the same candle is updated in place.
type KlineEvent struct {
	Symbol   string     `json:"symbol"`
	Interval string     `json:"interval"`
	Time     time.Time  `json:"time"`
	Kline    core.Kline `json:"kline"`
	Closed   bool       `json:"closed"`
}

// DepthEvent is an incremental order book update. Levels with zero
// quantity have been removed from the book.
type DepthEvent struct {
	Symbol        string            `json:"symbol"`
	Time          time.Time         `json:"time"`
	FirstUpdateID int64             `json:"first_update_id"`
	LastUpdateID  int64             `json:"last_update_id"`
	Bids          []core.PriceLevel `json:"bids"`
	Asks          []core.PriceLevel `json:"asks"`
}

// AggTradeEvent is one aggregated trade.
type AggTradeEvent struct {
	Symbol       string      `json:"symbol"`
	Time         time.Time   `json:"time"`
	TradeID      int64       `json:"trade_id"`
	Price        apd.Decimal `json:"price"`
	Quantity     apd.Decimal `json:"quantity"`
	TradeTime    time.Time   `json:"trade_time"`
	BuyerIsMaker bool        `json:"buyer_is_maker"`
}

// wireEnvelope carries just enough of a frame to route it.
type wireEnvelope struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
}

type wireTickerEvent struct {
	Event              string      `json:"e"`
	Time               int64       `json:"E"`
	Symbol             string      `json:"s"`
	PriceChange        apd.Decimal `json:"p"`
	PriceChangePercent apd.Decimal `json:"P"`
	LastPrice          apd.Decimal `json:"c"`
	Open               apd.Decimal `json:"o"`
	High               apd.Decimal `json:"h"`
	Low                apd.Decimal `json:"l"`
	Volume             apd.Decimal `json:"v"`
	QuoteVolume        apd.Decimal `json:"q"`
}

type wireKlineEvent struct {
	Event  string `json:"e"`
	Time   int64  `json:"E"`
	Symbol string `json:"s"`
	Kline  struct {
		OpenTime    int64       `json:"t"`
		CloseTime   int64       `json:"T"`
		Symbol      string      `json:"s"`
		Interval    string      `json:"i"`
		Open        apd.Decimal `json:"o"`
		Close       apd.Decimal `json:"c"`
		High        apd.Decimal `json:"h"`
		Low         apd.Decimal `json:"l"`
		Volume      apd.Decimal `json:"v"`
		QuoteVolume apd.Decimal `json:"q"`
		NumTrades   int64       `json:"n"`
		Closed      bool        `json:"x"`
	} `json:"k"`
}

type wireDepthEvent struct {
	Event         string      `json:"e"`
	Time          int64       `json:"E"`
	Symbol        string      `json:"s"`
	FirstUpdateID int64       `json:"U"`
	LastUpdateID  int64       `json:"u"`
	Bids          [][2]string `json:"b"`
	Asks          [][2]string `json:"a"`
}

type wireAggTradeEvent struct {
	Event        string      `json:"e"`
	Time         int64       `json:"E"`
	Symbol       string      `json:"s"`
	TradeID      int64       `json:"a"`
	Price        apd.Decimal `json:"p"`
	Quantity     apd.Decimal `json:"q"`
	TradeTime    int64       `json:"T"`
	BuyerIsMaker bool        `json:"m"`
}

// envelope peeks at a frame's routing fields. Frames that are not market
// events (e.g. subscription acks) decode to an empty envelope.
func envelope(frame []byte) (wireEnvelope, error) {
	var env wireEnvelope
	if err := sonic.Unmarshal(frame, &env); err != nil {
		return env, fmt.Errorf("decode frame envelope: %w", err)
	}
	return env, nil
}

func decodeTicker(frame []byte) (TickerEvent, error) {
	var w wireTickerEvent
	if err := sonic.Unmarshal(frame, &w); err != nil {
		return TickerEvent{}, fmt.Errorf("decode ticker event: %w", err)
	}
	return TickerEvent{
		Symbol:             w.Symbol,
		Time:               time.UnixMilli(w.Time).UTC(),
		LastPrice:          w.LastPrice,
		PriceChange:        w.PriceChange,
		PriceChangePercent: w.PriceChangePercent,
		Open:               w.Open,
		High:               w.High,
		Low:                w.Low,
		Volume:             w.Volume,
		QuoteVolume:        w.QuoteVolume,
	}, nil
}

func decodeKline(frame []byte) (KlineEvent, error) {
	var w wireKlineEvent
	if err := sonic.Unmarshal(frame, &w); err != nil {
		return KlineEvent{}, fmt.Errorf("decode kline event: %w", err)
	}
	return KlineEvent{
		Symbol:   w.Symbol,
		Interval: w.Kline.Interval,
		Time:     time.UnixMilli(w.Time).UTC(),
		Kline: core.Kline{
			Symbol:      w.Symbol,
			OpenTime:    time.UnixMilli(w.Kline.OpenTime).UTC(),
			Open:        w.Kline.Open,
			High:        w.Kline.High,
			Low:         w.Kline.Low,
			Close:       w.Kline.Close,
			Volume:      w.Kline.Volume,
			CloseTime:   time.UnixMilli(w.Kline.CloseTime).UTC(),
			QuoteVolume: w.Kline.QuoteVolume,
			NumTrades:   w.Kline.NumTrades,
		},
		Closed: w.Kline.Closed,
	}, nil
}

func decodeDepth(frame []byte) (DepthEvent, error) {
	var w wireDepthEvent
	if err := sonic.Unmarshal(frame, &w); err != nil {
		return DepthEvent{}, fmt.Errorf("decode depth event: %w", err)
	}
	bids, err := parseLevels(w.Bids)
	if err != nil {
		return DepthEvent{}, fmt.Errorf("parse bids: %w", err)
	}
	asks, err := parseLevels(w.Asks)
	if err != nil {
		return DepthEvent{}, fmt.Errorf("parse asks: %w", err)
	}
	return DepthEvent{
		Symbol:        w.Symbol,
		Time:          time.UnixMilli(w.Time).UTC(),
		FirstUpdateID: w.FirstUpdateID,
		LastUpdateID:  w.LastUpdateID,
		Bids:          bids,
		Asks:          asks,
	}, nil
}

func decodeAggTrade(frame []byte) (AggTradeEvent, error) {
	var w wireAggTradeEvent
	if err := sonic.Unmarshal(frame, &w); err != nil {
		return AggTradeEvent{}, fmt.Errorf("decode trade event: %w", err)
	}
	return AggTradeEvent{
		Symbol:       w.Symbol,
		Time:         time.UnixMilli(w.Time).UTC(),
		TradeID:      w.TradeID,
		Price:        w.Price,
		Quantity:     w.Quantity,
		TradeTime:    time.UnixMilli(w.TradeTime).UTC(),
		BuyerIsMaker: w.BuyerIsMaker,
	}, nil
}

func parseLevels(raw [][2]string) ([]core.PriceLevel, error) {
	levels := make([]core.PriceLevel, len(raw))
	for i, pair := range raw {
		if _, _, err := levels[i].Price.SetString(pair[0]); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", pair[0], err)
		}
		if _, _, err := levels[i].Quantity.SetString(pair[1]); err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", pair[1], err)
		}
	}
	return levels, nil
}
