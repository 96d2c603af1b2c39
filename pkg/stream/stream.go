// Package stream provides typed market data streams over the exchange
// websocket. Each subscription sends a SUBSCRIBE frame, decodes matching
// events into typed values, and delivers them on a channel until its
// context is cancelled or the stream is closed. Reconnection is handled
// by the underlying websocket client.
package stream

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"asterex/internal/ws"
	"asterex/pkg/core"
)

// socket is the slice of the websocket client the stream layer needs.
type socket interface {
	Connect(ctx context.Context) error
	Close() error
	Frames(name string) <-chan []byte
	Drop(name string)
	SendJSON(v any) error
	IsConnected() bool
}

// request is a stream management frame.
type request struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// Streams multiplexes typed market data subscriptions over one websocket
// connection.
type Streams struct {
	sock       socket
	logger     zerolog.Logger
	bufferSize int
	nextID     atomic.Int64
}

// Option configures a Streams instance.
type Option func(*Streams)

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Streams) { s.logger = logger }
}

// WithBufferSize sets the per-subscription event buffer capacity.
func WithBufferSize(n int) Option {
	return func(s *Streams) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// New creates a stream multiplexer for the given client configuration.
// Call Connect before subscribing.
func New(config *core.Config, opts ...Option) *Streams {
	s := newStreams(ws.NewClient(ws.Config{
		URL:              config.WebsocketURL(),
		ReconnectEnabled: true,
	}), opts...)
	if wsClient, ok := s.sock.(*ws.Client); ok {
		wsClient.SetLogger(s.logger)
	}
	return s
}

func newStreams(sock socket, opts ...Option) *Streams {
	s := &Streams{
		sock:       sock,
		logger:     zerolog.Nop(),
		bufferSize: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect establishes the websocket connection.
func (s *Streams) Connect(ctx context.Context) error {
	return s.sock.Connect(ctx)
}

// Close shuts down the connection and all subscriptions.
func (s *Streams) Close() error {
	return s.sock.Close()
}

// IsConnected reports whether the websocket is connected.
func (s *Streams) IsConnected() bool {
	return s.sock.IsConnected()
}

// Ticker subscribes to rolling 24-hour statistics for a symbol.
func (s *Streams) Ticker(ctx context.Context, symbol string) (<-chan TickerEvent, error) {
	name := streamName(symbol, "ticker")
	return subscribe(s, ctx, name, symbol, eventTicker, decodeTicker)
}

// Klines subscribes to candlestick updates for a symbol and interval.
func (s *Streams) Klines(ctx context.Context, symbol, interval string) (<-chan KlineEvent, error) {
	if interval == "" {
		interval = "1m"
	}
	name := streamName(symbol, "kline_"+interval)
	return subscribe(s, ctx, name, symbol, eventKline, decodeKline)
}

// Depth subscribes to incremental order book updates for a symbol.
func (s *Streams) Depth(ctx context.Context, symbol string) (<-chan DepthEvent, error) {
	name := streamName(symbol, "depth")
	return subscribe(s, ctx, name, symbol, eventDepth, decodeDepth)
}

// AggTrades subscribes to aggregated trades for a symbol.
func (s *Streams) AggTrades(ctx context.Context, symbol string) (<-chan AggTradeEvent, error) {
	name := streamName(symbol, "aggTrade")
	return subscribe(s, ctx, name, symbol, eventAggTrade, decodeAggTrade)
}

// subscribe registers a frame subscriber, announces the stream to the
// server, and pumps decoded events until ctx is cancelled or the frame
// channel closes.
func subscribe[T any](s *Streams, ctx context.Context, name, symbol, eventType string, decode func([]byte) (T, error)) (<-chan T, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	frames := s.sock.Frames(name)
	if err := s.send("SUBSCRIBE", name); err != nil {
		s.sock.Drop(name)
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}
	s.logger.Info().Str("stream", name).Msg("subscribed")

	wantSymbol := strings.ToUpper(symbol)
	out := make(chan T, s.bufferSize)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				if err := s.send("UNSUBSCRIBE", name); err != nil {
					s.logger.Debug().Err(err).Str("stream", name).Msg("unsubscribe failed")
				}
				s.sock.Drop(name)
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				env, err := envelope(frame)
				if err != nil {
					s.logger.Warn().Err(err).Str("stream", name).Msg("unreadable frame")
					continue
				}
				if env.Event != eventType || env.Symbol != wantSymbol {
					continue
				}
				event, err := decode(frame)
				if err != nil {
					s.logger.Warn().Err(err).Str("stream", name).Msg("dropping malformed event")
					continue
				}
				select {
				case out <- event:
				default:
					s.logger.Warn().Str("stream", name).Msg("event buffer full, dropping")
				}
			}
		}
	}()
	return out, nil
}

func (s *Streams) send(method, stream string) error {
	return s.sock.SendJSON(request{
		Method: method,
		Params: []string{stream},
		ID:     s.nextID.Add(1),
	})
}

func streamName(symbol, suffix string) string {
	return strings.ToLower(symbol) + "@" + suffix
}
