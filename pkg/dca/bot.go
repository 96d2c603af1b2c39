// Package dca implements a dollar-cost-averaging bot: it buys a fixed
// quote-currency amount of a symbol at a fixed interval until a purchase
// cap is reached. The loop is cooperative; it runs only while Run's context
// is alive and owns no background state beyond its purchase history.
package dca

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"asterex/internal/console"
	"asterex/pkg/core"
	"asterex/pkg/futures"
)

// Exchange is the slice of the futures client the bot needs.
type Exchange interface {
	TickerPrice(ctx context.Context, symbol string) (*core.PriceTicker, error)
	Balances(ctx context.Context) ([]core.Balance, error)
	PlaceOrder(ctx context.Context, order *futures.OrderRequest) (*core.Order, error)
}

// Config holds the bot parameters.
type Config struct {
	// Symbol is the trading pair to accumulate.
	Symbol string `json:"symbol" validate:"required"`
	// QuoteAsset is the balance checked before each purchase.
	QuoteAsset string `json:"quote_asset" validate:"required"`
	// Amount is the quote-currency amount spent per purchase.
	Amount float64 `json:"amount" validate:"gt=0"`
	// Interval is the time between purchases.
	Interval time.Duration `json:"interval" validate:"min=1s"`
	// MaxPurchases caps the total number of purchases; zero means no cap.
	MaxPurchases int `json:"max_purchases" validate:"min=0"`
	// QuantityPrecision is the number of decimal places for order quantity.
	QuantityPrecision int `json:"quantity_precision" validate:"min=0,max=8"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Purchase is one executed buy.
type Purchase struct {
	Time     time.Time `json:"time"`
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Spent    float64   `json:"spent"`
	OrderID  int64     `json:"order_id"`
}

// Bot runs the purchase schedule.
type Bot struct {
	config   Config
	exchange Exchange
	logger   zerolog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	history []Purchase
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithClock overrides the time source. Tests use a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.clock = now }
}

// New creates a Bot for the given exchange.
func New(config Config, exchange Exchange, opts ...Option) (*Bot, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dca config: %w", err)
	}
	if exchange == nil {
		return nil, fmt.Errorf("exchange is required")
	}
	b := &Bot{
		config:   config,
		exchange: exchange,
		logger:   zerolog.Nop(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Done reports whether the purchase cap has been reached.
func (b *Bot) Done() bool {
	if b.config.MaxPurchases == 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.history) >= b.config.MaxPurchases
}

// RunCycle performs one purchase: it checks the cap and the available
// quote balance, fetches the price, sizes the order, and places a market
// buy. Exactly one order is placed per successful cycle.
func (b *Bot) RunCycle(ctx context.Context) (*Purchase, error) {
	if b.Done() {
		return nil, fmt.Errorf("purchase cap of %d reached", b.config.MaxPurchases)
	}

	available, err := b.quoteBalance(ctx)
	if err != nil {
		return nil, err
	}
	if available < b.config.Amount {
		return nil, fmt.Errorf("insufficient %s balance: have %.2f, need %.2f",
			b.config.QuoteAsset, available, b.config.Amount)
	}

	ticker, err := b.exchange.TickerPrice(ctx, b.config.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch price: %w", err)
	}
	price, err := ticker.Price.Float64()
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("invalid price for %s", b.config.Symbol)
	}

	quantity := truncate(b.config.Amount/price, b.config.QuantityPrecision)
	if quantity <= 0 {
		return nil, fmt.Errorf("amount %.2f is below the minimum order size at price %.2f",
			b.config.Amount, price)
	}

	order, err := futures.NewOrderBuilder(b.config.Symbol).
		Buy().
		Market().
		Quantity(strconv.FormatFloat(quantity, 'f', b.config.QuantityPrecision, 64)).
		Build()
	if err != nil {
		return nil, err
	}

	placed, err := b.exchange.PlaceOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	purchase := Purchase{
		Time:     b.clock(),
		Symbol:   b.config.Symbol,
		Price:    price,
		Quantity: quantity,
		Spent:    quantity * price,
		OrderID:  placed.ID,
	}
	b.mu.Lock()
	b.history = append(b.history, purchase)
	count := len(b.history)
	b.mu.Unlock()

	b.logger.Info().
		Str("symbol", purchase.Symbol).
		Float64("price", purchase.Price).
		Float64("quantity", purchase.Quantity).
		Int("purchase", count).
		Msg("dca purchase executed")
	return &purchase, nil
}

// Run executes cycles at the configured interval until the context is
// cancelled or the purchase cap is reached. Cycle errors are logged and
// the schedule continues.
func (b *Bot) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := b.RunCycle(ctx); err != nil {
			if b.Done() {
				b.logger.Info().Int("purchases", len(b.History())).Msg("dca schedule complete")
				return nil
			}
			b.logger.Warn().Err(err).Msg("dca cycle failed")
		} else if b.Done() {
			b.logger.Info().Int("purchases", len(b.History())).Msg("dca schedule complete")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// History returns a copy of the executed purchases.
func (b *Bot) History() []Purchase {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Purchase, len(b.history))
	copy(out, b.history)
	return out
}

// Summary aggregates the purchase history.
type Summary struct {
	Purchases     int     `json:"purchases"`
	TotalSpent    float64 `json:"total_spent"`
	TotalQuantity float64 `json:"total_quantity"`
	AveragePrice  float64 `json:"average_price"`
}

// Summarize returns the aggregate cost basis of all purchases.
func (b *Bot) Summarize() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()

	var s Summary
	s.Purchases = len(b.history)
	for _, p := range b.history {
		s.TotalSpent += p.Spent
		s.TotalQuantity += p.Quantity
	}
	if s.TotalQuantity > 0 {
		s.AveragePrice = s.TotalSpent / s.TotalQuantity
	}
	return s
}

// Export writes the purchase history and summary to a JSON file.
func (b *Bot) Export(path string) error {
	return console.WriteJSON(path, struct {
		Config  Config     `json:"config"`
		Summary Summary    `json:"summary"`
		History []Purchase `json:"history"`
	}{b.config, b.Summarize(), b.History()})
}

func (b *Bot) quoteBalance(ctx context.Context) (float64, error) {
	balances, err := b.exchange.Balances(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch balances: %w", err)
	}
	for _, bal := range balances {
		if bal.Asset == b.config.QuoteAsset {
			available, _ := bal.Available.Float64()
			return available, nil
		}
	}
	return 0, nil
}

func truncate(v float64, precision int) float64 {
	scale := 1.0
	for i := 0; i < precision; i++ {
		scale *= 10
	}
	return float64(int64(v*scale)) / scale
}
