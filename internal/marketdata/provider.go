package marketdata

import (
	"context"
	"errors"

	"VolSentinel/internal/model"
)

// ErrUnavailable signals that the data source has no usable data for
// the request (unknown symbol, empty chain, no bars). Callers treat it
// as absence for this run, never as a defaulted value.
var ErrUnavailable = errors.New("market data unavailable")

// Provider abstracts the market data source.
type Provider interface {
	// GetQuote returns the latest price for a symbol.
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)

	// GetATMImpliedVol derives an annualized implied volatility from
	// the at-the-money contract of the nearest option expiry, plus the
	// expiry it came from.
	GetATMImpliedVol(ctx context.Context, optionSymbol string) (iv float64, expiry string, err error)

	// GetVolIndexLevel returns the raw level of a volatility index
	// (e.g. 20.5 for VIX at 20.5; level/100 is the annualized IV).
	GetVolIndexLevel(ctx context.Context, indexSymbol string) (float64, error)

	// GetDailyRangeHistory returns realized daily high/low extremes for
	// roughly the trailing `days` calendar days, keyed by day.
	GetDailyRangeHistory(ctx context.Context, symbol string, days int) (map[string]model.DailyRange, error)

	Name() string
}
