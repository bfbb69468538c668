package estimator

import (
	"errors"
	"math"

	"VolSentinel/internal/model"
)

// DailyMoveDivisor converts an annualized volatility into a one-day
// expected move ("rule of 16", ≈ sqrt of 252 trading days per year).
const DailyMoveDivisor = 16.0

var (
	ErrInvalidPrice = errors.New("price must be positive")
	ErrNegativeIV   = errors.New("implied volatility must not be negative")
	ErrNoContracts  = errors.New("option chain has no contracts")
)

// DailyRange converts a price and an annualized implied volatility into
// the expected low/high band for one trading day. iv = 0 yields a
// zero-width band at the price; no rounding is applied here.
func DailyRange(price, iv float64) (low, high float64, err error) {
	if price <= 0 {
		return 0, 0, ErrInvalidPrice
	}
	if iv < 0 {
		return 0, 0, ErrNegativeIV
	}
	move := price * iv / DailyMoveDivisor
	return price - move, price + move, nil
}

// ATMImpliedVol picks the at-the-money contract of a chain: the strike
// with the minimum absolute distance to price. Ties go to the lower
// strike so the selection stays deterministic regardless of the order
// the data source returned the chain in.
func ATMImpliedVol(contracts []model.OptionContract, price float64) (float64, error) {
	if len(contracts) == 0 {
		return 0, ErrNoContracts
	}
	best := contracts[0]
	bestDist := math.Abs(best.Strike - price)
	for _, c := range contracts[1:] {
		dist := math.Abs(c.Strike - price)
		if dist < bestDist || (dist == bestDist && c.Strike < best.Strike) {
			best = c
			bestDist = dist
		}
	}
	return best.ImpliedVol, nil
}
