package verifier

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"VolSentinel/internal/ledger"
	"VolSentinel/internal/marketdata"
	"VolSentinel/internal/model"
)

// Outcome summarizes one verification pass over the ledger.
type Outcome struct {
	Wins    int // records judged WIN this pass
	Losses  int // records judged LOSS this pass
	Pending int // records still unresolved after this pass
	Judged  []*model.PredictionRecord
}

// Verifier resolves pending past predictions against realized daily
// highs/lows fetched from the market data provider.
type Verifier struct {
	provider   marketdata.Provider
	windowDays int
}

// New creates a Verifier fetching a trailing window of windowDays
// realized days per asset.
func New(provider marketdata.Provider, windowDays int) *Verifier {
	if windowDays <= 0 {
		windowDays = 10
	}
	return &Verifier{provider: provider, windowDays: windowDays}
}

// VerifyPending judges every unresolved record dated strictly before
// today. One asset's fetch failure never blocks the others; its
// records simply stay pending for a later run. Records whose date
// falls outside the fetched window also stay pending until a wider
// fetch covers them.
func (v *Verifier) VerifyPending(ctx context.Context, lg *ledger.Ledger, assets []model.Asset, today string) Outcome {
	var out Outcome

	for _, asset := range assets {
		pending := lg.FindUnresolvedSymbol(today, asset.SpotSymbol)
		if len(pending) == 0 {
			continue
		}

		hist, err := v.provider.GetDailyRangeHistory(ctx, asset.SpotSymbol, v.windowDays)
		if err != nil {
			log.Warn().Err(err).Str("symbol", asset.SpotSymbol).
				Int("pending", len(pending)).Msg("verification fetch failed, records stay pending")
			out.Pending += len(pending)
			continue
		}

		for _, rec := range pending {
			day, ok := hist[rec.Date]
			if !ok {
				// Outside the fetched window; a later run will retry.
				out.Pending++
				continue
			}
			if err := lg.Resolve(rec, day.High, day.Low); err != nil {
				if !errors.Is(err, ledger.ErrAlreadyResolved) {
					log.Error().Err(err).Str("symbol", rec.Symbol).Str("date", rec.Date).Msg("resolve failed")
				}
				continue
			}
			log.Info().Str("symbol", rec.Symbol).Str("date", rec.Date).
				Str("result", string(rec.Result)).
				Float64("high", day.High).Float64("low", day.Low).Msg("prediction judged")
			if rec.Result == model.ResultWin {
				out.Wins++
			} else {
				out.Losses++
			}
			out.Judged = append(out.Judged, rec)
		}
	}

	return out
}
