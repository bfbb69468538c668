package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"VolSentinel/internal/estimator"
	"VolSentinel/internal/ledger"
	"VolSentinel/internal/marketdata"
	"VolSentinel/internal/model"
	"VolSentinel/internal/recorder"
	"VolSentinel/internal/report"
	"VolSentinel/internal/verifier"
)

// Notifier delivers the report, retrying internally as it sees fit.
// Delivery failure is logged and never fails the run.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxElapsed time.Duration) error
}

// Runner executes one full cycle: resolve pending predictions, record
// today's predictions, persist the ledger, push the report. The mutex
// guarantees a single writer to the ledger file even when a manual
// command fires while a scheduled run is in flight.
type Runner struct {
	mu         sync.Mutex
	assets     []model.Asset
	ledgerPath string
	provider   marketdata.Provider
	verifier   *verifier.Verifier
	notifier   Notifier
	recorder   recorder.Recorder
	now        func() time.Time
}

// New creates a Runner. notifier may be nil for report-less runs.
func New(assets []model.Asset, ledgerPath string, provider marketdata.Provider,
	vf *verifier.Verifier, nt Notifier, rec recorder.Recorder) *Runner {
	return &Runner{
		assets:     assets,
		ledgerPath: ledgerPath,
		provider:   provider,
		verifier:   vf,
		notifier:   nt,
		recorder:   rec,
		now:        time.Now,
	}
}

// Run performs one cycle. Per-asset failures are folded into the
// summary; only a ledger save failure makes the run itself fail,
// since losing predictions silently is not acceptable. The ledger is
// loaded once at the start and written once, atomically, at the end,
// so a run killed midway leaves the previous state intact.
func (r *Runner) Run(ctx context.Context) (*model.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.now()
	today := started.Format(model.DateLayout)
	log.Info().Str("date", today).Msg("run started")

	lg, err := ledger.Load(r.ledgerPath)
	if err != nil {
		// An unreadable store degrades to a fresh start; the save at
		// the end of this run rewrites it.
		log.Warn().Err(err).Str("path", r.ledgerPath).Msg("ledger unreadable, starting empty")
		lg = ledger.New()
	}

	verified := r.verifier.VerifyPending(ctx, lg, r.assets, today)

	summary := &model.RunSummary{
		Date:         today,
		StartedAt:    started,
		ResolvedWins: verified.Wins,
		ResolvedLoss: verified.Losses,
	}

	for _, asset := range r.assets {
		outcome := r.predict(ctx, lg, asset, today)
		if outcome.Err != nil {
			log.Warn().Err(outcome.Err).Str("asset", asset.Name).Msg("no prediction this run")
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	summary.Wins, summary.TotalResolved = lg.Stats()
	summary.PendingLeft = len(lg.FindUnresolved(today))

	if err := lg.Save(r.ledgerPath); err != nil {
		return summary, fmt.Errorf("save ledger: %w", err)
	}

	r.record(summary, verified.Judged)
	r.send(ctx, report.Build(summary))

	log.Info().
		Int("wins", verified.Wins).Int("losses", verified.Losses).
		Int("pending", summary.PendingLeft).
		Float64("win_rate", summary.WinRate()).
		Msg("run finished")
	return summary, nil
}

// predict estimates today's band for one asset and upserts the
// record. Any missing input turns into a per-asset failure, never a
// defaulted prediction.
func (r *Runner) predict(ctx context.Context, lg *ledger.Ledger, asset model.Asset, today string) model.AssetOutcome {
	outcome := model.AssetOutcome{Asset: asset}

	quote, err := r.provider.GetQuote(ctx, asset.SpotSymbol)
	if err != nil {
		outcome.Err = fmt.Errorf("quote %s: %w", asset.SpotSymbol, err)
		return outcome
	}

	iv, source, err := r.impliedVol(ctx, asset)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	low, high, err := estimator.DailyRange(quote.Price, iv)
	if err != nil {
		outcome.Err = fmt.Errorf("estimate %s: %w", asset.SpotSymbol, err)
		return outcome
	}

	outcome.Record = lg.Upsert(today, asset.SpotSymbol, ledger.UpsertFields{
		Name:       asset.Name,
		Price:      quote.Price,
		ImpliedVol: iv,
		LowPred:    low,
		HighPred:   high,
		IVSource:   source,
	})
	return outcome
}

// impliedVol tries the option chain first, then the volatility index.
func (r *Runner) impliedVol(ctx context.Context, asset model.Asset) (float64, model.IVSource, error) {
	if !asset.HasIVSource() {
		return 0, "", fmt.Errorf("%s: no IV source configured: %w", asset.SpotSymbol, marketdata.ErrUnavailable)
	}

	var chainErr error
	if asset.OptionSymbol != "" {
		iv, expiry, err := r.provider.GetATMImpliedVol(ctx, asset.OptionSymbol)
		if err == nil {
			log.Debug().Str("asset", asset.Name).Str("expiry", expiry).Msg("iv from option chain")
			return iv, model.IVSourceOption, nil
		}
		chainErr = err
	}

	if asset.VolIndexSymbol != "" {
		level, err := r.provider.GetVolIndexLevel(ctx, asset.VolIndexSymbol)
		if err == nil {
			return level / 100, model.IVSourceIndex, nil
		}
		if chainErr != nil {
			return 0, "", fmt.Errorf("option chain: %v; vol index: %w", chainErr, err)
		}
		return 0, "", fmt.Errorf("vol index %s: %w", asset.VolIndexSymbol, err)
	}

	return 0, "", fmt.Errorf("option chain %s: %w", asset.OptionSymbol, chainErr)
}

func (r *Runner) record(summary *model.RunSummary, judged []*model.PredictionRecord) {
	if err := r.recorder.RecordRun(summary); err != nil {
		log.Error().Err(err).Msg("record run")
	}
	for _, rec := range judged {
		res := &recorder.Resolution{
			Date:     rec.Date,
			Symbol:   rec.Symbol,
			LowPred:  rec.LowPred,
			HighPred: rec.HighPred,
			Result:   string(rec.Result),
		}
		if rec.ActualHigh != nil {
			res.ActualHigh = *rec.ActualHigh
		}
		if rec.ActualLow != nil {
			res.ActualLow = *rec.ActualLow
		}
		if err := r.recorder.RecordResolution(res); err != nil {
			log.Error().Err(err).Msg("record resolution")
		}
	}
}

func (r *Runner) send(ctx context.Context, text string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendWithRetry(ctx, text, 2*time.Minute); err != nil {
		log.Error().Err(err).Msg("report delivery failed")
	}
}
