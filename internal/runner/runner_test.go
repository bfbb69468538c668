package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolSentinel/internal/ledger"
	"VolSentinel/internal/marketdata"
	"VolSentinel/internal/model"
	"VolSentinel/internal/recorder"
	"VolSentinel/internal/verifier"
)

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ time.Duration) error {
	f.sent = append(f.sent, text)
	return f.err
}

var runnerAssets = []model.Asset{
	{Name: "🏆 黄金 (Gold)", SpotSymbol: "GC=F", OptionSymbol: "GLD", VolIndexSymbol: "^GVZ"},
	{Name: "🇺🇸 标普500 (S&P 500)", SpotSymbol: "^GSPC", VolIndexSymbol: "^VIX"},
	{Name: "🔥 天然气 (Nat Gas)", SpotSymbol: "NG=F", OptionSymbol: "UNG"},
}

func fixedClock(date string) func() time.Time {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestRunner(t *testing.T, mock *marketdata.Mock, nt Notifier, date string) *Runner {
	t.Helper()
	path := filepath.Join(t.TempDir(), "predictions.csv")
	r := New(runnerAssets, path, mock, verifier.New(mock, 10), nt, recorder.NewNoopRecorder())
	r.now = fixedClock(date)
	return r
}

func happyMock() *marketdata.Mock {
	mock := marketdata.NewMock()
	mock.Quotes["GC=F"] = 2000
	mock.Quotes["^GSPC"] = 5800
	mock.IVs["GLD"] = 0.16
	mock.VolLevels["^VIX"] = 20
	// NG=F quote missing entirely: that asset fails this run.
	return mock
}

func TestRunRecordsPredictionsAndPersists(t *testing.T) {
	nt := &fakeNotifier{}
	r := newTestRunner(t, happyMock(), nt, "2025-06-04")

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 3)

	gold := summary.Outcomes[0]
	require.NoError(t, gold.Err)
	assert.Equal(t, model.IVSourceOption, gold.Record.IVSource)
	assert.InDelta(t, 1980, gold.Record.LowPred, 1e-9)
	assert.InDelta(t, 2020, gold.Record.HighPred, 1e-9)

	spx := summary.Outcomes[1]
	require.NoError(t, spx.Err)
	assert.Equal(t, model.IVSourceIndex, spx.Record.IVSource)
	assert.InDelta(t, 0.20, spx.Record.ImpliedVol, 1e-9)

	natgas := summary.Outcomes[2]
	assert.Error(t, natgas.Err)
	assert.Nil(t, natgas.Record)

	// Ledger on disk holds exactly the two successful predictions.
	lg, err := ledger.Load(r.ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, 2, lg.Len())
	require.NotNil(t, lg.Get("2025-06-04", "GC=F"))

	require.Len(t, nt.sent, 1)
	assert.Contains(t, nt.sent[0], "全市场波动率日报")
	assert.Contains(t, nt.sent[0], "天然气")
}

func TestRunFallsBackToVolIndexWhenChainFails(t *testing.T) {
	mock := happyMock()
	delete(mock.IVs, "GLD") // chain unavailable, ^GVZ must take over
	mock.VolLevels["^GVZ"] = 16

	r := newTestRunner(t, mock, &fakeNotifier{}, "2025-06-04")
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	gold := summary.Outcomes[0]
	require.NoError(t, gold.Err)
	assert.Equal(t, model.IVSourceIndex, gold.Record.IVSource)
	assert.InDelta(t, 0.16, gold.Record.ImpliedVol, 1e-9)
}

func TestEveningRunReestimatesInPlace(t *testing.T) {
	mock := happyMock()
	r := newTestRunner(t, mock, &fakeNotifier{}, "2025-06-04")

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	mock.Quotes["GC=F"] = 2010
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	lg, err := ledger.Load(r.ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, 2, lg.Len()) // still one row per asset
	assert.Equal(t, 2010.0, lg.Get("2025-06-04", "GC=F").Price)
}

func TestNextDayRunResolvesYesterday(t *testing.T) {
	mock := happyMock()
	r := newTestRunner(t, mock, &fakeNotifier{}, "2025-06-04")
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// Next morning: realized ranges are in, gold stayed inside its
	// band, the index broke out above.
	mock.Histories["GC=F"] = map[string]model.DailyRange{
		"2025-06-04": {Date: "2025-06-04", High: 2015, Low: 1985},
	}
	mock.Histories["^GSPC"] = map[string]model.DailyRange{
		"2025-06-04": {Date: "2025-06-04", High: 5990, Low: 5750},
	}
	r.now = fixedClock("2025-06-05")

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ResolvedWins)
	assert.Equal(t, 1, summary.ResolvedLoss)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 2, summary.TotalResolved)
	assert.Equal(t, 0.5, summary.WinRate())

	lg, err := ledger.Load(r.ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, model.ResultWin, lg.Get("2025-06-04", "GC=F").Result)
	assert.Equal(t, model.ResultLoss, lg.Get("2025-06-04", "^GSPC").Result)
}

func TestRunFailsWhenLedgerCannotBeSaved(t *testing.T) {
	// Parent "directory" is a regular file; the save must fail and the
	// run must report it.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	mock := happyMock()
	r := New(runnerAssets, filepath.Join(blocker, "predictions.csv"),
		mock, verifier.New(mock, 10), &fakeNotifier{}, recorder.NewNoopRecorder())
	r.now = fixedClock("2025-06-04")

	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestNotifyFailureDoesNotFailRun(t *testing.T) {
	nt := &fakeNotifier{err: errors.New("telegram down")}
	r := newTestRunner(t, happyMock(), nt, "2025-06-04")

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// Ledger persisted despite the delivery failure.
	lg, err := ledger.Load(r.ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, 2, lg.Len())
}
