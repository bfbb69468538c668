package model

import "time"

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// OptionContract is one strike of an option chain expiry.
type OptionContract struct {
	Strike     float64
	ImpliedVol float64 // annualized fraction
}

// DailyRange is the realized intraday extremes of one trading day.
type DailyRange struct {
	Date string // DateLayout
	High float64
	Low  float64
}

// AssetOutcome is one asset's result within a run: either a fresh
// prediction or the reason no prediction could be made.
type AssetOutcome struct {
	Asset  Asset
	Record *PredictionRecord // nil when Err is set
	Err    error             // nil when a prediction was recorded
}

// RunSummary aggregates everything a single run produced, for the
// report and the history recorder.
type RunSummary struct {
	Date          string
	Outcomes      []AssetOutcome
	ResolvedWins  int
	ResolvedLoss  int
	PendingLeft   int
	Wins          int // all-time resolved wins
	TotalResolved int
	StartedAt     time.Time
}

// WinRate returns the all-time win rate, 0.0 with nothing resolved.
func (s *RunSummary) WinRate() float64 {
	if s.TotalResolved == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalResolved)
}
