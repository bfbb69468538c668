package recorder

import "VolSentinel/internal/model"

// Resolution records one prediction judged during a run.
type Resolution struct {
	Date       string
	Symbol     string
	LowPred    float64
	HighPred   float64
	ActualHigh float64
	ActualLow  float64
	Result     string
}

// Recorder keeps a queryable history of runs alongside the CSV ledger
// (the ledger stays the source of truth; this is for analysis).
type Recorder interface {
	RecordRun(summary *model.RunSummary) error
	RecordResolution(res *Resolution) error
	Close() error
}
