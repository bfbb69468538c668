package model

import "time"

// DateLayout is the calendar-day key format used throughout the ledger.
const DateLayout = "2006-01-02"

// Result is the verification state of a prediction.
type Result string

const (
	ResultPending Result = ""     // not yet judged
	ResultWin     Result = "WIN"  // realized range fully inside the predicted band
	ResultLoss    Result = "LOSS" // realized high or low breached the band
)

// IVSource tells which route produced the implied volatility figure.
type IVSource string

const (
	IVSourceOption IVSource = "option" // ATM contract from the ETF option chain
	IVSourceIndex  IVSource = "index"  // volatility index level / 100
)

// PredictionRecord is one row of the ledger, keyed by (Date, Symbol).
// ActualHigh/ActualLow stay nil and Result stays pending until the
// verifier judges the record against realized price action.
type PredictionRecord struct {
	Date       string // calendar day, DateLayout
	Symbol     string // spot symbol the prediction is for
	Name       string
	Price      float64
	ImpliedVol float64 // annualized fraction, e.g. 0.20
	LowPred    float64
	HighPred   float64
	IVSource   IVSource
	ActualHigh *float64
	ActualLow  *float64
	Result     Result
	UpdatedAt  time.Time
}

// Resolved reports whether the record has been judged.
func (r *PredictionRecord) Resolved() bool {
	return r.Result == ResultWin || r.Result == ResultLoss
}

// Judge applies the containment rule: WIN iff the realized range sits
// fully inside the predicted band, bounds inclusive.
func Judge(rec *PredictionRecord, actualHigh, actualLow float64) Result {
	if actualHigh <= rec.HighPred && actualLow >= rec.LowPred {
		return ResultWin
	}
	return ResultLoss
}
