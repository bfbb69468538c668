package ledger

import (
	"errors"
	"time"

	"VolSentinel/internal/model"
)

// ErrAlreadyResolved is returned when Resolve is called on a record
// that already carries a WIN or LOSS. Resolution happens exactly once.
var ErrAlreadyResolved = errors.New("record already resolved")

// UpsertFields are the mutable fields of a prediction record. A later
// same-day run overwrites exactly these, modelling an intraday
// re-estimation rather than a second prediction.
type UpsertFields struct {
	Name       string
	Price      float64
	ImpliedVol float64
	LowPred    float64
	HighPred   float64
	IVSource   model.IVSource
}

// Ledger holds every prediction record, at most one per (date, symbol).
// An index keyed by date|symbol backs the upsert so the uniqueness
// invariant is structural, not a scan.
type Ledger struct {
	records []*model.PredictionRecord
	index   map[string]*model.PredictionRecord
	now     func() time.Time
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		index: make(map[string]*model.PredictionRecord),
		now:   time.Now,
	}
}

func key(date, symbol string) string { return date + "|" + symbol }

// Upsert creates the (date, symbol) record or, if it already exists,
// overwrites its mutable fields in place. Actuals and result are never
// touched here. Returns the stored record.
func (l *Ledger) Upsert(date, symbol string, f UpsertFields) *model.PredictionRecord {
	if rec, ok := l.index[key(date, symbol)]; ok {
		rec.Name = f.Name
		rec.Price = f.Price
		rec.ImpliedVol = f.ImpliedVol
		rec.LowPred = f.LowPred
		rec.HighPred = f.HighPred
		rec.IVSource = f.IVSource
		rec.UpdatedAt = l.now()
		return rec
	}
	rec := &model.PredictionRecord{
		Date:       date,
		Symbol:     symbol,
		Name:       f.Name,
		Price:      f.Price,
		ImpliedVol: f.ImpliedVol,
		LowPred:    f.LowPred,
		HighPred:   f.HighPred,
		IVSource:   f.IVSource,
		Result:     model.ResultPending,
		UpdatedAt:  l.now(),
	}
	l.records = append(l.records, rec)
	l.index[key(date, symbol)] = rec
	return rec
}

// FindUnresolved returns every pending record dated strictly before
// the given day. DateLayout keys compare correctly as strings.
func (l *Ledger) FindUnresolved(before string) []*model.PredictionRecord {
	return l.findUnresolved(before, "")
}

// FindUnresolvedSymbol is FindUnresolved restricted to one symbol.
func (l *Ledger) FindUnresolvedSymbol(before, symbol string) []*model.PredictionRecord {
	return l.findUnresolved(before, symbol)
}

func (l *Ledger) findUnresolved(before, symbol string) []*model.PredictionRecord {
	var out []*model.PredictionRecord
	for _, rec := range l.records {
		if rec.Resolved() || rec.Date >= before {
			continue
		}
		if symbol != "" && rec.Symbol != symbol {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Resolve judges a pending record against the realized daily extremes
// and writes the verdict. A record that already carries a result is
// left untouched and ErrAlreadyResolved is returned.
func (l *Ledger) Resolve(rec *model.PredictionRecord, actualHigh, actualLow float64) error {
	if rec.Resolved() {
		return ErrAlreadyResolved
	}
	rec.ActualHigh = &actualHigh
	rec.ActualLow = &actualLow
	rec.Result = model.Judge(rec, actualHigh, actualLow)
	rec.UpdatedAt = l.now()
	return nil
}

// Stats counts resolved records and how many of them are wins.
func (l *Ledger) Stats() (wins, resolved int) {
	for _, rec := range l.records {
		switch rec.Result {
		case model.ResultWin:
			wins++
			resolved++
		case model.ResultLoss:
			resolved++
		}
	}
	return wins, resolved
}

// WinRate is wins over resolved, 0.0 while nothing has been resolved.
func (l *Ledger) WinRate() float64 {
	wins, resolved := l.Stats()
	if resolved == 0 {
		return 0
	}
	return float64(wins) / float64(resolved)
}

// Records returns the records in insertion order.
func (l *Ledger) Records() []*model.PredictionRecord { return l.records }

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Get looks up the record for (date, symbol), nil if absent.
func (l *Ledger) Get(date, symbol string) *model.PredictionRecord {
	return l.index[key(date, symbol)]
}
