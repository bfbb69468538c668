package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"VolSentinel/internal/model"
)

// The ledger file is plain CSV with a fixed header, one row per
// (date, symbol). It is read wholesale at run start and rewritten
// wholesale at run end.
var csvHeader = []string{
	"date", "symbol", "name",
	"price", "implied_vol", "low_pred", "high_pred", "iv_source",
	"actual_high", "actual_low", "result", "updated_at",
}

// Load reads the ledger file. A missing file or an unrecognized header
// yields an empty ledger (fresh start), never an error; only I/O and
// malformed-row failures are reported.
func Load(path string) (*Ledger, error) {
	l := New()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(rows) == 0 {
		return l, nil
	}
	if !headerMatches(rows[0]) {
		log.Warn().Str("path", path).Msg("ledger header mismatch, starting from an empty ledger")
		return l, nil
	}

	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+2, err)
		}
		l.records = append(l.records, rec)
		l.index[key(rec.Date, rec.Symbol)] = rec
	}
	return l, nil
}

// Save rewrites the ledger file. The rows go to a temp file in the
// target directory first, then an atomic rename replaces the old file,
// so a failed write never corrupts the previous state.
func (l *Ledger) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("ledger temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, rec := range l.records {
		if err := w.Write(formatRow(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func headerMatches(row []string) bool {
	if len(row) != len(csvHeader) {
		return false
	}
	for i, col := range csvHeader {
		if row[i] != col {
			return false
		}
	}
	return true
}

func formatRow(rec *model.PredictionRecord) []string {
	return []string{
		rec.Date,
		rec.Symbol,
		rec.Name,
		formatFloat(rec.Price),
		formatFloat(rec.ImpliedVol),
		formatFloat(rec.LowPred),
		formatFloat(rec.HighPred),
		string(rec.IVSource),
		formatOptFloat(rec.ActualHigh),
		formatOptFloat(rec.ActualLow),
		string(rec.Result),
		rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func parseRow(row []string) (*model.PredictionRecord, error) {
	if len(row) != len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}

	rec := &model.PredictionRecord{
		Date:     row[0],
		Symbol:   row[1],
		Name:     row[2],
		IVSource: model.IVSource(row[7]),
		Result:   model.Result(row[10]),
	}

	var err error
	if rec.Price, err = strconv.ParseFloat(row[3], 64); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if rec.ImpliedVol, err = strconv.ParseFloat(row[4], 64); err != nil {
		return nil, fmt.Errorf("implied_vol: %w", err)
	}
	if rec.LowPred, err = strconv.ParseFloat(row[5], 64); err != nil {
		return nil, fmt.Errorf("low_pred: %w", err)
	}
	if rec.HighPred, err = strconv.ParseFloat(row[6], 64); err != nil {
		return nil, fmt.Errorf("high_pred: %w", err)
	}
	if rec.ActualHigh, err = parseOptFloat(row[8]); err != nil {
		return nil, fmt.Errorf("actual_high: %w", err)
	}
	if rec.ActualLow, err = parseOptFloat(row[9]); err != nil {
		return nil, fmt.Errorf("actual_low: %w", err)
	}
	if row[11] != "" {
		if rec.UpdatedAt, err = time.Parse(time.RFC3339, row[11]); err != nil {
			return nil, fmt.Errorf("updated_at: %w", err)
		}
	}
	return rec, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseOptFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
