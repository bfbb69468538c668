package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"VolSentinel/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			run_date       TEXT    NOT NULL,
			assets_ok      INTEGER,
			assets_failed  INTEGER,
			resolved_wins  INTEGER,
			resolved_loss  INTEGER,
			pending_left   INTEGER,
			total_wins     INTEGER,
			total_resolved INTEGER,
			win_rate       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS resolutions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			pred_date   TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			low_pred    REAL,
			high_pred   REAL,
			actual_high REAL,
			actual_low  REAL,
			result      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_ts ON resolutions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_symbol ON resolutions(symbol, pred_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(summary *model.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, failed := 0, 0
	for _, o := range summary.Outcomes {
		if o.Err != nil {
			failed++
		} else {
			ok++
		}
	}

	_, err := r.db.Exec(`INSERT INTO runs
		(timestamp, run_date, assets_ok, assets_failed,
		 resolved_wins, resolved_loss, pending_left,
		 total_wins, total_resolved, win_rate)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), summary.Date, ok, failed,
		summary.ResolvedWins, summary.ResolvedLoss, summary.PendingLeft,
		summary.Wins, summary.TotalResolved, summary.WinRate(),
	)
	return err
}

func (r *SQLiteRecorder) RecordResolution(res *Resolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO resolutions
		(timestamp, pred_date, symbol, low_pred, high_pred, actual_high, actual_low, result)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), res.Date, res.Symbol,
		res.LowPred, res.HighPred, res.ActualHigh, res.ActualLow, res.Result,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
