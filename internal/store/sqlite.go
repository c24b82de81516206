package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"tradelab/internal/backtest"
	"tradelab/internal/domain"
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol          TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	started_at      INTEGER NOT NULL,
	initial_capital REAL NOT NULL,
	final_value     REAL NOT NULL,
	total_return    REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	seq    INTEGER NOT NULL,
	date   INTEGER NOT NULL,
	type   TEXT NOT NULL,
	price  REAL NOT NULL,
	shares INTEGER NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run and its trades in one transaction and fills in
// run.ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (symbol, strategy, started_at, initial_capital, final_value, total_return)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Symbol, run.Strategy, run.StartedAt.UnixMilli(),
		run.InitialCapital, run.FinalValue, run.TotalReturn,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id

	for i, tr := range run.Trades {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trades (run_id, seq, date, type, price, shares, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, tr.Date.UnixMilli(), string(tr.Type), tr.Price, tr.Shares, tr.Reason,
		); err != nil {
			return fmt.Errorf("inserting trade %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a single run and its trade log.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	run := &Run{}
	var startedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, strategy, started_at, initial_capital, final_value, total_return
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Symbol, &run.Strategy, &startedAt,
		&run.InitialCapital, &run.FinalValue, &run.TotalReturn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, domain.ErrNoData)
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(startedAt).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, type, price, shares, reason FROM trades
		 WHERE run_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tr backtest.Trade
		var date int64
		var typ string
		if err := rows.Scan(&date, &typ, &tr.Price, &tr.Shares, &tr.Reason); err != nil {
			return nil, err
		}
		tr.Date = time.UnixMilli(date).UTC()
		tr.Type = backtest.TradeType(typ)
		run.Trades = append(run.Trades, tr)
	}
	return run, rows.Err()
}

// ListRuns returns the most recent runs, newest first, without trade logs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, strategy, started_at, initial_capital, final_value, total_return
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt int64
		if err := rows.Scan(&run.ID, &run.Symbol, &run.Strategy, &startedAt,
			&run.InitialCapital, &run.FinalValue, &run.TotalReturn); err != nil {
			return nil, err
		}
		run.StartedAt = time.UnixMilli(startedAt).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
