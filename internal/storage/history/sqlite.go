// internal/storage/history/sqlite.go
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/vega/internal/core"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (the API lists
	// history while new runs are being written).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                  TEXT PRIMARY KEY,
			symbol              TEXT NOT NULL,
			strategy            TEXT NOT NULL,
			label               TEXT NOT NULL,
			start_date          TEXT NOT NULL,
			end_date            TEXT NOT NULL,
			initial_capital     REAL NOT NULL,
			final_equity        REAL NOT NULL,
			total_return_pct    REAL NOT NULL,
			volatility          REAL NOT NULL,
			sharpe_ratio        REAL NOT NULL,
			max_drawdown_pct    REAL NOT NULL,
			win_rate_pct        REAL NOT NULL,
			num_trades          INTEGER NOT NULL,
			buy_hold_return_pct REAL NOT NULL,
			created_at          INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a run record.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs
		(id, symbol, strategy, label, start_date, end_date,
		 initial_capital, final_equity, total_return_pct, volatility,
		 sharpe_ratio, max_drawdown_pct, win_rate_pct, num_trades,
		 buy_hold_return_pct, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Symbol, rec.Strategy, rec.Label,
		rec.Start.Format(core.DateLayout), rec.End.Format(core.DateLayout),
		rec.InitialCapital, rec.FinalEquity, rec.TotalReturnPct, rec.Volatility,
		rec.SharpeRatio, rec.MaxDrawdownPct, rec.WinRatePct, rec.NumTrades,
		rec.BuyHoldReturnPct, rec.CreatedAt.Unix(),
	)
	return err
}

// GetByID retrieves a record by run ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapErrorf(core.ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records matching the filter, most recent first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	where, args := buildWhere(filter)
	query := selectColumns + ` FROM runs` + where + ` ORDER BY created_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET.
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

// Count returns the count of matching records.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildWhere(filter)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+where, args...).Scan(&count)
	return count, err
}

const selectColumns = `SELECT id, symbol, strategy, label, start_date, end_date,
	initial_capital, final_equity, total_return_pct, volatility,
	sharpe_ratio, max_drawdown_pct, win_rate_pct, num_trades,
	buy_hold_return_pct, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var start, end string
	var created int64
	if err := row.Scan(&rec.ID, &rec.Symbol, &rec.Strategy, &rec.Label,
		&start, &end, &rec.InitialCapital, &rec.FinalEquity,
		&rec.TotalReturnPct, &rec.Volatility, &rec.SharpeRatio,
		&rec.MaxDrawdownPct, &rec.WinRatePct, &rec.NumTrades,
		&rec.BuyHoldReturnPct, &created); err != nil {
		return nil, err
	}

	var err error
	if rec.Start, err = time.Parse(core.DateLayout, start); err != nil {
		return nil, err
	}
	if rec.End, err = time.Parse(core.DateLayout, end); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(created, 0).UTC()
	return &rec, nil
}

func buildWhere(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		conds = append(conds, "strategy = ?")
		args = append(args, filter.Strategy)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.To.Unix())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
