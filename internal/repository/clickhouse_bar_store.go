package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SigPipe/internal/domain/models"
	"SigPipe/internal/domain/repository"
)

// ClickHouseBarStore implements BarStore over a ReplacingMergeTree table
// keyed by (symbol, date). Re-inserting a key replaces the prior row.
type ClickHouseBarStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseBarStore creates ClickHouse bar storage.
func NewClickHouseBarStore(db *sql.DB, table string) repository.BarStore {
	return &ClickHouseBarStore{db: db, table: table}
}

const barColumns = "symbol, date, open, high, low, close, volume, foreign_buy_value, foreign_sell_value"

func (s *ClickHouseBarStore) Store(ctx context.Context, b *models.Bar) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, barColumns)
	_, err := s.db.ExecContext(ctx, q,
		b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
		b.ForeignBuyValue, b.ForeignSellValue,
	)
	return err
}

func (s *ClickHouseBarStore) StoreBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips. Chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, b := range bars[start:end] {
			if b == nil || b.Symbol == "" || b.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
				b.ForeignBuyValue, b.ForeignSellValue,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, barColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseBarStore) GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s FINAL WHERE symbol = ?", barColumns, s.table)
	args := []interface{}{symbol}
	if !from.IsZero() {
		sb.WriteString(" AND date >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		sb.WriteString(" AND date <= ?")
		args = append(args, to)
	}
	sb.WriteString(" ORDER BY date ASC")

	return s.scanBars(ctx, sb.String(), args...)
}

func (s *ClickHouseBarStore) GetWindow(ctx context.Context, symbol string, date time.Time, n int) ([]models.Bar, error) {
	// Newest-first limit, then flip to ascending.
	q := fmt.Sprintf("SELECT %s FROM (SELECT %s FROM %s FINAL WHERE symbol = ? AND date <= ? ORDER BY date DESC LIMIT ?) ORDER BY date ASC",
		barColumns, barColumns, s.table)
	return s.scanBars(ctx, q, symbol, date, n)
}

func (s *ClickHouseBarStore) GetForward(ctx context.Context, symbol string, date time.Time, n int) ([]models.Bar, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE symbol = ? AND date >= ? ORDER BY date ASC LIMIT ?",
		barColumns, s.table)
	return s.scanBars(ctx, q, symbol, date, n)
}

func (s *ClickHouseBarStore) Symbols(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

func (s *ClickHouseBarStore) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	q := fmt.Sprintf("SELECT max(date) FROM %s WHERE symbol = ?", s.table)
	var date time.Time
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&date); err != nil {
		return time.Time{}, err
	}
	if date.IsZero() {
		return time.Time{}, fmt.Errorf("no bars for %s: %w", symbol, models.ErrNoValidData)
	}
	return date, nil
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBarStore) Close() error {
	return nil // Pool managed by pkg
}

func (s *ClickHouseBarStore) scanBars(ctx context.Context, q string, args ...interface{}) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
			&b.ForeignBuyValue, &b.ForeignSellValue); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
