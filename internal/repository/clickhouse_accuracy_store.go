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

// ClickHouseAccuracyStore implements AccuracyStore over a ReplacingMergeTree
// table keyed by (symbol, date). Re-evaluation overwrites prior rows.
type ClickHouseAccuracyStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseAccuracyStore creates ClickHouse accuracy storage.
func NewClickHouseAccuracyStore(db *sql.DB, table string) repository.AccuracyStore {
	return &ClickHouseAccuracyStore{db: db, table: table}
}

func (s *ClickHouseAccuracyStore) Upsert(ctx context.Context, recs []models.AccuracyRecord) error {
	if len(recs) == 0 {
		return nil
	}
	values := make([]string, 0, len(recs))
	args := make([]interface{}, 0, len(recs)*6)
	for _, r := range recs {
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, r.Symbol, r.Date, r.Accuracy, uint32(r.Total), uint32(r.Correct), r.ModelVersion)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, accuracy, total, correct, model_version) VALUES %s",
		s.table, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseAccuracyStore) Query(ctx context.Context, symbol string, from, to time.Time) ([]models.AccuracyRecord, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT symbol, date, accuracy, total, correct, model_version FROM %s FINAL WHERE symbol = ?", s.table)
	args := []interface{}{symbol}
	if !from.IsZero() {
		sb.WriteString(" AND date >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		sb.WriteString(" AND date <= ?")
		args = append(args, to)
	}
	sb.WriteString(" ORDER BY date DESC")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.AccuracyRecord
	for rows.Next() {
		var r models.AccuracyRecord
		var total, correct uint32
		if err := rows.Scan(&r.Symbol, &r.Date, &r.Accuracy, &total, &correct, &r.ModelVersion); err != nil {
			return nil, err
		}
		r.Total = int(total)
		r.Correct = int(correct)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
