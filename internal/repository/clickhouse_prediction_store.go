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

// ClickHousePredictionStore implements PredictionStore over a
// ReplacingMergeTree table keyed by (symbol, date).
type ClickHousePredictionStore struct {
	db    *sql.DB
	table string
}

// NewClickHousePredictionStore creates ClickHouse prediction storage.
func NewClickHousePredictionStore(db *sql.DB, table string) repository.PredictionStore {
	return &ClickHousePredictionStore{db: db, table: table}
}

const predictionColumns = "symbol, date, probability, recommendation, model_version"

func (s *ClickHousePredictionStore) Upsert(ctx context.Context, preds []models.Prediction) error {
	if len(preds) == 0 {
		return nil
	}
	values := make([]string, 0, len(preds))
	args := make([]interface{}, 0, len(preds)*5)
	for _, p := range preds {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, p.Symbol, p.Date, p.Probability, p.Recommendation, p.ModelVersion)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, predictionColumns, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHousePredictionStore) GetByDate(ctx context.Context, date time.Time) ([]models.Prediction, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE date = ? ORDER BY probability DESC", predictionColumns, s.table)
	return s.scanPredictions(ctx, q, date)
}

// GetLatest returns each symbol's row at the globally latest prediction date.
func (s *ClickHousePredictionStore) GetLatest(ctx context.Context) ([]models.Prediction, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE date = (SELECT max(date) FROM %s) ORDER BY probability DESC",
		predictionColumns, s.table, s.table)
	return s.scanPredictions(ctx, q)
}

func (s *ClickHousePredictionStore) scanPredictions(ctx context.Context, q string, args ...interface{}) ([]models.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Probability, &p.Recommendation, &p.ModelVersion); err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}
