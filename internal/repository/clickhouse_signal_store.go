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

// ClickHouseSignalStore implements SignalStore over a ReplacingMergeTree
// table keyed by (symbol, date). SetLabel re-inserts the full row with a
// newer version; the merge keeps the labeled row.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalStore creates ClickHouse signal storage.
func NewClickHouseSignalStore(db *sql.DB, table string) repository.SignalStore {
	return &ClickHouseSignalStore{db: db, table: table}
}

const signalColumns = "symbol, date, signal_type, confidence_score, volatility_tag, volume_behavior, market_sentiment, trend_strength, rsi_score, volume_spike_ratio, momentum, macd_trend, bollinger_tag, foreign_flow, label_win, notes, model_version"

func (s *ClickHouseSignalStore) Insert(ctx context.Context, sig *models.Signal) error {
	return s.insertRow(ctx, sig)
}

func (s *ClickHouseSignalStore) insertRow(ctx context.Context, sig *models.Signal) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, signalColumns)
	_, err := s.db.ExecContext(ctx, q,
		sig.Symbol,
		sig.Date,
		string(sig.SignalType),
		sig.ConfidenceScore,
		sig.VolatilityTag,
		sig.VolumeBehavior,
		sig.MarketSentiment,
		sig.TrendStrength,
		sig.RSIScore,
		sig.VolumeSpikeRatio,
		sig.Momentum,
		sig.MACDTrend,
		sig.BollingerTag,
		sig.ForeignFlow,
		labelToNullable(sig.LabelWin),
		sig.Notes,
		sig.ModelVersion,
	)
	return err
}

func (s *ClickHouseSignalStore) Exists(ctx context.Context, symbol string, date time.Time) (bool, error) {
	q := fmt.Sprintf("SELECT count() FROM %s FINAL WHERE symbol = ? AND date = ?", s.table)
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, symbol, date).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *ClickHouseSignalStore) GetUnlabeled(ctx context.Context) ([]models.Signal, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE label_win IS NULL ORDER BY date ASC, symbol ASC", signalColumns, s.table)
	return s.scanSignals(ctx, q)
}

func (s *ClickHouseSignalStore) GetLabeled(ctx context.Context) ([]models.Signal, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE label_win IS NOT NULL ORDER BY date ASC, symbol ASC", signalColumns, s.table)
	return s.scanSignals(ctx, q)
}

// SetLabel writes the graded outcome by re-inserting the row.
func (s *ClickHouseSignalStore) SetLabel(ctx context.Context, sig *models.Signal, win bool) error {
	labeled := *sig
	labeled.LabelWin = &win
	if err := s.insertRow(ctx, &labeled); err != nil {
		return fmt.Errorf("set label %s %s: %w", sig.Symbol, sig.Date.Format("2006-01-02"), err)
	}
	sig.LabelWin = &win
	return nil
}

func (s *ClickHouseSignalStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Signal, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s FINAL WHERE symbol = ?", signalColumns, s.table)
	args := []interface{}{symbol}
	if !from.IsZero() {
		sb.WriteString(" AND date >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		sb.WriteString(" AND date <= ?")
		args = append(args, to)
	}
	sb.WriteString(" ORDER BY date DESC LIMIT ?")
	args = append(args, limit)

	return s.scanSignals(ctx, sb.String(), args...)
}

func (s *ClickHouseSignalStore) scanSignals(ctx context.Context, q string, args ...interface{}) ([]models.Signal, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []models.Signal
	for rows.Next() {
		var sig models.Signal
		var st string
		var win sql.NullInt64
		if err := rows.Scan(
			&sig.Symbol,
			&sig.Date,
			&st,
			&sig.ConfidenceScore,
			&sig.VolatilityTag,
			&sig.VolumeBehavior,
			&sig.MarketSentiment,
			&sig.TrendStrength,
			&sig.RSIScore,
			&sig.VolumeSpikeRatio,
			&sig.Momentum,
			&sig.MACDTrend,
			&sig.BollingerTag,
			&sig.ForeignFlow,
			&win,
			&sig.Notes,
			&sig.ModelVersion,
		); err != nil {
			return nil, err
		}
		sig.SignalType = models.SignalType(st)
		if win.Valid {
			w := win.Int64 != 0
			sig.LabelWin = &w
		}
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}

func labelToNullable(win *bool) interface{} {
	if win == nil {
		return nil
	}
	if *win {
		return uint8(1)
	}
	return uint8(0)
}
