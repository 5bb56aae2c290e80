package repository

import (
	"context"
	"time"

	"SigPipe/internal/domain/models"
)

// BarStream is a live market feed of OHLCV bars.
type BarStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Bar, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher emits events (bars, signals) to the message backend.
type Publisher interface {
	Publish(ctx context.Context, key []byte, value interface{}) error
	Close() error
}

// BarStore is read/write access to ingested OHLCV bars.
type BarStore interface {
	Store(ctx context.Context, b *models.Bar) error
	StoreBatch(ctx context.Context, bars []*models.Bar) error
	// GetHistory returns bars ascending by date for one symbol.
	GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error)
	// GetWindow returns up to n bars ending at date (inclusive), ascending.
	GetWindow(ctx context.Context, symbol string, date time.Time, n int) ([]models.Bar, error)
	// GetForward returns up to n bars starting at date (inclusive), ascending.
	GetForward(ctx context.Context, symbol string, date time.Time, n int) ([]models.Bar, error)
	Symbols(ctx context.Context) ([]string, error)
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalStore persists signals. The natural key is (symbol, date); Insert
// for an existing key replaces the prior row, so duplicate suppression is
// a pre-check plus idempotent write.
type SignalStore interface {
	Insert(ctx context.Context, s *models.Signal) error
	Exists(ctx context.Context, symbol string, date time.Time) (bool, error)
	GetUnlabeled(ctx context.Context) ([]models.Signal, error)
	GetLabeled(ctx context.Context) ([]models.Signal, error)
	// SetLabel grades a signal; callers only pass signals that are still
	// unlabeled, keeping the transition one-way.
	SetLabel(ctx context.Context, s *models.Signal, win bool) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Signal, error)
}

// AccuracyStore upserts per-cohort accuracy records keyed by (symbol, date).
type AccuracyStore interface {
	Upsert(ctx context.Context, recs []models.AccuracyRecord) error
	Query(ctx context.Context, symbol string, from, to time.Time) ([]models.AccuracyRecord, error)
}

// PredictionStore upserts classifier outputs keyed by (symbol, date).
type PredictionStore interface {
	Upsert(ctx context.Context, rows []models.Prediction) error
	GetByDate(ctx context.Context, date time.Time) ([]models.Prediction, error)
	GetLatest(ctx context.Context) ([]models.Prediction, error)
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordBarIngested(backend, symbol string)
	RecordSignalGenerated(symbol string)
	RecordLabelAssigned(symbol string, win bool)
	RecordAccuracy(symbol string, accuracy float64)
	RecordError(kind string)
	RecordStageDuration(stage string, seconds float64)
}
