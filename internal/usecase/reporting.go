package usecase

import (
	"context"
	"fmt"
	"time"

	"SigPipe/internal/domain/models"
	domrepo "SigPipe/internal/domain/repository"
)

// ReportingUseCase serves read-only queries over signals, accuracy logs
// and predictions for the HTTP layer.
type ReportingUseCase struct {
	signals     domrepo.SignalStore
	accuracy    domrepo.AccuracyStore
	predictions domrepo.PredictionStore
}

func NewReportingUseCase(signals domrepo.SignalStore, accuracy domrepo.AccuracyStore, predictions domrepo.PredictionStore) *ReportingUseCase {
	return &ReportingUseCase{signals: signals, accuracy: accuracy, predictions: predictions}
}

type GetSignalsParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

func (uc *ReportingUseCase) GetSignals(ctx context.Context, p GetSignalsParams) ([]models.Signal, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Limit <= 0 {
		p.Limit = 500
	}
	if p.Limit > 5000 {
		p.Limit = 5000
	}
	sigs, err := uc.signals.Query(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	return sigs, nil
}

type GetAccuracyParams struct {
	Symbol string
	From   time.Time
	To     time.Time
}

func (uc *ReportingUseCase) GetAccuracy(ctx context.Context, p GetAccuracyParams) ([]models.AccuracyRecord, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	recs, err := uc.accuracy.Query(ctx, p.Symbol, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("query accuracy: %w", err)
	}
	return recs, nil
}

// GetPredictions returns predictions for a date, or the latest set when
// the date is zero.
func (uc *ReportingUseCase) GetPredictions(ctx context.Context, date time.Time) ([]models.Prediction, error) {
	if date.IsZero() {
		preds, err := uc.predictions.GetLatest(ctx)
		if err != nil {
			return nil, fmt.Errorf("latest predictions: %w", err)
		}
		return preds, nil
	}
	preds, err := uc.predictions.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("predictions by date: %w", err)
	}
	return preds, nil
}
