package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"SigPipe/internal/domain/models"
	domrepo "SigPipe/internal/domain/repository"
	domsvc "SigPipe/internal/domain/service"
	"SigPipe/internal/services/indicators"
)

// PredictionRefreshConfig carries the recommendation thresholds applied
// to the classifier probability.
type PredictionRefreshConfig struct {
	BuyThreshold  float64 // BUY at or above
	SellThreshold float64 // SELL at or below
	Lookback      int
	ModelVersion  string
}

// PredictionRefresh builds the classifier feature vector from the latest
// bar window per symbol, calls the opaque classifier and upserts one
// prediction row per (symbol, latest date).
type PredictionRefresh struct {
	bars        domrepo.BarStore
	predictions domrepo.PredictionStore
	classifier  domsvc.Classifier
	metrics     domrepo.Metrics
	cfg         PredictionRefreshConfig
}

func NewPredictionRefresh(bars domrepo.BarStore, predictions domrepo.PredictionStore, classifier domsvc.Classifier, metrics domrepo.Metrics, cfg PredictionRefreshConfig) *PredictionRefresh {
	if cfg.BuyThreshold <= 0 {
		cfg.BuyThreshold = 0.75
	}
	if cfg.SellThreshold <= 0 {
		cfg.SellThreshold = 0.40
	}
	if cfg.Lookback < indicators.MinHistory {
		cfg.Lookback = 40
	}
	return &PredictionRefresh{bars: bars, predictions: predictions, classifier: classifier, metrics: metrics, cfg: cfg}
}

// RefreshResult summarizes one prediction pass.
type RefreshResult struct {
	Predicted int
	Skipped   int
	Failed    int
}

// Run predicts for every symbol with bars, at that symbol's latest date.
// Per-symbol failures are recorded and skipped.
func (r *PredictionRefresh) Run(ctx context.Context, symbols []string) (RefreshResult, error) {
	var res RefreshResult
	if len(symbols) == 0 {
		var err error
		symbols, err = r.bars.Symbols(ctx)
		if err != nil {
			return res, fmt.Errorf("list symbols: %w", err)
		}
	}

	rows := make([]models.Prediction, 0, len(symbols))
	for _, symbol := range symbols {
		pred, err := r.predictSymbol(ctx, symbol)
		switch {
		case err == nil:
			rows = append(rows, *pred)
			res.Predicted++
		case errors.Is(err, models.ErrInsufficientHistory):
			res.Skipped++
		default:
			r.metrics.RecordError("prediction_item")
			res.Failed++
		}
	}

	if len(rows) > 0 {
		if err := r.predictions.Upsert(ctx, rows); err != nil {
			r.metrics.RecordError("prediction_upsert")
			return res, fmt.Errorf("upsert predictions: %w", err)
		}
	}
	return res, nil
}

func (r *PredictionRefresh) predictSymbol(ctx context.Context, symbol string) (*models.Prediction, error) {
	date, err := r.bars.LatestDate(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest date: %w", err)
	}
	window, err := r.bars.GetWindow(ctx, symbol, date, r.cfg.Lookback)
	if err != nil {
		return nil, fmt.Errorf("get window: %w", err)
	}
	snap, err := indicators.Compute(window)
	if err != nil {
		return nil, err
	}

	latest := window[len(window)-1]
	fv := models.FeatureVector{
		Close:            latest.Close,
		Volume:           latest.Volume,
		MA20:             snap.SMA20,
		RSI:              snap.RSI,
		BBUpper:          snap.BollingerUpper,
		BBLower:          snap.BollingerLower,
		ForeignBuyValue:  latest.ForeignBuyValue,
		ForeignSellValue: latest.ForeignSellValue,
	}

	prob, err := r.classifier.Predict(ctx, symbol, fv)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	return &models.Prediction{
		Symbol:         symbol,
		Date:           date,
		Probability:    math.Round(prob*10000) / 10000,
		Recommendation: r.Recommend(prob),
		ModelVersion:   r.cfg.ModelVersion,
	}, nil
}

// Recommend maps a win probability to an advisory label.
func (r *PredictionRefresh) Recommend(prob float64) string {
	switch {
	case prob >= r.cfg.BuyThreshold:
		return models.RecommendationBuy
	case prob <= r.cfg.SellThreshold:
		return models.RecommendationSell
	default:
		return models.RecommendationWatch
	}
}
