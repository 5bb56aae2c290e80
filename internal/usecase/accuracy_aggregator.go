package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"SigPipe/internal/domain/models"
	domrepo "SigPipe/internal/domain/repository"
)

// AccuracyAggregator reduces labeled signals into per-cohort win rates.
// Cohort key is (date, symbol); recomputation upserts, so a re-run after
// new labels lands on the same rows.
type AccuracyAggregator struct {
	signals      domrepo.SignalStore
	accuracy     domrepo.AccuracyStore
	metrics      domrepo.Metrics
	modelVersion string
}

func NewAccuracyAggregator(signals domrepo.SignalStore, accuracy domrepo.AccuracyStore, metrics domrepo.Metrics, modelVersion string) *AccuracyAggregator {
	return &AccuracyAggregator{signals: signals, accuracy: accuracy, metrics: metrics, modelVersion: modelVersion}
}

// Run recomputes accuracy for every cohort present in the labeled set and
// upserts the records. Returns the records for callers that report them.
func (a *AccuracyAggregator) Run(ctx context.Context) ([]models.AccuracyRecord, error) {
	labeled, err := a.signals.GetLabeled(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch labeled: %w", err)
	}
	if len(labeled) == 0 {
		return nil, nil
	}

	recs := Aggregate(labeled, a.modelVersion)
	if err := a.accuracy.Upsert(ctx, recs); err != nil {
		a.metrics.RecordError("accuracy_upsert")
		return nil, fmt.Errorf("upsert accuracy: %w", err)
	}
	for _, r := range recs {
		a.metrics.RecordAccuracy(r.Symbol, r.Accuracy)
	}
	return recs, nil
}

type cohortKey struct {
	date   time.Time
	symbol string
}

// Aggregate groups labeled signals by (date, symbol) and computes
// accuracy = correct/total for each cohort. Pure; exported for tests and
// ad hoc reporting.
func Aggregate(labeled []models.Signal, modelVersion string) []models.AccuracyRecord {
	groups := make(map[cohortKey]*models.AccuracyRecord)
	for i := range labeled {
		s := &labeled[i]
		if s.LabelWin == nil {
			continue // defensive; callers pass labeled sets
		}
		k := cohortKey{date: s.Date, symbol: s.Symbol}
		rec, ok := groups[k]
		if !ok {
			rec = &models.AccuracyRecord{Symbol: s.Symbol, Date: s.Date, ModelVersion: modelVersion}
			groups[k] = rec
		}
		rec.Total++
		if *s.LabelWin {
			rec.Correct++
		}
	}

	out := make([]models.AccuracyRecord, 0, len(groups))
	for _, rec := range groups {
		if rec.Total > 0 {
			rec.Accuracy = round4(float64(rec.Correct) / float64(rec.Total))
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
