package usecase

import (
	"context"
	"testing"
	"time"

	"SigPipe/internal/domain/models"
)

func labeledSignal(symbol string, date time.Time, win bool) models.Signal {
	w := win
	return models.Signal{Symbol: symbol, Date: date, SignalType: models.SignalUp, LabelWin: &w}
}

func TestAggregateGroupsByCohort(t *testing.T) {
	d1 := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	labeled := []models.Signal{
		labeledSignal("FPT", d1, true),
		labeledSignal("FPT", d1, true),
		labeledSignal("FPT", d1, false),
		labeledSignal("HPG", d1, false),
		labeledSignal("FPT", d2, true),
	}

	recs := Aggregate(labeled, "rule-v1")
	if len(recs) != 3 {
		t.Fatalf("expected 3 cohorts, got %d", len(recs))
	}

	// sorted by date then symbol
	if recs[0].Symbol != "FPT" || !recs[0].Date.Equal(d1) {
		t.Fatalf("unexpected first cohort: %+v", recs[0])
	}
	if recs[1].Symbol != "HPG" || !recs[1].Date.Equal(d1) {
		t.Fatalf("unexpected second cohort: %+v", recs[1])
	}
	if recs[2].Symbol != "FPT" || !recs[2].Date.Equal(d2) {
		t.Fatalf("unexpected third cohort: %+v", recs[2])
	}

	if recs[0].Total != 3 || recs[0].Correct != 2 || recs[0].Accuracy != 0.6667 {
		t.Fatalf("FPT %s cohort wrong: %+v", d1.Format("2006-01-02"), recs[0])
	}
	if recs[1].Total != 1 || recs[1].Correct != 0 || recs[1].Accuracy != 0 {
		t.Fatalf("HPG cohort wrong: %+v", recs[1])
	}
	if recs[2].Total != 1 || recs[2].Correct != 1 || recs[2].Accuracy != 1 {
		t.Fatalf("FPT %s cohort wrong: %+v", d2.Format("2006-01-02"), recs[2])
	}
	for _, r := range recs {
		if r.ModelVersion != "rule-v1" {
			t.Fatalf("model version not carried: %+v", r)
		}
	}
}

func TestAggregateSkipsUnlabeled(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	labeled := []models.Signal{
		labeledSignal("FPT", d, true),
		{Symbol: "FPT", Date: d, SignalType: models.SignalUp}, // LabelWin nil
	}
	recs := Aggregate(labeled, "rule-v1")
	if len(recs) != 1 || recs[0].Total != 1 {
		t.Fatalf("unlabeled row counted: %+v", recs)
	}
}

func TestAccuracyRunUpsertsAndRecords(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	signals := &fakeSignalStore{rows: []models.Signal{
		labeledSignal("FPT", d, true),
		labeledSignal("FPT", d, false),
		unlabeledSignal("HPG", d, models.SignalUp), // excluded from GetLabeled
	}}
	store := &fakeAccuracyStore{}
	m := newFakeMetrics()
	agg := NewAccuracyAggregator(signals, store, m, "rule-v1")

	recs, err := agg.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 cohort, got %d", len(recs))
	}
	if recs[0].Accuracy != 0.5 {
		t.Fatalf("accuracy = %v, want 0.5", recs[0].Accuracy)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upsert not called with cohorts: %+v", store.upserted)
	}
	if m.accuracy["FPT"] != 0.5 {
		t.Fatalf("accuracy metric not recorded: %v", m.accuracy)
	}
}

func TestAccuracyRunEmptyIsNoOp(t *testing.T) {
	signals := &fakeSignalStore{}
	store := &fakeAccuracyStore{}
	agg := NewAccuracyAggregator(signals, store, newFakeMetrics(), "rule-v1")

	recs, err := agg.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if recs != nil || len(store.upserted) != 0 {
		t.Fatalf("empty labeled set should not upsert: %v %v", recs, store.upserted)
	}
}
