package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"SigPipe/internal/domain/models"
	"SigPipe/internal/services/indicators"
)

func flatCloses(n int, base float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = base + 0.3*math.Sin(float64(i))
	}
	return closes
}

func newTestGenerator(bars *fakeBarStore, signals *fakeSignalStore, pub *fakePublisher, m *fakeMetrics) *SignalGenerator {
	cfg := SignalGeneratorConfig{ModelVersion: "rule-v1"}
	if pub == nil {
		return NewSignalGenerator(bars, signals, nil, m, cfg)
	}
	return NewSignalGenerator(bars, signals, pub, m, cfg)
}

func TestGenerateForDateInsertsSignal(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeBarStore()
	store.add(dailyBars("FPT", start, flatCloses(20, 100), nil)...)

	signals := &fakeSignalStore{}
	pub := &fakePublisher{}
	m := newFakeMetrics()
	gen := newTestGenerator(store, signals, pub, m)

	date := start.AddDate(0, 0, 19)
	if err := gen.GenerateForDate(context.Background(), "FPT", date); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(signals.rows) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals.rows))
	}
	sig := signals.rows[0]
	if sig.Symbol != "FPT" || !sig.Date.Equal(date) {
		t.Fatalf("wrong key: %s %s", sig.Symbol, sig.Date)
	}
	if sig.ConfidenceScore < 0.5 || sig.ConfidenceScore > 1.0 {
		t.Fatalf("confidence %v out of [0.5, 1.0]", sig.ConfidenceScore)
	}
	if sig.LabelWin != nil {
		t.Fatalf("new signal must be unlabeled")
	}
	if sig.ModelVersion != "rule-v1" {
		t.Fatalf("model version not carried: %q", sig.ModelVersion)
	}
	if m.signals != 1 {
		t.Fatalf("expected 1 generated metric, got %d", m.signals)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	ev, ok := pub.events[0].value.(map[string]interface{})
	if !ok {
		t.Fatalf("event payload type %T", pub.events[0].value)
	}
	if ev["symbol"] != "FPT" || ev["date"] != date.Format("2006-01-02") {
		t.Fatalf("event payload mismatch: %v", ev)
	}
}

func TestGenerateForDateDuplicateIsNoOp(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeBarStore()
	store.add(dailyBars("HPG", start, flatCloses(20, 50), nil)...)

	signals := &fakeSignalStore{}
	m := newFakeMetrics()
	gen := newTestGenerator(store, signals, nil, m)

	date := start.AddDate(0, 0, 19)
	if err := gen.GenerateForDate(context.Background(), "HPG", date); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	first := signals.rows[0]

	err := gen.GenerateForDate(context.Background(), "HPG", date)
	if err == nil {
		t.Fatalf("expected duplicate error on second generate")
	}
	if len(signals.rows) != 1 {
		t.Fatalf("duplicate generate must not insert, have %d rows", len(signals.rows))
	}
	if signals.rows[0] != first {
		t.Fatalf("stored signal changed on duplicate generate")
	}
	if m.signals != 1 {
		t.Fatalf("generated metric incremented on duplicate")
	}
}

func TestRunCountsPerSymbol(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeBarStore()
	store.add(dailyBars("VNM", start, flatCloses(18, 70), nil)...)
	store.add(dailyBars("SSI", start, flatCloses(5, 30), nil)...) // too short

	signals := &fakeSignalStore{}
	m := newFakeMetrics()
	gen := newTestGenerator(store, signals, nil, m)

	res, err := gen.Run(context.Background(), []string{"VNM", "SSI"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 18 bars with MinHistory 15 yields signals at indexes 14..17
	if res.Generated != 4 {
		t.Fatalf("expected 4 generated, got %+v", res)
	}
	if res.Skipped != 1 {
		t.Fatalf("short-history symbol should be skipped, got %+v", res)
	}
	if res.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", res)
	}

	// second pass over identical data is all duplicates
	res2, err := gen.Run(context.Background(), []string{"VNM"})
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if res2.Generated != 0 || res2.Skipped != 4 {
		t.Fatalf("rerun not idempotent: %+v", res2)
	}
}

func TestRunPublishFailureDoesNotFailGeneration(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeBarStore()
	store.add(dailyBars("FPT", start, flatCloses(15, 100), nil)...)

	signals := &fakeSignalStore{}
	pub := &fakePublisher{err: context.DeadlineExceeded}
	m := newFakeMetrics()
	gen := newTestGenerator(store, signals, pub, m)

	res, err := gen.Run(context.Background(), []string{"FPT"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Generated != 1 || res.Failed != 0 {
		t.Fatalf("publish failure must not fail the item: %+v", res)
	}
	if m.errs["signal_publish"] != 1 {
		t.Fatalf("publish failure not recorded: %v", m.errs)
	}
}

func TestScoreConfidenceClampUpper(t *testing.T) {
	f := signalFactors{
		priceChangePct: 3.0, // +0.15
		volume:         2000,
		avgVolume5:     1000, // +0.15
		momentum:       5,    // +0.05
		macdTrend:      indicators.TrendUp,       // +0.10
		bollingerTag:   indicators.BandOverbought, // +0.10
		rsi:            25,    // +0.10
		volatility:     0.03,  // +0.05
		foreignFlow:    1e6,   // +0.05
	}
	if got := scoreConfidence(f); got != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", got)
	}
}

func TestScoreConfidenceClampLower(t *testing.T) {
	f := signalFactors{
		priceChangePct: 0.1,
		volume:         500,
		avgVolume5:     1000,
		momentum:       -2,
		macdTrend:      indicators.TrendDown,
		bollingerTag:   indicators.BandNormal,
		rsi:            80,    // -0.10
		volatility:     0.001, // -0.05
		foreignFlow:    -1e6,
	}
	if got := scoreConfidence(f); got != 0.5 {
		t.Fatalf("expected clamp to 0.5, got %v", got)
	}
}

func TestScoreConfidenceTierExclusivity(t *testing.T) {
	// a 1.5% move lands in the middle price tier only
	f := signalFactors{priceChangePct: 1.5, volume: 900, avgVolume5: 1000, rsi: 50, volatility: 0.01}
	if got := scoreConfidence(f); got != 0.6 {
		t.Fatalf("expected base 0.5 + 0.10 price tier = 0.6, got %v", got)
	}
}

func TestClassifyDirection(t *testing.T) {
	cases := []struct {
		pct  float64
		want models.SignalType
	}{
		{1.2, models.SignalUp},
		{0.51, models.SignalUp},
		{0.5, models.SignalFlat},
		{0.0, models.SignalFlat},
		{-0.5, models.SignalFlat},
		{-0.51, models.SignalDown},
		{-3.0, models.SignalDown},
	}
	for _, c := range cases {
		if got := classifyDirection(c.pct, 0.5); got != c.want {
			t.Errorf("classifyDirection(%v) = %v, want %v", c.pct, got, c.want)
		}
	}
}

func TestClassifySentiment(t *testing.T) {
	cases := []struct {
		rsi, spike, vol float64
		want            string
	}{
		{75, 1.3, 0.01, models.SentimentGreed},
		{75, 1.0, 0.01, models.SentimentNeutral}, // overbought without spike
		{25, 1.0, 0.03, models.SentimentFear},
		{25, 1.0, 0.01, models.SentimentNeutral}, // oversold but calm
		{50, 2.0, 0.05, models.SentimentNeutral},
	}
	for _, c := range cases {
		if got := classifySentiment(c.rsi, c.spike, c.vol); got != c.want {
			t.Errorf("classifySentiment(%v, %v, %v) = %q, want %q", c.rsi, c.spike, c.vol, got, c.want)
		}
	}
}

func TestDerivedTags(t *testing.T) {
	if got := volatilityTag(0.03); got != models.VolatilityHigh {
		t.Errorf("volatilityTag(0.03) = %q", got)
	}
	if got := volatilityTag(0.001); got != models.VolatilityLow {
		t.Errorf("volatilityTag(0.001) = %q", got)
	}
	if got := volatilityTag(0.01); got != models.VolatilityMedium {
		t.Errorf("volatilityTag(0.01) = %q", got)
	}

	if got := volumeBehavior(1300, 1000); got != models.VolumeRising {
		t.Errorf("volumeBehavior(1300, 1000) = %q", got)
	}
	if got := volumeBehavior(700, 1000); got != models.VolumeFalling {
		t.Errorf("volumeBehavior(700, 1000) = %q", got)
	}
	if got := volumeBehavior(1000, 1000); got != models.VolumeFlat {
		t.Errorf("volumeBehavior(1000, 1000) = %q", got)
	}

	if got := trendStrength(1.5); got != models.TrendStrong {
		t.Errorf("trendStrength(1.5) = %q", got)
	}
	if got := trendStrength(-0.7); got != models.TrendModerate {
		t.Errorf("trendStrength(-0.7) = %q", got)
	}
	if got := trendStrength(0.2); got != models.TrendWeak {
		t.Errorf("trendStrength(0.2) = %q", got)
	}
}

func TestSanitizeSignalZeroesNonFinite(t *testing.T) {
	s := &models.Signal{
		ConfidenceScore:  math.NaN(),
		RSIScore:         math.Inf(1),
		VolumeSpikeRatio: math.Inf(-1),
		Momentum:         1.5,
	}
	sanitizeSignal(s)
	if s.ConfidenceScore != 0 || s.RSIScore != 0 || s.VolumeSpikeRatio != 0 {
		t.Fatalf("non-finite fields not zeroed: %+v", s)
	}
	if s.Momentum != 1.5 {
		t.Fatalf("finite field mutated: %v", s.Momentum)
	}
}
