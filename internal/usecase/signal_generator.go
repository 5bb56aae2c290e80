package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"SigPipe/internal/domain/models"
	domrepo "SigPipe/internal/domain/repository"
	"SigPipe/internal/services/indicators"
)

// SignalGeneratorConfig carries the tunables that used to be inline
// constants in earlier revisions of the scoring logic.
type SignalGeneratorConfig struct {
	MoveThresholdPct float64 // 1-day move that counts as directional, in percent
	MinHistory       int     // bars required before a signal is attempted
	Lookback         int     // trailing window length handed to the indicator engine
	ModelVersion     string
}

// SignalGenerator turns indicator snapshots into unlabeled signals and
// persists them with duplicate suppression on (symbol, date).
type SignalGenerator struct {
	bars    domrepo.BarStore
	signals domrepo.SignalStore
	pub     domrepo.Publisher // optional signal-events publisher
	metrics domrepo.Metrics
	cfg     SignalGeneratorConfig
}

func NewSignalGenerator(bars domrepo.BarStore, signals domrepo.SignalStore, pub domrepo.Publisher, metrics domrepo.Metrics, cfg SignalGeneratorConfig) *SignalGenerator {
	if cfg.MoveThresholdPct <= 0 {
		cfg.MoveThresholdPct = 0.5
	}
	if cfg.MinHistory < indicators.MinHistory {
		cfg.MinHistory = indicators.MinHistory
	}
	if cfg.Lookback < cfg.MinHistory {
		cfg.Lookback = 40
	}
	return &SignalGenerator{bars: bars, signals: signals, pub: pub, metrics: metrics, cfg: cfg}
}

// GenerateResult summarizes one batch pass.
type GenerateResult struct {
	Generated int
	Skipped   int // duplicates and insufficient-history dates
	Failed    int
}

// Run walks each symbol's history and generates one signal per bar from
// the first date with enough trailing history. Per-item failures are
// counted and skipped; they never abort the batch.
func (g *SignalGenerator) Run(ctx context.Context, symbols []string) (GenerateResult, error) {
	var res GenerateResult
	for _, symbol := range symbols {
		bars, err := g.bars.GetHistory(ctx, symbol, time.Time{}, time.Time{})
		if err != nil {
			g.metrics.RecordError("generator_history")
			res.Failed++
			continue
		}
		if len(bars) < g.cfg.MinHistory {
			res.Skipped++
			continue
		}
		for i := g.cfg.MinHistory - 1; i < len(bars); i++ {
			lo := i - g.cfg.Lookback + 1
			if lo < 0 {
				lo = 0
			}
			switch err := g.generateFromWindow(ctx, bars[lo:i+1]); {
			case err == nil:
				res.Generated++
			case errors.Is(err, errDuplicateSignal), errors.Is(err, models.ErrInsufficientHistory):
				res.Skipped++
			default:
				g.metrics.RecordError("generator_item")
				res.Failed++
			}
		}
	}
	return res, nil
}

// GenerateForDate generates one signal for (symbol, date) from the
// trailing window ending at that date. Returns errDuplicateSignal when a
// signal already exists (a no-op by contract, not an error condition for
// callers running batches).
func (g *SignalGenerator) GenerateForDate(ctx context.Context, symbol string, date time.Time) error {
	window, err := g.bars.GetWindow(ctx, symbol, date, g.cfg.Lookback)
	if err != nil {
		return fmt.Errorf("get window: %w", err)
	}
	return g.generateFromWindow(ctx, window)
}

var errDuplicateSignal = errors.New("signal already exists")

func (g *SignalGenerator) generateFromWindow(ctx context.Context, window []models.Bar) error {
	if len(window) < g.cfg.MinHistory {
		return models.ErrInsufficientHistory
	}
	latest := window[len(window)-1]

	// duplicate suppression: at most one signal per (symbol, date)
	exists, err := g.signals.Exists(ctx, latest.Symbol, latest.Date)
	if err != nil {
		return fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return errDuplicateSignal
	}

	snap, err := indicators.Compute(window)
	if err != nil {
		return err
	}

	sig := g.build(window, snap)
	sanitizeSignal(sig)

	if err := g.signals.Insert(ctx, sig); err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	g.metrics.RecordSignalGenerated(sig.Symbol)

	if g.pub != nil {
		// best-effort event; the stored row is the source of truth
		if err := g.pub.Publish(ctx, []byte(sig.Symbol), signalEvent(sig)); err != nil {
			g.metrics.RecordError("signal_publish")
		}
	}
	return nil
}

func (g *SignalGenerator) build(window []models.Bar, snap *indicators.Snapshot) *models.Signal {
	latest := window[len(window)-1]
	prev := window[len(window)-2]

	pct := 0.0
	if prev.Close != 0 {
		pct = (latest.Close - prev.Close) / prev.Close * 100
	}

	f := signalFactors{
		priceChangePct: pct,
		volume:         latest.Volume,
		avgVolume5:     snap.AvgVolume5,
		momentum:       snap.Momentum,
		macdTrend:      snap.MACDTrend,
		bollingerTag:   snap.BollingerTag,
		rsi:            snap.RSI,
		volatility:     snap.Volatility,
		foreignFlow:    snap.ForeignFlow,
	}

	return &models.Signal{
		Symbol:           latest.Symbol,
		Date:             latest.Date,
		SignalType:       classifyDirection(pct, g.cfg.MoveThresholdPct),
		ConfidenceScore:  scoreConfidence(f),
		VolatilityTag:    volatilityTag(snap.Volatility),
		VolumeBehavior:   volumeBehavior(latest.Volume, snap.AvgVolume5),
		MarketSentiment:  classifySentiment(snap.RSI, snap.VolumeSpikeRatio, snap.Volatility),
		TrendStrength:    trendStrength(pct),
		RSIScore:         round2(snap.RSI),
		VolumeSpikeRatio: round2(snap.VolumeSpikeRatio),
		Momentum:         round2(snap.Momentum),
		MACDTrend:        snap.MACDTrend,
		BollingerTag:     snap.BollingerTag,
		ForeignFlow:      math.Round(snap.ForeignFlow),
		Notes:            fmt.Sprintf("generated from %s bars on %s", latest.Symbol, latest.Date.Format("2006-01-02")),
		ModelVersion:     g.cfg.ModelVersion,
	}
}

// signalFactors is the input to the confidence rule fold.
type signalFactors struct {
	priceChangePct float64
	volume         float64
	avgVolume5     float64
	momentum       float64
	macdTrend      string
	bollingerTag   string
	rsi            float64
	volatility     float64
	foreignFlow    float64
}

// confidenceRule is one (predicate, delta) step of the score fold. Rules
// within a tier carry exclusive predicates, so each fires at most once
// and the fold is order-independent within the documented rule set.
type confidenceRule struct {
	name  string
	match func(f signalFactors) bool
	delta float64
}

var confidenceRules = []confidenceRule{
	{"price_move_gt2", func(f signalFactors) bool { a := math.Abs(f.priceChangePct); return a > 2 }, 0.15},
	{"price_move_gt1", func(f signalFactors) bool { a := math.Abs(f.priceChangePct); return a > 1 && a <= 2 }, 0.10},
	{"price_move_gt_half", func(f signalFactors) bool { a := math.Abs(f.priceChangePct); return a > 0.5 && a <= 1 }, 0.05},
	{"volume_gt_1_5x", func(f signalFactors) bool { return f.volume > 1.5*f.avgVolume5 }, 0.15},
	{"volume_gt_1_2x", func(f signalFactors) bool { return f.volume > 1.2*f.avgVolume5 && f.volume <= 1.5*f.avgVolume5 }, 0.10},
	{"volume_gt_avg", func(f signalFactors) bool { return f.volume > f.avgVolume5 && f.volume <= 1.2*f.avgVolume5 }, 0.05},
	{"momentum_positive", func(f signalFactors) bool { return f.momentum > 0 }, 0.05},
	{"macd_up", func(f signalFactors) bool { return f.macdTrend == indicators.TrendUp }, 0.10},
	{"bollinger_break", func(f signalFactors) bool {
		return f.bollingerTag == indicators.BandOverbought || f.bollingerTag == indicators.BandOversold
	}, 0.10},
	{"rsi_oversold", func(f signalFactors) bool { return f.rsi < 30 }, 0.10},
	{"rsi_overbought", func(f signalFactors) bool { return f.rsi > 70 }, -0.10},
	{"volatility_elevated", func(f signalFactors) bool { return f.volatility > 0.025 }, 0.05},
	{"volatility_dormant", func(f signalFactors) bool { return f.volatility < 0.005 }, -0.05},
	{"foreign_inflow", func(f signalFactors) bool { return f.foreignFlow > 0 }, 0.05},
}

// scoreConfidence folds the rule set over a neutral 0.50 base and clamps
// to [0.50, 1.00].
func scoreConfidence(f signalFactors) float64 {
	score := 0.5
	for _, r := range confidenceRules {
		if r.match(f) {
			score += r.delta
		}
	}
	if score < 0.5 {
		score = 0.5
	}
	if score > 1.0 {
		score = 1.0
	}
	return round2(score)
}

func classifyDirection(pct, threshold float64) models.SignalType {
	switch {
	case pct > threshold:
		return models.SignalUp
	case pct < -threshold:
		return models.SignalDown
	default:
		return models.SignalFlat
	}
}

func classifySentiment(rsi, volumeSpike, volatility float64) string {
	if rsi > 70 && volumeSpike > 1.2 {
		return models.SentimentGreed
	}
	if rsi < 30 && volatility > 0.02 {
		return models.SentimentFear
	}
	return models.SentimentNeutral
}

func volatilityTag(v float64) string {
	switch {
	case v > 0.02:
		return models.VolatilityHigh
	case v < 0.005:
		return models.VolatilityLow
	default:
		return models.VolatilityMedium
	}
}

func volumeBehavior(volume, avg5 float64) string {
	switch {
	case volume > avg5*1.2:
		return models.VolumeRising
	case volume < avg5*0.8:
		return models.VolumeFalling
	default:
		return models.VolumeFlat
	}
}

func trendStrength(pct float64) string {
	a := math.Abs(pct)
	switch {
	case a > 1:
		return models.TrendStrong
	case a > 0.5:
		return models.TrendModerate
	default:
		return models.TrendWeak
	}
}

// sanitizeSignal zeroes non-finite floats so a degenerate window can
// never poison the store.
func sanitizeSignal(s *models.Signal) {
	for _, p := range []*float64{
		&s.ConfidenceScore, &s.RSIScore, &s.VolumeSpikeRatio,
		&s.Momentum, &s.ForeignFlow,
	} {
		if math.IsNaN(*p) || math.IsInf(*p, 0) {
			*p = 0
		}
	}
}

func signalEvent(s *models.Signal) map[string]interface{} {
	return map[string]interface{}{
		"symbol":      s.Symbol,
		"date":        s.Date.Format("2006-01-02"),
		"signal_type": string(s.SignalType),
		"confidence":  s.ConfidenceScore,
		"sentiment":   s.MarketSentiment,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
