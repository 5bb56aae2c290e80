package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"SigPipe/internal/domain/models"
	domrepo "SigPipe/internal/domain/repository"
)

// LabelAssignerConfig names the grading constants.
type LabelAssignerConfig struct {
	MaturationDays int     // calendar days before a signal may be graded
	ForwardWindow  int     // price observations after the signal date
	WinThreshold   float64 // fractional move that counts as realized (0.005 = 0.5%)
}

// LabelAssigner grades matured signals against the realized price path.
// The transition is one-way: it only ever sees unlabeled signals and
// writes each label exactly once.
type LabelAssigner struct {
	bars    domrepo.BarStore
	signals domrepo.SignalStore
	metrics domrepo.Metrics
	cfg     LabelAssignerConfig
	now     func() time.Time
}

func NewLabelAssigner(bars domrepo.BarStore, signals domrepo.SignalStore, metrics domrepo.Metrics, cfg LabelAssignerConfig) *LabelAssigner {
	if cfg.MaturationDays <= 0 {
		cfg.MaturationDays = 3
	}
	if cfg.ForwardWindow <= 0 {
		cfg.ForwardWindow = 3
	}
	if cfg.WinThreshold <= 0 {
		cfg.WinThreshold = 0.005
	}
	return &LabelAssigner{bars: bars, signals: signals, metrics: metrics, cfg: cfg, now: time.Now}
}

// LabelResult summarizes one grading pass.
type LabelResult struct {
	Labeled  int
	Deferred int // not matured yet, or forward prices missing
	Failed   int
}

// Run grades every unlabeled signal that has matured. Deferred and failed
// items are skipped and retried on a later pass.
func (a *LabelAssigner) Run(ctx context.Context) (LabelResult, error) {
	var res LabelResult
	pending, err := a.signals.GetUnlabeled(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch unlabeled: %w", err)
	}

	now := a.now()
	for i := range pending {
		sig := &pending[i]
		win, err := a.grade(ctx, sig, now)
		switch {
		case err == nil:
			if err := a.signals.SetLabel(ctx, sig, win); err != nil {
				// never mark a signal labeled on a store failure
				a.metrics.RecordError("label_store")
				res.Failed++
				continue
			}
			a.metrics.RecordLabelAssigned(sig.Symbol, win)
			res.Labeled++
		case errors.Is(err, models.ErrDeferredNotReady):
			res.Deferred++
		default:
			a.metrics.RecordError("label_item")
			res.Failed++
		}
	}
	return res, nil
}

// grade decides win/loss for one matured signal, or ErrDeferredNotReady
// when the maturation window has not elapsed or forward data is short.
func (a *LabelAssigner) grade(ctx context.Context, sig *models.Signal, now time.Time) (bool, error) {
	if now.Sub(sig.Date) < time.Duration(a.cfg.MaturationDays)*24*time.Hour {
		return false, models.ErrDeferredNotReady
	}

	forward, err := a.bars.GetForward(ctx, sig.Symbol, sig.Date, a.cfg.ForwardWindow+1)
	if err != nil {
		return false, fmt.Errorf("forward prices: %w", err)
	}
	if len(forward) < 2 {
		return false, models.ErrDeferredNotReady
	}

	entry := forward[0].Close
	exit := forward[len(forward)-1].Close
	if entry == 0 {
		return false, fmt.Errorf("zero entry close for %s %s", sig.Symbol, sig.Date.Format("2006-01-02"))
	}
	pct := (exit - entry) / entry

	return Outcome(sig.SignalType, pct, a.cfg.WinThreshold), nil
}

// Outcome applies the fixed grading rule: up wins on a move at or above
// +threshold, down on a move at or below -threshold, flat when the move
// stayed inside the band.
func Outcome(st models.SignalType, pctChange, threshold float64) bool {
	switch st {
	case models.SignalUp:
		return pctChange >= threshold
	case models.SignalDown:
		return pctChange <= -threshold
	default:
		return math.Abs(pctChange) < threshold
	}
}
