package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "SigPipe/internal/domain/repository"
	applogger "SigPipe/pkg/logger"
)

// DailyPipeline runs the batch stages in their fixed order: generate
// signals, label matured ones, evaluate accuracy, refresh predictions.
// Each stage runs to completion over its batch before the next begins; a
// failed stage stops the pipeline.
type DailyPipeline struct {
	generator *SignalGenerator
	labeler   *LabelAssigner
	evaluator *AccuracyAggregator
	refresher *PredictionRefresh
	metrics   domrepo.Metrics
	log       *applogger.Logger
	timeout   time.Duration
}

func NewDailyPipeline(
	generator *SignalGenerator,
	labeler *LabelAssigner,
	evaluator *AccuracyAggregator,
	refresher *PredictionRefresh,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *DailyPipeline {
	return &DailyPipeline{
		generator: generator,
		labeler:   labeler,
		evaluator: evaluator,
		refresher: refresher,
		metrics:   metrics,
		log:       log,
		timeout:   10 * time.Minute,
	}
}

// StepResult is the outcome of one pipeline stage.
type StepResult struct {
	Step     string  `json:"step"`
	Success  bool    `json:"success"`
	Detail   string  `json:"detail,omitempty"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration_seconds"`
}

// PipelineResult is the whole-run summary.
type PipelineResult struct {
	Success bool         `json:"success"`
	Steps   []StepResult `json:"steps"`
}

type pipelineStep struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Run executes the stages in order and stops at the first failure.
func (p *DailyPipeline) Run(ctx context.Context, symbols []string) PipelineResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	steps := []pipelineStep{
		{"generate_signals", func(ctx context.Context) (string, error) {
			r, err := p.generator.Run(ctx, symbols)
			return fmt.Sprintf("generated=%d skipped=%d failed=%d", r.Generated, r.Skipped, r.Failed), err
		}},
		{"assign_labels", func(ctx context.Context) (string, error) {
			r, err := p.labeler.Run(ctx)
			return fmt.Sprintf("labeled=%d deferred=%d failed=%d", r.Labeled, r.Deferred, r.Failed), err
		}},
		{"evaluate_accuracy", func(ctx context.Context) (string, error) {
			recs, err := p.evaluator.Run(ctx)
			return fmt.Sprintf("cohorts=%d", len(recs)), err
		}},
		{"refresh_predictions", func(ctx context.Context) (string, error) {
			r, err := p.refresher.Run(ctx, symbols)
			return fmt.Sprintf("predicted=%d skipped=%d failed=%d", r.Predicted, r.Skipped, r.Failed), err
		}},
	}

	res := PipelineResult{Success: true}
	for _, step := range steps {
		start := time.Now()
		detail, err := step.run(ctx)
		dur := time.Since(start)
		p.metrics.RecordStageDuration(step.name, dur.Seconds())

		sr := StepResult{Step: step.name, Success: err == nil, Detail: detail, Duration: dur.Seconds()}
		if err != nil {
			sr.Error = err.Error()
			res.Success = false
			res.Steps = append(res.Steps, sr)
			p.log.Error("pipeline step failed",
				applogger.String("step", step.name),
				applogger.Error(err),
			)
			break
		}
		res.Steps = append(res.Steps, sr)
		p.log.Info("pipeline step done",
			applogger.String("step", step.name),
			applogger.String("detail", detail),
			applogger.Duration("duration_ms", dur),
		)
	}
	return res
}
