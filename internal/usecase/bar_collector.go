package usecase

import (
	"context"
	"fmt"
	"time"

	"SigPipe/internal/domain/models"
	domrepo "SigPipe/internal/domain/repository"
)

// BarProcessor routes ingested bars to the configured backend: the Kafka
// bars topic or the ClickHouse bar store directly.
type BarProcessor struct {
	pub     domrepo.Publisher
	store   domrepo.BarStore
	metrics domrepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

func NewBarProcessor(pub domrepo.Publisher, store domrepo.BarStore, metrics domrepo.Metrics, backend string, batchSz int, batchTO time.Duration) *BarProcessor {
	if batchSz <= 0 {
		batchSz = 100
	}
	if batchTO <= 0 {
		batchTO = 2 * time.Second
	}
	return &BarProcessor{pub: pub, store: store, metrics: metrics, backend: backend, batchSz: batchSz, batchTO: batchTO}
}

// Process routes a single bar.
func (p *BarProcessor) Process(ctx context.Context, b *models.Bar) error {
	if b == nil {
		return fmt.Errorf("bar is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, []byte(b.Symbol), barEvent(b))
	case "clickhouse":
		err = p.store.Store(ctx, b)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("ingest")
		return fmt.Errorf("process bar: %w", err)
	}

	p.metrics.RecordBarIngested(p.backend, b.Symbol)
	p.metrics.RecordStageDuration("ingest", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes a batch of bars.
func (p *BarProcessor) ProcessBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	var err error
	switch p.backend {
	case "kafka":
		for _, b := range bars {
			if perr := p.pub.Publish(ctx, []byte(b.Symbol), barEvent(b)); perr != nil {
				err = perr
			}
		}
	case "clickhouse":
		err = p.store.StoreBatch(ctx, bars)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("ingest_batch")
		return fmt.Errorf("process batch: %w", err)
	}
	for _, b := range bars {
		p.metrics.RecordBarIngested(p.backend, b.Symbol)
	}
	return nil
}

// Close closes underlying resources if available.
func (p *BarProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}

func barEvent(b *models.Bar) map[string]interface{} {
	return map[string]interface{}{
		"symbol": b.Symbol,
		"date":   b.Date.Format("2006-01-02"),
		"o":      b.Open,
		"h":      b.High,
		"l":      b.Low,
		"c":      b.Close,
		"v":      b.Volume,
		"fb":     b.ForeignBuyValue,
		"fs":     b.ForeignSellValue,
	}
}

// BarCollector connects the live feed to the processor.
type BarCollector struct {
	stream  domrepo.BarStream
	proc    *BarProcessor
	metrics domrepo.Metrics
}

func NewBarCollector(stream domrepo.BarStream, proc *BarProcessor, metrics domrepo.Metrics) *BarCollector {
	return &BarCollector{stream: stream, proc: proc, metrics: metrics}
}

func (c *BarCollector) IsConnected() bool { return c.stream.IsConnected() }

func (c *BarCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	barCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, barCh, errCh)
	return nil
}

func (c *BarCollector) consume(ctx context.Context, barCh <-chan *models.Bar, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case b := <-barCh:
			if b == nil {
				continue
			}
			_ = c.proc.Process(ctx, b)
		}
	}
}

// Processor returns the underlying BarProcessor for lifecycle management.
func (c *BarCollector) Processor() *BarProcessor { return c.proc }

func (c *BarCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
