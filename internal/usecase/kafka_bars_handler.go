package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SigPipe/internal/domain/models"
	domrepo "SigPipe/internal/domain/repository"
	pkgkafka "SigPipe/pkg/kafka"
)

// KafkaBarsHandler consumes bar messages and writes them to the bar store.
type KafkaBarsHandler struct {
	topic   string
	bars    domrepo.BarStore
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, bars domrepo.BarStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, bars: bars, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, date, o, h, l, c, v, fb, fs}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		Date   string  `json:"date"`
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
		FB     float64 `json:"fb"`
		FS     float64 `json:"fs"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	date, err := time.Parse("2006-01-02", m.Date)
	if err != nil {
		h.metrics.RecordError("consumer_bad_date")
		return fmt.Errorf("parse bar date %q: %w", m.Date, err)
	}

	start := time.Now()
	err = h.bars.Store(ctx, &models.Bar{
		Symbol:           m.Symbol,
		Date:             date,
		Open:             m.Open,
		High:             m.High,
		Low:              m.Low,
		Close:            m.Close,
		Volume:           m.Volume,
		ForeignBuyValue:  m.FB,
		ForeignSellValue: m.FS,
	})
	h.metrics.RecordStageDuration("bar_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordBarIngested("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
