package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"SigPipe/internal/domain/models"
)

// In-memory stores for the usecase tests. They honor the same ordering
// contracts as the ClickHouse implementations: histories ascend by date,
// windows end at the anchor date, forward slices start at it.

type fakeBarStore struct {
	bars       map[string][]models.Bar
	historyErr error
	forwardErr error
}

func newFakeBarStore() *fakeBarStore {
	return &fakeBarStore{bars: make(map[string][]models.Bar)}
}

func (f *fakeBarStore) add(bars ...models.Bar) {
	for _, b := range bars {
		f.bars[b.Symbol] = append(f.bars[b.Symbol], b)
	}
	for sym := range f.bars {
		rows := f.bars[sym]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}
}

func (f *fakeBarStore) Store(_ context.Context, b *models.Bar) error {
	f.add(*b)
	return nil
}

func (f *fakeBarStore) StoreBatch(_ context.Context, bars []*models.Bar) error {
	for _, b := range bars {
		f.add(*b)
	}
	return nil
}

func (f *fakeBarStore) GetHistory(_ context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	var out []models.Bar
	for _, b := range f.bars[symbol] {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBarStore) GetWindow(_ context.Context, symbol string, date time.Time, n int) ([]models.Bar, error) {
	var out []models.Bar
	for _, b := range f.bars[symbol] {
		if b.Date.After(date) {
			continue
		}
		out = append(out, b)
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (f *fakeBarStore) GetForward(_ context.Context, symbol string, date time.Time, n int) ([]models.Bar, error) {
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	var out []models.Bar
	for _, b := range f.bars[symbol] {
		if b.Date.Before(date) {
			continue
		}
		out = append(out, b)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func (f *fakeBarStore) Symbols(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(f.bars))
	for sym := range f.bars {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeBarStore) LatestDate(_ context.Context, symbol string) (time.Time, error) {
	rows := f.bars[symbol]
	if len(rows) == 0 {
		return time.Time{}, fmt.Errorf("no bars for %s: %w", symbol, models.ErrNoValidData)
	}
	return rows[len(rows)-1].Date, nil
}

func (f *fakeBarStore) Health(context.Context) error { return nil }
func (f *fakeBarStore) Close() error                 { return nil }

type fakeSignalStore struct {
	rows        []models.Signal
	insertErr   error
	existsErr   error
	setLabelErr error
}

func (f *fakeSignalStore) Insert(_ context.Context, s *models.Signal) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeSignalStore) Exists(_ context.Context, symbol string, date time.Time) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for i := range f.rows {
		if f.rows[i].Symbol == symbol && f.rows[i].Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSignalStore) GetUnlabeled(context.Context) ([]models.Signal, error) {
	var out []models.Signal
	for _, s := range f.rows {
		if s.LabelWin == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSignalStore) GetLabeled(context.Context) ([]models.Signal, error) {
	var out []models.Signal
	for _, s := range f.rows {
		if s.LabelWin != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSignalStore) SetLabel(_ context.Context, s *models.Signal, win bool) error {
	if f.setLabelErr != nil {
		return f.setLabelErr
	}
	for i := range f.rows {
		if f.rows[i].Symbol == s.Symbol && f.rows[i].Date.Equal(s.Date) {
			w := win
			f.rows[i].LabelWin = &w
			s.LabelWin = &w
			return nil
		}
	}
	return fmt.Errorf("signal not found: %s %s", s.Symbol, s.Date.Format("2006-01-02"))
}

func (f *fakeSignalStore) Query(_ context.Context, symbol string, from, to time.Time, limit int) ([]models.Signal, error) {
	var out []models.Signal
	for _, s := range f.rows {
		if s.Symbol == symbol {
			out = append(out, s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeAccuracyStore struct {
	upserted  []models.AccuracyRecord
	upsertErr error
}

func (f *fakeAccuracyStore) Upsert(_ context.Context, recs []models.AccuracyRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, recs...)
	return nil
}

func (f *fakeAccuracyStore) Query(context.Context, string, time.Time, time.Time) ([]models.AccuracyRecord, error) {
	return f.upserted, nil
}

type fakePredictionStore struct {
	upserted []models.Prediction
}

func (f *fakePredictionStore) Upsert(_ context.Context, rows []models.Prediction) error {
	f.upserted = append(f.upserted, rows...)
	return nil
}

func (f *fakePredictionStore) GetByDate(context.Context, time.Time) ([]models.Prediction, error) {
	return f.upserted, nil
}

func (f *fakePredictionStore) GetLatest(context.Context) ([]models.Prediction, error) {
	return f.upserted, nil
}

type fakeClassifier struct {
	prob float64
	err  error
}

func (f *fakeClassifier) Predict(context.Context, string, models.FeatureVector) (float64, error) {
	return f.prob, f.err
}

type publishedEvent struct {
	key   []byte
	value interface{}
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, key []byte, value interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{key: key, value: value})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	bars     int
	signals  int
	labels   map[string]int // "win"/"loss"
	accuracy map[string]float64
	errs     map[string]int
	stages   []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		labels:   make(map[string]int),
		accuracy: make(map[string]float64),
		errs:     make(map[string]int),
	}
}

func (m *fakeMetrics) RecordBarIngested(string, string) { m.bars++ }
func (m *fakeMetrics) RecordSignalGenerated(string)     { m.signals++ }

func (m *fakeMetrics) RecordLabelAssigned(_ string, win bool) {
	if win {
		m.labels["win"]++
	} else {
		m.labels["loss"]++
	}
}

func (m *fakeMetrics) RecordAccuracy(symbol string, accuracy float64) {
	m.accuracy[symbol] = accuracy
}

func (m *fakeMetrics) RecordError(kind string) { m.errs[kind]++ }

func (m *fakeMetrics) RecordStageDuration(stage string, _ float64) {
	m.stages = append(m.stages, stage)
}

// dailyBars builds n consecutive daily bars from the given closes.
func dailyBars(symbol string, start time.Time, closes []float64, volumes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		v := 1000.0
		if volumes != nil {
			v = volumes[i]
		}
		bars[i] = models.Bar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: v,
		}
	}
	return bars
}
