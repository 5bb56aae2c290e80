package usecase

import (
	"context"
	"testing"
	"time"
)

func TestKafkaBarsHandlerStoresBar(t *testing.T) {
	store := newFakeBarStore()
	m := newFakeMetrics()
	h := NewKafkaBarsHandler("sigpipe.bars", store, m)

	if h.Topic() != "sigpipe.bars" {
		t.Fatalf("topic = %q", h.Topic())
	}

	msg := []byte(`{"symbol":"FPT","date":"2024-06-03","o":100,"h":102,"l":99,"c":101.5,"v":12345,"fb":2e9,"fs":1e9}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := store.bars["FPT"]
	if len(rows) != 1 {
		t.Fatalf("expected 1 stored bar, got %d", len(rows))
	}
	b := rows[0]
	if !b.Date.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %s", b.Date)
	}
	if b.Close != 101.5 || b.Volume != 12345 {
		t.Fatalf("bar fields wrong: %+v", b)
	}
	if b.ForeignFlow() != 1e9 {
		t.Fatalf("foreign flow = %v", b.ForeignFlow())
	}
	if m.bars != 1 {
		t.Fatalf("ingest metric not recorded")
	}
}

func TestKafkaBarsHandlerRejectsMalformedMessages(t *testing.T) {
	store := newFakeBarStore()
	m := newFakeMetrics()
	h := NewKafkaBarsHandler("sigpipe.bars", store, m)

	if err := h.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if m.errs["consumer_unmarshal"] != 1 {
		t.Fatalf("unmarshal error not recorded: %v", m.errs)
	}

	if err := h.Handle(context.Background(), []byte(`{"symbol":"FPT","date":"03/06/2024"}`)); err == nil {
		t.Fatalf("expected date parse error")
	}
	if m.errs["consumer_bad_date"] != 1 {
		t.Fatalf("bad date not recorded: %v", m.errs)
	}
	if len(store.bars) != 0 {
		t.Fatalf("malformed message reached the store")
	}
	if m.bars != 0 {
		t.Fatalf("ingest metric recorded for rejected message")
	}
}
