package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"freightgo/internal/types"
)

func TestEncodeKeysByDriver(t *testing.T) {
	e := PositionEvent{
		DriverID:   "d-1",
		Lat:        48.8566,
		Lng:        2.3522,
		RecordedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	msg, err := encode(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Samples from one driver must land on one partition.
	if string(msg.Key) != "d-1" {
		t.Errorf("key = %q, want %q", msg.Key, "d-1")
	}
	var got PositionEvent
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if got.DriverID != types.ID("d-1") || got.Lat != e.Lat || got.Lng != e.Lng {
		t.Errorf("decoded %+v, want %+v", got, e)
	}
	if !got.RecordedAt.Equal(e.RecordedAt) {
		t.Errorf("recorded_at = %v, want %v", got.RecordedAt, e.RecordedAt)
	}
}

func TestCloseWithoutWriter(t *testing.T) {
	p := NewPositionProducer(nil)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
