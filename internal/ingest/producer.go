// README: Kafka producer for driver position events.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"freightgo/internal/types"
)

// PositionEvent is the wire format of one driver position sample.
type PositionEvent struct {
	DriverID   types.ID  `json:"driver_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

const publishTimeout = 2 * time.Second

// Publisher is the producer side of the position pipeline. The API process
// publishes through it when brokers are configured; the consumer binary
// applies the events.
type Publisher interface {
	Publish(ctx context.Context, e PositionEvent) error
}

type PositionProducer struct {
	writer *kafka.Writer
}

func NewPositionProducer(writer *kafka.Writer) *PositionProducer {
	return &PositionProducer{writer: writer}
}

// Publish sends one position sample, bounded by a short timeout so a slow
// broker cannot stall the caller.
func (p *PositionProducer) Publish(ctx context.Context, e PositionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg, err := encode(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// encode keys by driver so one driver's samples stay ordered per partition.
func encode(e PositionEvent) (kafka.Message, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(e.DriverID), Value: b}, nil
}

func (p *PositionProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
