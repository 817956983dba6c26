// README: Notifier abstraction; delivery is best-effort and never blocks state changes.
package notify

import (
	"context"
	"fmt"

	"freightgo/internal/types"
)

// Notifier pushes a message to all subscribers of a topic. Implementations
// must treat delivery as best-effort: an error means the message was dropped,
// callers log it and move on.
type Notifier interface {
	Notify(ctx context.Context, topic string, msg Message) error
}

func DriverJobsTopic(id types.ID) string     { return fmt.Sprintf("driver:%s:jobs", id) }
func DriverSearchesTopic(id types.ID) string { return fmt.Sprintf("driver:%s:searches", id) }
func ClientJobsTopic(id types.ID) string     { return fmt.Sprintf("client:%s:jobs", id) }
func ClientTrackingTopic(id types.ID) string { return fmt.Sprintf("client:%s:tracking", id) }
func ClientSearchesTopic(id types.ID) string { return fmt.Sprintf("client:%s:searches", id) }

// Message is the wire envelope sent to subscribers.
type Message struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
