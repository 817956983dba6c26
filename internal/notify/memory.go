// README: In-memory notifier used as a test double.
package notify

import (
	"context"
	"sync"
)

// Recorder stores every notification per topic. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	byTopic map[string][]Message
}

func NewRecorder() *Recorder {
	return &Recorder{byTopic: make(map[string][]Message)}
}

func (r *Recorder) Notify(_ context.Context, topic string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.Topic = topic
	r.byTopic[topic] = append(r.byTopic[topic], msg)
	return nil
}

// Sent returns the messages recorded for a topic.
func (r *Recorder) Sent(topic string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.byTopic[topic]))
	copy(out, r.byTopic[topic])
	return out
}

// Topics returns all topics that received at least one notification.
func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byTopic))
	for t := range r.byTopic {
		out = append(out, t)
	}
	return out
}
