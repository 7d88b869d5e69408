package notify

import (
	"context"
	"sync"
)

// MemoryBackend records delivered messages. Used by tests and as a debugging
// sink when no external backend is configured.
type MemoryBackend struct {
	mu       sync.Mutex
	messages []*Message
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Name() string {
	return "memory"
}

func (b *MemoryBackend) Send(_ context.Context, msg *Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

// Messages returns a snapshot of everything delivered so far.
func (b *MemoryBackend) Messages() []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// ByEvent returns the delivered messages for one event type.
func (b *MemoryBackend) ByEvent(event Event) []*Message {
	var out []*Message
	for _, msg := range b.Messages() {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}
