// Package notify fans workflow events out to configured delivery backends.
// Services publish a message after a state change commits; delivery runs in
// the background and never affects the outcome of the operation that raised
// the event.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event identifies the workflow occurrence a message describes.
type Event string

const (
	EventReviewRequested   Event = "review_requested"
	EventRevisionApproved  Event = "revision_approved"
	EventReviewRejected    Event = "review_rejected"
	EventTransmittalIssued Event = "transmittal_issued"
)

// Message is the envelope delivered to every backend.
type Message struct {
	ID        string         `json:"id"`
	Event     Event          `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   uint           `json:"actorId"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// NewMessage assembles a message envelope with a fresh ID and timestamp.
func NewMessage(event Event, actorID uint, subject, body string, meta map[string]any) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		ActorID:   actorID,
		Subject:   subject,
		Body:      body,
		Meta:      meta,
	}
}

// Backend delivers messages over one channel (SMTP, push, in-memory).
type Backend interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}
