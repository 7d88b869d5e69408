package notify

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Config selects and configures the delivery backends.
type Config struct {
	Mail *MailConfig `hcl:"mail,block"`
	Ntfy *NtfyConfig `hcl:"ntfy,block"`
}

// Notifier owns the registered backends and dispatches messages to all of
// them. A Notifier with no backends is valid and drops every message.
type Notifier struct {
	log      hclog.Logger
	backends []Backend

	// sendTimeout bounds each background delivery attempt.
	sendTimeout time.Duration
}

// NewNotifier builds a notifier with the backends the config enables.
func NewNotifier(cfg *Config, log hclog.Logger) *Notifier {
	n := &Notifier{
		log:         log.Named("notify"),
		sendTimeout: 10 * time.Second,
	}
	if cfg == nil {
		return n
	}
	if cfg.Mail != nil && cfg.Mail.Enabled {
		n.Register(NewMailBackend(cfg.Mail))
	}
	if cfg.Ntfy != nil && cfg.Ntfy.Enabled {
		n.Register(NewNtfyBackend(cfg.Ntfy))
	}
	return n
}

// Register adds a backend to the dispatch set.
func (n *Notifier) Register(b Backend) {
	n.backends = append(n.backends, b)
	n.log.Info("registered notification backend", "backend", b.Name())
}

// Backends returns the names of the registered backends.
func (n *Notifier) Backends() []string {
	names := make([]string, 0, len(n.backends))
	for _, b := range n.backends {
		names = append(names, b.Name())
	}
	return names
}

// Publish hands the message to every backend in the background. Delivery
// failures are logged, never returned: the state change that raised the
// event has already committed.
func (n *Notifier) Publish(msg *Message) {
	if n == nil || len(n.backends) == 0 {
		return
	}
	go n.deliver(msg)
}

func (n *Notifier) deliver(msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
	defer cancel()

	for _, b := range n.backends {
		if err := b.Send(ctx, msg); err != nil {
			n.log.Error("notification delivery failed",
				"backend", b.Name(), "event", msg.Event, "id", msg.ID, "error", err)
			continue
		}
		n.log.Debug("notification delivered",
			"backend", b.Name(), "event", msg.Event, "id", msg.ID)
	}
}
