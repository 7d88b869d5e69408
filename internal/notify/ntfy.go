package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// NtfyConfig configures push delivery through an ntfy server.
type NtfyConfig struct {
	Enabled bool `hcl:"enabled,optional"`

	ServerURL string `hcl:"server_url,optional"`
	Topic     string `hcl:"topic,optional"`
}

// NtfyBackend posts each message to an ntfy topic.
type NtfyBackend struct {
	serverURL string
	topic     string
	client    *http.Client
}

func NewNtfyBackend(cfg *NtfyConfig) *NtfyBackend {
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = "https://ntfy.sh"
	}
	return &NtfyBackend{
		serverURL: serverURL,
		topic:     cfg.Topic,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *NtfyBackend) Name() string {
	return "ntfy"
}

// Send posts the message body with the subject as the push title.
func (b *NtfyBackend) Send(ctx context.Context, msg *Message) error {
	url := fmt.Sprintf("%s/%s", b.serverURL, b.topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		bytes.NewBufferString(msg.Body))
	if err != nil {
		return fmt.Errorf("error creating ntfy request: %w", err)
	}
	if msg.Subject != "" {
		req.Header.Set("Title", msg.Subject)
	}
	req.Header.Set("Tags", string(msg.Event))

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending ntfy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy request failed with status %d", resp.StatusCode)
	}
	return nil
}
