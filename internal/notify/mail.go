package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
)

// MailConfig configures SMTP delivery to a distribution address.
type MailConfig struct {
	Enabled bool `hcl:"enabled,optional"`

	SMTPHost     string `hcl:"smtp_host,optional"`
	SMTPPort     string `hcl:"smtp_port,optional"`
	SMTPUsername string `hcl:"smtp_username,optional"`
	SMTPPassword string `hcl:"smtp_password,optional"`
	FromAddress  string `hcl:"from_address,optional"`
	FromName     string `hcl:"from_name,optional"`
	// ToAddress is the distribution list every notification goes to.
	ToAddress string `hcl:"to_address,optional"`
	UseTLS    bool   `hcl:"use_tls,optional"`
}

// MailBackend sends each message as an HTML email over SMTP.
type MailBackend struct {
	cfg  *MailConfig
	tmpl *template.Template
}

var mailTemplate = template.Must(template.New("mail").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>{{.Subject}}</h2>
  <p>{{.Body}}</p>
  {{if .Meta}}
  <table cellpadding="4">
    {{range $key, $value := .Meta}}
    <tr><td><strong>{{$key}}</strong></td><td>{{$value}}</td></tr>
    {{end}}
  </table>
  {{end}}
  <hr>
  <p style="font-size: 12px; color: #666;">Automated notification ({{.Event}}).</p>
</body>
</html>`))

func NewMailBackend(cfg *MailConfig) *MailBackend {
	return &MailBackend{cfg: cfg, tmpl: mailTemplate}
}

func (b *MailBackend) Name() string {
	return "mail"
}

// Send renders and delivers the message to the configured address.
func (b *MailBackend) Send(ctx context.Context, msg *Message) error {
	if b.cfg.ToAddress == "" {
		return fmt.Errorf("mail backend has no to_address configured")
	}

	var body bytes.Buffer
	if err := b.tmpl.Execute(&body, msg); err != nil {
		return fmt.Errorf("error rendering mail body: %w", err)
	}

	from := b.cfg.FromAddress
	if b.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", b.cfg.FromName, b.cfg.FromAddress)
	}
	raw := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		from, b.cfg.ToAddress, msg.Subject, body.String(),
	))

	addr := fmt.Sprintf("%s:%s", b.cfg.SMTPHost, b.cfg.SMTPPort)
	var auth smtp.Auth
	if b.cfg.SMTPUsername != "" && b.cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", b.cfg.SMTPUsername, b.cfg.SMTPPassword, b.cfg.SMTPHost)
	}

	if b.cfg.UseTLS {
		return b.sendStartTLS(addr, auth, raw)
	}
	return smtp.SendMail(addr, auth, b.cfg.FromAddress, []string{b.cfg.ToAddress}, raw)
}

// sendStartTLS upgrades the SMTP session with STARTTLS before sending.
func (b *MailBackend) sendStartTLS(addr string, auth smtp.Auth, raw []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("error connecting to SMTP server: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: b.cfg.SMTPHost}); err != nil {
		return fmt.Errorf("error starting TLS: %w", err)
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(b.cfg.FromAddress); err != nil {
		return fmt.Errorf("error setting sender: %w", err)
	}
	if err := client.Rcpt(b.cfg.ToAddress); err != nil {
		return fmt.Errorf("error setting recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("error opening data writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("error writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("error closing data writer: %w", err)
	}
	return client.Quit()
}
