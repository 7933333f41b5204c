package mailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type Service interface {
	Send(ctx context.Context, toEmail, subject, text, html string) error
}

// MailerSend delivers email through the MailerSend API.
type MailerSend struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	timeout time.Duration
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	return &MailerSend{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
		timeout: 10 * time.Second,
	}
}

func (m *MailerSend) Send(ctx context.Context, toEmail, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("mailersend send: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// DevMailer logs messages instead of sending them.
type DevMailer struct {
	logger *slog.Logger
}

func NewDevMailer(logger *slog.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

func (d *DevMailer) Send(ctx context.Context, toEmail, subject, text, html string) error {
	d.logger.InfoContext(ctx, "[DEV MAIL] email not sent",
		"to", toEmail,
		"subject", subject,
	)
	// the body carries signed links
	d.logger.DebugContext(ctx, "[DEV MAIL] body", "to", toEmail, "text", text)
	return nil
}
