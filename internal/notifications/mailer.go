// Package notifications sends transactional email through SendGrid.
package notifications

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/logger"
)

const sendEndpoint = "/v3/mail/send"

// ErrMailDisabled is returned when no API key is configured.
var ErrMailDisabled = errors.New("email delivery is not configured")

// Attachment is a file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	ToName      string
	Subject     string
	PlainText   string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer posts messages to the SendGrid v3 API.
type SendgridMailer struct {
	apiKey string
	host   string
	from   *mail.Email
	logg   *logger.Logger
}

// NewMailer returns a SendGrid mailer, or a mailer that always fails with ErrMailDisabled
// when the API key is empty.
func NewMailer(cfg config.SendgridConfig, logg *logger.Logger) Mailer {
	if logg == nil {
		logg = logger.Nop()
	}
	if !cfg.Enabled() {
		return disabledMailer{logg: logg}
	}
	return &SendgridMailer{
		apiKey: cfg.APIKey,
		from:   mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
		logg:   logg,
	}
}

// WithHost points the mailer at another API host.
func (m *SendgridMailer) WithHost(host string) *SendgridMailer {
	clone := *m
	clone.host = host
	return &clone
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient required")
	}
	request := sendgrid.GetRequest(m.apiKey, sendEndpoint, m.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(m.build(msg))

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	m.logg.Info(m.logg.WithFields(ctx, map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	}), "email sent")
	return nil
}

func (m *SendgridMailer) build(msg Message) *mail.SGMailV3 {
	recipient := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(m.from, msg.Subject, recipient, msg.PlainText, msg.HTML)
	for _, file := range msg.Attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(file.Content))
		attachment.SetType(file.ContentType)
		attachment.SetFilename(file.Filename)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}
	return message
}

type disabledMailer struct {
	logg *logger.Logger
}

func (d disabledMailer) Send(ctx context.Context, msg Message) error {
	d.logg.Warn(d.logg.WithFields(ctx, map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	}), "email skipped: sendgrid not configured")
	return ErrMailDisabled
}
