package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

var ErrMissingMailgunConfig = errors.New("mailgun domain or api key is not configured")

// Mailgun opens sessions against the Mailgun HTTP API. The API is stateless,
// so a session is just a client bound to one batch.
type Mailgun struct {
	Domain  string
	APIKey  string
	APIBase string // defaults to the US endpoint
	Timeout time.Duration
}

const defaultMailgunTimeout = 10 * time.Second

func NewMailgun(domain, apiKey string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Timeout: defaultMailgunTimeout}
}

func (m *Mailgun) Open(ctx context.Context) (Session, error) {
	if m.Domain == "" || m.APIKey == "" {
		return nil, &TransportError{Op: "dial", Err: ErrMissingMailgunConfig}
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	client := mg.NewMailgun(m.Domain, m.APIKey)
	if m.APIBase != "" {
		client.SetAPIBase(m.APIBase)
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultMailgunTimeout
	}
	return &mailgunSession{client: client, timeout: timeout}, nil
}

type mailgunSession struct {
	client  *mg.MailgunImpl
	timeout time.Duration
}

// Send posts a text-only message; Mailgun encodes text bodies as UTF-8 plain text.
func (s *mailgunSession) Send(ctx context.Context, msg Message) error {
	body := msg.Body
	if body == "" {
		// Mailgun rejects a message without a text part.
		body = "\n"
	}
	message := s.client.NewMessage(msg.From.String(), msg.Subject, body, msg.To.String())
	c, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, _, err := s.client.Send(c, message); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (s *mailgunSession) Close() error { return nil }
