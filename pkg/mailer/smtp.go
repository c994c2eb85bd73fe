package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	mail "github.com/go-mail/mail"
)

var (
	ErrMissingSMTPHost        = errors.New("smtp host is not configured")
	ErrMissingSMTPCredentials = errors.New("smtp credentials are not configured")
)

// SMTPConfig describes the relay used for invitation emails. Credentials
// always come from configuration.
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	LocalName          string
	Timeout            time.Duration
	InsecureSkipVerify bool // dev relays with self-signed certs only
}

func (c SMTPConfig) Validate() error {
	if c.Host == "" || c.Port <= 0 {
		return ErrMissingSMTPHost
	}
	if c.Username == "" || c.Password == "" {
		return ErrMissingSMTPCredentials
	}
	return nil
}

// SMTP opens authenticated sessions that always upgrade with STARTTLS.
type SMTP struct {
	cfg  SMTPConfig
	dial func(*mail.Dialer) (mail.SendCloser, error)
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTP{
		cfg:  cfg,
		dial: func(d *mail.Dialer) (mail.SendCloser, error) { return d.Dial() },
	}, nil
}

func (s *SMTP) dialer() *mail.Dialer {
	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}
	d.Timeout = s.cfg.Timeout
	if s.cfg.LocalName != "" {
		d.LocalName = s.cfg.LocalName
	}
	return d
}

// Open dials the relay, negotiates STARTTLS and authenticates.
func (s *SMTP) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	sc, err := s.dial(s.dialer())
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	return &smtpSession{sc: sc}, nil
}

type smtpSession struct {
	sc mail.SendCloser
}

func (s *smtpSession) Send(_ context.Context, msg Message) error {
	if err := mail.Send(s.sc, newMIMEMessage(msg)); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (s *smtpSession) Close() error {
	if err := s.sc.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

func newMIMEMessage(msg Message) *mail.Message {
	charset := msg.Charset
	if charset == "" {
		charset = CharsetUTF8
	}
	contentType := msg.ContentType
	if contentType == "" {
		contentType = ContentTypePlain
	}
	m := mail.NewMessage(mail.SetCharset(charset))
	m.SetAddressHeader("From", msg.From.Email, msg.From.Name)
	m.SetAddressHeader("To", msg.To.Email, msg.To.Name)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody(contentType, msg.Body)
	return m
}
