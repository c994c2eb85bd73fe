package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/qualopt/pkg/mailer"
)

func setMailEnv(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2587")
	t.Setenv("SMTP_USERNAME", "mailer")
	t.Setenv("SMTP_PASSWORD", "pw")
}

func TestLoad_SMTPFromEnvironment(t *testing.T) {
	setMailEnv(t)

	cfg := Load()

	require.NoError(t, cfg.Validate())
	smtp := cfg.SMTP()
	assert.Equal(t, "smtp.example.com", smtp.Host)
	assert.Equal(t, 2587, smtp.Port)
	assert.Equal(t, "mailer", smtp.Username)
	assert.Equal(t, "pw", smtp.Password)
	assert.Equal(t, "inprocess", cfg.InvitationDispatch)
	assert.Equal(t, mailer.SkipInvalid, cfg.AddressPolicy())
}

func TestValidate_MissingSMTPCredentials(t *testing.T) {
	setMailEnv(t)
	t.Setenv("SMTP_PASSWORD", "")

	err := Load().Validate()

	assert.ErrorIs(t, err, mailer.ErrMissingSMTPCredentials)
}

func TestValidate_MissingJWTSecret(t *testing.T) {
	setMailEnv(t)
	t.Setenv("JWT_ACCESS_SECRET", "")

	cfg := Load()

	assert.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateMail(), "the worker does not need the JWT secret")
}

func TestValidate_MailDisabledSkipsTransportChecks(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	t.Setenv("MAIL_SEND_ENABLED", "false")
	t.Setenv("SMTP_USERNAME", "")

	assert.NoError(t, Load().Validate())
}

func TestValidate_UnknownSettings(t *testing.T) {
	setMailEnv(t)
	t.Setenv("MAIL_TRANSPORT", "pigeon")
	assert.ErrorIs(t, Load().Validate(), ErrUnknownMailTransport)

	t.Setenv("MAIL_TRANSPORT", "smtp")
	t.Setenv("INVITATION_DISPATCH", "carrier")
	assert.ErrorIs(t, Load().Validate(), ErrUnknownInvitationDispatch)

	t.Setenv("INVITATION_DISPATCH", "inprocess")
	t.Setenv("INVITATION_ADDRESS_POLICY", "retry")
	assert.Error(t, Load().Validate())
}

func TestValidate_Mailgun(t *testing.T) {
	setMailEnv(t)
	t.Setenv("MAIL_TRANSPORT", "mailgun")
	assert.ErrorIs(t, Load().Validate(), mailer.ErrMissingMailgunConfig)

	t.Setenv("MAILGUN_DOMAIN", "mg.example.com")
	t.Setenv("MAILGUN_API_KEY", "key")
	assert.NoError(t, Load().Validate())
}

func TestSessionFactory(t *testing.T) {
	setMailEnv(t)

	f, err := Load().SessionFactory()
	require.NoError(t, err)
	assert.IsType(t, &mailer.SMTP{}, f)

	t.Setenv("MAIL_TRANSPORT", "mailgun")
	t.Setenv("MAILGUN_DOMAIN", "mg.example.com")
	t.Setenv("MAILGUN_API_KEY", "key")
	t.Setenv("MAILGUN_API_BASE", "https://api.eu.mailgun.net/v3")
	f, err = Load().SessionFactory()
	require.NoError(t, err)
	require.IsType(t, &mailer.Mailgun{}, f)
	assert.Equal(t, "https://api.eu.mailgun.net/v3", f.(*mailer.Mailgun).APIBase)

	t.Setenv("MAIL_TRANSPORT", "pigeon")
	_, err = Load().SessionFactory()
	assert.ErrorIs(t, err, ErrUnknownMailTransport)
}
