package notify

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"niftyscan/internal/config"
	"niftyscan/internal/momentum"
)

func enabledConfig() config.AlertsConfig {
	return config.AlertsConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		SMTPUser: "scanner@example.com",
		SMTPPass: "secret",
		To:       "ops@example.com",
	}
}

func sampleShifts() []momentum.Shift {
	return []momentum.Shift{
		{Symbol: "TCS", Direction: momentum.DirectionUp, PriceAtCross: 3850.0, MAAtCross: 3848.2,
			At: time.Date(2026, 8, 28, 10, 45, 0, 0, time.UTC)},
		{Symbol: "RELIANCE", Direction: momentum.DirectionDown, PriceAtCross: 2940.0, MAAtCross: 2944.1,
			At: time.Date(2026, 8, 28, 10, 46, 0, 0, time.UTC)},
	}
}

func TestNewNotifierDisabled(t *testing.T) {
	n := NewNotifier(config.AlertsConfig{}, zerolog.Nop())
	assert.Nil(t, n)

	// Nil notifier must be a safe no-op.
	require.NoError(t, n.NotifyShifts(sampleShifts()))
}

func TestNotifyShiftsSends(t *testing.T) {
	n := NewNotifier(enabledConfig(), zerolog.Nop())
	require.NotNil(t, n)

	var sent *gomail.Message
	n.dial = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	require.NoError(t, n.NotifyShifts(sampleShifts()))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"ops@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"niftyscan: 2 momentum shifts detected"}, sent.GetHeader("Subject"))
}

func TestNotifyShiftsEmptyIsNoop(t *testing.T) {
	n := NewNotifier(enabledConfig(), zerolog.Nop())
	n.dial = func(m *gomail.Message) error {
		t.Fatal("dial should not be called for empty shift list")
		return nil
	}

	require.NoError(t, n.NotifyShifts(nil))
}

func TestFromDefaultsToSMTPUser(t *testing.T) {
	n := NewNotifier(enabledConfig(), zerolog.Nop())
	require.NotNil(t, n)
	assert.Equal(t, "scanner@example.com", n.cfg.From)
}

func TestSingleShiftSubject(t *testing.T) {
	assert.Equal(t, "niftyscan: TCS upward momentum shift", subject(sampleShifts()[:1]))
}

func TestRenderBodyIncludesAllShifts(t *testing.T) {
	body := renderBody(sampleShifts())
	assert.Contains(t, body, "TCS")
	assert.Contains(t, body, "RELIANCE")
	assert.Contains(t, body, "downward")
}
