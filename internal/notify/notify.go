// Package notify delivers momentum shift alerts over SMTP.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomail "gopkg.in/mail.v2"

	"niftyscan/internal/config"
	"niftyscan/internal/momentum"
)

const dialTimeout = 10 * time.Second

// Notifier sends shift alert emails. A nil Notifier is a no-op, so callers
// can hold one unconditionally.
type Notifier struct {
	cfg config.AlertsConfig
	log zerolog.Logger

	// dial is swapped in tests.
	dial func(m *gomail.Message) error
}

// NewNotifier returns a Notifier, or nil when alerting is not configured.
func NewNotifier(cfg config.AlertsConfig, log zerolog.Logger) *Notifier {
	if !cfg.Enabled() {
		return nil
	}

	from := cfg.From
	if from == "" {
		from = cfg.SMTPUser
	}
	cfg.From = from

	n := &Notifier{cfg: cfg, log: log}
	n.dial = func(m *gomail.Message) error {
		dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
		dialer.Timeout = dialTimeout
		return dialer.DialAndSend(m)
	}
	return n
}

// NotifyShifts emails a plain-text summary of newly detected shifts.
func (n *Notifier) NotifyShifts(shifts []momentum.Shift) error {
	if n == nil || len(shifts) == 0 {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To)
	m.SetHeader("Subject", subject(shifts))
	m.SetBody("text/plain", renderBody(shifts))

	if err := n.dial(m); err != nil {
		n.log.Error().Err(err).Str("to", n.cfg.To).Msg("Failed to send shift alert")
		return fmt.Errorf("send shift alert: %w", err)
	}

	n.log.Info().Int("shifts", len(shifts)).Str("to", n.cfg.To).Msg("Shift alert sent")
	return nil
}

func subject(shifts []momentum.Shift) string {
	if len(shifts) == 1 {
		s := shifts[0]
		return fmt.Sprintf("niftyscan: %s %s momentum shift", s.Symbol, s.Direction)
	}
	return fmt.Sprintf("niftyscan: %d momentum shifts detected", len(shifts))
}

func renderBody(shifts []momentum.Shift) string {
	var sb strings.Builder
	sb.WriteString("Momentum shifts detected:\n\n")
	for _, s := range shifts {
		sb.WriteString(fmt.Sprintf("  %s  %-9s  price %.2f  MA %.2f  at %s\n",
			s.Symbol, s.Direction, s.PriceAtCross, s.MAAtCross,
			s.At.Format("15:04:05")))
	}
	return sb.String()
}
