package worker

// email_worker.go
// Mails an alert when a seed run gives up for good: a queued job moved to the
// DLQ or an in-process background run that failed.

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// alertSender is satisfied by *infra.Mailer.
type alertSender interface {
	Send(to, subject, body string) error
}

// AlertNotifier mails seed failures to one recipient. A nil *AlertNotifier
// is valid and sends nothing.
type AlertNotifier struct {
	mailer alertSender
	to     string
	now    func() time.Time
}

// NewAlertNotifier creates an AlertNotifier that sends through mailer.
func NewAlertNotifier(mailer alertSender, to string) *AlertNotifier {
	return &AlertNotifier{mailer: mailer, to: to, now: time.Now}
}

// SeedFailed sends the alert. Delivery is best effort: errors are logged only.
func (n *AlertNotifier) SeedFailed(trigger string, attempts int, reason string) {
	if n == nil || n.mailer == nil || n.to == "" {
		return
	}
	if trigger == "" {
		trigger = "unknown"
	}
	subject := fmt.Sprintf("[salescatalog] seed run failed (%s)", trigger)
	body := fmt.Sprintf(
		"A seed run gave up.\n\nTrigger:  %s\nAttempts: %d\nTime:     %s\nReason:   %s\n",
		trigger, attempts, n.now().UTC().Format(time.RFC3339), reason)

	if err := n.mailer.Send(n.to, subject, body); err != nil {
		log.Error().Err(err).Str("to", n.to).Msg("alert: failed to send seed failure email")
		return
	}
	log.Info().Str("to", n.to).Str("trigger", trigger).Msg("alert: seed failure email sent")
}
