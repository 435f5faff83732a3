/*
Package notify delivers birthday alerts.

PURPOSE:
  fund.EmployeesWithBirthdayToday decides who has a birthday. This package
  handles everything after that: asking for permission, making sure each
  alert goes out at most once per day, and sending it through one or more
  channels.

COMPONENTS:
  Notifier:   A delivery channel (log, email via Resend, AMQP event)
  Deduper:    Remembers which alert keys were already sent (memory, Redis)
  Alerter:    Runs the decision rule and delivers new alerts
  Scheduler:  Runs the Alerter on a ticker

DEDUP KEYS:
  Alert keys look like "bday-{employeeID}-{day}-{month}". The Alerter
  claims "{alertKey}:{channel}" before delivering through a channel and
  releases it if that channel fails, so a later run retries only the
  failed channel.

SEE ALSO:
  - fund/birthday.go: Decision rule and alert text
  - cmd/server/main.go: Wiring
*/
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Notifier delivers one alert.
type Notifier interface {
	// RequestPermission reports whether this channel may deliver at all.
	RequestPermission(ctx context.Context) bool
	// Notify delivers title and body. key identifies the alert.
	Notify(ctx context.Context, title, body, key string) error
}

// =============================================================================
// LOG NOTIFIER
// =============================================================================

// LogNotifier writes alerts to the log. Useful when no other channel is
// configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (LogNotifier) Name() string { return "log" }

func (n LogNotifier) RequestPermission(context.Context) bool { return true }

func (n LogNotifier) Notify(ctx context.Context, title, body, key string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "birthday alert", "component", "notify", "title", title, "body", body, "key", key)
	return nil
}

// =============================================================================
// MULTI NOTIFIER
// =============================================================================

// Multi fans out to every channel that grants permission. An Alerter
// treats each member as its own channel.
type Multi []Notifier

func (m Multi) RequestPermission(ctx context.Context) bool {
	for _, n := range m {
		if n.RequestPermission(ctx) {
			return true
		}
	}
	return false
}

// Notify delivers through each permitted channel and joins the errors.
// A failure in one channel doesn't stop the others.
func (m Multi) Notify(ctx context.Context, title, body, key string) error {
	var errs []error
	for _, n := range m {
		if !n.RequestPermission(ctx) {
			continue
		}
		if err := n.Notify(ctx, title, body, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
