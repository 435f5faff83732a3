package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alohafunds/engine/fund"
)

// Named is implemented by notifiers with a stable channel name. The name
// is part of the dedup key, so it must not change between runs or
// instances.
type Named interface {
	Name() string
}

type channel struct {
	name string
	Notifier
}

// Alerter delivers today's birthday alerts once per channel.
type Alerter struct {
	channels []channel
	dedup    Deduper
	logger   *slog.Logger
}

// NewAlerter flattens Multi notifiers into their channels. Each channel
// claims its own dedup key so a failure in one doesn't resend through the
// others.
func NewAlerter(notifier Notifier, dedup Deduper, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Alerter{dedup: dedup, logger: logger.With("component", "notify")}
	seen := make(map[string]bool)
	for i, n := range flatten(notifier) {
		name := fmt.Sprintf("channel-%d", i)
		if named, ok := n.(Named); ok && named.Name() != "" {
			name = named.Name()
		}
		if seen[name] {
			name = fmt.Sprintf("%s-%d", name, i)
		}
		seen[name] = true
		a.channels = append(a.channels, channel{name: name, Notifier: n})
	}
	return a
}

func flatten(n Notifier) []Notifier {
	m, ok := n.(Multi)
	if !ok {
		if n == nil {
			return nil
		}
		return []Notifier{n}
	}
	var out []Notifier
	for _, child := range m {
		out = append(out, flatten(child)...)
	}
	return out
}

// ClaimKey is the dedup key of one alert on one channel.
func ClaimKey(alertKey, channel string) string {
	return alertKey + ":" + channel
}

// Run delivers alerts for employees whose birthday is today and returns
// how many alerts reached at least one channel. Channels that delivered
// an alert in an earlier run are skipped; channels that failed retry on
// the next run.
func (a *Alerter) Run(ctx context.Context, employees []fund.Employee, today time.Time) (int, error) {
	alerts := fund.EmployeesWithBirthdayToday(employees, today)
	if len(alerts) == 0 {
		return 0, nil
	}

	var permitted []channel
	for _, ch := range a.channels {
		if ch.RequestPermission(ctx) {
			permitted = append(permitted, ch)
		}
	}
	if len(permitted) == 0 {
		a.logger.WarnContext(ctx, "notification permission denied", "pending", len(alerts))
		return 0, nil
	}

	sent := 0
	var errs []error
	for _, alert := range alerts {
		delivered := false
		for _, ch := range permitted {
			key := ClaimKey(alert.Key, ch.name)
			fresh, err := a.dedup.Claim(ctx, key)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !fresh {
				continue
			}
			if err := ch.Notify(ctx, alert.Title, alert.Body, alert.Key); err != nil {
				a.logger.ErrorContext(ctx, "birthday alert failed", "key", alert.Key, "channel", ch.name, "error", err)
				if relErr := a.dedup.Release(ctx, key); relErr != nil {
					errs = append(errs, relErr)
				}
				errs = append(errs, fmt.Errorf("%s: %w", ch.name, err))
				continue
			}
			delivered = true
			a.logger.InfoContext(ctx, "birthday alert sent", "key", alert.Key, "channel", ch.name, "employee_id", alert.Employee.ID)
		}
		if delivered {
			sent++
		}
	}
	return sent, errors.Join(errs...)
}
