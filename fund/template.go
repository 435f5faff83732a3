/*
template.go - Reminder messages for collection nudges

PURPOSE:
  Builds the text the treasurer sends to people who haven't paid.

TEMPLATES:
  Config holds two templates. Up to day 20 of the month the soft reminder
  (Template15) is used, after that the urgent one (Template30).

PLACEHOLDERS:
  {name} / {nombre}   first word of the employee's name
  {amount} / {monto}  the amount, formatted without trailing zeros

  Only the first occurrence of each placeholder is replaced. Anything else
  in the template is left alone.

SEE ALSO:
  - api/handlers.go: GET /api/reminders, GET /api/debtors/notice
*/
package fund

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SoftReminderLastDay is the last day of the month that uses Template15.
const SoftReminderLastDay = 20

var (
	namePlaceholders   = []string{"{name}", "{nombre}"}
	amountPlaceholders = []string{"{amount}", "{monto}"}
)

// FirstName returns the first whitespace-separated token of name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Render substitutes the employee's first name and the amount into tmpl.
func Render(tmpl string, e Employee, amount Money) string {
	out := tmpl
	for _, ph := range namePlaceholders {
		out = strings.Replace(out, ph, FirstName(e.Name), 1)
	}
	for _, ph := range amountPlaceholders {
		out = strings.Replace(out, ph, amount.String(), 1)
	}
	return out
}

// SelectTemplate picks the soft or urgent template by day of month.
func SelectTemplate(cfg Config, today time.Time) string {
	if today.Day() <= SoftReminderLastDay {
		return cfg.Template15
	}
	return cfg.Template30
}

// DefaultReminder is used when the selected template is blank.
func DefaultReminder(e Employee, amount Money, month time.Month) string {
	return fmt.Sprintf("Hola %s, recuerda tu cuota de %s para el fondo de %s.",
		FirstName(e.Name), amount.String(), MonthName(month))
}

// ReminderMessage renders the reminder e should receive today.
func ReminderMessage(cfg Config, e Employee, today time.Time) string {
	tmpl := SelectTemplate(cfg, today)
	if strings.TrimSpace(tmpl) == "" {
		return DefaultReminder(e, cfg.MonthlyFee, today.Month())
	}
	return Render(tmpl, e, cfg.MonthlyFee)
}

// ReminderLink returns a wa.me link that opens a chat with phone prefilled
// with message. Non-digit characters are stripped from phone.
func ReminderLink(phone, message string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits.String() + "?text=" + text
}

// Reminder is a ready-to-send nudge for one debtor.
type Reminder struct {
	Employee Employee `json:"employee"`
	Message  string   `json:"message"`
	Link     string   `json:"link"`
}

// Reminders builds one reminder per debtor of period.
func Reminders(snap Snapshot, period Period, today time.Time) []Reminder {
	debtors := Debtors(snap.Employees, snap.Payments, period)
	reminders := make([]Reminder, 0, len(debtors))
	for _, e := range debtors {
		msg := ReminderMessage(snap.Config, e, today)
		reminders = append(reminders, Reminder{Employee: e, Message: msg, Link: ReminderLink(e.Phone, msg)})
	}
	return reminders
}

// GroupNotice is the message posted to the team chat listing debtors.
func GroupNotice(debtors []Employee, month time.Month) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Faltantes de Pago - %s 🌺*\n\n", MonthName(month))
	b.WriteString("Hola equipo, recordamos a los que faltan por confirmar su cuota:\n")
	for _, e := range debtors {
		b.WriteString("- " + e.Name + "\n")
	}
	b.WriteString("\n¡Sigamos ahorrando para la meta! 🏖️")
	return b.String()
}
