package fund

import (
	"fmt"
	"time"
)

// BirthdayAlert is a notification the advisor wants delivered.
type BirthdayAlert struct {
	Key      string   `json:"key"`
	Employee Employee `json:"employee"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
}

// BirthdayKey identifies one alert for one employee on one day.
func BirthdayKey(employeeID string, day int, month time.Month) string {
	return fmt.Sprintf("bday-%s-%d-%d", employeeID, day, int(month))
}

// EmployeesWithBirthdayToday returns one alert per employee whose literal
// birth month and day equal today's. Years are ignored. Duplicate keys
// (the same employee listed twice) yield a single alert.
func EmployeesWithBirthdayToday(employees []Employee, today time.Time) []BirthdayAlert {
	seen := make(map[string]bool)
	var alerts []BirthdayAlert
	for _, e := range employees {
		b, err := e.Birthday()
		if err != nil || !b.MatchesDay(today) {
			continue
		}
		key := BirthdayKey(e.ID, today.Day(), today.Month())
		if seen[key] {
			continue
		}
		seen[key] = true
		alerts = append(alerts, BirthdayAlert{
			Key:      key,
			Employee: e,
			Title:    fmt.Sprintf("¡Hoy es el cumple de %s! 🎂", e.Name),
			Body:     "¡No olvides saludarle y celebrar en grande! 🥳🎈",
		})
	}
	return alerts
}
