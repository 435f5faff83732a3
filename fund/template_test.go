package fund_test

import (
	"testing"
	"time"

	"github.com/alohafunds/engine/fund"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	ana := fund.Employee{ID: "1", Name: "Ana Lopez"}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"basic", "Hola {name}, debes {amount}", "Hola Ana, debes 20"},
		{"first occurrence only", "{name} {name} {amount} {amount}", "Ana {name} 20 {amount}"},
		{"spanish aliases", "¡Aloha {nombre}! Son ${monto}", "¡Aloha Ana! Son $20"},
		{"no placeholders", "Paguen ya", "Paguen ya"},
		{"unknown placeholder left alone", "Hola {apodo}", "Hola {apodo}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fund.Render(tt.tmpl, ana, money(20)))
		})
	}
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Carlos", fund.FirstName(`Carlos "El Fiestero"`))
	assert.Equal(t, "Ana", fund.FirstName("  Ana   Lopez "))
	assert.Equal(t, "", fund.FirstName(""))
}

func TestSelectTemplate_DayThreshold(t *testing.T) {
	cfg := fund.Config{Template15: "soft", Template30: "urgent"}

	assert.Equal(t, "soft", fund.SelectTemplate(cfg, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "soft", fund.SelectTemplate(cfg, time.Date(2024, time.May, 20, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "urgent", fund.SelectTemplate(cfg, time.Date(2024, time.May, 21, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "urgent", fund.SelectTemplate(cfg, time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC)))
}

func TestReminderMessage_DefaultWhenTemplateBlank(t *testing.T) {
	cfg := fund.Config{MonthlyFee: money(20), Template15: "  ", Template30: "Urgente {name}"}
	ana := fund.Employee{Name: "Ana Lopez"}

	soft := fund.ReminderMessage(cfg, ana, time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC))
	urgent := fund.ReminderMessage(cfg, ana, time.Date(2024, time.October, 28, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "Hola Ana, recuerda tu cuota de 20 para el fondo de Octubre.", soft)
	assert.Equal(t, "Urgente Ana", urgent)
}

func TestReminderLink(t *testing.T) {
	link := fund.ReminderLink("+52 (555) 123-4567", "Hola Ana & co, 20+")

	assert.Equal(t, "https://wa.me/525551234567?text=Hola%20Ana%20%26%20co%2C%2020%2B", link)
}

func TestReminders_OnePerDebtor(t *testing.T) {
	snap := fund.Snapshot{
		Employees: []fund.Employee{{ID: "1", Name: "Carlos", Phone: "5551234567"}, {ID: "2", Name: "Ana", Phone: "5559876543"}},
		Payments:  []fund.Payment{confirmed("p1", "1", october2023, 20, at(2023, time.October, 2, 10))},
		Config:    fund.Config{MonthlyFee: money(20), Template15: "Hola {name}"},
	}

	reminders := fund.Reminders(snap, october2023, time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC))

	assert.Len(t, reminders, 1)
	assert.Equal(t, "Hola Ana", reminders[0].Message)
	assert.Equal(t, "https://wa.me/5559876543?text=Hola%20Ana", reminders[0].Link)
}

func TestGroupNotice(t *testing.T) {
	debtors := []fund.Employee{{Name: "Roberto"}, {Name: "David"}}

	notice := fund.GroupNotice(debtors, time.October)

	want := "*Faltantes de Pago - Octubre 🌺*\n\n" +
		"Hola equipo, recordamos a los que faltan por confirmar su cuota:\n" +
		"- Roberto\n- David\n" +
		"\n¡Sigamos ahorrando para la meta! 🏖️"
	assert.Equal(t, want, notice)
}
