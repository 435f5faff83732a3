/*
scenarios.go - Demo data for first runs and demonstrations

PURPOSE:

	Provides a small, realistic data set so the dashboard, ranking,
	calendar and reports have something to show: five collaborators,
	the October 2023 payments (three confirmed, two pending), the fund
	config with both reminder templates, three expenses and three
	gallery photos.

HOW SEEDING WORKS:
 1. The store must not hold any employees (409 otherwise)
 2. Employees are inserted and get store-assigned ids
 3. Payments are remapped to those ids and inserted
 4. Config, expenses and photos follow
 5. The session snapshot is refreshed

USAGE VIA API:

	POST /api/demo/seed      (admin)

USAGE AT STARTUP:

	ALOHA_SEED_DEMO=true

SEE ALSO:
  - treasury/seed.go: Seed
  - cmd/server/main.go: Startup seeding
*/
package api

import (
	"net/http"
	"time"

	"github.com/alohafunds/engine/auth"
	"github.com/alohafunds/engine/fund"
)

// =============================================================================
// DEMO DATA
// =============================================================================

// DemoData returns a fresh copy of the demo data set.
func DemoData() fund.Snapshot {
	paidAt := func(s string) *time.Time {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			panic(err)
		}
		return &t
	}
	confirmed := func(id, employeeID, at string) fund.Payment {
		return fund.Payment{
			ID: id, EmployeeID: employeeID, Month: time.October, Year: 2023,
			AmountPaid: fund.NewMoneyFromInt(100), PaidAt: paidAt(at), Confirmed: true,
		}
	}
	pending := func(id, employeeID string) fund.Payment {
		return fund.Payment{ID: id, EmployeeID: employeeID, Month: time.October, Year: 2023}
	}

	return fund.Snapshot{
		Employees: []fund.Employee{
			{ID: "1", Name: `Carlos "El Fiestero"`, BirthDate: "1990-10-15", Email: "carlos@company.com", Phone: "5551234567"},
			{ID: "2", Name: `Ana "La Chef"`, BirthDate: "1985-05-22", Email: "ana@company.com", Phone: "5559876543"},
			{ID: "3", Name: `Roberto "Playa"`, BirthDate: "1992-10-05", Email: "roberto@company.com", Phone: "5551112222"},
			{ID: "4", Name: `Lucía "Cuentas Claras"`, BirthDate: "1988-12-10", Email: "lucia@company.com", Phone: "5553334444"},
			{ID: "5", Name: `David "El DJ"`, BirthDate: "1995-02-14", Email: "david@company.com", Phone: "5555556666"},
		},
		Payments: []fund.Payment{
			confirmed("p1", "1", "2023-10-02T10:00:00Z"),
			confirmed("p2", "2", "2023-10-05T14:30:00Z"),
			pending("p3", "3"),
			confirmed("p4", "4", "2023-10-01T09:00:00Z"),
			pending("p5", "5"),
		},
		Config: fund.Config{
			MonthlyFee:       fund.NewMoneyFromInt(200),
			ResortGoalAmount: fund.NewMoneyFromInt(1000),
			Template15:       "¡Aloha {nombre}! 🌺 Hoy es 15, día de ponerle sabor al fondo. Son ${monto} para los pasteles y el hotel 5 estrellas. ¡No seas aguafiestas!",
			Template30:       "¡Hey {nombre}! 🌊 Se acaba el mes y el mar nos espera. Por favor deposita tu cuota de ${monto} para no nadar con los tiburones.",
		},
		Expenses: []fund.Expense{
			{ID: "e1", Month: time.September, Year: 2023, Concept: "Pastel de Chocolate", Amount: fund.NewMoneyFromInt(450), ReceiptImageURL: "https://picsum.photos/200/300?random=1"},
			{ID: "e2", Month: time.September, Year: 2023, Concept: "Refrescos y Platos", Amount: fund.NewMoneyFromInt(150), ReceiptImageURL: "https://picsum.photos/200/300?random=2"},
			{ID: "e3", Month: time.October, Year: 2023, Concept: "Helado Artesanal", Amount: fund.NewMoneyFromInt(300), ReceiptImageURL: "https://picsum.photos/200/300?random=3"},
		},
		Photos: []fund.EventPhoto{
			{ID: "ph1", ImageURL: "https://picsum.photos/400/300?random=10", Description: "Cumple de Ana - Septiembre"},
			{ID: "ph2", ImageURL: "https://picsum.photos/400/300?random=11", Description: "Entrega de reconocimientos"},
			{ID: "ph3", ImageURL: "https://picsum.photos/400/300?random=12", Description: "Planning del Viaje"},
		},
	}
}

// SeedDemo loads the demo data into an empty store.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Seed(r.Context(), auth.FromContext(r.Context()), DemoData()); err != nil {
		h.fail(w, r, "Failed to load demo data", err)
		return
	}
	writeJSON(w, http.StatusCreated, counts(h.Session.Snapshot()))
}
