package fund

import (
	"sort"
	"time"
)

// UnknownEmployeeName labels report rows whose employee was deleted.
const UnknownEmployeeName = "Desconocido"

// =============================================================================
// MONTHLY SUMMARY - Input for the report exporter
// =============================================================================

// SummaryRow is one confirmed payment in the report detail table.
type SummaryRow struct {
	EmployeeName string     `json:"employee_name"`
	PaidAt       *time.Time `json:"paid_at"`
	AmountPaid   Money      `json:"amount_paid"`
}

// MonthlySummary holds the figures the monthly report shows.
type MonthlySummary struct {
	Period               Period       `json:"period"`
	TotalCollected       Money        `json:"total_collected"`
	ResortContribution   Money        `json:"resort_contribution"`
	BirthdayContribution Money        `json:"birthday_contribution"`
	TotalExpenses        Money        `json:"total_expenses"`
	NetBalance           Money        `json:"net_balance"`
	Rows                 []SummaryRow `json:"rows"`
}

// Summarize builds the monthly summary for period. Unlike
// ResortFundBalance, the resort contribution here is scoped to period.
// Rows are ordered by payment time.
func Summarize(snap Snapshot, period Period) MonthlySummary {
	var confirmed []Payment
	for _, p := range snap.Payments {
		if p.Confirmed && p.Period() == period {
			confirmed = append(confirmed, p)
		}
	}
	sort.SliceStable(confirmed, func(i, j int) bool {
		a, b := confirmed[i].PaidAt, confirmed[j].PaidAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})

	s := MonthlySummary{Period: period, Rows: make([]SummaryRow, 0, len(confirmed))}
	for _, p := range confirmed {
		s.TotalCollected = s.TotalCollected.Add(p.AmountPaid)
		s.ResortContribution = s.ResortContribution.Add(ResortContribution(p.AmountPaid))

		name := UnknownEmployeeName
		if e, ok := snap.EmployeeByID(p.EmployeeID); ok {
			name = e.Name
		}
		s.Rows = append(s.Rows, SummaryRow{EmployeeName: name, PaidAt: p.PaidAt, AmountPaid: p.AmountPaid})
	}
	s.BirthdayContribution = BirthdayShare.MulInt(int64(len(confirmed)))
	s.TotalExpenses = ExpensesInPeriod(snap.Expenses, period)
	s.NetBalance = s.TotalCollected.Sub(s.TotalExpenses)
	return s
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard aggregates everything the overview screen shows for a period.
type Dashboard struct {
	Period             Period          `json:"period"`
	EmployeeCount      int             `json:"employee_count"`
	ResortBalance      Money           `json:"resort_balance"`
	ResortGoal         Money           `json:"resort_goal"`
	ResortGoalProgress int             `json:"resort_goal_progress"`
	BirthdayBalance    Money           `json:"birthday_balance"`
	Collected          Money           `json:"collected"`
	Expected           Money           `json:"expected"`
	CollectionProgress int             `json:"collection_progress"`
	Expenses           Money           `json:"expenses"`
	PendingCount       int             `json:"pending_count"`
	Birthdays          []BirthdayEntry `json:"birthdays"`
	EarlyPayers        []RankedPayer   `json:"early_payers"`
}

// BuildDashboard computes the overview for period.
func BuildDashboard(snap Snapshot, period Period) Dashboard {
	resort := ResortFundBalance(snap.Payments)
	collected := CollectedInPeriod(snap.Payments, period)
	expected := ExpectedTotal(len(snap.Employees), snap.Config.MonthlyFee)

	return Dashboard{
		Period:             period,
		EmployeeCount:      len(snap.Employees),
		ResortBalance:      resort,
		ResortGoal:         snap.Config.ResortGoalAmount,
		ResortGoalProgress: ResortGoalProgress(resort, snap.Config.ResortGoalAmount),
		BirthdayBalance:    BirthdayFundBalance(snap.Payments, period),
		Collected:          collected,
		Expected:           expected,
		CollectionProgress: CollectionProgress(collected, expected),
		Expenses:           ExpensesInPeriod(snap.Expenses, period),
		PendingCount:       len(Debtors(snap.Employees, snap.Payments, period)),
		Birthdays:          BirthdaysInMonth(snap.Employees, period.Month),
		EarlyPayers:        EarlyPayers(snap.Payments, snap.Employees, EarlyPayerCount),
	}
}
