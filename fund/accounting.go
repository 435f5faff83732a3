/*
accounting.go - Fund balances, progress ratios and rankings

PURPOSE:
  Pure functions over a Snapshot. Nothing here touches the store or the
  clock, so callers can recompute on every request.

FUND SPLIT:
  Every confirmed payment contributes BirthdayShare to the birthday fund.
  The remainder (never below zero) goes to the resort fund.

    payment 100  ->  birthday 3, resort 97
    payment 2    ->  birthday 3, resort 0

  The resort fund is cumulative across all periods. The birthday fund is
  reported per period.

ORPHANED PAYMENTS:
  Payments whose employee was deleted still count toward every total.
  Only the early-payer ranking drops them, because it has no one to show.

DEGENERATE INPUTS:
  Zero denominators yield 0%. No function here returns an error.

SEE ALSO:
  - projection.go: Hypothetical annual savings
  - reconcile.go: How payments change state
*/
package fund

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BirthdayShare is the part of each confirmed payment set aside for birthdays.
var BirthdayShare = NewMoneyFromInt(3)

// EarlyPayerCount is how many payers the ranking shows.
const EarlyPayerCount = 5

// =============================================================================
// BALANCES
// =============================================================================

// ResortContribution is what one payment adds to the resort fund.
func ResortContribution(amount Money) Money {
	return amount.Sub(BirthdayShare).NonNegative()
}

// ResortFundBalance sums the resort share of every confirmed payment ever
// recorded, regardless of period.
func ResortFundBalance(payments []Payment) Money {
	total := Money{}
	for _, p := range payments {
		if p.Confirmed {
			total = total.Add(ResortContribution(p.AmountPaid))
		}
	}
	return total
}

// BirthdayFundBalance is BirthdayShare times the confirmed payments in period.
func BirthdayFundBalance(payments []Payment, period Period) Money {
	return BirthdayShare.MulInt(int64(countConfirmed(payments, period)))
}

// CollectedInPeriod sums confirmed amounts for period.
func CollectedInPeriod(payments []Payment, period Period) Money {
	total := Money{}
	for _, p := range payments {
		if p.Confirmed && p.Period() == period {
			total = total.Add(p.AmountPaid)
		}
	}
	return total
}

// ExpectedTotal is what the period would collect if everyone paid the fee.
func ExpectedTotal(employeeCount int, fee Money) Money {
	return fee.MulInt(int64(employeeCount))
}

// ExpensesInPeriod sums expense amounts for period.
func ExpensesInPeriod(expenses []Expense, period Period) Money {
	total := Money{}
	for _, e := range expenses {
		if e.Period() == period {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func countConfirmed(payments []Payment, period Period) int {
	n := 0
	for _, p := range payments {
		if p.Confirmed && p.Period() == period {
			n++
		}
	}
	return n
}

// =============================================================================
// PROGRESS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Percent returns round(100 * part / whole) clamped to [0, 100].
// A zero or negative whole yields 0.
func Percent(part, whole Money) int {
	if !whole.IsPositive() {
		return 0
	}
	pct := part.Value.Mul(hundred).Div(whole.Value).Round(0).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}

// CollectionProgress is the share of the expected total already collected.
func CollectionProgress(collected, expected Money) int {
	return Percent(collected, expected)
}

// ResortGoalProgress is the share of the resort goal already saved.
func ResortGoalProgress(balance, goal Money) int {
	return Percent(balance, goal)
}

// =============================================================================
// PAYMENT STATUS & DEBTORS
// =============================================================================

// PaymentStatus is the reconciliation state of one (employee, period) cell.
type PaymentStatus string

const (
	StatusNoRecord    PaymentStatus = "no_record"
	StatusUnconfirmed PaymentStatus = "unconfirmed"
	StatusConfirmed   PaymentStatus = "confirmed"
)

// Pending reports whether the cell still awaits payment. NoRecord and
// Unconfirmed look the same to users.
func (s PaymentStatus) Pending() bool { return s != StatusConfirmed }

// FindPayment returns the payment for key, if any.
func FindPayment(payments []Payment, key PaymentKey) (Payment, bool) {
	for _, p := range payments {
		if p.Key() == key {
			return p, true
		}
	}
	return Payment{}, false
}

// StatusOf returns the state of the cell for key.
func StatusOf(payments []Payment, key PaymentKey) PaymentStatus {
	p, ok := FindPayment(payments, key)
	switch {
	case !ok:
		return StatusNoRecord
	case p.Confirmed:
		return StatusConfirmed
	default:
		return StatusUnconfirmed
	}
}

// Debtors returns employees without a confirmed payment for period, in
// input order.
func Debtors(employees []Employee, payments []Payment, period Period) []Employee {
	paid := make(map[string]bool)
	for _, p := range payments {
		if p.Confirmed && p.Period() == period {
			paid[p.EmployeeID] = true
		}
	}
	var debtors []Employee
	for _, e := range employees {
		if !paid[e.ID] {
			debtors = append(debtors, e)
		}
	}
	return debtors
}

// =============================================================================
// BIRTHDAY GROUPING
// =============================================================================

// BirthdayEntry is one employee inside a birth-month group.
type BirthdayEntry struct {
	Employee Employee `json:"employee"`
	Day      int      `json:"day"`
}

// GroupBirthdays partitions employees by literal birth month. Index 0 is
// January. Each group is sorted by day; employees with unreadable birth
// dates are left out.
func GroupBirthdays(employees []Employee) [12][]BirthdayEntry {
	var groups [12][]BirthdayEntry
	for _, e := range employees {
		b, err := e.Birthday()
		if err != nil {
			continue
		}
		i := int(b.Month) - 1
		groups[i] = append(groups[i], BirthdayEntry{Employee: e, Day: b.Day})
	}
	for i := range groups {
		g := groups[i]
		sort.SliceStable(g, func(a, b int) bool { return g[a].Day < g[b].Day })
	}
	return groups
}

// BirthdaysInMonth returns the sorted group for month m.
func BirthdaysInMonth(employees []Employee, m time.Month) []BirthdayEntry {
	if m < time.January || m > time.December {
		return nil
	}
	return GroupBirthdays(employees)[m-1]
}

// =============================================================================
// EARLY PAYERS
// =============================================================================

// RankedPayer is one entry of the early-payer ranking.
type RankedPayer struct {
	Rank     int       `json:"rank"`
	Employee Employee  `json:"employee"`
	Payment  Payment   `json:"payment"`
	PaidAt   time.Time `json:"paid_at"`
}

// EarlyPayers ranks confirmed payments by PaidAt ascending and keeps the
// first n. Rank is the 1-based position in that cut. Entries whose
// employee no longer exists are dropped after ranking, so ranks may skip.
func EarlyPayers(payments []Payment, employees []Employee, n int) []RankedPayer {
	var paid []Payment
	for _, p := range payments {
		if p.Confirmed && p.PaidAt != nil {
			paid = append(paid, p)
		}
	}
	sort.SliceStable(paid, func(i, j int) bool {
		return paid[i].PaidAt.Before(*paid[j].PaidAt)
	})
	if n >= 0 && len(paid) > n {
		paid = paid[:n]
	}

	ranking := make([]RankedPayer, 0, len(paid))
	for i, p := range paid {
		e, ok := findEmployee(employees, p.EmployeeID)
		if !ok {
			continue
		}
		ranking = append(ranking, RankedPayer{Rank: i + 1, Employee: e, Payment: p, PaidAt: *p.PaidAt})
	}
	return ranking
}
