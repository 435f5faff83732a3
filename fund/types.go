/*
Package fund provides the core accounting engine for a team savings fund.

PURPOSE:
  A group of collaborators pays a monthly fee into a shared fund. Part of
  every confirmed payment goes to a birthday fund, the rest accumulates in
  a resort fund for a group trip. This package turns a sparse set of
  per-employee-per-month payment records into balances, progress ratios,
  rankings and reminder decisions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: Currency amount backed by decimal.Decimal
  - Employee, Payment, Config, Expense, EventPhoto: the stored entities
  - Snapshot: everything loaded from the store at one point in time

DESIGN PRINCIPLES:
  1. Purity: accounting functions take a snapshot and return values
  2. Precision: Money uses decimal.Decimal, never float arithmetic
  3. Literal dates: birth dates are read digit by digit, never through a
     time zone

SEE ALSO:
  - accounting.go: Fund balances, progress, rankings
  - reconcile.go: Payment toggle state machine
  - template.go: Reminder messages
  - store.go: Persistence interfaces
*/
package fund

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// Money is a currency amount. The zero value is zero.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money    { return Money{Value: decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int64) Money { return Money{Value: decimal.NewFromInt(value)} }

// ParseMoney parses a decimal string such as "20" or "19.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) MulInt(n int64) Money     { return Money{Value: m.Value.Mul(decimal.NewFromInt(n))} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }

// NonNegative clamps negative amounts to zero.
func (m Money) NonNegative() Money {
	if m.Value.IsNegative() {
		return Money{}
	}
	return m
}

// String renders the shortest exact form ("20", "19.5").
func (m Money) String() string { return m.Value.String() }

// Fixed renders with two decimals ("20.00").
func (m Money) Fixed() string { return m.Value.StringFixed(2) }

// MarshalJSON writes a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Value.String()), nil
}

// UnmarshalJSON accepts both numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Value.UnmarshalJSON(data)
}

// =============================================================================
// ENTITIES
// =============================================================================

// Employee is a collaborator who contributes to the fund.
// BirthDate keeps the literal "YYYY-MM-DD" text; only month and day matter.
type Employee struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Birthday parses BirthDate literally.
func (e Employee) Birthday() (BirthDate, error) {
	return ParseBirthDate(e.BirthDate)
}

// Payment records one employee's contribution for one month.
// PaidAt is non-nil exactly when Confirmed is true.
type Payment struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Month      time.Month `json:"month"`
	Year       int        `json:"year"`
	AmountPaid Money      `json:"amount_paid"`
	PaidAt     *time.Time `json:"paid_at"`
	Confirmed  bool       `json:"confirmed"`
}

// Period returns the (month, year) the payment belongs to.
func (p Payment) Period() Period { return Period{Month: p.Month, Year: p.Year} }

// Key identifies the payment's reconciliation cell.
func (p Payment) Key() PaymentKey {
	return PaymentKey{EmployeeID: p.EmployeeID, Period: p.Period()}
}

// PaymentKey is the uniqueness key for payments.
type PaymentKey struct {
	EmployeeID string
	Period     Period
}

// Config is the singleton fund configuration.
type Config struct {
	MonthlyFee       Money  `json:"monthly_fee"`
	ResortGoalAmount Money  `json:"resort_goal_amount"`
	Template15       string `json:"template_15"`
	Template30       string `json:"template_30"`
}

// DefaultConfig is used whenever the store has no configuration row.
func DefaultConfig() Config {
	return Config{MonthlyFee: NewMoneyFromInt(20)}
}

// Expense is money spent from the fund in a given month.
type Expense struct {
	ID              string     `json:"id"`
	Month           time.Month `json:"month"`
	Year            int        `json:"year"`
	Concept         string     `json:"concept"`
	Amount          Money      `json:"amount"`
	ReceiptImageURL string     `json:"receipt_image_url"`
}

func (e Expense) Period() Period { return Period{Month: e.Month, Year: e.Year} }

// EventPhoto is a gallery entry.
type EventPhoto struct {
	ID          string `json:"id"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

// Snapshot is the in-memory state every computation runs against.
type Snapshot struct {
	Employees []Employee
	Payments  []Payment
	Expenses  []Expense
	Photos    []EventPhoto
	Config    Config
}

// EmployeeByID returns the employee with the given id.
func (s Snapshot) EmployeeByID(id string) (Employee, bool) {
	return findEmployee(s.Employees, id)
}

func findEmployee(employees []Employee, id string) (Employee, bool) {
	for _, e := range employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}
