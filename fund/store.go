/*
store.go - Persistence interfaces for fund records

PURPOSE:
  Defines the interface between the fund engine and whatever database holds
  the records. Each collection exposes list/insert/update/delete as needed.
  All methods take a context and may fail; callers never assume success.

KEY INTERFACES:
  EmployeeStore: Collaborators
  PaymentStore:  Monthly contributions (unique per employee and period)
  ConfigStore:   Singleton configuration with per-field patching
  ExpenseStore:  Fund expenses
  PhotoStore:    Event gallery
  Store:         All of the above

INSERT SEMANTICS:
  Insert methods assign an ID when the record has none and return the
  stored record. PaymentStore.InsertPayment returns ErrDuplicatePayment if
  a payment for the same (employee, month, year) already exists.

SCHEMA DRIFT:
  A ConfigStore may lack columns for some ConfigFields (for example a
  database created before the resort goal existed). SaveConfig then writes
  nothing and returns *UnsupportedFieldsError naming the missing fields, so
  the caller can retry with those fields removed.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite with versioned migrations
  - fund/store/memory.go: In-memory for testing

SEE ALSO:
  - treasury/session.go: The only writer
*/
package fund

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	InsertEmployee(ctx context.Context, e Employee) (Employee, error)
	UpdateEmployee(ctx context.Context, e Employee) (Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

type PaymentStore interface {
	ListPayments(ctx context.Context) ([]Payment, error)
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	UpdatePayment(ctx context.Context, p Payment) (Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

type ConfigStore interface {
	// GetConfig returns ErrConfigNotFound when no row exists.
	GetConfig(ctx context.Context) (Config, error)
	// SaveConfig applies the patch on top of the stored row (or the
	// defaults) and returns the stored result.
	SaveConfig(ctx context.Context, patch ConfigPatch) (Config, error)
}

type ExpenseStore interface {
	ListExpenses(ctx context.Context) ([]Expense, error)
	InsertExpense(ctx context.Context, e Expense) (Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

type PhotoStore interface {
	ListPhotos(ctx context.Context) ([]EventPhoto, error)
	InsertPhoto(ctx context.Context, p EventPhoto) (EventPhoto, error)
	DeletePhoto(ctx context.Context, id string) error
}

// Store is the complete entity store adapter.
type Store interface {
	EmployeeStore
	PaymentStore
	ConfigStore
	ExpenseStore
	PhotoStore
}

// =============================================================================
// CONFIG PATCH
// =============================================================================

// ConfigField enumerates the configurable fields.
type ConfigField string

const (
	FieldMonthlyFee       ConfigField = "monthly_fee"
	FieldResortGoalAmount ConfigField = "resort_goal_amount"
	FieldTemplate15       ConfigField = "template_15"
	FieldTemplate30       ConfigField = "template_30"
)

// AllConfigFields lists every ConfigField in column order.
var AllConfigFields = []ConfigField{
	FieldMonthlyFee, FieldResortGoalAmount, FieldTemplate15, FieldTemplate30,
}

// ConfigPatch sets only the non-nil fields.
type ConfigPatch struct {
	MonthlyFee       *Money  `json:"monthly_fee,omitempty"`
	ResortGoalAmount *Money  `json:"resort_goal_amount,omitempty"`
	Template15       *string `json:"template_15,omitempty"`
	Template30       *string `json:"template_30,omitempty"`
}

// PatchFrom builds a patch that sets every field to cfg's value.
func PatchFrom(cfg Config) ConfigPatch {
	fee, goal := cfg.MonthlyFee, cfg.ResortGoalAmount
	t15, t30 := cfg.Template15, cfg.Template30
	return ConfigPatch{MonthlyFee: &fee, ResortGoalAmount: &goal, Template15: &t15, Template30: &t30}
}

// Fields returns the fields this patch sets.
func (p ConfigPatch) Fields() []ConfigField {
	var fields []ConfigField
	if p.MonthlyFee != nil {
		fields = append(fields, FieldMonthlyFee)
	}
	if p.ResortGoalAmount != nil {
		fields = append(fields, FieldResortGoalAmount)
	}
	if p.Template15 != nil {
		fields = append(fields, FieldTemplate15)
	}
	if p.Template30 != nil {
		fields = append(fields, FieldTemplate30)
	}
	return fields
}

func (p ConfigPatch) IsEmpty() bool { return len(p.Fields()) == 0 }

// Without returns a copy with the given fields unset.
func (p ConfigPatch) Without(fields ...ConfigField) ConfigPatch {
	for _, f := range fields {
		switch f {
		case FieldMonthlyFee:
			p.MonthlyFee = nil
		case FieldResortGoalAmount:
			p.ResortGoalAmount = nil
		case FieldTemplate15:
			p.Template15 = nil
		case FieldTemplate30:
			p.Template30 = nil
		}
	}
	return p
}

// Only returns a copy keeping just the given fields.
func (p ConfigPatch) Only(fields ...ConfigField) ConfigPatch {
	keep := make(map[ConfigField]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	var drop []ConfigField
	for _, f := range AllConfigFields {
		if !keep[f] {
			drop = append(drop, f)
		}
	}
	return p.Without(drop...)
}

// Apply returns cfg with the patch's fields overwritten.
func (p ConfigPatch) Apply(cfg Config) Config {
	if p.MonthlyFee != nil {
		cfg.MonthlyFee = *p.MonthlyFee
	}
	if p.ResortGoalAmount != nil {
		cfg.ResortGoalAmount = *p.ResortGoalAmount
	}
	if p.Template15 != nil {
		cfg.Template15 = *p.Template15
	}
	if p.Template30 != nil {
		cfg.Template30 = *p.Template30
	}
	return cfg
}

// Validate checks the configuration surface: the fee must be positive and
// the resort goal must not be negative.
func (p ConfigPatch) Validate() error {
	if p.MonthlyFee != nil && !p.MonthlyFee.IsPositive() {
		return &ValidationError{Field: string(FieldMonthlyFee), Message: "must be greater than zero"}
	}
	if p.ResortGoalAmount != nil && p.ResortGoalAmount.IsNegative() {
		return &ValidationError{Field: string(FieldResortGoalAmount), Message: "must not be negative"}
	}
	return nil
}
