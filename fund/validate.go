package fund

import "strings"

// Validate checks the fields an administrator must supply.
func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if _, err := ParseBirthDate(e.BirthDate); err != nil {
		return err
	}
	return nil
}

func (p Payment) Validate() error {
	if p.EmployeeID == "" {
		return &ValidationError{Field: "employee_id", Message: "is required"}
	}
	if !p.Period().Valid() {
		return &ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if p.AmountPaid.IsNegative() {
		return &ValidationError{Field: "amount_paid", Message: "must not be negative"}
	}
	if p.Confirmed != (p.PaidAt != nil) {
		return &ValidationError{Field: "paid_at", Message: "must be set exactly when confirmed"}
	}
	return nil
}

func (e Expense) Validate() error {
	if !e.Period().Valid() {
		return &ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if strings.TrimSpace(e.Concept) == "" {
		return &ValidationError{Field: "concept", Message: "is required"}
	}
	if e.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "must not be negative"}
	}
	return nil
}

func (p EventPhoto) Validate() error {
	if strings.TrimSpace(p.ImageURL) == "" {
		return &ValidationError{Field: "image_url", Message: "is required"}
	}
	return nil
}
