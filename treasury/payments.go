package treasury

import (
	"context"
	"fmt"
	"time"

	"github.com/alohafunds/engine/fund"
)

// TogglePayment flips the confirmation of one (employee, month, year) cell,
// creating a confirmed payment when none exists. It returns the stored
// payment. A new payment needs a known employee; an existing cell of a
// deleted employee can still be flipped.
func (s *Session) TogglePayment(ctx context.Context, auth fund.AuthContext, employeeID string, month time.Month, year int) (fund.Payment, error) {
	if err := s.authorize(ctx, auth, "toggle_payment"); err != nil {
		return fund.Payment{}, err
	}
	key := fund.PaymentKey{EmployeeID: employeeID, Period: fund.Period{Month: month, Year: year}}
	if employeeID == "" {
		return fund.Payment{}, &fund.ValidationError{Field: "employee_id", Message: "is required"}
	}
	if !key.Period.Valid() {
		return fund.Payment{}, &fund.ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	existing, found := fund.FindPayment(s.snap.Payments, key)
	known := hasEmployee(s.snap.Employees, employeeID)
	fee := s.snap.Config.MonthlyFee
	s.mu.RUnlock()

	if !found && !known {
		s.logger.WarnContext(ctx, "toggle for unknown employee rejected", "employee_id", employeeID, "by", auth.Subject())
		return fund.Payment{}, fmt.Errorf("employee %s: %w", employeeID, fund.ErrNotFound)
	}

	var current *fund.Payment
	if found {
		current = &existing
	}
	toggle := fund.NextPayment(current, key, fee, s.now())

	var (
		stored fund.Payment
		err    error
	)
	if toggle.Created {
		stored, err = s.store.InsertPayment(ctx, toggle.Payment)
	} else {
		stored, err = s.store.UpdatePayment(ctx, toggle.Payment)
	}
	if err != nil {
		return fund.Payment{}, s.storeFailed(ctx, "toggle_payment", err)
	}

	s.mu.Lock()
	if toggle.Created {
		s.snap.Payments = append(s.snap.Payments, stored)
	} else {
		for i := range s.snap.Payments {
			if s.snap.Payments[i].ID == stored.ID {
				s.snap.Payments[i] = stored
				break
			}
		}
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "payment toggled",
		"employee_id", employeeID,
		"month", int(month),
		"year", year,
		"confirmed", stored.Confirmed,
		"created", toggle.Created,
		"by", auth.Subject())
	return stored, nil
}

// PaymentStatus reports the state of one cell from the snapshot.
func (s *Session) PaymentStatus(employeeID string, period fund.Period) fund.PaymentStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fund.StatusOf(s.snap.Payments, fund.PaymentKey{EmployeeID: employeeID, Period: period})
}

func hasEmployee(employees []fund.Employee, id string) bool {
	for _, e := range employees {
		if e.ID == id {
			return true
		}
	}
	return false
}
