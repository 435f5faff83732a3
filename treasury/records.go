package treasury

import (
	"context"

	"github.com/alohafunds/engine/fund"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// AddEmployee validates and stores a new employee.
func (s *Session) AddEmployee(ctx context.Context, auth fund.AuthContext, e fund.Employee) (fund.Employee, error) {
	if err := s.authorize(ctx, auth, "add_employee"); err != nil {
		return fund.Employee{}, err
	}
	if err := e.Validate(); err != nil {
		return fund.Employee{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.store.InsertEmployee(ctx, e)
	if err != nil {
		return fund.Employee{}, s.storeFailed(ctx, "add_employee", err)
	}

	s.mu.Lock()
	s.snap.Employees = append(s.snap.Employees, stored)
	s.mu.Unlock()
	return stored, nil
}

// UpdateEmployee replaces an employee's fields.
func (s *Session) UpdateEmployee(ctx context.Context, auth fund.AuthContext, e fund.Employee) (fund.Employee, error) {
	if err := s.authorize(ctx, auth, "update_employee"); err != nil {
		return fund.Employee{}, err
	}
	if err := e.Validate(); err != nil {
		return fund.Employee{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.store.UpdateEmployee(ctx, e)
	if err != nil {
		return fund.Employee{}, s.storeFailed(ctx, "update_employee", err)
	}

	s.mu.Lock()
	for i := range s.snap.Employees {
		if s.snap.Employees[i].ID == stored.ID {
			s.snap.Employees[i] = stored
		}
	}
	s.mu.Unlock()
	return stored, nil
}

// DeleteEmployee removes an employee. Their payments stay in the snapshot
// and keep counting toward fund totals.
func (s *Session) DeleteEmployee(ctx context.Context, auth fund.AuthContext, id string) error {
	if err := s.authorize(ctx, auth, "delete_employee"); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return s.storeFailed(ctx, "delete_employee", err)
	}

	s.mu.Lock()
	kept := s.snap.Employees[:0:0]
	for _, e := range s.snap.Employees {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.snap.Employees = kept
	s.mu.Unlock()
	return nil
}

// =============================================================================
// EXPENSES
// =============================================================================

func (s *Session) AddExpense(ctx context.Context, auth fund.AuthContext, e fund.Expense) (fund.Expense, error) {
	if err := s.authorize(ctx, auth, "add_expense"); err != nil {
		return fund.Expense{}, err
	}
	if err := e.Validate(); err != nil {
		return fund.Expense{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return fund.Expense{}, s.storeFailed(ctx, "add_expense", err)
	}

	s.mu.Lock()
	s.snap.Expenses = append(s.snap.Expenses, stored)
	s.mu.Unlock()
	return stored, nil
}

func (s *Session) DeleteExpense(ctx context.Context, auth fund.AuthContext, id string) error {
	if err := s.authorize(ctx, auth, "delete_expense"); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return s.storeFailed(ctx, "delete_expense", err)
	}

	s.mu.Lock()
	kept := s.snap.Expenses[:0:0]
	for _, e := range s.snap.Expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.snap.Expenses = kept
	s.mu.Unlock()
	return nil
}

// =============================================================================
// PHOTOS
// =============================================================================

func (s *Session) AddPhoto(ctx context.Context, auth fund.AuthContext, p fund.EventPhoto) (fund.EventPhoto, error) {
	if err := s.authorize(ctx, auth, "add_photo"); err != nil {
		return fund.EventPhoto{}, err
	}
	if err := p.Validate(); err != nil {
		return fund.EventPhoto{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.store.InsertPhoto(ctx, p)
	if err != nil {
		return fund.EventPhoto{}, s.storeFailed(ctx, "add_photo", err)
	}

	s.mu.Lock()
	s.snap.Photos = append(s.snap.Photos, stored)
	s.mu.Unlock()
	return stored, nil
}
