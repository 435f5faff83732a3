package treasury

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alohafunds/engine/fund"
)

// ErrNotEmpty is returned by Seed when the store already holds employees.
var ErrNotEmpty = errors.New("store already has data")

// Seed writes data into an empty store and then refreshes the snapshot.
// Payment employee ids are remapped to the ids the store assigns. If a
// write fails, the records already inserted are deleted again so the seed
// can be retried.
func (s *Session) Seed(ctx context.Context, auth fund.AuthContext, data fund.Snapshot) error {
	if err := s.authorize(ctx, auth, "seed"); err != nil {
		return err
	}

	if err := s.seed(ctx, data); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "demo data loaded",
		"employees", len(data.Employees),
		"payments", len(data.Payments),
		"expenses", len(data.Expenses),
		"photos", len(data.Photos))
	return s.Refresh(ctx)
}

func (s *Session) seed(ctx context.Context, data fund.Snapshot) (err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.store.ListEmployees(ctx)
	if err != nil {
		return s.storeFailed(ctx, "seed", err)
	}
	if len(existing) > 0 {
		return ErrNotEmpty
	}

	var undo seedUndo
	defer func() {
		if err != nil {
			undo.run(ctx, s.store, s.logger)
		}
	}()

	ids := make(map[string]string, len(data.Employees))
	for _, e := range data.Employees {
		oldID := e.ID
		e.ID = ""
		stored, err := s.store.InsertEmployee(ctx, e)
		if err != nil {
			return s.storeFailed(ctx, "seed", err)
		}
		ids[oldID] = stored.ID
		undo.employees = append(undo.employees, stored.ID)
	}
	for _, p := range data.Payments {
		p.ID = ""
		if id, ok := ids[p.EmployeeID]; ok {
			p.EmployeeID = id
		}
		stored, err := s.store.InsertPayment(ctx, p)
		if err != nil {
			return s.storeFailed(ctx, "seed", err)
		}
		undo.payments = append(undo.payments, stored.ID)
	}
	for _, e := range data.Expenses {
		e.ID = ""
		stored, err := s.store.InsertExpense(ctx, e)
		if err != nil {
			return s.storeFailed(ctx, "seed", err)
		}
		undo.expenses = append(undo.expenses, stored.ID)
	}
	for _, p := range data.Photos {
		p.ID = ""
		stored, err := s.store.InsertPhoto(ctx, p)
		if err != nil {
			return s.storeFailed(ctx, "seed", err)
		}
		undo.photos = append(undo.photos, stored.ID)
	}
	if _, err := s.store.SaveConfig(ctx, fund.PatchFrom(data.Config)); err != nil {
		var unsupported *fund.UnsupportedFieldsError
		if !errors.As(err, &unsupported) {
			return s.storeFailed(ctx, "seed", err)
		}
		if _, err := s.store.SaveConfig(ctx, fund.PatchFrom(data.Config).Without(unsupported.Fields...)); err != nil {
			return s.storeFailed(ctx, "seed", err)
		}
	}
	return nil
}

// seedUndo records what a seed inserted so a failed seed can be removed
// and tried again.
type seedUndo struct {
	employees, payments, expenses, photos []string
}

// run deletes in reverse order with a context that outlives a cancelled
// request. Failures are logged; the seed error is what the caller sees.
func (u seedUndo) run(ctx context.Context, store fund.Store, logger *slog.Logger) {
	if len(u.employees)+len(u.payments)+len(u.expenses)+len(u.photos) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, id := range u.photos {
		errs = append(errs, store.DeletePhoto(ctx, id))
	}
	for _, id := range u.expenses {
		errs = append(errs, store.DeleteExpense(ctx, id))
	}
	for _, id := range u.payments {
		errs = append(errs, store.DeletePayment(ctx, id))
	}
	for _, id := range u.employees {
		errs = append(errs, store.DeleteEmployee(ctx, id))
	}
	if err := errors.Join(errs...); err != nil {
		logger.ErrorContext(ctx, "seed rollback incomplete", "error", err)
		return
	}
	logger.WarnContext(ctx, "seed rolled back",
		"employees", len(u.employees),
		"payments", len(u.payments),
		"expenses", len(u.expenses),
		"photos", len(u.photos))
}
