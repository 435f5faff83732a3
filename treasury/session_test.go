package treasury_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alohafunds/engine/fund"
	"github.com/alohafunds/engine/fund/store"
	"github.com/alohafunds/engine/treasury"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	admin = fund.Admin{Email: "tesorera@company.com"}
	guest = fund.Guest{}
	errDown = errors.New("store unavailable")
)

// flakyStore wraps a store, counts calls and fails them on demand.
type flakyStore struct {
	fund.Store
	calls      atomic.Int64
	fail       atomic.Bool
	failPhotos atomic.Bool
}

func (f *flakyStore) check() error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errDown
	}
	return nil
}

func (f *flakyStore) ListEmployees(ctx context.Context) ([]fund.Employee, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.Store.ListEmployees(ctx)
}

func (f *flakyStore) InsertEmployee(ctx context.Context, e fund.Employee) (fund.Employee, error) {
	if err := f.check(); err != nil {
		return fund.Employee{}, err
	}
	return f.Store.InsertEmployee(ctx, e)
}

func (f *flakyStore) DeleteEmployee(ctx context.Context, id string) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.Store.DeleteEmployee(ctx, id)
}

func (f *flakyStore) InsertPayment(ctx context.Context, p fund.Payment) (fund.Payment, error) {
	if err := f.check(); err != nil {
		return fund.Payment{}, err
	}
	return f.Store.InsertPayment(ctx, p)
}

func (f *flakyStore) UpdatePayment(ctx context.Context, p fund.Payment) (fund.Payment, error) {
	if err := f.check(); err != nil {
		return fund.Payment{}, err
	}
	return f.Store.UpdatePayment(ctx, p)
}

func (f *flakyStore) SaveConfig(ctx context.Context, p fund.ConfigPatch) (fund.Config, error) {
	if err := f.check(); err != nil {
		return fund.Config{}, err
	}
	return f.Store.SaveConfig(ctx, p)
}

func (f *flakyStore) InsertExpense(ctx context.Context, e fund.Expense) (fund.Expense, error) {
	if err := f.check(); err != nil {
		return fund.Expense{}, err
	}
	return f.Store.InsertExpense(ctx, e)
}

func (f *flakyStore) InsertPhoto(ctx context.Context, p fund.EventPhoto) (fund.EventPhoto, error) {
	if err := f.check(); err != nil {
		return fund.EventPhoto{}, err
	}
	if f.failPhotos.Load() {
		return fund.EventPhoto{}, errDown
	}
	return f.Store.InsertPhoto(ctx, p)
}

type fixture struct {
	session *treasury.Session
	store   *flakyStore
	now     time.Time
}

func newFixture(t *testing.T, opts ...store.Option) *fixture {
	t.Helper()
	fx := &fixture{
		store: &flakyStore{Store: store.NewMemory(opts...)},
		now:   time.Date(2023, time.October, 3, 15, 0, 0, 0, time.UTC),
	}
	fx.session = treasury.NewSession(fx.store,
		treasury.WithClock(func() time.Time { return fx.now }),
		treasury.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, fx.session.Refresh(context.Background()))
	return fx
}

func (fx *fixture) addEmployee(t *testing.T, name, birth string) fund.Employee {
	t.Helper()
	e, err := fx.session.AddEmployee(context.Background(), admin, fund.Employee{Name: name, BirthDate: birth})
	require.NoError(t, err)
	return e
}

// =============================================================================
// REFRESH TESTS
// =============================================================================

func TestRefresh_MissingConfigUsesDefaults(t *testing.T) {
	fx := newFixture(t)

	cfg := fx.session.Snapshot().Config

	assert.True(t, cfg.MonthlyFee.Equal(fund.NewMoneyFromInt(20)))
	assert.True(t, cfg.ResortGoalAmount.IsZero())
	assert.Empty(t, cfg.Template15)
}

func TestRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	fx := newFixture(t)
	fx.addEmployee(t, "Carlos", "1990-10-15")

	fx.store.fail.Store(true)
	err := fx.session.Refresh(context.Background())

	assert.ErrorIs(t, err, errDown)
	assert.Len(t, fx.session.Snapshot().Employees, 1)
}

// =============================================================================
// AUTHORIZATION TESTS
// =============================================================================

func TestGuestMutationsRejectedWithoutStoreCalls(t *testing.T) {
	// GIVEN: A guest caller
	fx := newFixture(t)
	ctx := context.Background()
	before := fx.store.calls.Load()
	fee := fund.NewMoneyFromInt(30)

	// WHEN: Attempting every mutation
	_, errToggle := fx.session.TogglePayment(ctx, guest, "emp-1", time.October, 2023)
	_, errAdd := fx.session.AddEmployee(ctx, guest, fund.Employee{Name: "X", BirthDate: "1990-01-01"})
	_, errUpdate := fx.session.UpdateEmployee(ctx, guest, fund.Employee{ID: "1", Name: "X", BirthDate: "1990-01-01"})
	errDelete := fx.session.DeleteEmployee(ctx, guest, "1")
	_, errConfig := fx.session.SaveConfig(ctx, guest, fund.ConfigPatch{MonthlyFee: &fee})
	_, errExpense := fx.session.AddExpense(ctx, guest, fund.Expense{Month: time.October, Year: 2023, Concept: "x"})
	errDelExpense := fx.session.DeleteExpense(ctx, guest, "e1")
	_, errPhoto := fx.session.AddPhoto(ctx, guest, fund.EventPhoto{ImageURL: "https://example.com/p.jpg"})
	_, errNil := fx.session.TogglePayment(ctx, nil, "emp-1", time.October, 2023)

	// THEN: All rejected, store untouched
	for _, err := range []error{errToggle, errAdd, errUpdate, errDelete, errConfig, errExpense, errDelExpense, errPhoto, errNil} {
		assert.ErrorIs(t, err, fund.ErrUnauthorized)
	}
	assert.Equal(t, before, fx.store.calls.Load(), "no store call issued")
	assert.Empty(t, fx.session.Snapshot().Payments)
}

// =============================================================================
// TOGGLE TESTS
// =============================================================================

func TestTogglePayment_CreateThenFlip(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	carlos := fx.addEmployee(t, "Carlos", "1990-10-15")

	// WHEN: First toggle on an empty cell
	p, err := fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)

	// THEN: Confirmed for the monthly fee, paid now
	require.NoError(t, err)
	assert.True(t, p.Confirmed)
	assert.True(t, p.AmountPaid.Equal(fund.NewMoneyFromInt(20)))
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, fx.now, *p.PaidAt)
	assert.Equal(t, fund.StatusConfirmed, fx.session.PaymentStatus(carlos.ID, fund.Period{Month: time.October, Year: 2023}))

	// WHEN: Toggled again
	fx.now = fx.now.Add(time.Hour)
	p, err = fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)

	// THEN: Unconfirmed, timestamp cleared, amount kept, still one record
	require.NoError(t, err)
	assert.False(t, p.Confirmed)
	assert.Nil(t, p.PaidAt)
	assert.True(t, p.AmountPaid.Equal(fund.NewMoneyFromInt(20)))
	assert.Len(t, fx.session.Snapshot().Payments, 1)

	// AND: Toggled back on gets a fresh timestamp
	fx.now = fx.now.Add(time.Hour)
	p, err = fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)
	require.NoError(t, err)
	assert.Equal(t, fx.now, *p.PaidAt)

	stored, err := fx.store.ListPayments(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestTogglePayment_StoreFailureLeavesSnapshot(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	carlos := fx.addEmployee(t, "Carlos", "1990-10-15")

	fx.store.fail.Store(true)
	_, err := fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)

	assert.ErrorIs(t, err, errDown)
	assert.Empty(t, fx.session.Snapshot().Payments)

	// The session stays usable after the failure
	fx.store.fail.Store(false)
	_, err = fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)
	assert.NoError(t, err)
}

func TestTogglePayment_FailedUnconfirmKeepsConfirmed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	carlos := fx.addEmployee(t, "Carlos", "1990-10-15")
	_, err := fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)
	require.NoError(t, err)

	fx.store.fail.Store(true)
	_, err = fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)

	require.Error(t, err)
	payments := fx.session.Snapshot().Payments
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Confirmed)
	assert.NotNil(t, payments[0].PaidAt)
}

func TestTogglePayment_ConcurrentTogglesNeverDuplicate(t *testing.T) {
	// GIVEN: Many concurrent toggles on one empty cell
	fx := newFixture(t)
	ctx := context.Background()
	carlos := fx.addEmployee(t, "Carlos", "1990-10-15")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// THEN: Every toggle succeeded on a single record; an even count ends unconfirmed
	for err := range errs {
		assert.NoError(t, err)
	}
	payments := fx.session.Snapshot().Payments
	require.Len(t, payments, 1)
	assert.False(t, payments[0].Confirmed)
}

func TestTogglePayment_Validation(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.session.TogglePayment(context.Background(), admin, "emp-1", time.Month(13), 2023)
	assert.ErrorIs(t, err, fund.ErrValidation)

	_, err = fx.session.TogglePayment(context.Background(), admin, "", time.October, 2023)
	assert.ErrorIs(t, err, fund.ErrValidation)
}

func TestTogglePayment_UnknownEmployee(t *testing.T) {
	// GIVEN: A store without that employee
	fx := newFixture(t)
	ctx := context.Background()
	before := fx.store.calls.Load()

	// WHEN: Toggling a cell for a stale id
	_, err := fx.session.TogglePayment(ctx, admin, "no-such-employee", time.October, 2023)

	// THEN: Rejected before any write, the fund is untouched
	assert.ErrorIs(t, err, fund.ErrNotFound)
	assert.Equal(t, before, fx.store.calls.Load())
	snap := fx.session.Snapshot()
	assert.Empty(t, snap.Payments)
	assert.True(t, fund.ResortFundBalance(snap.Payments).IsZero())
}

func TestTogglePayment_OrphanedCellCanBeUnconfirmed(t *testing.T) {
	// GIVEN: A confirmed payment whose employee was deleted
	fx := newFixture(t)
	ctx := context.Background()
	carlos := fx.addEmployee(t, "Carlos", "1990-10-15")
	_, err := fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)
	require.NoError(t, err)
	require.NoError(t, fx.session.DeleteEmployee(ctx, admin, carlos.ID))

	// WHEN: Flipping the existing cell
	p, err := fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)

	// THEN: It is unconfirmed, no new cell is created
	require.NoError(t, err)
	assert.False(t, p.Confirmed)
	assert.Len(t, fx.session.Snapshot().Payments, 1)

	// AND: A different month for the same id is refused
	_, err = fx.session.TogglePayment(ctx, admin, carlos.ID, time.November, 2023)
	assert.ErrorIs(t, err, fund.ErrNotFound)
}

// =============================================================================
// RECORD TESTS
// =============================================================================

func TestEmployeeLifecycle_OrphanedPaymentsStillCount(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	carlos := fx.addEmployee(t, "Carlos", "1990-10-15")
	_, err := fx.session.TogglePayment(ctx, admin, carlos.ID, time.October, 2023)
	require.NoError(t, err)

	carlos.Phone = "5551234567"
	updated, err := fx.session.UpdateEmployee(ctx, admin, carlos)
	require.NoError(t, err)
	assert.Equal(t, "5551234567", updated.Phone)

	require.NoError(t, fx.session.DeleteEmployee(ctx, admin, carlos.ID))

	snap := fx.session.Snapshot()
	assert.Empty(t, snap.Employees)
	assert.True(t, fund.ResortFundBalance(snap.Payments).Equal(fund.NewMoneyFromInt(17)))
	assert.Empty(t, fund.EarlyPayers(snap.Payments, snap.Employees, fund.EarlyPayerCount))
}

func TestAddEmployee_Validation(t *testing.T) {
	fx := newFixture(t)
	before := fx.store.calls.Load()

	_, err := fx.session.AddEmployee(context.Background(), admin, fund.Employee{Name: "Ana", BirthDate: "22/05/1985"})

	assert.ErrorIs(t, err, fund.ErrValidation)
	assert.Equal(t, before, fx.store.calls.Load())
}

func TestExpensesAndPhotos(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	e, err := fx.session.AddExpense(ctx, admin, fund.Expense{
		Month: time.October, Year: 2023, Concept: "Helado", Amount: fund.NewMoneyFromInt(300),
	})
	require.NoError(t, err)
	_, err = fx.session.AddPhoto(ctx, admin, fund.EventPhoto{ImageURL: "https://example.com/p.jpg"})
	require.NoError(t, err)

	snap := fx.session.Snapshot()
	assert.Len(t, snap.Expenses, 1)
	assert.Len(t, snap.Photos, 1)

	require.NoError(t, fx.session.DeleteExpense(ctx, admin, e.ID))
	assert.Empty(t, fx.session.Snapshot().Expenses)

	err = fx.session.DeleteExpense(ctx, admin, e.ID)
	assert.ErrorIs(t, err, fund.ErrNotFound)
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestSaveConfig_Persists(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fee := fund.NewMoneyFromInt(200)
	goal := fund.NewMoneyFromInt(1000)

	res, err := fx.session.SaveConfig(ctx, admin, fund.ConfigPatch{MonthlyFee: &fee, ResortGoalAmount: &goal})

	require.NoError(t, err)
	assert.Empty(t, res.LocalOnly)
	assert.True(t, res.Config.MonthlyFee.Equal(fee))
	stored, err := fx.store.GetConfig(ctx)
	require.NoError(t, err)
	assert.True(t, stored.ResortGoalAmount.Equal(goal))
}

func TestSaveConfig_UnsupportedFieldKeptLocally(t *testing.T) {
	// GIVEN: A store without a resort goal column
	fx := newFixture(t, store.WithUnsupportedConfigFields(fund.FieldResortGoalAmount))
	ctx := context.Background()
	fee := fund.NewMoneyFromInt(25)
	goal := fund.NewMoneyFromInt(1000)

	// WHEN: Saving fee and goal together
	res, err := fx.session.SaveConfig(ctx, admin, fund.ConfigPatch{MonthlyFee: &fee, ResortGoalAmount: &goal})

	// THEN: The save succeeds, the fee is stored, the goal lives in the session
	require.NoError(t, err)
	assert.Equal(t, []fund.ConfigField{fund.FieldResortGoalAmount}, res.LocalOnly)
	assert.True(t, res.Config.ResortGoalAmount.Equal(goal))

	stored, err := fx.store.GetConfig(ctx)
	require.NoError(t, err)
	assert.True(t, stored.MonthlyFee.Equal(fee))
	assert.True(t, stored.ResortGoalAmount.IsZero())

	// AND: A refresh keeps the local goal on top of the stored row
	require.NoError(t, fx.session.Refresh(ctx))
	assert.True(t, fx.session.Snapshot().Config.ResortGoalAmount.Equal(goal))
}

func TestSaveConfig_RejectsInvalidFee(t *testing.T) {
	fx := newFixture(t)
	zero := fund.NewMoneyFromInt(0)

	_, err := fx.session.SaveConfig(context.Background(), admin, fund.ConfigPatch{MonthlyFee: &zero})

	assert.ErrorIs(t, err, fund.ErrValidation)
}

func TestSaveConfig_StoreFailureKeepsConfig(t *testing.T) {
	fx := newFixture(t)
	fee := fund.NewMoneyFromInt(99)

	fx.store.fail.Store(true)
	_, err := fx.session.SaveConfig(context.Background(), admin, fund.ConfigPatch{MonthlyFee: &fee})

	assert.ErrorIs(t, err, errDown)
	assert.True(t, fx.session.Snapshot().Config.MonthlyFee.Equal(fund.NewMoneyFromInt(20)))
}

// =============================================================================
// SEED TESTS
// =============================================================================

func TestSeed_RemapsEmployeeIDsAndRefuses(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	paidAt := time.Date(2023, time.October, 2, 10, 0, 0, 0, time.UTC)
	data := fund.Snapshot{
		Employees: []fund.Employee{{ID: "1", Name: "Carlos", BirthDate: "1990-10-15"}},
		Payments: []fund.Payment{{
			EmployeeID: "1", Month: time.October, Year: 2023,
			AmountPaid: fund.NewMoneyFromInt(100), PaidAt: &paidAt, Confirmed: true,
		}},
		Config: fund.Config{MonthlyFee: fund.NewMoneyFromInt(200), ResortGoalAmount: fund.NewMoneyFromInt(1000)},
	}

	require.ErrorIs(t, fx.session.Seed(ctx, guest, data), fund.ErrUnauthorized)
	require.NoError(t, fx.session.Seed(ctx, admin, data))

	snap := fx.session.Snapshot()
	require.Len(t, snap.Employees, 1)
	require.Len(t, snap.Payments, 1)
	assert.Equal(t, snap.Employees[0].ID, snap.Payments[0].EmployeeID)
	assert.True(t, snap.Config.MonthlyFee.Equal(fund.NewMoneyFromInt(200)))

	assert.ErrorIs(t, fx.session.Seed(ctx, admin, data), treasury.ErrNotEmpty)
}

func TestSeed_FailureRollsBackAndCanRetry(t *testing.T) {
	// GIVEN: A store that fails on the last collection of the seed
	fx := newFixture(t)
	ctx := context.Background()
	data := fund.Snapshot{
		Employees: []fund.Employee{{ID: "1", Name: "Carlos", BirthDate: "1990-10-15"}},
		Payments:  []fund.Payment{{EmployeeID: "1", Month: time.October, Year: 2023}},
		Expenses:  []fund.Expense{{Month: time.October, Year: 2023, Concept: "Helado", Amount: fund.NewMoneyFromInt(300)}},
		Photos:    []fund.EventPhoto{{ImageURL: "https://example.com/p.jpg"}},
		Config:    fund.Config{MonthlyFee: fund.NewMoneyFromInt(200)},
	}
	fx.store.failPhotos.Store(true)

	// WHEN: Seeding
	err := fx.session.Seed(ctx, admin, data)

	// THEN: The error surfaces and nothing is left behind
	require.ErrorIs(t, err, errDown)
	employees, _ := fx.store.Store.ListEmployees(ctx)
	payments, _ := fx.store.Store.ListPayments(ctx)
	expenses, _ := fx.store.Store.ListExpenses(ctx)
	photos, _ := fx.store.Store.ListPhotos(ctx)
	assert.Empty(t, employees)
	assert.Empty(t, payments)
	assert.Empty(t, expenses)
	assert.Empty(t, photos)

	// WHEN: The store recovers
	fx.store.failPhotos.Store(false)

	// THEN: The seed goes through
	require.NoError(t, fx.session.Seed(ctx, admin, data))
	snap := fx.session.Snapshot()
	assert.Len(t, snap.Employees, 1)
	assert.Len(t, snap.Payments, 1)
	assert.Len(t, snap.Photos, 1)
}
