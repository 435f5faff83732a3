package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alohafunds/engine/fund"
	"github.com/alohafunds/engine/fund/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PaymentUniqueness(t *testing.T) {
	// GIVEN: A payment for emp-1 in October 2023
	m := store.NewMemory()
	ctx := context.Background()
	p := fund.Payment{EmployeeID: "emp-1", Month: time.October, Year: 2023}

	first, err := m.InsertPayment(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID, "id assigned on insert")

	// WHEN: Inserting another for the same key
	_, err = m.InsertPayment(ctx, p)

	// THEN: Rejected
	assert.ErrorIs(t, err, fund.ErrDuplicatePayment)

	// A different month is fine
	p.Month = time.November
	_, err = m.InsertPayment(ctx, p)
	assert.NoError(t, err)
}

func TestMemory_UpdatePaymentRoundTrip(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	p, err := m.InsertPayment(ctx, fund.Payment{EmployeeID: "emp-1", Month: time.October, Year: 2023})
	require.NoError(t, err)

	paidAt := time.Date(2023, time.October, 2, 10, 0, 0, 0, time.UTC)
	p.Confirmed = true
	p.PaidAt = &paidAt
	p.AmountPaid = fund.NewMoneyFromInt(20)
	_, err = m.UpdatePayment(ctx, p)
	require.NoError(t, err)

	payments, err := m.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Confirmed)
	assert.Equal(t, paidAt, *payments[0].PaidAt)

	_, err = m.UpdatePayment(ctx, fund.Payment{ID: "missing"})
	assert.ErrorIs(t, err, fund.ErrNotFound)
}

func TestMemory_ConfigMissingThenSaved(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	_, err := m.GetConfig(ctx)
	assert.ErrorIs(t, err, fund.ErrConfigNotFound)

	fee := fund.NewMoneyFromInt(25)
	saved, err := m.SaveConfig(ctx, fund.ConfigPatch{MonthlyFee: &fee})
	require.NoError(t, err)
	assert.True(t, saved.MonthlyFee.Equal(fee))

	got, err := m.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestMemory_UnsupportedConfigFieldsRejectWholePatch(t *testing.T) {
	m := store.NewMemory(store.WithUnsupportedConfigFields(fund.FieldResortGoalAmount))
	ctx := context.Background()

	fee := fund.NewMoneyFromInt(25)
	goal := fund.NewMoneyFromInt(1000)
	_, err := m.SaveConfig(ctx, fund.ConfigPatch{MonthlyFee: &fee, ResortGoalAmount: &goal})

	var unsupported *fund.UnsupportedFieldsError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, []fund.ConfigField{fund.FieldResortGoalAmount}, unsupported.Fields)

	_, err = m.GetConfig(ctx)
	assert.ErrorIs(t, err, fund.ErrConfigNotFound, "nothing written")
}

func TestMemory_EmployeesSortedByNameAndDeleteKeepsPayments(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	carlos, err := m.InsertEmployee(ctx, fund.Employee{Name: "Carlos", BirthDate: "1990-10-15"})
	require.NoError(t, err)
	_, err = m.InsertEmployee(ctx, fund.Employee{Name: "Ana", BirthDate: "1985-05-22"})
	require.NoError(t, err)
	_, err = m.InsertPayment(ctx, fund.Payment{EmployeeID: carlos.ID, Month: time.October, Year: 2023})
	require.NoError(t, err)

	list, err := m.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name)

	require.NoError(t, m.DeleteEmployee(ctx, carlos.ID))
	assert.ErrorIs(t, m.DeleteEmployee(ctx, carlos.ID), fund.ErrNotFound)

	payments, err := m.ListPayments(ctx)
	require.NoError(t, err)
	assert.Len(t, payments, 1, "orphaned payment kept")
}

func TestMemory_ExpensesAndPhotos(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	e1, err := m.InsertExpense(ctx, fund.Expense{Month: time.October, Year: 2023, Concept: "Helado"})
	require.NoError(t, err)
	_, err = m.InsertExpense(ctx, fund.Expense{Month: time.October, Year: 2023, Concept: "Pastel"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteExpense(ctx, e1.ID))
	expenses, err := m.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Pastel", expenses[0].Concept)

	ph, err := m.InsertPhoto(ctx, fund.EventPhoto{ImageURL: "https://example.com/a.jpg"})
	require.NoError(t, err)
	photos, err := m.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Len(t, photos, 1)

	require.NoError(t, m.DeletePhoto(ctx, ph.ID))
	assert.ErrorIs(t, m.DeletePhoto(ctx, ph.ID), fund.ErrNotFound)
}

func TestMemory_DeletePaymentFreesCell(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	p, err := m.InsertPayment(ctx, fund.Payment{EmployeeID: "1", Month: time.October, Year: 2023})
	require.NoError(t, err)

	require.NoError(t, m.DeletePayment(ctx, p.ID))
	assert.ErrorIs(t, m.DeletePayment(ctx, p.ID), fund.ErrNotFound)

	_, err = m.InsertPayment(ctx, fund.Payment{EmployeeID: "1", Month: time.October, Year: 2023})
	assert.NoError(t, err)
}
