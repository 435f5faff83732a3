// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/alohafunds/engine/fund"
	"github.com/google/uuid"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	employees   map[string]fund.Employee
	payments    map[string]fund.Payment
	paymentKeys map[fund.PaymentKey]string
	expenses    map[string]fund.Expense
	photos      map[string]fund.EventPhoto
	config      *fund.Config
	unsupported map[fund.ConfigField]bool
	seq         int64
	order       map[string]int64
}

// Option configures a Memory store.
type Option func(*Memory)

// WithConfig seeds the configuration row.
func WithConfig(cfg fund.Config) Option {
	return func(m *Memory) { m.config = &cfg }
}

// WithUnsupportedConfigFields simulates a schema that lacks columns for
// the given fields.
func WithUnsupportedConfigFields(fields ...fund.ConfigField) Option {
	return func(m *Memory) {
		for _, f := range fields {
			m.unsupported[f] = true
		}
	}
}

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		employees:   make(map[string]fund.Employee),
		payments:    make(map[string]fund.Payment),
		paymentKeys: make(map[fund.PaymentKey]string),
		expenses:    make(map[string]fund.Expense),
		photos:      make(map[string]fund.EventPhoto),
		unsupported: make(map[fund.ConfigField]bool),
		order:       make(map[string]int64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ fund.Store = (*Memory)(nil)

// track remembers insertion order so lists come back stable.
func (m *Memory) track(id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := m.order[id]; !ok {
		m.seq++
		m.order[id] = m.seq
	}
	return id
}

func (m *Memory) sortByInsertion(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return m.order[ids[i]] < m.order[ids[j]] })
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns employees ordered by name, as the UI lists them.
func (m *Memory) ListEmployees(_ context.Context) ([]fund.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]fund.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return m.order[result[i].ID] < m.order[result[j].ID]
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *Memory) InsertEmployee(_ context.Context, e fund.Employee) (fund.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.track(e.ID)
	m.employees[e.ID] = e
	return e, nil
}

func (m *Memory) UpdateEmployee(_ context.Context, e fund.Employee) (fund.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[e.ID]; !ok {
		return fund.Employee{}, fund.ErrNotFound
	}
	m.employees[e.ID] = e
	return e, nil
}

// DeleteEmployee removes the employee. Their payments are kept.
func (m *Memory) DeleteEmployee(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[id]; !ok {
		return fund.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) ListPayments(_ context.Context) ([]fund.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.payments))
	for id := range m.payments {
		ids = append(ids, id)
	}
	m.sortByInsertion(ids)

	result := make([]fund.Payment, len(ids))
	for i, id := range ids {
		result[i] = clonePayment(m.payments[id])
	}
	return result, nil
}

// InsertPayment enforces one payment per employee and period.
func (m *Memory) InsertPayment(_ context.Context, p fund.Payment) (fund.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.paymentKeys[p.Key()]; exists {
		return fund.Payment{}, fund.ErrDuplicatePayment
	}
	p.ID = m.track(p.ID)
	p = clonePayment(p)
	m.payments[p.ID] = p
	m.paymentKeys[p.Key()] = p.ID
	return clonePayment(p), nil
}

func (m *Memory) UpdatePayment(_ context.Context, p fund.Payment) (fund.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.payments[p.ID]
	if !ok {
		return fund.Payment{}, fund.ErrNotFound
	}
	if old.Key() != p.Key() {
		if _, taken := m.paymentKeys[p.Key()]; taken {
			return fund.Payment{}, fund.ErrDuplicatePayment
		}
		delete(m.paymentKeys, old.Key())
		m.paymentKeys[p.Key()] = p.ID
	}
	p = clonePayment(p)
	m.payments[p.ID] = p
	return clonePayment(p), nil
}

func (m *Memory) DeletePayment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[id]
	if !ok {
		return fund.ErrNotFound
	}
	delete(m.payments, id)
	delete(m.paymentKeys, p.Key())
	return nil
}

func clonePayment(p fund.Payment) fund.Payment {
	if p.PaidAt != nil {
		t := *p.PaidAt
		p.PaidAt = &t
	}
	return p
}

// =============================================================================
// CONFIG
// =============================================================================

func (m *Memory) GetConfig(_ context.Context) (fund.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return fund.Config{}, fund.ErrConfigNotFound
	}
	return *m.config, nil
}

// SaveConfig rejects the whole patch if any field is unsupported.
func (m *Memory) SaveConfig(_ context.Context, patch fund.ConfigPatch) (fund.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var missing []fund.ConfigField
	for _, f := range patch.Fields() {
		if m.unsupported[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fund.Config{}, &fund.UnsupportedFieldsError{Fields: missing}
	}

	current := fund.DefaultConfig()
	if m.config != nil {
		current = *m.config
	}
	next := patch.Apply(current)
	m.config = &next
	return next, nil
}

// =============================================================================
// EXPENSES & PHOTOS
// =============================================================================

func (m *Memory) ListExpenses(_ context.Context) ([]fund.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.expenses))
	for id := range m.expenses {
		ids = append(ids, id)
	}
	m.sortByInsertion(ids)

	result := make([]fund.Expense, len(ids))
	for i, id := range ids {
		result[i] = m.expenses[id]
	}
	return result, nil
}

func (m *Memory) InsertExpense(_ context.Context, e fund.Expense) (fund.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.track(e.ID)
	m.expenses[e.ID] = e
	return e, nil
}

func (m *Memory) DeleteExpense(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[id]; !ok {
		return fund.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *Memory) ListPhotos(_ context.Context) ([]fund.EventPhoto, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.photos))
	for id := range m.photos {
		ids = append(ids, id)
	}
	m.sortByInsertion(ids)

	result := make([]fund.EventPhoto, len(ids))
	for i, id := range ids {
		result[i] = m.photos[id]
	}
	return result, nil
}

func (m *Memory) InsertPhoto(_ context.Context, p fund.EventPhoto) (fund.EventPhoto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.track(p.ID)
	m.photos[p.ID] = p
	return p, nil
}

func (m *Memory) DeletePhoto(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.photos[id]; !ok {
		return fund.ErrNotFound
	}
	delete(m.photos, id)
	return nil
}
