/*
Package sqlite provides a SQLite-backed implementation of fund.Store.

PURPOSE:
  Persists employees, payments, configuration, expenses and event photos.
  Column names keep the Spanish vocabulary of the original data set
  (nombre, mes, anio, monto_pagado...), the Go side uses fund's types.

KEY TABLES:
  employees:    Collaborators
  payments:     One row per (empleado_id, mes, anio), enforced by
                idx_payments_employee_period
  config:       Singleton row with id = 1
  expenses:     Fund expenses per month
  event_photos: Gallery

MIGRATIONS:
  Versioned SQL files under migrations/ are embedded and applied with
  golang-migrate on New(). Version 2 adds config.meta_resort. A database
  left at version 1 is still usable: SaveConfig reports the resort goal
  as unsupported instead of failing.

MONEY & TIME:
  Money is stored as decimal TEXT to keep exact values. Timestamps are
  RFC3339 TEXT in UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite serializes writers anyway,
  the mutex keeps check-then-write sequences in one process consistent.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/aloha.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - fund/store.go: Interface definitions
  - fund/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alohafunds/engine/fund"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	sqlite3driver "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements fund.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ fund.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path and applies
// all migrations. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db, 0); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// runMigrations migrates to version, or all the way up when version is 0.
func runMigrations(db *sql.DB, version uint) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	defer src.Close()

	// m.Close() would also close db, which the store keeps using.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if version == 0 {
		err = m.Up()
	} else {
		err = m.Migrate(version)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) ListEmployees(ctx context.Context) ([]fund.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, fecha_nacimiento, email, telefono
		FROM employees ORDER BY nombre, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fund.Employee
	for rows.Next() {
		var e fund.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.BirthDate, &e.Email, &e.Phone); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) InsertEmployee(ctx context.Context, e fund.Employee) (fund.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, nombre, fecha_nacimiento, email, telefono, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.BirthDate, e.Email, e.Phone, nowText())
	if err != nil {
		return fund.Employee{}, fmt.Errorf("insert employee: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e fund.Employee) (fund.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE employees SET nombre = ?, fecha_nacimiento = ?, email = ?, telefono = ?
		WHERE id = ?`,
		e.Name, e.BirthDate, e.Email, e.Phone, e.ID)
	if err != nil {
		return fund.Employee{}, fmt.Errorf("update employee: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fund.Employee{}, err
	}
	return e, nil
}

// DeleteEmployee removes the employee row. Payments are left in place.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return requireAffected(res)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) ListPayments(ctx context.Context) ([]fund.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, empleado_id, mes, anio, monto_pagado, fecha_pago, confirmado
		FROM payments ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fund.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanPayment(rows *sql.Rows) (fund.Payment, error) {
	var (
		p      fund.Payment
		month  int
		amount string
		paidAt sql.NullString
	)
	if err := rows.Scan(&p.ID, &p.EmployeeID, &month, &p.Year, &amount, &paidAt, &p.Confirmed); err != nil {
		return fund.Payment{}, err
	}
	p.Month = time.Month(month)
	p.AmountPaid = parseMoney(amount)
	if paidAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, paidAt.String)
		if err != nil {
			return fund.Payment{}, fmt.Errorf("payment %s: bad fecha_pago: %w", p.ID, err)
		}
		p.PaidAt = &t
	}
	return p, nil
}

// InsertPayment returns fund.ErrDuplicatePayment when the unique index on
// (empleado_id, mes, anio) rejects the row.
func (s *Store) InsertPayment(ctx context.Context, p fund.Payment) (fund.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, empleado_id, mes, anio, monto_pagado, fecha_pago, confirmado, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EmployeeID, int(p.Month), p.Year, p.AmountPaid.String(), timeText(p.PaidAt), p.Confirmed, nowText())
	if err != nil {
		if isUniqueConstraintError(err) {
			return fund.Payment{}, fund.ErrDuplicatePayment
		}
		return fund.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p fund.Payment) (fund.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET empleado_id = ?, mes = ?, anio = ?, monto_pagado = ?, fecha_pago = ?, confirmado = ?
		WHERE id = ?`,
		p.EmployeeID, int(p.Month), p.Year, p.AmountPaid.String(), timeText(p.PaidAt), p.Confirmed, p.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fund.Payment{}, fund.ErrDuplicatePayment
		}
		return fund.Payment{}, fmt.Errorf("update payment: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fund.Payment{}, err
	}
	return p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireAffected(res)
}

// =============================================================================
// CONFIG
// =============================================================================

var configColumns = map[fund.ConfigField]string{
	fund.FieldMonthlyFee:       "cuota_mensual",
	fund.FieldResortGoalAmount: "meta_resort",
	fund.FieldTemplate15:       "plantilla_dia_15",
	fund.FieldTemplate30:       "plantilla_dia_30",
}

// supportedConfigFields inspects the config table and returns the fields
// that have a column.
func (s *Store) supportedConfigFields(ctx context.Context) (map[fund.ConfigField]bool, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(config)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	supported := make(map[fund.ConfigField]bool)
	for field, col := range configColumns {
		if present[col] {
			supported[field] = true
		}
	}
	return supported, nil
}

// GetConfig reads the singleton row. Fields without a column keep their
// default value.
func (s *Store) GetConfig(ctx context.Context) (fund.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getConfig(ctx)
}

func (s *Store) getConfig(ctx context.Context) (fund.Config, error) {
	supported, err := s.supportedConfigFields(ctx)
	if err != nil {
		return fund.Config{}, err
	}

	var fields []fund.ConfigField
	var cols []string
	for _, f := range fund.AllConfigFields {
		if supported[f] {
			fields = append(fields, f)
			cols = append(cols, configColumns[f])
		}
	}

	values := make([]string, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	query := fmt.Sprintf("SELECT %s FROM config WHERE id = 1", strings.Join(cols, ", "))
	if err := s.db.QueryRowContext(ctx, query).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fund.Config{}, fund.ErrConfigNotFound
		}
		return fund.Config{}, err
	}

	cfg := fund.DefaultConfig()
	for i, f := range fields {
		switch f {
		case fund.FieldMonthlyFee:
			cfg.MonthlyFee = parseMoney(values[i])
		case fund.FieldResortGoalAmount:
			cfg.ResortGoalAmount = parseMoney(values[i])
		case fund.FieldTemplate15:
			cfg.Template15 = values[i]
		case fund.FieldTemplate30:
			cfg.Template30 = values[i]
		}
	}
	return cfg, nil
}

// SaveConfig upserts the singleton row. If the schema lacks a column for
// any patched field nothing is written and *fund.UnsupportedFieldsError is
// returned.
func (s *Store) SaveConfig(ctx context.Context, patch fund.ConfigPatch) (fund.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supported, err := s.supportedConfigFields(ctx)
	if err != nil {
		return fund.Config{}, err
	}

	var missing []fund.ConfigField
	for _, f := range patch.Fields() {
		if !supported[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fund.Config{}, &fund.UnsupportedFieldsError{Fields: missing}
	}

	cols := []string{"id"}
	placeholders := []string{"?"}
	args := []any{1}
	var updates []string
	for _, f := range patch.Fields() {
		col := configColumns[f]
		cols = append(cols, col)
		placeholders = append(placeholders, "?")
		args = append(args, patchValue(patch, f))
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	query := fmt.Sprintf("INSERT INTO config (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if len(updates) > 0 {
		query += " ON CONFLICT(id) DO UPDATE SET " + strings.Join(updates, ", ")
	} else {
		query += " ON CONFLICT(id) DO NOTHING"
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fund.Config{}, fmt.Errorf("save config: %w", err)
	}
	return s.getConfig(ctx)
}

func patchValue(p fund.ConfigPatch, f fund.ConfigField) any {
	switch f {
	case fund.FieldMonthlyFee:
		return p.MonthlyFee.String()
	case fund.FieldResortGoalAmount:
		return p.ResortGoalAmount.String()
	case fund.FieldTemplate15:
		return *p.Template15
	case fund.FieldTemplate30:
		return *p.Template30
	}
	return nil
}

// =============================================================================
// EXPENSES
// =============================================================================

func (s *Store) ListExpenses(ctx context.Context) ([]fund.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mes, anio, concepto, monto, foto_factura_url
		FROM expenses ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fund.Expense
	for rows.Next() {
		var (
			e      fund.Expense
			month  int
			amount string
		)
		if err := rows.Scan(&e.ID, &month, &e.Year, &e.Concept, &amount, &e.ReceiptImageURL); err != nil {
			return nil, err
		}
		e.Month = time.Month(month)
		e.Amount = parseMoney(amount)
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) InsertExpense(ctx context.Context, e fund.Expense) (fund.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, mes, anio, concepto, monto, foto_factura_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, int(e.Month), e.Year, e.Concept, e.Amount.String(), e.ReceiptImageURL, nowText())
	if err != nil {
		return fund.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

// =============================================================================
// EVENT PHOTOS
// =============================================================================

func (s *Store) ListPhotos(ctx context.Context) ([]fund.EventPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url_imagen, descripcion FROM event_photos ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fund.EventPhoto
	for rows.Next() {
		var p fund.EventPhoto
		if err := rows.Scan(&p.ID, &p.ImageURL, &p.Description); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) InsertPhoto(ctx context.Context, p fund.EventPhoto) (fund.EventPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_photos (id, url_imagen, descripcion, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.ImageURL, p.Description, nowText())
	if err != nil {
		return fund.EventPhoto{}, fmt.Errorf("insert photo: %w", err)
	}
	return p, nil
}

func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM event_photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return requireAffected(res)
}

// =============================================================================
// HELPERS
// =============================================================================

// createdLayout is fixed width so created_at sorts as text in time order.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nowText() string {
	return createdText(time.Now())
}

func createdText(t time.Time) string {
	return t.UTC().Format(createdLayout)
}

func timeText(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseMoney(s string) fund.Money {
	m, err := fund.ParseMoney(s)
	if err != nil {
		return fund.Money{}
	}
	return m
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fund.ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3driver.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3driver.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3driver.ErrConstraintPrimaryKey
	}
	return false
}
