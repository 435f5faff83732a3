/*
Package treasury holds the in-memory session state and the controllers that
mutate it.

PURPOSE:
  A Session keeps the last snapshot loaded from the store and is the only
  path through which records change. Reads are served from the snapshot;
  writes go to the store first and touch the snapshot only after the store
  confirms.

RULES:
  1. Authorization first: a caller that can't mutate is rejected with
     fund.ErrUnauthorized before any store call.
  2. No optimistic updates: a failed store call leaves the snapshot as it
     was and the error is logged and returned.
  3. One payment per cell: TogglePayment looks up the cell in the snapshot
     and creates or updates it while holding the write lock, so two
     toggles in this process can't both create.
  4. Schema drift: SaveConfig retries without the fields the store can't
     hold and keeps them in the session's config only.

CONCURRENCY:
  mu guards snap. writeMu serializes mutations so check-then-write runs as
  one step. Across processes the store decides (last write wins, plus the
  unique payment index).

SEE ALSO:
  - fund/reconcile.go: NextPayment state transition
  - fund/accounting.go: Read-side computations
  - api/handlers.go: HTTP entry points
*/
package treasury

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alohafunds/engine/fund"
	"golang.org/x/sync/errgroup"
)

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// Session is the controller over one store.
type Session struct {
	store  fund.Store
	now    Clock
	logger *slog.Logger

	mu   sync.RWMutex
	snap fund.Snapshot

	// local holds config values the store could not persist.
	local fund.ConfigPatch

	writeMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(s *Session) { s.now = c }
}

// WithLogger sets the logger; the component attribute is added.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session with an empty snapshot and default config.
// Call Refresh to load from the store.
func NewSession(store fund.Store, opts ...Option) *Session {
	s := &Session{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
		snap:   fund.Snapshot{Config: fund.DefaultConfig()},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "treasury")
	return s
}

// Now returns the session clock's current time.
func (s *Session) Now() time.Time { return s.now() }

// Snapshot returns a copy of the current state. Slices are copied so
// callers may sort or filter freely.
func (s *Session) Snapshot() fund.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fund.Snapshot{
		Employees: append([]fund.Employee(nil), s.snap.Employees...),
		Payments:  append([]fund.Payment(nil), s.snap.Payments...),
		Expenses:  append([]fund.Expense(nil), s.snap.Expenses...),
		Photos:    append([]fund.EventPhoto(nil), s.snap.Photos...),
		Config:    s.snap.Config,
	}
}

// =============================================================================
// REFRESH
// =============================================================================

// Refresh reloads every collection from the store in parallel. If any load
// fails the previous snapshot is kept. A missing config row yields the
// defaults.
func (s *Session) Refresh(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var next fund.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		next.Employees, err = s.store.ListEmployees(gctx)
		return wrap("list employees", err)
	})
	g.Go(func() error {
		var err error
		next.Payments, err = s.store.ListPayments(gctx)
		return wrap("list payments", err)
	})
	g.Go(func() error {
		var err error
		next.Expenses, err = s.store.ListExpenses(gctx)
		return wrap("list expenses", err)
	})
	g.Go(func() error {
		var err error
		next.Photos, err = s.store.ListPhotos(gctx)
		return wrap("list photos", err)
	})
	g.Go(func() error {
		cfg, err := s.store.GetConfig(gctx)
		if errors.Is(err, fund.ErrConfigNotFound) {
			next.Config = fund.DefaultConfig()
			return nil
		}
		next.Config = cfg
		return wrap("get config", err)
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "refresh failed, keeping previous snapshot", "error", err)
		return err
	}

	s.mu.Lock()
	next.Config = s.local.Apply(next.Config)
	s.snap = next
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "snapshot refreshed",
		"employees", len(next.Employees),
		"payments", len(next.Payments),
		"expenses", len(next.Expenses),
		"photos", len(next.Photos))
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// authorize rejects callers that can't mutate and logs the attempt.
func (s *Session) authorize(ctx context.Context, auth fund.AuthContext, op string) error {
	if err := fund.RequireAdmin(auth); err != nil {
		subject := "anonymous"
		if auth != nil {
			subject = auth.Subject()
		}
		s.logger.WarnContext(ctx, "mutation rejected", "op", op, "subject", subject)
		return err
	}
	return nil
}

func (s *Session) storeFailed(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "store operation failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}
