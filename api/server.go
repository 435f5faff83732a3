/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. Secure:     Security headers (frame deny, nosniff, referrer policy)
  5. CORS:       Cross-origin requests for the frontend
  6. Auth:       Bearer token to fund.Admin, otherwise fund.Guest

ROUTE GROUPS:
  /api/auth/*           Login (rate limited per IP)
  /api/employees/*      Collaborators
  /api/payments/*       Reconciliation
  /api/config           Fund configuration
  /api/expenses/*       Expenses
  /api/photos           Gallery
  /api/...              Read-only views and reports
  /api/demo/seed        Demo data

AUTHORIZATION:
  Routes don't check roles. Mutating handlers resolve the caller before
  reading the body, and the session rejects guest mutations again with
  fund.ErrUnauthorized. Both end in 403.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth/auth.go: Token middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// RouterOptions carries the deployment-specific parts of the router.
type RouterOptions struct {
	AllowedOrigins []string
	// LoginRateLimit is the number of login attempts per IP per minute.
	LoginRateLimit int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 10
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
	}).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	if h.Auth != nil {
		r.Use(h.Auth.Middleware)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.Limit(opts.LoginRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
				Post("/login", h.Login)
			r.Get("/me", h.Me)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/toggle", h.TogglePayment)
			r.Get("/status", h.GetPaymentStatus)
		})

		r.Get("/config", h.GetConfig)
		r.Put("/config", h.UpdateConfig)

		// Expense routes
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Get("/photos", h.ListPhotos)
		r.Post("/photos", h.CreatePhoto)

		// Views
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/calendar", h.GetCalendar)
		r.Get("/ranking", h.GetRanking)
		r.Get("/debtors", h.GetDebtors)
		r.Get("/debtors/notice", h.GetDebtorNotice)
		r.Get("/reminders", h.GetReminders)
		r.Get("/projection", h.GetProjection)
		r.Get("/reports/monthly", h.GetMonthlyReport)

		// Maintenance
		r.Post("/refresh", h.Refresh)
		r.Post("/demo/seed", h.SeedDemo)
	})

	return r
}
