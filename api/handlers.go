/*
handlers.go - HTTP API handlers for the fund

PURPOSE:
  Exposes the treasury session via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the session and the fund package.

ENDPOINTS:
  Auth:
    POST   /api/auth/login             Admin login, returns a JWT
    GET    /api/auth/me                Current caller

  Records:
    GET    /api/employees              List collaborators
    POST   /api/employees              Add collaborator (admin)
    PUT    /api/employees/{id}         Update collaborator (admin)
    DELETE /api/employees/{id}         Delete collaborator (admin)
    GET    /api/expenses               List expenses (?month&year filters)
    POST   /api/expenses               Register expense (admin)
    DELETE /api/expenses/{id}          Delete expense (admin)
    GET    /api/photos                 Gallery
    POST   /api/photos                 Add photo (admin)

  Payments:
    GET    /api/payments               List payments (?month&year filters)
    POST   /api/payments/toggle        Toggle a cell (admin)
    GET    /api/payments/status        State of one cell

  Config:
    GET    /api/config                 Current config
    PUT    /api/config                 Partial update (admin)

  Views:
    GET    /api/dashboard              Overview for a period
    GET    /api/calendar               Birthdays grouped by month
    GET    /api/ranking                Early payers
    GET    /api/debtors                Who still owes for a period
    GET    /api/debtors/notice         Group chat message
    GET    /api/reminders              Per-debtor message and wa.me link
    GET    /api/projection             Annual projection
    GET    /api/reports/monthly        Monthly report (json, html or pdf)

  Maintenance:
    POST   /api/refresh                Reload snapshot from store
    POST   /api/demo/seed              Load demo data into empty store (admin)

PERIOD PARAMETERS:
  month and year query parameters default to the session clock's current
  month. Out-of-range values are rejected with 400.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Login required or rejected
  - 403: Guest attempted a mutation
  - 404: Resource not found
  - 409: Conflict (duplicate payment, store not empty)
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alohafunds/engine/auth"
	"github.com/alohafunds/engine/fund"
	"github.com/alohafunds/engine/report"
	"github.com/alohafunds/engine/treasury"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Session *treasury.Session
	// Auth may be nil; login is then disabled and every caller is a guest.
	Auth *auth.Service
	// Report renders monthly reports. Without a PDF renderer only json
	// and html are served.
	Report *report.Exporter

	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(session *treasury.Session, authSvc *auth.Service, exporter *report.Exporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Session:  session,
		Auth:     authSvc,
		Report:   exporter,
		validate: validator.New(),
		logger:   logger.With("component", "api"),
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		PDFReport: h.Report.CanRenderPDF(),
		Login:     h.Auth != nil && h.Auth.Enabled(),
	})
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login exchanges admin credentials for a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if h.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "Admin login is not configured", nil)
		return
	}

	token, err := h.Auth.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrLoginDisabled):
		writeError(w, http.StatusServiceUnavailable, "Admin login is not configured", nil)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.logger.WarnContext(r.Context(), "login rejected", "email", req.Email)
		writeError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	case err != nil:
		h.fail(w, r, "Failed to sign in", err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin signed in", "email", req.Email)
	writeJSON(w, http.StatusOK, token)
}

// Me returns the current caller. Guests get 401.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	if !caller.CanMutate() {
		writeError(w, http.StatusUnauthorized, "Not signed in", nil)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{Subject: caller.Subject(), CanMutate: true})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all collaborators.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Session.Snapshot().Employees))
}

// CreateEmployee adds a collaborator.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.mutator(w, r)
	if !ok {
		return
	}
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Session.AddEmployee(r.Context(), caller, req.toEmployee(""))
	if err != nil {
		h.fail(w, r, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

// UpdateEmployee replaces a collaborator's details.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.mutator(w, r)
	if !ok {
		return
	}
	var req EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Session.UpdateEmployee(r.Context(), caller, req.toEmployee(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// DeleteEmployee removes a collaborator. Their payments stay.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.DeleteEmployee(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns payments, optionally for one period.
// GET /api/payments?month=10&year=2023
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments := h.Session.Snapshot().Payments
	if !hasPeriodQuery(r) {
		writeJSON(w, http.StatusOK, nonNil(payments))
		return
	}
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	filtered := []fund.Payment{}
	for _, p := range payments {
		if p.Period() == period {
			filtered = append(filtered, p)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

// TogglePayment flips one reconciliation cell.
func (h *Handler) TogglePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.mutator(w, r)
	if !ok {
		return
	}
	var req TogglePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Session.TogglePayment(r.Context(), caller, req.EmployeeID, time.Month(req.Month), req.Year)
	if err != nil {
		h.fail(w, r, "Failed to toggle payment", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetPaymentStatus reports one cell.
// GET /api/payments/status?employee_id=1&month=10&year=2023
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	status := h.Session.PaymentStatus(employeeID, period)
	writeJSON(w, http.StatusOK, PaymentStatusResponse{
		EmployeeID: employeeID,
		Month:      int(period.Month),
		Year:       period.Year,
		Status:     status,
		Pending:    status.Pending(),
	})
}

// =============================================================================
// CONFIG HANDLERS
// =============================================================================

// GetConfig returns the effective config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.Snapshot().Config)
}

// UpdateConfig applies a partial update. Fields the store can't hold are
// reported in local_only.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.mutator(w, r)
	if !ok {
		return
	}
	var req ConfigRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := req.toPatch()
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "No config fields given", nil)
		return
	}
	res, err := h.Session.SaveConfig(r.Context(), caller, patch)
	if err != nil {
		h.fail(w, r, "Failed to save config", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// EXPENSE AND PHOTO HANDLERS
// =============================================================================

// ListExpenses returns expenses, optionally for one period.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := h.Session.Snapshot().Expenses
	if !hasPeriodQuery(r) {
		writeJSON(w, http.StatusOK, nonNil(expenses))
		return
	}
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	filtered := []fund.Expense{}
	for _, e := range expenses {
		if e.Period() == period {
			filtered = append(filtered, e)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

// CreateExpense registers an expense.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.mutator(w, r)
	if !ok {
		return
	}
	var req ExpenseRequest
	if !h.decode(w, r, &req) {
		return
	}
	e, err := h.Session.AddExpense(r.Context(), caller, req.toExpense())
	if err != nil {
		h.fail(w, r, "Failed to create expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// DeleteExpense removes an expense.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.DeleteExpense(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPhotos returns the gallery.
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Session.Snapshot().Photos))
}

// CreatePhoto adds a gallery entry.
func (h *Handler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.mutator(w, r)
	if !ok {
		return
	}
	var req PhotoRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Session.AddPhoto(r.Context(), caller, fund.EventPhoto{ImageURL: req.ImageURL, Description: req.Description})
	if err != nil {
		h.fail(w, r, "Failed to add photo", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// GetDashboard returns the overview for a period.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	writeJSON(w, http.StatusOK, fund.BuildDashboard(h.Session.Snapshot(), period))
}

// GetCalendar returns the twelve birthday groups.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	groups := fund.GroupBirthdays(h.Session.Snapshot().Employees)
	months := make([]CalendarMonthDTO, 0, len(groups))
	for i, g := range groups {
		m := time.Month(i + 1)
		months = append(months, CalendarMonthDTO{Month: int(m), Name: fund.MonthName(m), Birthdays: nonNil(g)})
	}
	writeJSON(w, http.StatusOK, months)
}

// GetRanking returns the early payers.
// GET /api/ranking?limit=5
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	limit := fund.EarlyPayerCount
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}
	snap := h.Session.Snapshot()
	writeJSON(w, http.StatusOK, fund.EarlyPayers(snap.Payments, snap.Employees, limit))
}

// GetDebtors lists who still owes for a period.
func (h *Handler) GetDebtors(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	snap := h.Session.Snapshot()
	writeJSON(w, http.StatusOK, DebtorsResponse{
		Month:   int(period.Month),
		Year:    period.Year,
		Debtors: nonNil(fund.Debtors(snap.Employees, snap.Payments, period)),
	})
}

// GetDebtorNotice returns the group chat message listing debtors.
func (h *Handler) GetDebtorNotice(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	snap := h.Session.Snapshot()
	debtors := fund.Debtors(snap.Employees, snap.Payments, period)
	writeJSON(w, http.StatusOK, NoticeResponse{
		Month:   int(period.Month),
		Year:    period.Year,
		Message: fund.GroupNotice(debtors, period.Month),
	})
}

// GetReminders returns the personal reminder for each debtor. The
// template is chosen by today's day of month, not by the period.
func (h *Handler) GetReminders(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	writeJSON(w, http.StatusOK, fund.Reminders(h.Session.Snapshot(), period, h.Session.Now()))
}

// GetProjection projects the funds to year end.
// GET /api/projection?headcount=10&fee=20
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()
	headcount := len(snap.Employees)
	fee := snap.Config.MonthlyFee

	q := r.URL.Query()
	if raw := q.Get("headcount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "headcount must be a non-negative integer", err)
			return
		}
		headcount = n
	}
	if raw := q.Get("fee"); raw != "" {
		m, err := fund.ParseMoney(raw)
		if err != nil || m.IsNegative() {
			writeError(w, http.StatusBadRequest, "fee must be a non-negative amount", err)
			return
		}
		fee = m
	}
	writeJSON(w, http.StatusOK, fund.AnnualProjection(headcount, fee, h.Session.Now()))
}

// GetMonthlyReport returns the monthly summary.
// GET /api/reports/monthly?month=10&year=2023&format=pdf
//
// format=pdf falls back to json when no PDF renderer is configured.
func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	summary := fund.Summarize(h.Session.Snapshot(), period)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
	case "pdf":
		if !h.Report.CanRenderPDF() {
			break
		}
		pdf, err := h.Report.PDF(r.Context(), summary)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "report rendering failed", "period", period.String(), "error", err)
			writeError(w, http.StatusBadGateway, "Failed to render PDF", err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(period)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
		return
	case "html":
		if h.Report == nil {
			writeError(w, http.StatusServiceUnavailable, "Reports are not configured", nil)
			return
		}
		page, err := h.Report.HTML(summary)
		if err != nil {
			h.fail(w, r, "Failed to render report", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
		return
	default:
		writeError(w, http.StatusBadRequest, "format must be json, html or pdf", nil)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// MAINTENANCE HANDLERS
// =============================================================================

// Refresh reloads the snapshot from the store.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Refresh(r.Context()); err != nil {
		h.fail(w, r, "Failed to refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, counts(h.Session.Snapshot()))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a session error to its status code. Server-side failures are
// logged; their details are not sent to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, fund.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "Administrator session required", nil)
	case errors.Is(err, fund.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, fund.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, fund.ErrDuplicatePayment), errors.Is(err, treasury.ErrNotEmpty):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.logger.ErrorContext(r.Context(), message, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}

// mutator resolves the caller of a mutating endpoint before its body is
// read. Guests get the 403 the session would give them.
func (h *Handler) mutator(w http.ResponseWriter, r *http.Request) (fund.AuthContext, bool) {
	caller := auth.FromContext(r.Context())
	if err := fund.RequireAdmin(caller); err != nil {
		h.fail(w, r, "Administrator session required", err)
		return nil, false
	}
	return caller, true
}

// decode reads and validates a JSON body. It writes the 400 itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s'", fe.Field(), fe.Tag()))
			}
			err = errors.New(strings.Join(msgs, "; "))
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

func hasPeriodQuery(r *http.Request) bool {
	q := r.URL.Query()
	return q.Get("month") != "" || q.Get("year") != ""
}

// period reads month and year, each defaulting to the current one.
func (h *Handler) period(r *http.Request) (fund.Period, error) {
	p := fund.PeriodOf(h.Session.Now())
	q := r.URL.Query()
	if raw := q.Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			return fund.Period{}, fmt.Errorf("month %q is not a number", raw)
		}
		p.Month = time.Month(m)
	}
	if raw := q.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return fund.Period{}, fmt.Errorf("year %q is not a number", raw)
		}
		p.Year = y
	}
	if !p.Valid() {
		return fund.Period{}, fmt.Errorf("period %d/%d is out of range", int(p.Month), p.Year)
	}
	return p, nil
}

func counts(snap fund.Snapshot) CountsResponse {
	return CountsResponse{
		Employees: len(snap.Employees),
		Payments:  len(snap.Payments),
		Expenses:  len(snap.Expenses),
		Photos:    len(snap.Photos),
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
