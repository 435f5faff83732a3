/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain records
  (fund.Employee, fund.Payment, ...) are returned as they are; request
  bodies get their own types so they can carry validation tags.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response / *DTO: Response types returned to clients

VALIDATION:
  Request structs are checked with go-playground/validator before they
  reach the session. Domain rules (birth date format, confirmed/paid_at
  consistency, positive fee) are checked again by the fund package.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/alohafunds/engine/fund"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// LoginRequest is the admin login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmployeeRequest creates or updates an employee.
type EmployeeRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	BirthDate string `json:"birth_date" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

func (r EmployeeRequest) toEmployee(id string) fund.Employee {
	return fund.Employee{ID: id, Name: r.Name, BirthDate: r.BirthDate, Email: r.Email, Phone: r.Phone}
}

// TogglePaymentRequest flips one reconciliation cell.
type TogglePaymentRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
}

// ExpenseRequest registers money spent from the fund.
type ExpenseRequest struct {
	Month           int        `json:"month" validate:"required,min=1,max=12"`
	Year            int        `json:"year" validate:"required,min=2000,max=2100"`
	Concept         string     `json:"concept" validate:"required,max=200"`
	Amount          fund.Money `json:"amount"`
	ReceiptImageURL string     `json:"receipt_image_url" validate:"omitempty,url"`
}

func (r ExpenseRequest) toExpense() fund.Expense {
	return fund.Expense{
		Month:           time.Month(r.Month),
		Year:            r.Year,
		Concept:         r.Concept,
		Amount:          r.Amount,
		ReceiptImageURL: r.ReceiptImageURL,
	}
}

// PhotoRequest adds a gallery entry.
type PhotoRequest struct {
	ImageURL    string `json:"image_url" validate:"required,url"`
	Description string `json:"description" validate:"max=500"`
}

// ConfigRequest is a partial config update; absent fields are unchanged.
type ConfigRequest struct {
	MonthlyFee       *fund.Money `json:"monthly_fee"`
	ResortGoalAmount *fund.Money `json:"resort_goal_amount"`
	Template15       *string     `json:"template_15" validate:"omitempty,max=1000"`
	Template30       *string     `json:"template_30" validate:"omitempty,max=1000"`
}

func (r ConfigRequest) toPatch() fund.ConfigPatch {
	return fund.ConfigPatch{
		MonthlyFee:       r.MonthlyFee,
		ResortGoalAmount: r.ResortGoalAmount,
		Template15:       r.Template15,
		Template30:       r.Template30,
	}
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse reports liveness and which optional backends are wired.
type HealthResponse struct {
	Status    string `json:"status"`
	PDFReport bool   `json:"pdf_report"`
	Login     bool   `json:"login"`
}

// MeResponse describes the caller.
type MeResponse struct {
	Subject   string `json:"subject"`
	CanMutate bool   `json:"can_mutate"`
}

// PaymentStatusResponse is the state of one reconciliation cell.
type PaymentStatusResponse struct {
	EmployeeID string             `json:"employee_id"`
	Month      int                `json:"month"`
	Year       int                `json:"year"`
	Status     fund.PaymentStatus `json:"status"`
	Pending    bool               `json:"pending"`
}

// CalendarMonthDTO is one month of the birthday calendar.
type CalendarMonthDTO struct {
	Month     int                  `json:"month"`
	Name      string               `json:"name"`
	Birthdays []fund.BirthdayEntry `json:"birthdays"`
}

// DebtorsResponse lists who still owes for a period.
type DebtorsResponse struct {
	Month   int             `json:"month"`
	Year    int             `json:"year"`
	Debtors []fund.Employee `json:"debtors"`
}

// NoticeResponse carries the group message for the chat.
type NoticeResponse struct {
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	Message string `json:"message"`
}

// CountsResponse summarizes the records held by the session.
type CountsResponse struct {
	Employees int `json:"employees"`
	Payments  int `json:"payments"`
	Expenses  int `json:"expenses"`
	Photos    int `json:"photos"`
}
