/*
reconcile.go - Payment confirmation state machine

PURPOSE:
  Each (employee, month, year) cell moves through:

    NoRecord --toggle--> Confirmed <--toggle--> Unconfirmed

  NextPayment computes the record that a toggle should persist. It is pure:
  the caller looks up the existing payment, supplies the clock and fee, and
  writes the result through the store.

RULES:
  - Confirming sets PaidAt to now. A zero amount becomes the monthly fee.
  - Unconfirming clears PaidAt and keeps the amount for audit.
  - A missing record becomes a new confirmed payment for the monthly fee.
  - Earlier months are never created implicitly.

SEE ALSO:
  - treasury/session.go: Serializes check-then-create and persists
*/
package fund

import "time"

// Toggle is the outcome of NextPayment.
type Toggle struct {
	Payment Payment
	// Created is true when no record existed and Payment must be inserted.
	Created bool
}

// NextPayment returns the payment that results from toggling the cell for
// key. existing is nil when no record exists.
func NextPayment(existing *Payment, key PaymentKey, fee Money, now time.Time) Toggle {
	if existing == nil {
		paidAt := now
		return Toggle{
			Created: true,
			Payment: Payment{
				EmployeeID: key.EmployeeID,
				Month:      key.Period.Month,
				Year:       key.Period.Year,
				AmountPaid: fee,
				PaidAt:     &paidAt,
				Confirmed:  true,
			},
		}
	}

	next := *existing
	next.Confirmed = !existing.Confirmed
	if next.Confirmed {
		paidAt := now
		next.PaidAt = &paidAt
		if next.AmountPaid.IsZero() {
			next.AmountPaid = fee
		}
	} else {
		next.PaidAt = nil
	}
	return Toggle{Payment: next}
}
