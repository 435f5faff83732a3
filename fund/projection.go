/*
projection.go - Hypothetical annual savings

PURPOSE:
  Answers "if H people paid F every month for the rest of the year, how
  much would each fund hold?" The current month counts as remaining.

EXAMPLE:
  In March (month index 2) with 10 people paying 20:
    monthsRemaining   = 12 - 2 = 10
    projectedResort   = 10 * (20 - 3) * 10 = 1700
    projectedBirthday = 10 * 3 * 10        = 300

SEE ALSO:
  - accounting.go: BirthdayShare and ResortContribution
*/
package fund

import "time"

// Projection is the result of AnnualProjection.
type Projection struct {
	Headcount         int   `json:"headcount"`
	MonthlyFee        Money `json:"monthly_fee"`
	MonthsRemaining   int   `json:"months_remaining"`
	ProjectedResort   Money `json:"projected_resort"`
	ProjectedBirthday Money `json:"projected_birthday"`
	ProjectedTotal    Money `json:"projected_total"`
}

// AnnualProjection projects both funds from now until the end of the year.
// A negative headcount is treated as zero.
func AnnualProjection(headcount int, fee Money, now time.Time) Projection {
	if headcount < 0 {
		headcount = 0
	}
	months := 12 - (int(now.Month()) - 1)
	perMonth := int64(headcount * months)

	resort := ResortContribution(fee).MulInt(perMonth)
	birthday := BirthdayShare.MulInt(perMonth)
	return Projection{
		Headcount:         headcount,
		MonthlyFee:        fee,
		MonthsRemaining:   months,
		ProjectedResort:   resort,
		ProjectedBirthday: birthday,
		ProjectedTotal:    resort.Add(birthday),
	}
}
