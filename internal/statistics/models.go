// Package statistics computes filtered aggregates over the application set
// joined with beneficiary and geography data, for dashboards. Reads only.
package statistics

import (
	"time"

	"github.com/shopspring/decimal"

	"benefits/internal/application/models"
	"benefits/internal/benefit"
)

// Filters narrows an aggregation. All fields are optional and conjunctive.
//
// The age range is evaluated per program year in the filtered set: an
// application counts when the beneficiary's age in any selected program year
// falls inside the range. With no program-year filter, the application's own
// program year is the only year considered.
type Filters struct {
	ProgramYears []int
	Statuses     []models.Status
	BenefitCodes []benefit.Code
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	PaymentFrom  *time.Time
	PaymentTo    *time.Time
	ProvinceCode string
	LguCode      string
	BarangayCode string
	AgeMin       *int
	AgeMax       *int
}

// Report is the unbucketed aggregate: per-status counts and amount sums plus
// overall totals. Amounts sum each application's locked-in cash amount.
type Report struct {
	Counts      map[models.Status]int             `json:"counts"`
	Amounts     map[models.Status]decimal.Decimal `json:"amounts"`
	Total       int                               `json:"total"`
	TotalAmount decimal.Decimal                   `json:"total_amount"`
}

// NewReport returns an empty report with every status present, so consumers
// see explicit zeros instead of missing keys.
func NewReport() *Report {
	r := &Report{
		Counts:      make(map[models.Status]int, len(models.AllStatuses)),
		Amounts:     make(map[models.Status]decimal.Decimal, len(models.AllStatuses)),
		TotalAmount: decimal.Zero,
	}
	for _, status := range models.AllStatuses {
		r.Counts[status] = 0
		r.Amounts[status] = decimal.Zero
	}
	return r
}

func (r *Report) add(status models.Status, amount decimal.Decimal) {
	r.Counts[status]++
	r.Amounts[status] = r.Amounts[status].Add(amount)
	r.Total++
	r.TotalAmount = r.TotalAmount.Add(amount)
}

// Bucket is one geography row in a bucketed aggregate. Buckets with no
// matching applications still appear with zero counts.
type Bucket struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}
