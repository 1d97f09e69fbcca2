// Package store persists application records. Implementations enforce the
// lifetime-uniqueness constraint on (beneficiary_id, benefit_code) atomically
// with insertion and provide the conditional status write the workflow
// service relies on; everything else is plain keyed storage.
package store

import (
	"context"
	"time"

	"benefits/internal/application/models"
	"benefits/internal/benefit"
	id "benefits/pkg/domain"
)

// Query is the conjunctive filter set for reads. Nil/empty fields are
// ignored. Geography and age filtering happen in the statistics aggregator,
// which joins beneficiary data; the store only filters its own columns.
type Query struct {
	BeneficiaryID *id.BeneficiaryID
	ProgramYears  []int
	Statuses      []models.Status
	BenefitCodes  []benefit.Code
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	PaymentFrom   *time.Time
	PaymentTo     *time.Time
}

// Matches reports whether app passes every set filter. Shared by the memory
// store and by tests asserting store/aggregator agreement.
func (q Query) Matches(app *models.Application) bool {
	if q.BeneficiaryID != nil && app.BeneficiaryID != *q.BeneficiaryID {
		return false
	}
	if len(q.ProgramYears) > 0 && !containsInt(q.ProgramYears, app.ProgramYear) {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, app.Status) {
		return false
	}
	if len(q.BenefitCodes) > 0 && !containsCode(q.BenefitCodes, app.BenefitCode) {
		return false
	}
	if q.CreatedFrom != nil && app.CreatedAt.Before(*q.CreatedFrom) {
		return false
	}
	if q.CreatedTo != nil && app.CreatedAt.After(*q.CreatedTo) {
		return false
	}
	if q.PaymentFrom != nil || q.PaymentTo != nil {
		if app.PaymentDate == nil {
			return false
		}
		if q.PaymentFrom != nil && app.PaymentDate.Before(*q.PaymentFrom) {
			return false
		}
		if q.PaymentTo != nil && app.PaymentDate.After(*q.PaymentTo) {
			return false
		}
	}
	return true
}

// Store is the durable application set.
//
// Sentinel contract:
//   - Create returns sentinel.ErrDuplicate when (beneficiary_id, benefit_code)
//     already exists, detected atomically with the insert.
//   - Get and UpdateStatus return sentinel.ErrNotFound for unknown IDs.
//   - UpdateStatus is a conditional write keyed on the expected previous
//     status and returns sentinel.ErrInvalidState when the record moved
//     underneath the caller.
//   - Transient storage failures surface wrapping sentinel.ErrUnavailable.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	// ListByBeneficiary orders results most recent program year first.
	ListByBeneficiary(ctx context.Context, beneficiaryID id.BeneficiaryID) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, app *models.Application, expected models.Status) error
	Query(ctx context.Context, q Query) ([]*models.Application, error)
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func containsStatus(haystack []models.Status, needle models.Status) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func containsCode(haystack []benefit.Code, needle benefit.Code) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
