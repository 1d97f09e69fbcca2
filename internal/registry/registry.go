// Package registry adapts the external beneficiary registry. The engine
// only reads beneficiary records; the registry owns their lifecycle.
package registry

import (
	"context"
	"time"

	id "benefits/pkg/domain"
)

// LifecycleStatus is the registry-defined state of a beneficiary record.
type LifecycleStatus string

const (
	StatusActive       LifecycleStatus = "active"
	StatusTransferred  LifecycleStatus = "transferred"
	StatusDeceased     LifecycleStatus = "deceased"
	StatusDisqualified LifecycleStatus = "disqualified"
)

// Disqualifying reports whether a lifecycle status excludes the beneficiary
// from batch generation.
func (s LifecycleStatus) Disqualifying() bool {
	return s == StatusDeceased || s == StatusDisqualified
}

// Beneficiary is the registry's view of a person, trimmed to what the
// engine consumes: identity, birth date for eligibility, geography codes
// for the statistics aggregator.
type Beneficiary struct {
	ID           id.BeneficiaryID
	BirthDate    time.Time
	Status       LifecycleStatus
	ProvinceCode string
	LguCode      string
	BarangayCode string
}

// Reader is the consumed registry port.
//
// ListActive pages with keyset pagination ordered by ID: pass the zero
// BeneficiaryID for the first page and the last returned ID afterwards. A
// short (or empty) page signals the end. Populations run to the tens of
// thousands, so callers must never materialize the full set.
type Reader interface {
	ListActive(ctx context.Context, afterID id.BeneficiaryID, limit int) ([]Beneficiary, error)
	Get(ctx context.Context, beneficiaryID id.BeneficiaryID) (Beneficiary, error)
	// GetBatch resolves many beneficiaries at once for the aggregator's
	// joins. Unknown IDs are simply absent from the result.
	GetBatch(ctx context.Context, ids []id.BeneficiaryID) (map[id.BeneficiaryID]Beneficiary, error)
}
