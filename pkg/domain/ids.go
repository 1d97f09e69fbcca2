// Package domain defines typed identifiers shared across the engine.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-type assignment (an ApplicationID can never be passed where a
// BeneficiaryID is expected). Parse helpers enforce the trust-boundary
// invariant that IDs are valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "benefits/pkg/domain-errors"
)

// ApplicationID identifies a benefit application (engine-owned surrogate key).
type ApplicationID uuid.UUID

// BeneficiaryID identifies a beneficiary in the external registry.
type BeneficiaryID uuid.UUID

// NewApplicationID generates a fresh application identifier.
func NewApplicationID() ApplicationID {
	return ApplicationID(uuid.New())
}

// NewBeneficiaryID generates a fresh beneficiary identifier. The registry
// owns these in production; this exists for fixtures and seeds.
func NewBeneficiaryID() BeneficiaryID {
	return BeneficiaryID(uuid.New())
}

// ParseApplicationID parses and validates an application ID from its string form.
func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := parseUUID(raw, "application_id")
	return ApplicationID(parsed), err
}

// ParseBeneficiaryID parses and validates a beneficiary ID from its string form.
func ParseBeneficiaryID(raw string) (BeneficiaryID, error) {
	parsed, err := parseUUID(raw, "beneficiary_id")
	return BeneficiaryID(parsed), err
}

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id BeneficiaryID) String() string { return uuid.UUID(id).String() }
func (id BeneficiaryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func parseUUID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", field)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", field)
	}
	return parsed, nil
}
