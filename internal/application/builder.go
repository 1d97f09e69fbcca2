// Package application owns the build step shared by the two creation
// paths. Batch generation and manual filing must lock in identical data
// for the same beneficiary and milestone, so the assembly lives in one
// place.
package application

import (
	"time"

	"benefits/internal/application/models"
	"benefits/internal/benefit"
	"benefits/internal/registry"
	id "benefits/pkg/domain"
)

// Build assembles a fresh Applied application, denormalizing the birth date
// and locking in the milestone amount at creation time.
func Build(b registry.Beneficiary, m benefit.Milestone, programYear int, actor string, now time.Time) *models.Application {
	return &models.Application{
		ID:            id.NewApplicationID(),
		BeneficiaryID: b.ID,
		ProgramYear:   programYear,
		BenefitCode:   m.BenefitCode,
		BirthDate:     b.BirthDate,
		Status:        models.StatusApplied,
		CashAmount:    m.CashAmount,
		CreatedAt:     now,
		CreatedBy:     actor,
		UpdatedAt:     now,
		UpdatedBy:     actor,
	}
}
