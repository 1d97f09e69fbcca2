// Package models defines the application record and its status vocabulary.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"benefits/internal/benefit"
	id "benefits/pkg/domain"
)

// Status is the workflow state of an application.
type Status string

const (
	StatusApplied      Status = "applied"
	StatusValidated    Status = "validated"
	StatusPaid         Status = "paid"
	StatusUnpaid       Status = "unpaid"
	StatusDisqualified Status = "disqualified"
)

// AllStatuses lists every workflow state, in workflow order.
var AllStatuses = []Status{
	StatusApplied,
	StatusValidated,
	StatusPaid,
	StatusUnpaid,
	StatusDisqualified,
}

// ParseStatus validates a status string.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.Valid()
}

// Valid reports whether s is a known workflow state.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusValidated, StatusPaid, StatusUnpaid, StatusDisqualified:
		return true
	}
	return false
}

// Terminal reports whether s ends the normal workflow. Paid still admits the
// clawback reversal to Unpaid; Disqualified admits nothing.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusDisqualified
}

func (s Status) String() string { return string(s) }

// Application is the record of a beneficiary's claim to one milestone
// benefit in one program year. Created by the batch generator or by manual
// filing, advanced only through the workflow engine, never deleted by the
// engine.
//
// BirthDate and CashAmount are denormalized copies taken at generation time:
// the birth date for fast age recomputation and audit, the amount so later
// milestone configuration changes never alter a granted benefit.
type Application struct {
	ID            id.ApplicationID
	BeneficiaryID id.BeneficiaryID
	ProgramYear   int
	BenefitCode   benefit.Code
	BirthDate     time.Time
	Status        Status
	PaymentDate   *time.Time
	CashAmount    decimal.Decimal
	Remarks       string
	CreatedAt     time.Time
	CreatedBy     string
	UpdatedAt     time.Time
	UpdatedBy     string
}

// AgeIn returns the beneficiary's calendar-year age in the given program
// year, computed from the denormalized birth date.
func (a *Application) AgeIn(programYear int) int {
	return benefit.AgeIn(a.BirthDate, programYear)
}
