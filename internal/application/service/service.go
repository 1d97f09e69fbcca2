// Package service implements the application-facing operations: manual
// filing, reads, and status transitions. The batch generator has its own
// package; both converge on the same store and its uniqueness constraint.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"benefits/internal/application"
	"benefits/internal/application/metrics"
	"benefits/internal/application/models"
	"benefits/internal/application/store"
	"benefits/internal/application/workflow"
	"benefits/internal/audit"
	"benefits/internal/benefit"
	"benefits/internal/registry"
	id "benefits/pkg/domain"
	dErrors "benefits/pkg/domain-errors"
	"benefits/pkg/platform/sentinel"
	"benefits/pkg/requestcontext"
)

// Auditor records engine actions. Best-effort: implementations must never
// block the calling operation.
type Auditor interface {
	Emit(ctx context.Context, entry audit.Entry)
}

// updateAttempts bounds the read-validate-write loop under contention. Two
// racing callers settle within one retry; more attempts than that means the
// application is being hammered and the caller should see the conflict.
const updateAttempts = 3

type Service struct {
	store      store.Store
	registry   registry.Reader
	auditor    Auditor
	logger     *slog.Logger
	metrics    *metrics.Metrics
	launchYear int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor Auditor) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st store.Store, reg registry.Reader, launchYear int, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("beneficiary registry is required")
	}

	svc := &Service{
		store:      st,
		registry:   reg,
		logger:     slog.Default(),
		launchYear: launchYear,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// FileRequest is a manual, operator-initiated filing. The benefit code and
// amount are derived from the milestone table, never caller-supplied, so a
// manual filing locks in exactly what a batch run would have.
type FileRequest struct {
	BeneficiaryID id.BeneficiaryID
	ProgramYear   int
	Actor         string
	Remarks       string
}

// File creates a single application for the beneficiary's milestone in the
// given program year.
func (s *Service) File(ctx context.Context, req FileRequest) (*models.Application, error) {
	if err := s.validateProgramYear(req.ProgramYear); err != nil {
		return nil, err
	}
	if req.BeneficiaryID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "beneficiary_id is required")
	}

	beneficiary, err := s.registry.Get(ctx, req.BeneficiaryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "beneficiary %s not found", req.BeneficiaryID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up beneficiary")
	}
	if beneficiary.Status.Disqualifying() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"beneficiary %s has registry status %s", req.BeneficiaryID, beneficiary.Status)
	}

	milestone, eligible := benefit.Resolve(beneficiary.BirthDate, req.ProgramYear)
	if !eligible {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"beneficiary %s is not eligible for any milestone in %d", req.BeneficiaryID, req.ProgramYear)
	}

	app := application.Build(beneficiary, milestone, req.ProgramYear, req.Actor, requestcontext.Now(ctx))
	app.Remarks = req.Remarks

	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.Newf(dErrors.CodeDuplicateBenefit,
				"beneficiary %s already has a %s application", req.BeneficiaryID, milestone.BenefitCode)
		}
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	if s.metrics != nil {
		s.metrics.RecordCreated(string(app.BenefitCode), "manual")
	}
	s.emit(ctx, audit.Entry{
		Actor:     req.Actor,
		EntityID:  app.ID.String(),
		Action:    audit.ActionFiled,
		NewStatus: string(app.Status),
		Details:   fmt.Sprintf("program_year=%d benefit_code=%s", app.ProgramYear, app.BenefitCode),
	})
	s.logger.InfoContext(ctx, "application filed",
		"application_id", app.ID,
		"beneficiary_id", req.BeneficiaryID,
		"benefit_code", app.BenefitCode,
		"program_year", req.ProgramYear,
		"actor", req.Actor,
	)
	return app, nil
}

func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, translateRead(err, appID)
	}
	return app, nil
}

func (s *Service) ListByBeneficiary(ctx context.Context, beneficiaryID id.BeneficiaryID) ([]*models.Application, error) {
	if beneficiaryID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "beneficiary_id is required")
	}
	apps, err := s.store.ListByBeneficiary(ctx, beneficiaryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// Query exposes filtered reads for the presentation layer and the
// statistics aggregator.
func (s *Service) Query(ctx context.Context, q store.Query) ([]*models.Application, error) {
	apps, err := s.store.Query(ctx, q)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query applications")
	}
	return apps, nil
}

// UpdateStatus validates and applies one workflow transition. The write is
// conditional on the status the transition was validated against; when a
// concurrent update wins the race, the fresh status is re-read and the
// transition re-validated, so the legality table is enforced against what
// is actually stored, never a stale read.
func (s *Service) UpdateStatus(ctx context.Context, appID id.ApplicationID, req workflow.Request) (*models.Application, error) {
	if req.Actor == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	var lastErr error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		app, err := s.store.Get(ctx, appID)
		if err != nil {
			return nil, translateRead(err, appID)
		}
		previous := app.Status

		changed, err := workflow.Apply(app, req, requestcontext.Now(ctx))
		if err != nil {
			if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
				s.metrics.RecordRejectedTransition()
			}
			return nil, err
		}
		if !changed {
			// Idempotent no-op (already disqualified): nothing to write or audit.
			return app, nil
		}

		err = s.store.UpdateStatus(ctx, app, previous)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordTransition(string(app.Status))
			}
			s.emit(ctx, audit.Entry{
				Actor:     req.Actor,
				EntityID:  app.ID.String(),
				Action:    audit.ActionStatusChanged,
				OldStatus: string(previous),
				NewStatus: string(app.Status),
				Details:   req.Remarks,
			})
			s.logger.InfoContext(ctx, "application status changed",
				"application_id", app.ID,
				"from", previous,
				"to", app.Status,
				"actor", req.Actor,
			)
			return app, nil
		}

		if errors.Is(err, sentinel.ErrInvalidState) {
			// Lost the conditional write; re-read and re-validate.
			lastErr = err
			continue
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "application %s not found", appID)
		}
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application status")
	}
	return nil, dErrors.Wrap(lastErr, dErrors.CodeInternal, "application update contention")
}

func (s *Service) validateProgramYear(year int) error {
	if year < s.launchYear {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"program_year %d predates the program launch year %d", year, s.launchYear)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, entry audit.Entry) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, entry)
	}
}

func translateRead(err error, appID id.ApplicationID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "application %s not found", appID)
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read application")
}
