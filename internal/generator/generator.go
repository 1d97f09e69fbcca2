// Package generator produces milestone applications for a program year by
// sweeping the beneficiary registry. Runs are idempotent: the store's
// lifetime-uniqueness constraint turns re-created applications into skips, so
// an interrupted run is simply run again.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"benefits/internal/application"
	appmetrics "benefits/internal/application/metrics"
	"benefits/internal/application/store"
	"benefits/internal/audit"
	"benefits/internal/benefit"
	genmetrics "benefits/internal/generator/metrics"
	"benefits/internal/registry"
	id "benefits/pkg/domain"
	dErrors "benefits/pkg/domain-errors"
	"benefits/pkg/platform/sentinel"
	"benefits/pkg/requestcontext"
)

const (
	defaultPageSize = 500
	defaultWorkers  = 8
)

// Auditor records engine actions; implementations never block.
type Auditor interface {
	Emit(ctx context.Context, entry audit.Entry)
}

// BeneficiaryError records one beneficiary the run could not process. The
// run keeps going; the summary carries the failures.
type BeneficiaryError struct {
	BeneficiaryID id.BeneficiaryID
	Reason        string
}

// Summary is the outcome of one generation run.
type Summary struct {
	ProgramYear int
	Scanned     int
	Created     int
	Skipped     int
	Errors      []BeneficiaryError
}

type Generator struct {
	store      store.Store
	registry   registry.Reader
	auditor    Auditor
	logger     *slog.Logger
	appMetrics *appmetrics.Metrics
	genMetrics *genmetrics.Metrics
	launchYear int
	pageSize   int
	workers    int
}

type Option func(*Generator)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

func WithAuditor(auditor Auditor) Option {
	return func(g *Generator) { g.auditor = auditor }
}

func WithApplicationMetrics(m *appmetrics.Metrics) Option {
	return func(g *Generator) { g.appMetrics = m }
}

func WithGenerationMetrics(m *genmetrics.Metrics) Option {
	return func(g *Generator) { g.genMetrics = m }
}

func WithPageSize(n int) Option {
	return func(g *Generator) { g.pageSize = n }
}

func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

func New(st store.Store, reg registry.Reader, launchYear int, opts ...Option) (*Generator, error) {
	if st == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("beneficiary registry is required")
	}

	g := &Generator{
		store:      st,
		registry:   reg,
		logger:     slog.Default(),
		launchYear: launchYear,
		pageSize:   defaultPageSize,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Run generates applications for every eligible beneficiary in the given
// program year. Each beneficiary is an independent unit of work: one failure
// lands in the summary without aborting the run. Cancellation stops the run
// between units; applications already created stay created.
func (g *Generator) Run(ctx context.Context, programYear int, actor string) (Summary, error) {
	summary := Summary{ProgramYear: programYear}
	if programYear < g.launchYear {
		return summary, dErrors.Newf(dErrors.CodeInvalidInput,
			"program_year %d predates the program launch year %d", programYear, g.launchYear)
	}
	if actor == "" {
		return summary, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	start := time.Now()
	g.logger.InfoContext(ctx, "generation run starting",
		"program_year", programYear,
		"actor", actor,
	)

	var mu sync.Mutex
	var afterID id.BeneficiaryID
	runErr := func() error {
		for {
			page, err := g.registry.ListActive(ctx, afterID, g.pageSize)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to page beneficiary registry")
			}
			if len(page) == 0 {
				return nil
			}
			afterID = page[len(page)-1].ID

			grp, grpCtx := errgroup.WithContext(ctx)
			grp.SetLimit(g.workers)
			for _, b := range page {
				if err := grpCtx.Err(); err != nil {
					break
				}
				grp.Go(func() error {
					outcome := g.processOne(grpCtx, b, programYear, actor)
					mu.Lock()
					defer mu.Unlock()
					summary.Scanned++
					switch outcome.kind {
					case outcomeCreated:
						summary.Created++
					case outcomeSkipped:
						summary.Skipped++
					case outcomeFailed:
						summary.Errors = append(summary.Errors, BeneficiaryError{
							BeneficiaryID: b.ID,
							Reason:        outcome.reason,
						})
					}
					return nil
				})
			}
			if err := grp.Wait(); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "generation run cancelled")
			}
			if len(page) < g.pageSize {
				return nil
			}
		}
	}()

	elapsed := time.Since(start)
	outcome := "completed"
	if runErr != nil {
		outcome = "aborted"
	}
	if g.genMetrics != nil {
		g.genMetrics.RecordRun(outcome, elapsed.Seconds(), summary.Scanned)
	}
	g.emit(ctx, audit.Entry{
		Actor:    actor,
		EntityID: fmt.Sprintf("%d", programYear),
		Action:   audit.ActionBatchRun,
		Details: fmt.Sprintf("outcome=%s scanned=%d created=%d skipped=%d errors=%d",
			outcome, summary.Scanned, summary.Created, summary.Skipped, len(summary.Errors)),
	})
	g.logger.InfoContext(ctx, "generation run finished",
		"program_year", programYear,
		"outcome", outcome,
		"scanned", summary.Scanned,
		"created", summary.Created,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
		"duration_ms", elapsed.Milliseconds(),
	)
	return summary, runErr
}

type outcomeKind int

const (
	outcomeIneligible outcomeKind = iota
	outcomeCreated
	outcomeSkipped
	outcomeFailed
)

type unitOutcome struct {
	kind   outcomeKind
	reason string
}

// processOne handles a single beneficiary: resolve the milestone, build the
// application, create it. A duplicate is the idempotency signal, not a
// failure.
func (g *Generator) processOne(ctx context.Context, b registry.Beneficiary, programYear int, actor string) unitOutcome {
	milestone, eligible := benefit.Resolve(b.BirthDate, programYear)
	if !eligible {
		return unitOutcome{kind: outcomeIneligible}
	}

	app := application.Build(b, milestone, programYear, actor, requestcontext.Now(ctx))
	if err := g.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return unitOutcome{kind: outcomeSkipped}
		}
		g.logger.ErrorContext(ctx, "failed to create application",
			"beneficiary_id", b.ID,
			"benefit_code", milestone.BenefitCode,
			"program_year", programYear,
			"error", err,
		)
		return unitOutcome{kind: outcomeFailed, reason: fmt.Sprintf("create failed: %v", err)}
	}

	if g.appMetrics != nil {
		g.appMetrics.RecordCreated(string(app.BenefitCode), "batch")
	}
	g.emit(ctx, audit.Entry{
		Actor:     actor,
		EntityID:  app.ID.String(),
		Action:    audit.ActionGenerated,
		NewStatus: string(app.Status),
		Details:   fmt.Sprintf("program_year=%d benefit_code=%s", programYear, app.BenefitCode),
	})
	return unitOutcome{kind: outcomeCreated}
}

func (g *Generator) emit(ctx context.Context, entry audit.Entry) {
	if g.auditor != nil {
		g.auditor.Emit(ctx, entry)
	}
}
