// Command generate runs one batch generation pass for a program year. It is
// invoked by a scheduler (or by hand) and prints the run summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appmetrics "benefits/internal/application/metrics"
	appstore "benefits/internal/application/store"
	"benefits/internal/audit"
	"benefits/internal/generator"
	genmetrics "benefits/internal/generator/metrics"
	"benefits/internal/platform/config"
	"benefits/internal/platform/logger"
	"benefits/internal/platform/postgres"
	"benefits/internal/registry"
	"benefits/pkg/requestcontext"
)

func main() {
	year := flag.Int("year", time.Now().UTC().Year(), "program year to generate applications for")
	actor := flag.String("actor", "scheduler", "acting identity recorded on generated applications")
	flag.Parse()

	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	publisher := audit.NewPublisher(cfg.AuditBuffer, log)
	worker := audit.NewWorker(audit.NewPostgresSink(db), publisher.Inbox(), log)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	gen, err := generator.New(appstore.NewPostgres(db), registry.NewPostgresReader(db), cfg.LaunchYear,
		generator.WithLogger(log),
		generator.WithAuditor(publisher),
		generator.WithApplicationMetrics(appmetrics.New()),
		generator.WithGenerationMetrics(genmetrics.New()),
		generator.WithPageSize(cfg.Generator.PageSize),
		generator.WithWorkers(cfg.Generator.Workers),
	)
	if err != nil {
		log.Error("failed to build generator", "error", err)
		os.Exit(1)
	}

	// One timestamp for the whole pass keeps created_at consistent across
	// every application the run produces.
	runCtx := requestcontext.WithTime(ctx, time.Now().UTC())
	summary, runErr := gen.Run(runCtx, *year, *actor)

	// Let the worker flush audit entries before reporting.
	stopWorker()
	<-workerDone

	fmt.Printf("program year %d: scanned=%d created=%d skipped=%d errors=%d\n",
		summary.ProgramYear, summary.Scanned, summary.Created, summary.Skipped, len(summary.Errors))
	for _, failure := range summary.Errors {
		fmt.Printf("  beneficiary %s: %s\n", failure.BeneficiaryID, failure.Reason)
	}
	if runErr != nil {
		log.Error("generation run failed", "error", runErr)
		os.Exit(1)
	}
}
