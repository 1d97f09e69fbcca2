package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"benefits/internal/application/models"
	"benefits/internal/benefit"
	id "benefits/pkg/domain"
	"benefits/pkg/platform/retry"
	"benefits/pkg/platform/sentinel"
)

// PostgresStore persists applications in PostgreSQL. The lifetime-uniqueness
// invariant lives in the applications_beneficiary_benefit_key unique index,
// so concurrent creates for the same pair collapse to one winner without any
// engine-side locking.
type PostgresStore struct {
	db    *sql.DB
	retry retry.Policy
}

// NewPostgres constructs a PostgreSQL-backed application store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, retry: retry.DefaultPolicy}
}

const applicationColumns = `id, beneficiary_id, program_year, benefit_code, birth_date,
	status, payment_date, cash_amount, remarks, created_at, created_by, updated_at, updated_by`

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	if app == nil {
		return fmt.Errorf("application is required")
	}

	return s.retry.Do(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO applications (`+applicationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			uuid.UUID(app.ID), uuid.UUID(app.BeneficiaryID), app.ProgramYear,
			string(app.BenefitCode), app.BirthDate, string(app.Status),
			nullTime(app.PaymentDate), app.CashAmount, app.Remarks,
			app.CreatedAt, app.CreatedBy, app.UpdatedAt, app.UpdatedBy,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("application for %s/%s: %w",
					app.BeneficiaryID, app.BenefitCode, sentinel.ErrDuplicate)
			}
			return classify("insert application", err)
		}
		return nil
	})
}

func (s *PostgresStore) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	var app *models.Application
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+applicationColumns+`
			FROM applications WHERE id = $1`, uuid.UUID(appID))

		scanned, err := scanApplication(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
			}
			return classify("get application", err)
		}
		app = scanned
		return nil
	})
	return app, err
}

func (s *PostgresStore) ListByBeneficiary(ctx context.Context, beneficiaryID id.BeneficiaryID) ([]*models.Application, error) {
	var apps []*models.Application
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+applicationColumns+`
			FROM applications
			WHERE beneficiary_id = $1
			ORDER BY program_year DESC`, uuid.UUID(beneficiaryID))
		if err != nil {
			return classify("list applications", err)
		}
		defer rows.Close()

		apps, err = collectApplications(rows)
		if err != nil {
			return classify("list applications", err)
		}
		return nil
	})
	return apps, err
}

// UpdateStatus writes the already-transitioned record conditionally on the
// status the caller read, so two racing status changes cannot both win.
func (s *PostgresStore) UpdateStatus(ctx context.Context, app *models.Application, expected models.Status) error {
	if app == nil {
		return fmt.Errorf("application is required")
	}

	return s.retry.Do(ctx, func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, `
			UPDATE applications
			SET status = $1, payment_date = $2, remarks = $3, updated_at = $4, updated_by = $5
			WHERE id = $6 AND status = $7`,
			string(app.Status), nullTime(app.PaymentDate), app.Remarks,
			app.UpdatedAt, app.UpdatedBy, uuid.UUID(app.ID), string(expected),
		)
		if err != nil {
			return classify("update application status", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return classify("update application status", err)
		}
		if affected == 1 {
			return nil
		}

		// Conditional write lost: distinguish a missing row from a row that
		// moved to another status since the caller read it.
		var current string
		err = s.db.QueryRowContext(ctx,
			`SELECT status FROM applications WHERE id = $1`, uuid.UUID(app.ID)).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("application %s: %w", app.ID, sentinel.ErrNotFound)
		}
		if err != nil {
			return classify("update application status", err)
		}
		return fmt.Errorf("application %s status is %s, expected %s: %w",
			app.ID, current, expected, sentinel.ErrInvalidState)
	})
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]*models.Application, error) {
	where, args := buildWhere(q)

	var apps []*models.Application
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+applicationColumns+`
			FROM applications`+where+`
			ORDER BY program_year DESC, created_at ASC`, args...)
		if err != nil {
			return classify("query applications", err)
		}
		defer rows.Close()

		apps, err = collectApplications(rows)
		if err != nil {
			return classify("query applications", err)
		}
		return nil
	})
	return apps, err
}

func buildWhere(q Query) (string, []any) {
	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.BeneficiaryID != nil {
		clauses = append(clauses, "beneficiary_id = "+arg(uuid.UUID(*q.BeneficiaryID)))
	}
	if len(q.ProgramYears) > 0 {
		clauses = append(clauses, "program_year = ANY("+arg(intArray(q.ProgramYears))+")")
	}
	if len(q.Statuses) > 0 {
		clauses = append(clauses, "status = ANY("+arg(statusArray(q.Statuses))+")")
	}
	if len(q.BenefitCodes) > 0 {
		clauses = append(clauses, "benefit_code = ANY("+arg(codeArray(q.BenefitCodes))+")")
	}
	if q.CreatedFrom != nil {
		clauses = append(clauses, "created_at >= "+arg(*q.CreatedFrom))
	}
	if q.CreatedTo != nil {
		clauses = append(clauses, "created_at <= "+arg(*q.CreatedTo))
	}
	if q.PaymentFrom != nil {
		clauses = append(clauses, "payment_date >= "+arg(*q.PaymentFrom))
	}
	if q.PaymentTo != nil {
		clauses = append(clauses, "payment_date <= "+arg(*q.PaymentTo))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app           models.Application
		appID         uuid.UUID
		beneficiaryID uuid.UUID
		benefitCode   string
		status        string
		paymentDate   sql.NullTime
	)
	err := row.Scan(
		&appID, &beneficiaryID, &app.ProgramYear, &benefitCode, &app.BirthDate,
		&status, &paymentDate, &app.CashAmount, &app.Remarks,
		&app.CreatedAt, &app.CreatedBy, &app.UpdatedAt, &app.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	app.ID = id.ApplicationID(appID)
	app.BeneficiaryID = id.BeneficiaryID(beneficiaryID)
	app.BenefitCode = benefit.Code(benefitCode)
	app.Status = models.Status(status)
	if paymentDate.Valid {
		t := paymentDate.Time
		app.PaymentDate = &t
	}
	return &app, nil
}

func collectApplications(rows *sql.Rows) ([]*models.Application, error) {
	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func intArray(values []int) []int32 {
	out := make([]int32, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out
}

func statusArray(values []models.Status) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func codeArray(values []benefit.Code) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// classify wraps storage errors, marking connection-class failures as
// transient so the bounded retry at this boundary can re-attempt them.
func classify(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %v: %w", op, err, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08: connection exception, 53: insufficient resources,
		// 57: operator intervention, 40001/40P01: retryable aborts.
		class := pgErr.Code[:2]
		return class == "08" || class == "53" || class == "57" ||
			pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, sql.ErrConnDone)
}
