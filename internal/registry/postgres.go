package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "benefits/pkg/domain"
	"benefits/pkg/platform/sentinel"
)

// PostgresReader reads beneficiary records from the surrounding system's
// beneficiaries table. Read-only: the engine never writes here.
type PostgresReader struct {
	db *sql.DB
}

func NewPostgresReader(db *sql.DB) *PostgresReader {
	return &PostgresReader{db: db}
}

const beneficiaryColumns = `id, birth_date, status, province_code, lgu_code, barangay_code`

func (r *PostgresReader) ListActive(ctx context.Context, afterID id.BeneficiaryID, limit int) ([]Beneficiary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+beneficiaryColumns+`
		FROM beneficiaries
		WHERE status NOT IN ($1, $2) AND id > $3
		ORDER BY id
		LIMIT $4`,
		string(StatusDeceased), string(StatusDisqualified), uuid.UUID(afterID), limit)
	if err != nil {
		return nil, fmt.Errorf("list active beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, fmt.Errorf("list active beneficiaries: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresReader) Get(ctx context.Context, beneficiaryID id.BeneficiaryID) (Beneficiary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+beneficiaryColumns+`
		FROM beneficiaries WHERE id = $1`, uuid.UUID(beneficiaryID))

	b, err := scanBeneficiary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Beneficiary{}, fmt.Errorf("beneficiary %s: %w", beneficiaryID, sentinel.ErrNotFound)
		}
		return Beneficiary{}, fmt.Errorf("get beneficiary: %w", err)
	}
	return b, nil
}

func (r *PostgresReader) GetBatch(ctx context.Context, ids []id.BeneficiaryID) (map[id.BeneficiaryID]Beneficiary, error) {
	out := make(map[id.BeneficiaryID]Beneficiary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	raw := make([]uuid.UUID, len(ids))
	for i, v := range ids {
		raw[i] = uuid.UUID(v)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+beneficiaryColumns+`
		FROM beneficiaries WHERE id = ANY($1)`, raw)
	if err != nil {
		return nil, fmt.Errorf("batch get beneficiaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, fmt.Errorf("batch get beneficiaries: %w", err)
		}
		out[b.ID] = b
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(row rowScanner) (Beneficiary, error) {
	var (
		b      Beneficiary
		rawID  uuid.UUID
		status string
	)
	if err := row.Scan(&rawID, &b.BirthDate, &status, &b.ProvinceCode, &b.LguCode, &b.BarangayCode); err != nil {
		return Beneficiary{}, err
	}
	b.ID = id.BeneficiaryID(rawID)
	b.Status = LifecycleStatus(status)
	return b, nil
}
