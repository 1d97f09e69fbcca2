package geography

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"benefits/pkg/platform/sentinel"
)

// PostgresDirectory reads the surrounding system's geographic reference
// tables. Read-only.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) ResolveProvinceName(ctx context.Context, code string) (string, error) {
	var name string
	err := d.db.QueryRowContext(ctx,
		`SELECT name FROM provinces WHERE code = $1`, code).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("province %s: %w", code, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolve province name: %w", err)
	}
	return name, nil
}

func (d *PostgresDirectory) ResolveLguName(ctx context.Context, code string) (string, error) {
	var name string
	err := d.db.QueryRowContext(ctx,
		`SELECT name FROM lgus WHERE code = $1`, code).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lgu %s: %w", code, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolve lgu name: %w", err)
	}
	return name, nil
}

func (d *PostgresDirectory) ListProvinces(ctx context.Context) ([]Province, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT code, name FROM provinces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list provinces: %w", err)
	}
	defer rows.Close()

	var out []Province
	for rows.Next() {
		var p Province
		if err := rows.Scan(&p.Code, &p.Name); err != nil {
			return nil, fmt.Errorf("list provinces: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *PostgresDirectory) ListLgus(ctx context.Context, provinceCode string) ([]Lgu, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT code, province_code, name FROM lgus WHERE province_code = $1 ORDER BY name`,
		provinceCode)
	if err != nil {
		return nil, fmt.Errorf("list lgus: %w", err)
	}
	defer rows.Close()

	var out []Lgu
	for rows.Next() {
		var l Lgu
		if err := rows.Scan(&l.Code, &l.ProvinceCode, &l.Name); err != nil {
			return nil, fmt.Errorf("list lgus: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
