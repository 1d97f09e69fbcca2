// Package geography adapts the external geographic reference directory
// (province / LGU / barangay codes to names). Used only by the statistics
// aggregator's presentation output, never by invariant-bearing logic.
package geography

import "context"

// Province is one top-level geographic unit.
type Province struct {
	Code string
	Name string
}

// Lgu is one local government unit within a province.
type Lgu struct {
	Code         string
	ProvinceCode string
	Name         string
}

// Directory is the consumed geography port. Listings are ordered by name so
// dashboard buckets come back presentation-ready; resolution of an unknown
// code returns sentinel.ErrNotFound.
type Directory interface {
	ResolveProvinceName(ctx context.Context, code string) (string, error)
	ResolveLguName(ctx context.Context, code string) (string, error)
	ListProvinces(ctx context.Context) ([]Province, error)
	ListLgus(ctx context.Context, provinceCode string) ([]Lgu, error)
}
