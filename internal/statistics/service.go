package statistics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"benefits/internal/application/models"
	"benefits/internal/application/store"
	"benefits/internal/benefit"
	"benefits/internal/geography"
	"benefits/internal/registry"
	id "benefits/pkg/domain"
	dErrors "benefits/pkg/domain-errors"
	"benefits/pkg/platform/sentinel"
)

// Cache is an optional read-through layer over computed reports. Lookups and
// writes are best-effort: a failing cache degrades to recomputation, never to
// an error.
type Cache interface {
	GetReport(ctx context.Context, key string) (*Report, bool)
	SetReport(ctx context.Context, key string, report *Report)
}

type Service struct {
	apps     store.Store
	registry registry.Reader
	geo      geography.Directory
	cache    Cache
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func New(apps store.Store, reg registry.Reader, geo geography.Directory, opts ...Option) (*Service, error) {
	if apps == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("beneficiary registry is required")
	}
	if geo == nil {
		return nil, fmt.Errorf("geography directory is required")
	}

	svc := &Service{
		apps:     apps,
		registry: reg,
		geo:      geo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Aggregate computes per-status counts and amount sums for the applications
// passing every filter.
func (s *Service) Aggregate(ctx context.Context, f Filters) (*Report, error) {
	if err := s.validateFilters(ctx, f); err != nil {
		return nil, err
	}

	key := cacheKey("aggregate", f)
	if s.cache != nil {
		if report, ok := s.cache.GetReport(ctx, key); ok {
			return report, nil
		}
	}

	matched, err := s.matchingApplications(ctx, f)
	if err != nil {
		return nil, err
	}

	report := NewReport()
	for _, m := range matched {
		report.add(m.app.Status, m.app.CashAmount)
	}

	if s.cache != nil {
		s.cache.SetReport(ctx, key, report)
	}
	return report, nil
}

// ByProvince buckets the filtered applications by the beneficiary's province.
// Every province in the directory appears, zero counts included, ordered by
// name.
func (s *Service) ByProvince(ctx context.Context, f Filters) ([]Bucket, error) {
	if err := s.validateFilters(ctx, f); err != nil {
		return nil, err
	}

	provinces, err := s.geo.ListProvinces(ctx)
	if err != nil {
		return nil, translateGeo(err)
	}
	matched, err := s.matchingApplications(ctx, f)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 0, len(provinces))
	index := make(map[string]int, len(provinces))
	for _, p := range provinces {
		index[p.Code] = len(buckets)
		buckets = append(buckets, Bucket{Code: p.Code, Name: p.Name, Amount: decimal.Zero})
	}
	for _, m := range matched {
		i, known := index[m.beneficiary.ProvinceCode]
		if !known {
			continue
		}
		buckets[i].Count++
		buckets[i].Amount = buckets[i].Amount.Add(m.app.CashAmount)
	}
	return buckets, nil
}

// ByLgu buckets the filtered applications by LGU within one province. Every
// LGU of the province appears, zero counts included, ordered by name.
func (s *Service) ByLgu(ctx context.Context, provinceCode string, f Filters) ([]Bucket, error) {
	if _, err := s.geo.ResolveProvinceName(ctx, provinceCode); err != nil {
		return nil, translateGeo(err)
	}
	if err := s.validateFilters(ctx, f); err != nil {
		return nil, err
	}

	lgus, err := s.geo.ListLgus(ctx, provinceCode)
	if err != nil {
		return nil, translateGeo(err)
	}
	matched, err := s.matchingApplications(ctx, f)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 0, len(lgus))
	index := make(map[string]int, len(lgus))
	for _, l := range lgus {
		index[l.Code] = len(buckets)
		buckets = append(buckets, Bucket{Code: l.Code, Name: l.Name, Amount: decimal.Zero})
	}
	for _, m := range matched {
		if m.beneficiary.ProvinceCode != provinceCode {
			continue
		}
		i, known := index[m.beneficiary.LguCode]
		if !known {
			continue
		}
		buckets[i].Count++
		buckets[i].Amount = buckets[i].Amount.Add(m.app.CashAmount)
	}
	return buckets, nil
}

// matchedApplication pairs an application with its beneficiary's registry
// record for geography matching.
type matchedApplication struct {
	app         *models.Application
	beneficiary registry.Beneficiary
}

// matchingApplications queries the store with the column filters and applies
// the age and geography filters the store cannot evaluate.
func (s *Service) matchingApplications(ctx context.Context, f Filters) ([]matchedApplication, error) {
	apps, err := s.apps.Query(ctx, store.Query{
		ProgramYears: f.ProgramYears,
		Statuses:     f.Statuses,
		BenefitCodes: f.BenefitCodes,
		CreatedFrom:  f.CreatedFrom,
		CreatedTo:    f.CreatedTo,
		PaymentFrom:  f.PaymentFrom,
		PaymentTo:    f.PaymentTo,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "application store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query applications")
	}

	ids := make([]id.BeneficiaryID, 0, len(apps))
	seen := make(map[id.BeneficiaryID]bool, len(apps))
	for _, app := range apps {
		if !seen[app.BeneficiaryID] {
			seen[app.BeneficiaryID] = true
			ids = append(ids, app.BeneficiaryID)
		}
	}
	beneficiaries, err := s.registry.GetBatch(ctx, ids)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "beneficiary registry unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve beneficiaries")
	}

	out := make([]matchedApplication, 0, len(apps))
	for _, app := range apps {
		if !matchesAge(app, f) {
			continue
		}
		b, known := beneficiaries[app.BeneficiaryID]
		if !matchesGeography(b, known, f) {
			continue
		}
		out = append(out, matchedApplication{app: app, beneficiary: b})
	}
	return out, nil
}

// matchesAge implements the existential-over-years semantic: the application
// matches when the beneficiary's age in any selected program year falls in
// range. The denormalized birth date keeps this a pure computation.
func matchesAge(app *models.Application, f Filters) bool {
	if f.AgeMin == nil && f.AgeMax == nil {
		return true
	}
	years := f.ProgramYears
	if len(years) == 0 {
		years = []int{app.ProgramYear}
	}
	for _, year := range years {
		age := benefit.AgeIn(app.BirthDate, year)
		if f.AgeMin != nil && age < *f.AgeMin {
			continue
		}
		if f.AgeMax != nil && age > *f.AgeMax {
			continue
		}
		return true
	}
	return false
}

// matchesGeography applies the geography code filters against the
// beneficiary's registry record. An application whose beneficiary is missing
// from the registry cannot match a geography filter.
func matchesGeography(b registry.Beneficiary, known bool, f Filters) bool {
	if f.ProvinceCode == "" && f.LguCode == "" && f.BarangayCode == "" {
		return true
	}
	if !known {
		return false
	}
	if f.ProvinceCode != "" && b.ProvinceCode != f.ProvinceCode {
		return false
	}
	if f.LguCode != "" && b.LguCode != f.LguCode {
		return false
	}
	if f.BarangayCode != "" && b.BarangayCode != f.BarangayCode {
		return false
	}
	return true
}

// validateFilters rejects unknown geography codes before any read. Barangay
// codes have no directory listing, so they pass through unvalidated and
// simply match nothing when misspelled.
func (s *Service) validateFilters(ctx context.Context, f Filters) error {
	if f.ProvinceCode != "" {
		if _, err := s.geo.ResolveProvinceName(ctx, f.ProvinceCode); err != nil {
			return translateGeo(err)
		}
	}
	if f.LguCode != "" {
		if _, err := s.geo.ResolveLguName(ctx, f.LguCode); err != nil {
			return translateGeo(err)
		}
	}
	if f.AgeMin != nil && f.AgeMax != nil && *f.AgeMin > *f.AgeMax {
		return dErrors.Newf(dErrors.CodeInvalidInput, "age range [%d, %d] is empty", *f.AgeMin, *f.AgeMax)
	}
	return nil
}

func translateGeo(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown geography code")
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "geography directory unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "geography lookup failed")
}
