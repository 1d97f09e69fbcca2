// Package handler exposes the statistics aggregates to dashboards.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"benefits/internal/application/models"
	"benefits/internal/benefit"
	"benefits/internal/statistics"
	dErrors "benefits/pkg/domain-errors"
	"benefits/pkg/platform/httputil"
	"benefits/pkg/requestcontext"
)

// Service defines the aggregation operations the transport consumes.
type Service interface {
	Aggregate(ctx context.Context, f statistics.Filters) (*statistics.Report, error)
	ByProvince(ctx context.Context, f statistics.Filters) ([]statistics.Bucket, error)
	ByLgu(ctx context.Context, provinceCode string, f statistics.Filters) ([]statistics.Bucket, error)
}

// Handler wires statistics endpoints to the aggregator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts statistics endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/statistics", h.HandleAggregate)
	r.Get("/statistics/by-province", h.HandleByProvince)
	r.Get("/statistics/provinces/{provinceCode}/by-lgu", h.HandleByLgu)
}

// HandleAggregate handles GET /statistics requests.
func (h *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, err := filtersFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.Aggregate(ctx, filters)
	if err != nil {
		h.logError(ctx, "aggregate query failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleByProvince handles GET /statistics/by-province requests.
func (h *Handler) HandleByProvince(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, err := filtersFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	buckets, err := h.service.ByProvince(ctx, filters)
	if err != nil {
		h.logError(ctx, "by-province query failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bucketsResponse{Buckets: buckets})
}

// HandleByLgu handles GET /statistics/provinces/{provinceCode}/by-lgu.
func (h *Handler) HandleByLgu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, err := filtersFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	buckets, err := h.service.ByLgu(ctx, chi.URLParam(r, "provinceCode"), filters)
	if err != nil {
		h.logError(ctx, "by-lgu query failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bucketsResponse{Buckets: buckets})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

type bucketsResponse struct {
	Buckets []statistics.Bucket `json:"buckets"`
}

const dateLayout = "2006-01-02"

// filtersFromRequest parses the conjunctive filter set from URL parameters.
func filtersFromRequest(r *http.Request) (statistics.Filters, error) {
	var f statistics.Filters
	params := r.URL.Query()

	for _, raw := range params["program_year"] {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return f, dErrors.Newf(dErrors.CodeInvalidInput, "invalid program_year %q", raw)
		}
		f.ProgramYears = append(f.ProgramYears, year)
	}
	for _, raw := range params["status"] {
		status, ok := models.ParseStatus(raw)
		if !ok {
			return f, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", raw)
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, raw := range params["benefit_code"] {
		code, ok := benefit.ParseCode(raw)
		if !ok {
			return f, dErrors.Newf(dErrors.CodeInvalidInput, "unknown benefit_code %q", raw)
		}
		f.BenefitCodes = append(f.BenefitCodes, code)
	}

	f.ProvinceCode = params.Get("province")
	f.LguCode = params.Get("lgu")
	f.BarangayCode = params.Get("barangay")

	var err error
	if f.CreatedFrom, err = parseDateParam(params.Get("created_from")); err != nil {
		return f, err
	}
	if f.CreatedTo, err = parseDateParam(params.Get("created_to")); err != nil {
		return f, err
	}
	if f.PaymentFrom, err = parseDateParam(params.Get("payment_from")); err != nil {
		return f, err
	}
	if f.PaymentTo, err = parseDateParam(params.Get("payment_to")); err != nil {
		return f, err
	}
	if f.AgeMin, err = parseIntParam(params.Get("age_min"), "age_min"); err != nil {
		return f, err
	}
	if f.AgeMax, err = parseIntParam(params.Get("age_max"), "age_max"); err != nil {
		return f, err
	}
	return f, nil
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%q is not a valid %s date", raw, dateLayout)
	}
	return &t, nil
}

func parseIntParam(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s %q", name, raw)
	}
	return &n, nil
}
