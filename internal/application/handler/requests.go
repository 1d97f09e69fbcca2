package handler

import (
	"net/http"
	"time"

	"benefits/internal/application/models"
	"benefits/internal/application/store"
	"benefits/internal/benefit"
	id "benefits/pkg/domain"
	dErrors "benefits/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// FileApplicationRequest is the wire form of a manual filing. The benefit
// code and amount are never accepted from callers; the milestone table is the
// only source.
type FileApplicationRequest struct {
	BeneficiaryID string `json:"beneficiary_id"`
	ProgramYear   int    `json:"program_year"`
	Remarks       string `json:"remarks,omitempty"`
}

// UpdateStatusRequest is the wire form of a workflow transition.
type UpdateStatusRequest struct {
	Status      string `json:"status"`
	PaymentDate string `json:"payment_date,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
}

func (r UpdateStatusRequest) parsedStatus() (models.Status, error) {
	status, ok := models.ParseStatus(r.Status)
	if !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", r.Status)
	}
	return status, nil
}

func (r UpdateStatusRequest) parsedPaymentDate() (time.Time, error) {
	if r.PaymentDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, r.PaymentDate)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"payment_date %q is not a valid %s date", r.PaymentDate, dateLayout)
	}
	return t, nil
}

// queryFromRequest builds a store query from URL parameters. Every parameter
// may repeat; all filters are conjunctive.
func queryFromRequest(r *http.Request) (store.Query, error) {
	var q store.Query
	params := r.URL.Query()

	if raw := params.Get("beneficiary_id"); raw != "" {
		beneficiaryID, err := id.ParseBeneficiaryID(raw)
		if err != nil {
			return q, dErrors.Newf(dErrors.CodeInvalidInput, "invalid beneficiary_id %q", raw)
		}
		q.BeneficiaryID = &beneficiaryID
	}
	for _, raw := range params["program_year"] {
		year, err := parseYear(raw)
		if err != nil {
			return q, err
		}
		q.ProgramYears = append(q.ProgramYears, year)
	}
	for _, raw := range params["status"] {
		status, ok := models.ParseStatus(raw)
		if !ok {
			return q, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", raw)
		}
		q.Statuses = append(q.Statuses, status)
	}
	for _, raw := range params["benefit_code"] {
		code, ok := benefit.ParseCode(raw)
		if !ok {
			return q, dErrors.Newf(dErrors.CodeInvalidInput, "unknown benefit_code %q", raw)
		}
		q.BenefitCodes = append(q.BenefitCodes, code)
	}

	var err error
	if q.CreatedFrom, err = parseDateParam(params.Get("created_from")); err != nil {
		return q, err
	}
	if q.CreatedTo, err = parseDateParam(params.Get("created_to")); err != nil {
		return q, err
	}
	if q.PaymentFrom, err = parseDateParam(params.Get("payment_from")); err != nil {
		return q, err
	}
	if q.PaymentTo, err = parseDateParam(params.Get("payment_to")); err != nil {
		return q, err
	}
	return q, nil
}

func parseYear(raw string) (int, error) {
	t, err := time.Parse("2006", raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid program_year %q", raw)
	}
	return t.Year(), nil
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
