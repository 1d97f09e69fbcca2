package handler

import (
	"time"

	"benefits/internal/application/models"
)

// ApplicationResponse is the wire form of an application record. Cash amounts
// travel as strings to keep cents exact across JSON round-trips.
type ApplicationResponse struct {
	ID            string  `json:"id"`
	BeneficiaryID string  `json:"beneficiary_id"`
	ProgramYear   int     `json:"program_year"`
	BenefitCode   string  `json:"benefit_code"`
	BirthDate     string  `json:"birth_date"`
	Status        string  `json:"status"`
	PaymentDate   *string `json:"payment_date,omitempty"`
	CashAmount    string  `json:"cash_amount"`
	Remarks       string  `json:"remarks,omitempty"`
	CreatedAt     string  `json:"created_at"`
	CreatedBy     string  `json:"created_by"`
	UpdatedAt     string  `json:"updated_at"`
	UpdatedBy     string  `json:"updated_by"`
}

// ApplicationListResponse wraps a result set.
type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Total        int                   `json:"total"`
}

func fromApplication(app *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:            app.ID.String(),
		BeneficiaryID: app.BeneficiaryID.String(),
		ProgramYear:   app.ProgramYear,
		BenefitCode:   app.BenefitCode.String(),
		BirthDate:     app.BirthDate.Format(dateLayout),
		Status:        app.Status.String(),
		CashAmount:    app.CashAmount.StringFixed(2),
		Remarks:       app.Remarks,
		CreatedAt:     app.CreatedAt.UTC().Format(time.RFC3339),
		CreatedBy:     app.CreatedBy,
		UpdatedAt:     app.UpdatedAt.UTC().Format(time.RFC3339),
		UpdatedBy:     app.UpdatedBy,
	}
	if app.PaymentDate != nil {
		paid := app.PaymentDate.Format(dateLayout)
		resp.PaymentDate = &paid
	}
	return resp
}

func fromApplications(apps []*models.Application) ApplicationListResponse {
	out := ApplicationListResponse{
		Applications: make([]ApplicationResponse, 0, len(apps)),
		Total:        len(apps),
	}
	for _, app := range apps {
		out.Applications = append(out.Applications, fromApplication(app))
	}
	return out
}
