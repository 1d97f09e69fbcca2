// Package handler wires application endpoints to the application service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"benefits/internal/application/models"
	"benefits/internal/application/service"
	"benefits/internal/application/store"
	"benefits/internal/application/workflow"
	id "benefits/pkg/domain"
	dErrors "benefits/pkg/domain-errors"
	"benefits/pkg/platform/httputil"
	"benefits/pkg/requestcontext"
)

// Service defines the application operations the transport consumes.
type Service interface {
	File(ctx context.Context, req service.FileRequest) (*models.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	ListByBeneficiary(ctx context.Context, beneficiaryID id.BeneficiaryID) ([]*models.Application, error)
	Query(ctx context.Context, q store.Query) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, appID id.ApplicationID, req workflow.Request) (*models.Application, error)
}

// Handler wires application endpoints to the application service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an application handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts application endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.HandleFile)
	r.Get("/applications", h.HandleQuery)
	r.Get("/applications/{applicationID}", h.HandleGet)
	r.Post("/applications/{applicationID}/status", h.HandleUpdateStatus)
	r.Get("/beneficiaries/{beneficiaryID}/applications", h.HandleListByBeneficiary)
}

// HandleFile handles POST /applications requests.
func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := requireActor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.Decode[FileApplicationRequest](w, r)
	if !ok {
		return
	}
	beneficiaryID, err := id.ParseBeneficiaryID(req.BeneficiaryID)
	if err != nil {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "invalid beneficiary_id %q", req.BeneficiaryID))
		return
	}

	app, err := h.service.File(ctx, service.FileRequest{
		BeneficiaryID: beneficiaryID,
		ProgramYear:   req.ProgramYear,
		Actor:         actor,
		Remarks:       req.Remarks,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "manual filing failed",
			"request_id", requestID,
			"beneficiary_id", req.BeneficiaryID,
			"program_year", req.ProgramYear,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application filed",
		"request_id", requestID,
		"application_id", app.ID,
		"benefit_code", app.BenefitCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromApplication(app))
}

// HandleGet handles GET /applications/{applicationID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid application id"))
		return
	}

	app, err := h.service.Get(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromApplication(app))
}

// HandleQuery handles GET /applications requests with conjunctive filters.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := queryFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	apps, err := h.service.Query(ctx, q)
	if err != nil {
		h.logger.ErrorContext(ctx, "application query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromApplications(apps))
}

// HandleListByBeneficiary handles GET /beneficiaries/{beneficiaryID}/applications.
func (h *Handler) HandleListByBeneficiary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	beneficiaryID, err := id.ParseBeneficiaryID(chi.URLParam(r, "beneficiaryID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid beneficiary id"))
		return
	}

	apps, err := h.service.ListByBeneficiary(ctx, beneficiaryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromApplications(apps))
}

// HandleUpdateStatus handles POST /applications/{applicationID}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requireActor(w, ctx)
	if !ok {
		return
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid application id"))
		return
	}
	req, ok := httputil.Decode[UpdateStatusRequest](w, r)
	if !ok {
		return
	}
	target, err := req.parsedStatus()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	paymentDate, err := req.parsedPaymentDate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.UpdateStatus(ctx, appID, workflow.Request{
		Target:      target,
		Actor:       actor,
		PaymentDate: paymentDate,
		Remarks:     req.Remarks,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "status update failed",
			"request_id", requestID,
			"application_id", appID,
			"target", target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application status updated",
		"request_id", requestID,
		"application_id", appID,
		"status", app.Status,
		"actor", actor,
	)
	httputil.WriteJSON(w, http.StatusOK, fromApplication(app))
}

// requireActor rejects mutations that arrive without staff attribution.
func requireActor(w http.ResponseWriter, ctx context.Context) (string, bool) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "actor attribution required"))
		return "", false
	}
	return actor, true
}
