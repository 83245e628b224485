package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/openbracket/arena/internal/domain/application"
	"github.com/openbracket/arena/internal/usecase"
)

func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitApplication")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitApplicationRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	app, err := h.lifecycleService.SubmitApplication(ctx, usecase.SubmitApplicationInput{
		CompetitionID: req.CompetitionID,
		TeamID:        req.TeamID,
	}, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "submit application failed",
			"competition_id", req.CompetitionID, "team_id", req.TeamID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, applicationToDTO(app))
}

func (h *Handler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DecideApplication")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	applicationID := strings.TrimSpace(r.PathValue("applicationID"))

	var req decideApplicationRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	app, err := h.lifecycleService.DecideApplication(ctx, applicationID, application.Decision(req.Decision), principal)
	if err != nil {
		h.logger.WarnContext(ctx, "decide application failed",
			"application_id", applicationID, "decision", req.Decision, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, applicationToDTO(app))
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetApplication")
	defer span.End()

	applicationID := strings.TrimSpace(r.PathValue("applicationID"))
	app, err := h.applicationService.GetApplication(ctx, applicationID)
	if err != nil {
		h.logger.WarnContext(ctx, "get application failed", "application_id", applicationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, applicationToDTO(app))
}

func (h *Handler) ListApplicationsByCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListApplicationsByCompetition")
	defer span.End()

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	apps, err := h.applicationService.ListApplications(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list applications failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]applicationDTO, 0, len(apps))
	for _, app := range apps {
		items = append(items, applicationToDTO(app))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListRegistrationsByCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRegistrationsByCompetition")
	defer span.End()

	competitionID := strings.TrimSpace(r.PathValue("competitionID"))
	regs, err := h.applicationService.ListRegistrations(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list registrations failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]registrationDTO, 0, len(regs))
	for _, reg := range regs {
		items = append(items, registrationToDTO(reg))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRegistration")
	defer span.End()

	registrationID := strings.TrimSpace(r.PathValue("registrationID"))
	reg, err := h.applicationService.GetRegistration(ctx, registrationID)
	if err != nil {
		h.logger.WarnContext(ctx, "get registration failed", "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationToDTO(reg))
}

func (h *Handler) WithdrawRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawRegistration")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	registrationID := strings.TrimSpace(r.PathValue("registrationID"))

	reg, err := h.lifecycleService.WithdrawRegistration(ctx, registrationID, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "withdraw registration failed",
			"registration_id", registrationID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationToDTO(reg))
}
