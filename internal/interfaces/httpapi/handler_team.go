package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/openbracket/arena/internal/usecase"
)

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTeam")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createTeamRequest
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

	created, err := h.lifecycleService.CreateTeam(ctx, usecase.CreateTeamInput{
		CompetitionID: req.CompetitionID,
		Name:          req.Name,
		CaptainRole:   req.CaptainRole,
		RequiredRoles: req.RequiredRoles,
	}, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed",
			"competition_id", req.CompetitionID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(created))
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	t, err := h.membershipService.GetTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(t))
}

func (h *Handler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveTeam")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	teamID := strings.TrimSpace(r.PathValue("teamID"))

	t, err := h.lifecycleService.LeaveTeam(ctx, teamID, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "leave team failed", "team_id", teamID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(t))
}

func (h *Handler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveTeamMember")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	targetUserID := strings.TrimSpace(r.PathValue("userID"))

	t, err := h.lifecycleService.RemoveMember(ctx, teamID, principal, targetUserID)
	if err != nil {
		h.logger.WarnContext(ctx, "remove team member failed",
			"team_id", teamID, "target_user_id", targetUserID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(t))
}

func (h *Handler) TransferCaptaincy(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TransferCaptaincy")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	teamID := strings.TrimSpace(r.PathValue("teamID"))

	var req transferCaptaincyRequest
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

	t, err := h.lifecycleService.TransferCaptaincy(ctx, teamID, principal, req.ToUserID)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer captaincy failed",
			"team_id", teamID, "to_user_id", req.ToUserID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(t))
}
