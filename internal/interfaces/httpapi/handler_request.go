package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/openbracket/arena/internal/domain/request"
	"github.com/openbracket/arena/internal/usecase"
)

func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InviteMember")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	teamID := strings.TrimSpace(r.PathValue("teamID"))

	var req inviteMemberRequest
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

	edge, err := h.lifecycleService.InviteMember(ctx, teamID, principal, req.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "invite member failed",
			"team_id", teamID, "target_user_id", req.UserID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, requestToDTO(edge))
}

func (h *Handler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RequestToJoin")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	teamID := strings.TrimSpace(r.PathValue("teamID"))

	edge, err := h.lifecycleService.RequestToJoin(ctx, teamID, principal)
	if err != nil {
		h.logger.WarnContext(ctx, "request to join failed", "team_id", teamID, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, requestToDTO(edge))
}

func (h *Handler) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RespondToRequest")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	requestID := strings.TrimSpace(r.PathValue("requestID"))

	var req respondToRequestRequest
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

	edge, err := h.lifecycleService.RespondToRequest(ctx, requestID, request.Decision(req.Decision), principal)
	if err != nil {
		h.logger.WarnContext(ctx, "respond to request failed",
			"request_id", requestID, "decision", req.Decision, "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, requestToDTO(edge))
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRequest")
	defer span.End()

	requestID := strings.TrimSpace(r.PathValue("requestID"))
	edge, err := h.requestService.GetRequest(ctx, requestID)
	if err != nil {
		h.logger.WarnContext(ctx, "get request failed", "request_id", requestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, requestToDTO(edge))
}

func (h *Handler) ListTeamRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamRequests")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	edges, err := h.requestService.ListTeamRequests(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list team requests failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]requestDTO, 0, len(edges))
	for _, edge := range edges {
		items = append(items, requestToDTO(edge))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyRequests")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	edges, err := h.requestService.ListUserRequests(ctx, principal.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my requests failed", "actor_id", principal.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]requestDTO, 0, len(edges))
	for _, edge := range edges {
		items = append(items, requestToDTO(edge))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
