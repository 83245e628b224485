package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/openbracket/arena/internal/usecase"
)

type Handler struct {
	lifecycleService   *usecase.LifecycleService
	competitionService *usecase.CompetitionService
	membershipService  *usecase.MembershipService
	requestService     *usecase.RequestService
	applicationService *usecase.ApplicationService
	logger             *slog.Logger
	validator          *validator.Validate
}

func NewHandler(
	lifecycleService *usecase.LifecycleService,
	competitionService *usecase.CompetitionService,
	membershipService *usecase.MembershipService,
	requestService *usecase.RequestService,
	applicationService *usecase.ApplicationService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		lifecycleService:   lifecycleService,
		competitionService: competitionService,
		membershipService:  membershipService,
		requestService:     requestService,
		applicationService: applicationService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
