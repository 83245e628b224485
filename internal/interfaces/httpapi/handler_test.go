package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/team"
	"github.com/openbracket/arena/internal/domain/user"
	"github.com/openbracket/arena/internal/infrastructure/repository/memory"
	idgen "github.com/openbracket/arena/internal/platform/id"
	"github.com/openbracket/arena/internal/platform/keylock"
	"github.com/openbracket/arena/internal/usecase"
)

func newTestRouter(t *testing.T, verifier TokenVerifier) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	competitions := []competition.Competition{
		{
			ID:                "winter-clash",
			Name:              "Winter Clash",
			Discipline:        "capture-the-flag",
			OwnerID:           "org-aurora",
			Region:            "eu-west",
			Status:            competition.StatusRegistration,
			RegistrationStart: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			RegistrationEnd:   time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
			TeamCapacity:      8,
			MaxTeamSize:       3,
		},
	}
	teams := []team.Team{
		{
			ID:            "winter-wolves",
			CompetitionID: "winter-clash",
			Name:          "Winter Wolves",
			Status:        team.StatusForming,
			Members: []team.Member{
				{UserID: "user-captain", IsCaptain: true, JoinedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
			},
			Version: 1,
		},
	}

	competitionRepo := memory.NewCompetitionRepository(competitions)
	teamRepo := memory.NewTeamRepository(teams)
	requestRepo := memory.NewRequestRepository()
	applicationRepo := memory.NewApplicationRepository()

	locks := keylock.New()
	gen := idgen.NewRandomGenerator()

	membershipService := usecase.NewMembershipService(teamRepo, competitionRepo, locks, logger)
	requestService := usecase.NewRequestService(requestRepo, teamRepo, competitionRepo, membershipService, locks, gen, logger)
	applicationService := usecase.NewApplicationService(applicationRepo, teamRepo, competitionRepo, membershipService, locks, gen, logger)
	competitionService := usecase.NewCompetitionService(competitionRepo, logger)
	lifecycleService := usecase.NewLifecycleService(membershipService, requestService, applicationService, usecase.NopNotifier{}, gen, logger)

	handler := NewHandler(lifecycleService, competitionService, membershipService, requestService, applicationService, logger)
	return NewRouter(handler, verifier, logger, nil)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHandlerListCompetitions(t *testing.T) {
	router := newTestRouter(t, staticVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/v1/competitions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", body["data"])
	}
	if len(data) != 1 {
		t.Fatalf("expected 1 competition, got %d", len(data))
	}
}

func TestHandlerGetTeam_NotFound(t *testing.T) {
	router := newTestRouter(t, staticVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/v1/teams/no-such-team", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandlerCreateTeam_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, staticVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/v1/teams", strings.NewReader(`{"competitionId":"winter-clash","name":"Frost Giants"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandlerCreateTeam(t *testing.T) {
	verifier := staticVerifier{principal: user.Principal{ID: "user-founder", Role: user.RoleParticipant}}
	router := newTestRouter(t, verifier)

	req := httptest.NewRequest(http.MethodPost, "/v1/teams", strings.NewReader(`{"competitionId":"winter-clash","name":"Frost Giants"}`))
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	if got, _ := data["name"].(string); got != "Frost Giants" {
		t.Fatalf("unexpected team name: %v", data["name"])
	}
	members, _ := data["members"].([]any)
	if len(members) != 1 {
		t.Fatalf("expected founder as sole member, got %d members", len(members))
	}
}

func TestHandlerCreateTeam_RejectsUnknownFields(t *testing.T) {
	verifier := staticVerifier{principal: user.Principal{ID: "user-founder", Role: user.RoleParticipant}}
	router := newTestRouter(t, verifier)

	req := httptest.NewRequest(http.MethodPost, "/v1/teams", strings.NewReader(`{"competitionId":"winter-clash","name":"Frost Giants","surprise":true}`))
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandlerInviteAndAccept(t *testing.T) {
	captain := staticVerifier{principal: user.Principal{ID: "user-captain", Role: user.RoleParticipant}}
	router := newTestRouter(t, captain)

	req := httptest.NewRequest(http.MethodPost, "/v1/teams/winter-wolves/invites", strings.NewReader(`{"userId":"user-new"}`))
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]any)
	requestID, _ := data["id"].(string)
	if requestID == "" {
		t.Fatalf("expected request id in response")
	}
	if got, _ := data["kind"].(string); got != "invite" {
		t.Fatalf("unexpected request kind: %v", data["kind"])
	}

	// Only the invitee may answer an invite; the router's verifier still
	// resolves to the captain, so the decision must be refused.
	acceptReq := httptest.NewRequest(http.MethodPost, "/v1/requests/"+requestID+"/decision", strings.NewReader(`{"decision":"accepted"}`))
	acceptReq.Header.Set("Authorization", "Bearer token")
	acceptRec := httptest.NewRecorder()
	router.ServeHTTP(acceptRec, acceptReq)

	if acceptRec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for wrong responder, got %d: %s", acceptRec.Code, acceptRec.Body.String())
	}
}
