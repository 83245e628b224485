package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/competitions", handler.ListCompetitions)
	mux.HandleFunc("GET /v1/competitions/{competitionID}", handler.GetCompetition)
	mux.HandleFunc("GET /v1/competitions/{competitionID}/teams", handler.ListTeamsByCompetition)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedTeamRoutes(mux, handler, verifier)
	registerAuthorizedRequestRoutes(mux, handler, verifier)
	registerAuthorizedApplicationRoutes(mux, handler, verifier)
	registerAuthorizedCompetitionRoutes(mux, handler, verifier)
}

func registerAuthorizedTeamRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/teams", RequireAuth(verifier, http.HandlerFunc(handler.CreateTeam)))
	mux.Handle("DELETE /v1/teams/{teamID}/members/me", RequireAuth(verifier, http.HandlerFunc(handler.LeaveTeam)))
	mux.Handle("DELETE /v1/teams/{teamID}/members/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveTeamMember)))
	mux.Handle("POST /v1/teams/{teamID}/captain", RequireAuth(verifier, http.HandlerFunc(handler.TransferCaptaincy)))
}

func registerAuthorizedRequestRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/teams/{teamID}/invites", RequireAuth(verifier, http.HandlerFunc(handler.InviteMember)))
	mux.Handle("POST /v1/teams/{teamID}/join-requests", RequireAuth(verifier, http.HandlerFunc(handler.RequestToJoin)))
	mux.Handle("GET /v1/teams/{teamID}/requests", RequireAuth(verifier, http.HandlerFunc(handler.ListTeamRequests)))
	mux.Handle("GET /v1/requests/{requestID}", RequireAuth(verifier, http.HandlerFunc(handler.GetRequest)))
	mux.Handle("POST /v1/requests/{requestID}/decision", RequireAuth(verifier, http.HandlerFunc(handler.RespondToRequest)))
	mux.Handle("GET /v1/users/me/requests", RequireAuth(verifier, http.HandlerFunc(handler.ListMyRequests)))
}

func registerAuthorizedApplicationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/applications", RequireAuth(verifier, http.HandlerFunc(handler.SubmitApplication)))
	mux.Handle("GET /v1/applications/{applicationID}", RequireAuth(verifier, http.HandlerFunc(handler.GetApplication)))
	mux.Handle("POST /v1/applications/{applicationID}/decision", RequireAuth(verifier, http.HandlerFunc(handler.DecideApplication)))
	mux.Handle("GET /v1/competitions/{competitionID}/applications", RequireAuth(verifier, http.HandlerFunc(handler.ListApplicationsByCompetition)))
	mux.Handle("GET /v1/competitions/{competitionID}/registrations", RequireAuth(verifier, http.HandlerFunc(handler.ListRegistrationsByCompetition)))
	mux.Handle("GET /v1/registrations/{registrationID}", RequireAuth(verifier, http.HandlerFunc(handler.GetRegistration)))
	mux.Handle("POST /v1/registrations/{registrationID}/withdraw", RequireAuth(verifier, http.HandlerFunc(handler.WithdrawRegistration)))
}

func registerAuthorizedCompetitionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/competitions/{competitionID}/status", RequireAuth(verifier, http.HandlerFunc(handler.TransitionCompetitionStatus)))
}
