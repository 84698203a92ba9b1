package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// Register handles POST /auth/register
// An admin token, when present, allows creating another admin.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterUserRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	user, err := a.svc.Auth.Register(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	resp, err := a.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /users/me
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	user, err := a.svc.Users.Me(r.Context(), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /users/profile
func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	user, err := a.svc.Users.UpdateProfile(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /users
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := a.svc.Users.List(r.Context(), actorFrom(r.Context()), pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListLogs handles GET /logs
func (a *API) ListLogs(w http.ResponseWriter, r *http.Request) {
	page, err := a.svc.Audit.List(r.Context(), actorFrom(r.Context()), pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Health handles GET /health
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready
// It reports 503 while the database is unreachable.
func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.svc.DB == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.svc.DB.Ping(ctx); err != nil {
		a.log.WithError(err).Warn("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
