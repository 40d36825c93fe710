// Package api exposes the session controller to local HTTP clients and to
// MCP hosts.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// DashboardDeps holds dependencies for the dashboard service.
type DashboardDeps struct {
	Controller *session.Controller
	// Token, when set, is required as a bearer token on every route except
	// /health.
	Token string
	// Now defaults to time.Now.
	Now func() time.Time
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool                              `json:"authenticated"`
	Counts        map[session.Collection]int        `json:"counts"`
	FetchedAt     map[session.Collection]*time.Time `json:"fetched_at"`
}

type refreshResponse struct {
	Failed []session.Collection          `json:"failed"`
	Errors map[session.Collection]string `json:"errors,omitempty"`
	Counts map[session.Collection]int    `json:"counts"`
}

// NewDashboardHandler returns the local dashboard service.
func NewDashboardHandler(deps DashboardDeps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/session/login", handleLogin(deps))
		r.Post("/session/register", handleRegister(deps))
		r.Post("/session/logout", handleLogout(deps))
		r.Get("/session", handleSession(deps))

		r.Get("/sites", handleList(deps, deps.Controller.Sites))
		r.Post("/sites", handleCreate(deps, deps.Controller.CreateSite, deps.Controller.Sites))
		r.Get("/keywords", handleList(deps, deps.Controller.Keywords))
		r.Post("/keywords", handleCreate(deps, deps.Controller.CreateKeyword, deps.Controller.Keywords))
		r.Get("/tasks", handleList(deps, deps.Controller.Tasks))
		r.Post("/tasks", handleCreate(deps, deps.Controller.CreateTask, deps.Controller.Tasks))
		r.Get("/results", handleList(deps, deps.Controller.Results))

		r.Post("/refresh", handleRefresh(deps))
		r.Get("/dashboard", handleDashboard(deps))
	})
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func handleLogin(deps DashboardDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		creds := model.Credentials{Email: req.Email, Password: req.Password}
		if _, err := deps.Controller.Authenticate(r.Context(), creds); err != nil {
			controllerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
	}
}

func handleRegister(deps DashboardDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		creds := model.Credentials{Email: req.Email, Password: req.Password}
		if err := deps.Controller.Register(r.Context(), creds); err != nil {
			controllerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
	}
}

func handleLogout(deps DashboardDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Controller.Logout(r.Context()); err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
	}
}

func handleSession(deps DashboardDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := sessionResponse{
			Authenticated: deps.Controller.Authenticated(),
			Counts:        deps.Controller.Counts(),
			FetchedAt:     make(map[session.Collection]*time.Time, len(session.Collections)),
		}
		for _, coll := range session.Collections {
			var at *time.Time
			if t := deps.Controller.FetchedAt(coll); !t.IsZero() {
				at = &t
			}
			resp.FetchedAt[coll] = at
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func requireSession(deps DashboardDeps, w http.ResponseWriter) bool {
	if !deps.Controller.Authenticated() {
		httpError(w, http.StatusUnauthorized, "authentication_error", "not logged in")
		return false
	}
	return true
}

func handleList[T any](deps DashboardDeps, snapshot func() []T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(deps, w) {
			return
		}
		writeJSON(w, http.StatusOK, snapshot())
	}
}

// handleCreate decodes a create request, runs it through the controller and
// answers with the refetched collection.
func handleCreate[Req, T any](deps DashboardDeps, create func(ctx context.Context, req Req) error, snapshot func() []T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(deps, w) {
			return
		}
		var req Req
		if !decodeBody(w, r, &req) {
			return
		}
		if err := create(r.Context(), req); err != nil {
			controllerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snapshot())
	}
}

func handleRefresh(deps DashboardDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var report session.RefreshReport
		if coll := session.Collection(r.URL.Query().Get("collection")); coll != "" {
			if !validCollection(coll) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown collection %q", coll)
				return
			}
			err := deps.Controller.Refresh(r.Context(), coll)
			if errors.Is(err, session.ErrNoSession) {
				controllerError(w, err)
				return
			}
			report.Errors = map[session.Collection]error{coll: err}
		} else {
			var err error
			report, err = deps.Controller.RefreshAll(r.Context())
			if err != nil {
				controllerError(w, err)
				return
			}
		}

		resp := refreshResponse{
			Failed: report.Failed(),
			Counts: deps.Controller.Counts(),
		}
		if resp.Failed == nil {
			resp.Failed = []session.Collection{}
		}
		for _, coll := range resp.Failed {
			if resp.Errors == nil {
				resp.Errors = make(map[session.Collection]string)
			}
			resp.Errors[coll] = report.Errors[coll].Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func validCollection(c session.Collection) bool {
	for _, v := range session.Collections {
		if c == v {
			return true
		}
	}
	return false
}

func handleDashboard(deps DashboardDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(deps, w) {
			return
		}
		writeJSON(w, http.StatusOK, deps.Controller.Dashboard(deps.Now()))
	}
}
