package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kalambet/crawldash/internal/backend"
	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/session"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// controllerError maps a session or backend failure onto a status code.
func controllerError(w http.ResponseWriter, err error) {
	var (
		valErr  *model.ValidationError
		authErr *backend.AuthError
		apiErr  *backend.APIError
	)
	switch {
	case errors.Is(err, session.ErrNoSession):
		httpError(w, http.StatusUnauthorized, "authentication_error", "not logged in")
	case errors.As(err, &valErr):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", valErr.Error())
	case errors.As(err, &authErr) && authErr.Op == "register":
		if authErr.Status >= 400 && authErr.Status < 500 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", authErr.Error())
			return
		}
		httpError(w, http.StatusBadGateway, "api_error", "%s", authErr.Error())
	case errors.As(err, &authErr):
		httpError(w, http.StatusUnauthorized, "authentication_error", "%s", authErr.Error())
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		httpError(w, http.StatusUnauthorized, "authentication_error", "backend rejected the session token")
	default:
		httpError(w, http.StatusBadGateway, "api_error", "%v", err)
	}
}
