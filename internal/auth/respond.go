package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// WriteJSON writes v as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a subsystem error to its transport status code. This is
// the only place error kinds become HTTP statuses; nothing downstream
// re-interprets them.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"
	switch {
	case errors.Is(err, ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrConflict):
		status, msg = http.StatusConflict, "username or email already exists"
	case errors.Is(err, ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}
