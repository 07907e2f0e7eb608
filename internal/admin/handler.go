// Package admin exposes the user-management and system-statistics
// endpoints. Every route runs behind the token middleware plus an
// admin-role check installed by the router.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"dronewatch/internal/auth"
)

// ReportCounter is the slice of the reports store the stats endpoint needs.
type ReportCounter interface {
	CountReports(ctx context.Context) (int64, error)
	CountViolations(ctx context.Context) (int64, error)
}

type Handler struct {
	users    auth.Store
	authSvc  *auth.Service
	counter  ReportCounter
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(users auth.Store, authSvc *auth.Service, counter ReportCounter, logger *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		authSvc:  authSvc,
		counter:  counter,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.handleListUsers)
	r.Get("/users/{id}", h.handleGetUser)
	r.Post("/users", h.handleCreateUser)
	r.Delete("/users/{id}", h.handleDeactivateUser)
	r.Get("/stats", h.handleStats)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list users", "err", err)
		auth.WriteError(w, err)
		return
	}
	if users == nil {
		users = []auth.User{}
	}
	auth.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users":  users,
		"total":  len(users),
		"limit":  limit,
		"offset": offset,
	})
}

func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid user id", auth.ErrValidation)
	}
	return id, nil
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

type createUserRequest struct {
	Username string    `json:"username" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=8"`
	Role     auth.Role `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		auth.WriteError(w, err)
		return
	}
	// The admin-role gate already ran, so elevation is permitted here.
	user, err := h.authSvc.Register(r.Context(), req.Username, req.Email, req.Password, req.Role, true)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	h.logger.Info("user created by admin", "user_id", user.ID, "role", user.Role)
	auth.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "user created successfully",
		"user":    user,
	})
}

// handleDeactivateUser soft-deletes an account. An admin may not
// deactivate their own account; that check is data-dependent and lives
// here rather than in the middleware.
func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		auth.WriteError(w, auth.ErrUnauthenticated)
		return
	}
	if caller.UserID == id {
		auth.WriteError(w, fmt.Errorf("%w: cannot deactivate your own account", auth.ErrValidation))
		return
	}
	if err := h.users.Deactivate(r.Context(), id); err != nil {
		auth.WriteError(w, err)
		return
	}
	// Also revoke the refresh capability so the account cannot mint new
	// access tokens after deactivation.
	if err := h.authSvc.Logout(r.Context(), id); err != nil {
		h.logger.Warn("revoke refresh on deactivate", "user_id", id, "err", err)
	}
	auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deactivated successfully"})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totalUsers, err := h.users.CountAll(ctx)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	activeUsers, err := h.users.CountActive(ctx)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	totalReports, err := h.counter.CountReports(ctx)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	totalViolations, err := h.counter.CountViolations(ctx)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stats": map[string]int64{
			"total_users":      totalUsers,
			"active_users":     activeUsers,
			"total_reports":    totalReports,
			"total_violations": totalViolations,
		},
	})
}
