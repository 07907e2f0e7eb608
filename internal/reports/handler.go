package reports

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"dronewatch/internal/auth"
)

// Handler wires the report upload and analytics endpoints. All of them
// run behind the token middleware.
type Handler struct {
	store         Store
	logger        *slog.Logger
	validate      *validator.Validate
	maxUploadSize int64
}

func NewHandler(store Store, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		store:         store,
		logger:        logger,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/upload", h.handleUpload)
	r.Get("/violations", h.handleViolations)
	r.Get("/kpis", h.handleKPIs)
	r.Get("/filters", h.handleFilters)
	r.Get("/reports/{id}", h.handleGetReport)
	r.With(auth.RequireRole(auth.RoleAdmin)).Delete("/reports/{id}", h.handleDeleteReport)
}

// handleUpload accepts a multipart form with a JSON report file in the
// "report" field, mirroring the drone uplink format.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		auth.WriteError(w, auth.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	file, _, err := r.FormFile("report")
	if err != nil {
		auth.WriteError(w, fmt.Errorf("%w: no file uploaded", auth.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		auth.WriteError(w, fmt.Errorf("%w: file too large", auth.ErrValidation))
		return
	}

	var payload ReportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		auth.WriteError(w, fmt.Errorf("%w: invalid JSON format", auth.ErrValidation))
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		auth.WriteError(w, fmt.Errorf("%w: %s", auth.ErrValidation, err.Error()))
		return
	}

	reportID, err := h.store.CreateReport(r.Context(), &payload, id.UserID)
	if err != nil {
		h.logger.Error("create report", "err", err)
		auth.WriteError(w, err)
		return
	}
	h.logger.Info("report uploaded",
		"report_id", reportID, "drone_id", payload.DroneID,
		"violations", len(payload.Violations), "user_id", id.UserID)

	auth.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "report uploaded successfully",
		"report_id":        reportID,
		"violations_count": len(payload.Violations),
	})
}

func (h *Handler) handleViolations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		DroneID: q.Get("drone_id"),
		Date:    q.Get("date"),
		Type:    q.Get("type"),
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			f.Limit = l
		}
	}

	violations, err := h.store.ListViolations(r.Context(), f)
	if err != nil {
		h.logger.Error("list violations", "err", err)
		auth.WriteError(w, err)
		return
	}
	if violations == nil {
		violations = []Violation{}
	}
	auth.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"violations": violations,
		"total":      len(violations),
	})
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kpis, err := h.store.GetKPIs(r.Context(), q.Get("drone_id"), q.Get("date"))
	if err != nil {
		h.logger.Error("get kpis", "err", err)
		auth.WriteError(w, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, kpis)
}

func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.store.GetFilterOptions(r.Context())
	if err != nil {
		h.logger.Error("get filter options", "err", err)
		auth.WriteError(w, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, opts)
}

func reportIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid report id", auth.ErrValidation)
	}
	return id, nil
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	report, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}
	if err := h.store.DeleteReport(r.Context(), id); err != nil {
		auth.WriteError(w, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "report deleted successfully"})
}
