package enrollment

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusgate/campusgate/internal/platform/httpx"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

type bulkEnrollRequest struct {
	ClassID    string   `json:"classId" validate:"required,uuid"`
	StudentIDs []string `json:"studentIds" validate:"required,min=1,max=100,dive,uuid"`
}

func (h *Handler) BulkEnroll(w http.ResponseWriter, r *http.Request) {
	var req bulkEnrollRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	result, err := h.service.BulkEnroll(r.Context(), req.ClassID, req.StudentIDs)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) ClassStudents(w http.ResponseWriter, r *http.Request) {
	roster, err := h.service.ClassRoster(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roster)
}
