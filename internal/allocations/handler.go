package allocations

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

type assignRequest struct {
	TeacherID      string `json:"teacherId" validate:"required,uuid"`
	ClassID        string `json:"classId" validate:"required,uuid"`
	SubjectID      string `json:"subjectId" validate:"required,uuid"`
	AcademicYearID string `json:"academicYearId" validate:"required,uuid"`
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	alloc, err := h.service.Assign(r.Context(), AssignParams{
		TeacherID:      req.TeacherID,
		ClassID:        req.ClassID,
		SubjectID:      req.SubjectID,
		AcademicYearID: req.AcademicYearID,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, alloc)
}

func (h *Handler) TeacherSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.Schedule(r.Context(), chi.URLParam(r, "teacherId"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": schedule})
}
