package subjects

import (
	"log/slog"
	"net/http"
	"strconv"

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

type subjectRequest struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	ValidGrades []int32 `json:"validGrades" validate:"required,min=1,dive,min=1,max=13"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	subject, err := h.service.Create(r.Context(), Subject{
		Code:        req.Code,
		Name:        req.Name,
		ValidGrades: req.ValidGrades,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, subject)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	grade, _ := strconv.Atoi(r.URL.Query().Get("grade"))
	list, err := h.service.List(r.Context(), int32(grade))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	subject, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, subject)
}

type updateRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	ValidGrades []int32 `json:"validGrades" validate:"omitempty,min=1,dive,min=1,max=13"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	subject, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateParams{
		Code:        req.Code,
		Name:        req.Name,
		ValidGrades: req.ValidGrades,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, subject)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
