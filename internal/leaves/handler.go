package leaves

import (
	"log/slog"
	"net/http"
	"time"

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

type createRequest struct {
	DateFrom   time.Time `json:"dateFrom" validate:"required"`
	DateTo     time.Time `json:"dateTo" validate:"required"`
	ReasonCode string    `json:"reasonCode" validate:"required"`
	Note       string    `json:"note"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	leave, err := h.service.Create(r.Context(), req.DateFrom, req.DateTo, req.ReasonCode, req.Note)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, leave)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	list, err := h.service.ListMine(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	list, err := h.service.List(r.Context(), Filter{
		Status:    r.URL.Query().Get("status"),
		TeacherID: r.URL.Query().Get("teacherId"),
		From:      from,
		To:        to,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}

type decisionRequest struct {
	DecisionNote string `json:"decisionNote"`
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	leave, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), req.DecisionNote)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, leave)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	leave, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), req.DecisionNote)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, leave)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	leave, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, leave)
}

func dateRange(r *http.Request) (*time.Time, *time.Time) {
	var from, to *time.Time
	if v, err := time.Parse(time.DateOnly, r.URL.Query().Get("from")); err == nil {
		from = &v
	}
	if v, err := time.Parse(time.DateOnly, r.URL.Query().Get("to")); err == nil {
		to = &v
	}
	if from == nil || to == nil {
		return nil, nil
	}
	return from, to
}
