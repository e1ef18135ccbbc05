package attendance

import (
	"fmt"
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

type gateScanRequest struct {
	SystemCode string    `json:"systemCode" validate:"required"`
	ScannedAt  time.Time `json:"scannedAt" validate:"required"`
}

func (h *Handler) GateScan(w http.ResponseWriter, r *http.Request) {
	var req gateScanRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	result, err := h.service.GateScan(r.Context(), req.SystemCode, req.ScannedAt)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type markRequest struct {
	ClassID string         `json:"classId" validate:"required,uuid"`
	Date    string         `json:"date" validate:"required,datetime=2006-01-02"`
	Period  int32          `json:"period" validate:"required,min=1,max=12"`
	Records []PeriodRecord `json:"records" validate:"required,min=1,dive"`
}

func (h *Handler) MarkPeriod(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	date, _ := time.Parse(time.DateOnly, req.Date)
	result, err := h.service.MarkPeriod(r.Context(), req.ClassID, date, req.Period, req.Records)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) ClassRegister(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, r, h.logger,
			fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation))
		return
	}
	register, err := h.service.ClassRegister(r.Context(), chi.URLParam(r, "classId"), date)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, register)
}

func (h *Handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, r, h.logger,
			fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation))
		return
	}
	summary, err := h.service.DailySummary(r.Context(), date)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.MonthlySummary(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
