package teachers

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
	FullName         string     `json:"fullName" validate:"required"`
	Initials         string     `json:"initials"`
	NIC              string     `json:"nic" validate:"required"`
	TIN              string     `json:"tin"`
	SubjectCodes     []string   `json:"subjectCodes"`
	AppointmentType  string     `json:"appointmentType" validate:"required"`
	ServiceStart     time.Time  `json:"serviceStart" validate:"required"`
	EmploymentStatus string     `json:"employmentStatus"`
	DateOfBirth      time.Time  `json:"dateOfBirth" validate:"required"`
	Gender           string     `json:"gender" validate:"required,oneof=MALE FEMALE"`
	MotherTongue     string     `json:"motherTongue"`
	Religion         string     `json:"religion"`
	Ethnicity        string     `json:"ethnicity"`
	UserID           string     `json:"userId" validate:"omitempty,uuid"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	profile, err := h.service.Create(r.Context(), Profile{
		FullName:         req.FullName,
		Initials:         req.Initials,
		NIC:              req.NIC,
		TIN:              req.TIN,
		SubjectCodes:     req.SubjectCodes,
		AppointmentType:  req.AppointmentType,
		ServiceStart:     req.ServiceStart,
		EmploymentStatus: req.EmploymentStatus,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		MotherTongue:     req.MotherTongue,
		Religion:         req.Religion,
		Ethnicity:        req.Ethnicity,
		UserID:           req.UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

type updateRequest struct {
	FullName         string     `json:"fullName"`
	Initials         string     `json:"initials"`
	NIC              string     `json:"nic"`
	TIN              string     `json:"tin"`
	SubjectCodes     []string   `json:"subjectCodes"`
	AppointmentType  string     `json:"appointmentType"`
	ServiceStart     *time.Time `json:"serviceStart"`
	DateOfBirth      *time.Time `json:"dateOfBirth"`
	EmploymentStatus string     `json:"employmentStatus"`
	Gender           string     `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	MotherTongue     string     `json:"motherTongue"`
	Religion         string     `json:"religion"`
	Ethnicity        string     `json:"ethnicity"`
	UserID           string     `json:"userId" validate:"omitempty,uuid"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	profile, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateParams{
		FullName:         req.FullName,
		Initials:         req.Initials,
		NIC:              req.NIC,
		TIN:              req.TIN,
		SubjectCodes:     req.SubjectCodes,
		AppointmentType:  req.AppointmentType,
		ServiceStart:     req.ServiceStart,
		DateOfBirth:      req.DateOfBirth,
		EmploymentStatus: req.EmploymentStatus,
		Gender:           req.Gender,
		MotherTongue:     req.MotherTongue,
		Religion:         req.Religion,
		Ethnicity:        req.Ethnicity,
		UserID:           req.UserID,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
