package students

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusgate/campusgate/internal/platform/httpx"
)

// Handler exposes the student admission and profile endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

type addressRequest struct {
	AddressType string `json:"addressType" validate:"required,oneof=PERMANENT CURRENT"`
	Line1       string `json:"line1" validate:"required"`
	Line2       string `json:"line2"`
	City        string `json:"city" validate:"required"`
	District    string `json:"district"`
	PostalCode  string `json:"postalCode"`
}

type parentRequest struct {
	FullName string `json:"fullName" validate:"required"`
	NIC      string `json:"nic" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Relation string `json:"relation"`
}

type admitRequest struct {
	AdmissionNumber string           `json:"admissionNumber" validate:"required"`
	IndexNumber     string           `json:"indexNumber"`
	FullName        string           `json:"fullName" validate:"required"`
	Initials        string           `json:"initials"`
	DateOfBirth     time.Time        `json:"dateOfBirth" validate:"required"`
	Gender          string           `json:"gender" validate:"required,oneof=MALE FEMALE"`
	Medium          string           `json:"medium"`
	Religion        string           `json:"religion"`
	AdmissionDate   *time.Time       `json:"admissionDate"`
	Addresses       []addressRequest `json:"addresses" validate:"required,min=1,dive"`
	Parent          parentRequest    `json:"parent" validate:"required"`
	InviteParent    bool             `json:"inviteParent"`
}

func (h *Handler) Admit(w http.ResponseWriter, r *http.Request) {
	var req admitRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}

	in := AdmitInput{
		AdmissionNumber: req.AdmissionNumber,
		IndexNumber:     req.IndexNumber,
		FullName:        req.FullName,
		Initials:        req.Initials,
		DateOfBirth:     req.DateOfBirth,
		Gender:          req.Gender,
		Medium:          req.Medium,
		Religion:        req.Religion,
		Addresses:       make([]Address, 0, len(req.Addresses)),
		Parent: Parent{
			FullName: req.Parent.FullName,
			NIC:      req.Parent.NIC,
			Phone:    req.Parent.Phone,
			Email:    req.Parent.Email,
			Relation: req.Parent.Relation,
		},
		InviteParent: req.InviteParent,
	}
	if req.AdmissionDate != nil {
		in.AdmissionDate = *req.AdmissionDate
	}
	for _, a := range req.Addresses {
		in.Addresses = append(in.Addresses, Address{
			AddressType: a.AddressType,
			Line1:       a.Line1,
			Line2:       a.Line2,
			City:        a.City,
			District:    a.District,
			PostalCode:  a.PostalCode,
		})
	}

	result, err := h.service.Admit(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	list, err := h.service.List(r.Context(), ListFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

type updateRequest struct {
	FullName    string `json:"fullName"`
	Initials    string `json:"initials"`
	IndexNumber string `json:"indexNumber"`
	Medium      string `json:"medium"`
	Religion    string `json:"religion"`
	Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	student, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateParams{
		FullName:    req.FullName,
		Initials:    req.Initials,
		IndexNumber: req.IndexNumber,
		Medium:      req.Medium,
		Religion:    req.Religion,
		Status:      req.Status,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, student)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
