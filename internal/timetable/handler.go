package timetable

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

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

type slotRequest struct {
	AcademicYearID string `json:"academicYearId" validate:"required,uuid"`
	DayOfWeek      string `json:"dayOfWeek" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	PeriodNumber   int32  `json:"periodNumber" validate:"required,min=1,max=12"`
	StartTime      string `json:"startTime" validate:"required,len=5"`
	EndTime        string `json:"endTime" validate:"required,len=5"`
	ClassID        string `json:"classId" validate:"required,uuid"`
	SubjectID      string `json:"subjectId" validate:"required,uuid"`
	TeacherID      string `json:"teacherId" validate:"required,uuid"`
	Room           string `json:"room"`
	IsActive       *bool  `json:"isActive"`
}

func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	slot, err := h.service.CreateSlot(r.Context(), Slot{
		AcademicYearID: req.AcademicYearID,
		DayOfWeek:      req.DayOfWeek,
		PeriodNumber:   req.PeriodNumber,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ClassID:        req.ClassID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		Room:           req.Room,
		IsActive:       active,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, slot)
}

func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, _ := strconv.Atoi(q.Get("periodNumber"))
	fromPeriod, _ := strconv.Atoi(q.Get("fromPeriod"))
	toPeriod, _ := strconv.Atoi(q.Get("toPeriod"))
	slots, err := h.service.ListSlots(r.Context(), SlotFilter{
		AcademicYearID: q.Get("academicYearId"),
		DayOfWeek:      q.Get("dayOfWeek"),
		PeriodNumber:   int32(period),
		FromPeriod:     int32(fromPeriod),
		ToPeriod:       int32(toPeriod),
		ClassID:        q.Get("classId"),
		TeacherID:      q.Get("teacherId"),
		SubjectID:      q.Get("subjectId"),
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": slots})
}

type slotUpdateRequest struct {
	AcademicYearID string `json:"academicYearId" validate:"omitempty,uuid"`
	DayOfWeek      string `json:"dayOfWeek" validate:"omitempty,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	PeriodNumber   int32  `json:"periodNumber" validate:"omitempty,min=1,max=12"`
	StartTime      string `json:"startTime" validate:"omitempty,len=5"`
	EndTime        string `json:"endTime" validate:"omitempty,len=5"`
	ClassID        string `json:"classId" validate:"omitempty,uuid"`
	SubjectID      string `json:"subjectId" validate:"omitempty,uuid"`
	TeacherID      string `json:"teacherId" validate:"omitempty,uuid"`
	Room           string `json:"room"`
	IsActive       *bool  `json:"isActive"`
}

func (h *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	var req slotUpdateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	slot, err := h.service.UpdateSlot(r.Context(), chi.URLParam(r, "id"), SlotUpdate{
		AcademicYearID: req.AcademicYearID,
		DayOfWeek:      req.DayOfWeek,
		PeriodNumber:   req.PeriodNumber,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ClassID:        req.ClassID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		Room:           req.Room,
		IsActive:       req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, slot)
}

func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateSlot(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TeacherDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slots, err := h.service.TeacherDaily(r.Context(),
		chi.URLParam(r, "teacherId"), q.Get("dayOfWeek"), q.Get("academicYearId"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": slots})
}

// ClassWeekly returns the class grid plus any overrides touching the next
// seven days, fetched concurrently.
func (h *Handler) ClassWeekly(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classId")
	yearID := r.URL.Query().Get("academicYearId")

	var (
		slots     []Slot
		overrides []Override
	)
	weekFrom := time.Now().UTC().Truncate(24 * time.Hour)
	weekTo := weekFrom.AddDate(0, 0, 7)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		slots, err = h.service.ClassWeekly(ctx, classID, yearID)
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = h.service.ListOverrides(ctx, OverrideFilter{
			AcademicYearID: yearID,
			From:           &weekFrom,
			To:             &weekTo,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": slots, "overrides": overrides})
}

// OverridesHandler exposes the override sub-resource.
type OverridesHandler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewOverridesHandler(service *Service, logger *slog.Logger) *OverridesHandler {
	return &OverridesHandler{service: service, validate: validator.New(), logger: logger}
}

type overrideRequest struct {
	SlotID            string    `json:"slotId" validate:"required,uuid"`
	DateFrom          time.Time `json:"dateFrom" validate:"required"`
	DateTo            time.Time `json:"dateTo" validate:"required"`
	OverrideTeacherID string    `json:"overrideTeacherId" validate:"omitempty,uuid"`
	OverrideSubjectID string    `json:"overrideSubjectId" validate:"omitempty,uuid"`
	Reason            string    `json:"reason" validate:"omitempty,oneof=SUBSTITUTION CANCELLATION ROOM_CHANGE SPECIAL_EVENT"`
	Note              string    `json:"note"`
}

func (h *OverridesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	override, err := h.service.CreateOverride(r.Context(), OverrideParams{
		SlotID:            req.SlotID,
		DateFrom:          req.DateFrom,
		DateTo:            req.DateTo,
		OverrideTeacherID: req.OverrideTeacherID,
		OverrideSubjectID: req.OverrideSubjectID,
		Reason:            req.Reason,
		Note:              req.Note,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, override)
}

func (h *OverridesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := OverrideFilter{
		AcademicYearID:    q.Get("academicYearId"),
		SlotID:            q.Get("slotId"),
		OverrideTeacherID: q.Get("overrideTeacherId"),
	}
	if from, err := time.Parse(time.DateOnly, q.Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.DateOnly, q.Get("to")); err == nil {
		filter.To = &to
	}
	overrides, err := h.service.ListOverrides(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": overrides})
}

type overrideUpdateRequest struct {
	DateFrom          *time.Time `json:"dateFrom"`
	DateTo            *time.Time `json:"dateTo"`
	OverrideTeacherID string     `json:"overrideTeacherId" validate:"omitempty,uuid"`
	OverrideSubjectID string     `json:"overrideSubjectId" validate:"omitempty,uuid"`
	Reason            string     `json:"reason" validate:"omitempty,oneof=SUBSTITUTION CANCELLATION ROOM_CHANGE SPECIAL_EVENT"`
	Note              string     `json:"note"`
}

func (h *OverridesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req overrideUpdateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	override, err := h.service.UpdateOverride(r.Context(), chi.URLParam(r, "id"), OverrideUpdate{
		DateFrom:          req.DateFrom,
		DateTo:            req.DateTo,
		OverrideTeacherID: req.OverrideTeacherID,
		OverrideSubjectID: req.OverrideSubjectID,
		Reason:            req.Reason,
		Note:              req.Note,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, override)
}

func (h *OverridesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateOverride(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
