package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campusgate/campusgate/internal/allocations"
	"github.com/campusgate/campusgate/internal/attendance"
	"github.com/campusgate/campusgate/internal/auth"
	"github.com/campusgate/campusgate/internal/enrollment"
	"github.com/campusgate/campusgate/internal/leaves"
	"github.com/campusgate/campusgate/internal/observability"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	"github.com/campusgate/campusgate/internal/students"
	"github.com/campusgate/campusgate/internal/subjects"
	"github.com/campusgate/campusgate/internal/teachers"
	"github.com/campusgate/campusgate/internal/tenants"
	"github.com/campusgate/campusgate/internal/timetable"
	"github.com/campusgate/campusgate/internal/users"
	"github.com/campusgate/campusgate/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	TokenVerifier auth.Verifier

	AuthHandler       *auth.Handler
	TenantsHandler    *tenants.Handler
	UsersHandler      *users.Handler
	StudentsHandler   *students.Handler
	TeachersHandler   *teachers.Handler
	SubjectsHandler   *subjects.Handler
	AllocHandler      *allocations.Handler
	EnrollmentHandler *enrollment.Handler
	TimetableHandler  *timetable.Handler
	OverridesHandler  *timetable.OverridesHandler
	AttendanceHandler *attendance.Handler
	LeavesHandler     *leaves.Handler
	JobsHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Public routes live outside the
// authenticator group; everything else is verified first and then role
// gated per route.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Public auth routes: the verifier does not run here. Data access on
	// these paths either uses a manual activator or fails closed.
	r.Group(func(r chi.Router) {
		r.Use(LoginRateLimit())
		r.Post("/auth/login", params.AuthHandler.Login)
		r.Post("/auth/refresh", params.AuthHandler.Refresh)
		r.Post("/auth/logout", params.AuthHandler.Logout)
		r.Post("/auth/activate", params.AuthHandler.Activate)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticator(params.TokenVerifier, params.Logger))

		r.Get("/auth/me", params.AuthHandler.Me)

		r.Route("/tenants", func(r chi.Router) {
			r.Use(auth.RequireRoles(secctx.RoleSuperAdmin))
			r.Post("/", params.TenantsHandler.Create)
			r.Get("/", params.TenantsHandler.List)
			r.Get("/{id}", params.TenantsHandler.Get)
			r.Patch("/{id}", params.TenantsHandler.Update)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin))
			r.Post("/", params.UsersHandler.Create)
			r.Get("/", params.UsersHandler.List)
			r.Get("/{id}", params.UsersHandler.Get)
			r.Patch("/{id}", params.UsersHandler.Update)
			r.Patch("/{id}/reset-password", params.UsersHandler.ResetPassword)
		})

		r.Route("/students", func(r chi.Router) {
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin, secctx.RoleClerk)).
				Post("/", params.StudentsHandler.Admit)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin, secctx.RoleClerk, secctx.RolePrincipal, secctx.RoleTeacher)).
				Get("/", params.StudentsHandler.List)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin, secctx.RoleClerk, secctx.RolePrincipal, secctx.RoleTeacher)).
				Get("/{id}", params.StudentsHandler.Get)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Patch("/{id}", params.StudentsHandler.Update)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Delete("/{id}", params.StudentsHandler.Remove)
		})

		r.Route("/teachers", func(r chi.Router) {
			r.Use(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin, secctx.RolePrincipal))
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Post("/", params.TeachersHandler.Create)
			r.Get("/", params.TeachersHandler.List)
			r.Get("/{id}", params.TeachersHandler.Get)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Patch("/{id}", params.TeachersHandler.Update)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Delete("/{id}", params.TeachersHandler.Delete)
		})

		r.Route("/subjects", func(r chi.Router) {
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Post("/", params.SubjectsHandler.Create)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin, secctx.RoleTeacher)).
				Get("/", params.SubjectsHandler.List)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin, secctx.RoleTeacher)).
				Get("/{id}", params.SubjectsHandler.Get)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Patch("/{id}", params.SubjectsHandler.Update)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Delete("/{id}", params.SubjectsHandler.Delete)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Post("/assign-subject", params.AllocHandler.Assign)
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin, secctx.RoleTeacher)).
				Get("/{teacherId}/schedule", params.AllocHandler.TeacherSchedule)
		})

		r.With(auth.RequireRoles(secctx.RoleSchoolAdmin, secctx.RoleSuperAdmin)).
			Post("/enrollment/bulk", params.EnrollmentHandler.BulkEnroll)
		r.With(auth.RequireRoles(secctx.RoleSchoolAdmin, secctx.RoleSuperAdmin, secctx.RoleTeacher)).
			Get("/classes/{id}/students", params.EnrollmentHandler.ClassStudents)

		r.Route("/timetable", func(r chi.Router) {
			manage := auth.RequireRoles(secctx.RolePrincipal, secctx.RoleSchoolAdmin, secctx.RoleSuperAdmin)
			view := auth.RequireRoles(secctx.RoleTeacher, secctx.RolePrincipal, secctx.RoleSchoolAdmin, secctx.RoleSuperAdmin)

			r.With(manage).Post("/slots", params.TimetableHandler.CreateSlot)
			r.With(manage).Get("/slots", params.TimetableHandler.ListSlots)
			r.With(manage).Patch("/slots/{id}", params.TimetableHandler.UpdateSlot)
			r.With(manage).Delete("/slots/{id}", params.TimetableHandler.DeleteSlot)
			r.With(view).Get("/teacher/{teacherId}/daily", params.TimetableHandler.TeacherDaily)
			r.With(view).Get("/class/{classId}/weekly", params.TimetableHandler.ClassWeekly)

			r.Route("/overrides", func(r chi.Router) {
				r.Use(manage)
				r.Post("/", params.OverridesHandler.Create)
				r.Get("/", params.OverridesHandler.List)
				r.Patch("/{id}", params.OverridesHandler.Update)
				r.Delete("/{id}", params.OverridesHandler.Delete)
			})
		})

		r.Route("/attendance", func(r chi.Router) {
			r.With(auth.RequireRoles(secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin)).
				Post("/gate/scan", params.AttendanceHandler.GateScan)
			r.With(auth.RequireRoles(secctx.RoleTeacher, secctx.RoleSchoolAdmin)).
				Post("/mark", params.AttendanceHandler.MarkPeriod)
			r.With(auth.RequireRoles(secctx.RoleTeacher, secctx.RoleSchoolAdmin, secctx.RolePrincipal, secctx.RoleSuperAdmin)).
				Get("/class/{classId}", params.AttendanceHandler.ClassRegister)
			r.With(auth.RequireRoles(secctx.RoleSchoolAdmin, secctx.RolePrincipal, secctx.RoleSuperAdmin)).
				Get("/summary", params.AttendanceHandler.DailySummary)
			r.With(auth.RequireRoles(secctx.RoleSchoolAdmin, secctx.RolePrincipal, secctx.RoleSuperAdmin)).
				Get("/summary/month", params.AttendanceHandler.MonthlySummary)
		})

		r.Route("/teacher-leaves", func(r chi.Router) {
			r.With(auth.RequireRoles(secctx.RoleTeacher)).Post("/", params.LeavesHandler.Create)
			r.With(auth.RequireRoles(secctx.RoleTeacher)).Get("/my", params.LeavesHandler.Mine)
			r.With(auth.RequireRoles(secctx.RolePrincipal, secctx.RoleSchoolAdmin, secctx.RoleSuperAdmin)).
				Get("/", params.LeavesHandler.List)
			r.With(auth.RequireRoles(secctx.RolePrincipal, secctx.RoleSchoolAdmin, secctx.RoleSuperAdmin)).
				Post("/{id}/approve", params.LeavesHandler.Approve)
			r.With(auth.RequireRoles(secctx.RolePrincipal, secctx.RoleSchoolAdmin, secctx.RoleSuperAdmin)).
				Post("/{id}/reject", params.LeavesHandler.Reject)
			r.With(auth.RequireRoles(secctx.RoleTeacher)).Post("/{id}/cancel", params.LeavesHandler.Cancel)
		})

		if params.JobsHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(auth.RequireRoles(secctx.RoleSuperAdmin))
				params.JobsHandler.MountRoutes(r)
			})
		}
	})

	return r
}
