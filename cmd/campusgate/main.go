package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/campusgate/campusgate/internal/academics"
	"github.com/campusgate/campusgate/internal/allocations"
	"github.com/campusgate/campusgate/internal/app"
	"github.com/campusgate/campusgate/internal/attendance"
	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/auth"
	"github.com/campusgate/campusgate/internal/enrollment"
	"github.com/campusgate/campusgate/internal/leaves"
	"github.com/campusgate/campusgate/internal/observability"
	"github.com/campusgate/campusgate/internal/platform/cache"
	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/students"
	"github.com/campusgate/campusgate/internal/subjects"
	"github.com/campusgate/campusgate/internal/teachers"
	"github.com/campusgate/campusgate/internal/tenants"
	"github.com/campusgate/campusgate/internal/timetable"
	"github.com/campusgate/campusgate/internal/users"
	"github.com/campusgate/campusgate/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	gateway, err := db.NewRLS(pool)
	if err != nil {
		logger.Error("build tenant gateway", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	metrics := observability.NewMetrics()

	auditor := audit.NewService(gateway, logger)

	issuer := auth.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authRepo := auth.NewRepository(gateway)
	authService := auth.NewService(authRepo, issuer, auditor, cfg.BcryptCost)
	authHandler := auth.NewHandler(authService, validate, logger)

	tenantsRepo := tenants.NewRepository(gateway)
	tenantsService := tenants.NewService(tenantsRepo, auditor)
	tenantsHandler := tenants.NewHandler(tenantsService, validate, logger)

	usersRepo := users.NewRepository(gateway)
	usersService := users.NewService(usersRepo, auditor, cfg.BcryptCost)
	usersHandler := users.NewHandler(usersService, validate, logger)

	yearService := academics.NewService(gateway, redisClient)

	studentsRepo := students.NewRepository(gateway)
	studentsService := students.NewService(studentsRepo, auditor, logger)
	studentsHandler := students.NewHandler(studentsService, logger)

	teachersRepo := teachers.NewRepository(gateway)
	teachersService := teachers.NewService(teachersRepo, auditor, logger)
	teachersHandler := teachers.NewHandler(teachersService, logger)

	subjectsRepo := subjects.NewRepository(gateway)
	subjectsService := subjects.NewService(subjectsRepo, logger)
	subjectsHandler := subjects.NewHandler(subjectsService, logger)

	allocRepo := allocations.NewRepository(gateway)
	allocService := allocations.NewService(allocRepo, teachersService, logger)
	allocHandler := allocations.NewHandler(allocService, logger)

	enrollmentRepo := enrollment.NewRepository(gateway)
	enrollmentService := enrollment.NewService(enrollmentRepo, yearService, auditor, logger)
	enrollmentHandler := enrollment.NewHandler(enrollmentService, logger)

	timetableRepo := timetable.NewRepository(gateway)
	timetableService := timetable.NewService(timetableRepo, logger)
	timetableHandler := timetable.NewHandler(timetableService, logger)
	overridesHandler := timetable.NewOverridesHandler(timetableService, logger)

	attendanceRepo := attendance.NewRepository(gateway)
	attendanceService := attendance.NewService(attendanceRepo, yearService, logger, cfg.GateLateCutoff)
	attendanceHandler := attendance.NewHandler(attendanceService, logger)

	leavesRepo := leaves.NewRepository(gateway)
	leavesService := leaves.NewService(leavesRepo, auditor, logger)
	leavesHandler := leaves.NewHandler(leavesService, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		TokenVerifier: issuer,

		AuthHandler:       authHandler,
		TenantsHandler:    tenantsHandler,
		UsersHandler:      usersHandler,
		StudentsHandler:   studentsHandler,
		TeachersHandler:   teachersHandler,
		SubjectsHandler:   subjectsHandler,
		AllocHandler:      allocHandler,
		EnrollmentHandler: enrollmentHandler,
		TimetableHandler:  timetableHandler,
		OverridesHandler:  overridesHandler,
		AttendanceHandler: attendanceHandler,
		LeavesHandler:     leavesHandler,
		JobsHandler:       jobsHandler,

		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
