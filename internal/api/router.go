package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medilink/scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service *scheduling.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Schedule windows
	r.Post("/schedule-windows", createWindowHandler(cfg.Service))
	r.Put("/schedule-windows/{id}", updateWindowHandler(cfg.Service))
	r.Delete("/schedule-windows/{id}", deactivateWindowHandler(cfg.Service))
	r.Delete("/schedule-windows/{id}/purge", purgeWindowHandler(cfg.Service))

	// Provider views
	r.Get("/providers/{id}/windows", listProviderWindowsHandler(cfg.Service))
	r.Get("/providers/{id}/availability", availableSlotsHandler(cfg.Service))
	r.Get("/providers/{id}/appointments", listProviderAppointmentsHandler(cfg.Service))

	// Appointments
	r.Post("/appointments", bookAppointmentHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Put("/appointments/{id}", rescheduleAppointmentHandler(cfg.Service))
	r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Service))

	// Patient views
	r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Service))
	r.Get("/patients/{id}/appointments/next", nextPatientAppointmentHandler(cfg.Service))

	return r
}
