package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/parking-management/internal/metrics"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// RouterConfig holds transport settings for Routes.
type RouterConfig struct {
	AllowedOrigins  []string
	LoginRatePerSec float64
	LoginBurst      int
}

// Routes builds the full HTTP router.
func (a *API) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(metrics.InstrumentHandler)
	r.Use(Logger(a.log))
	r.Use(SecurityHeaders)
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/health", a.Health)
	r.Get("/ready", a.Ready)
	r.Handle("/metrics", metrics.Handler())

	adminOnly := RequireRole(model.RoleAdmin)
	userOnly := RequireRole(model.RoleUser)
	limiter := newIPLimiter(cfg.LoginRatePerSec, cfg.LoginBurst)

	r.Route("/auth", func(r chi.Router) {
		r.With(a.OptionalAuth).Post("/register", a.Register)
		r.With(limiter.Handler).Post("/login", a.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.Authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", a.Me)
			r.Put("/profile", a.UpdateProfile)
			r.With(adminOnly).Get("/", a.ListUsers)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Use(userOnly)
			r.Post("/", a.CreateVehicle)
			r.Get("/", a.ListVehicles)
			r.Get("/{id}", a.GetVehicle)
			r.Put("/{id}", a.UpdateVehicle)
			r.Delete("/{id}", a.DeleteVehicle)
		})

		r.Route("/slots", func(r chi.Router) {
			r.Get("/", a.ListSlots)
			r.With(adminOnly).Post("/bulk", a.BulkCreateSlots)
			r.With(adminOnly).Put("/{id}", a.UpdateSlot)
			r.With(adminOnly).Delete("/{id}", a.DeleteSlot)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", a.ListRequests)
			r.With(userOnly).Post("/", a.CreateRequest)
			r.With(userOnly).Put("/{id}", a.UpdateRequest)
			r.With(userOnly).Delete("/{id}", a.DeleteRequest)
			r.With(adminOnly).Put("/{id}/status", a.DecideRequest)
		})

		r.Route("/parking", func(r chi.Router) {
			r.Get("/history", a.ParkingHistory)
			r.With(adminOnly).Post("/entry", a.RegisterEntry)
			r.With(adminOnly).Post("/exit", a.RegisterExit)
			r.With(adminOnly).Get("/current", a.CurrentlyParked)
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(userOnly).Get("/view", a.PendingPayments)
			r.With(userOnly).Post("/pay", a.Pay)
			r.With(adminOnly).Get("/all", a.AllPayments)
		})

		r.With(adminOnly).Get("/logs", a.ListLogs)
	})

	return r
}
