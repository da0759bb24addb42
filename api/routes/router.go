package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mfigueroa-dev/clubcore-backend/api/controllers"
	webhookcontrollers "github.com/mfigueroa-dev/clubcore-backend/api/controllers/webhooks"
	"github.com/mfigueroa-dev/clubcore-backend/api/middleware"
	"github.com/mfigueroa-dev/clubcore-backend/internal/attendance"
	"github.com/mfigueroa-dev/clubcore-backend/internal/auth"
	"github.com/mfigueroa-dev/clubcore-backend/internal/memberships"
	"github.com/mfigueroa-dev/clubcore-backend/internal/sponsors"
	"github.com/mfigueroa-dev/clubcore-backend/internal/staff"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/auth/session"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/redis"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/storage/gcs"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/stripe"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	GCS             gcs.Pinger
	SessionVerifier session.AccessSessionChecker
	AuthService     auth.Service
	Memberships     memberships.Service
	Attendance      attendance.Service
	Staff           staff.Service
	Sponsors        sponsors.Service
	StripeClient    *stripe.Client
	StripeWebhooks  webhookcontrollers.StripeWebhookService
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// A typed nil *redis.Client would pass the controller's interface nil
	// check, so only hand it over when actually configured.
	var redisHealth redis.Pinger
	if deps.Redis != nil {
		redisHealth = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisHealth, deps.GCS))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/staff", controllers.PublicStaffList(deps.Staff, logg))
		r.Get("/sponsors", controllers.PublicSponsorsList(deps.Sponsors, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhooks, deps.StripeClient, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.SessionVerifier, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionVerifier, logg))

		r.Group(func(r chi.Router) {
			r.Get("/membership", controllers.MembershipGet(deps.Memberships, logg))
			r.Post("/membership/cancel", controllers.MembershipCancel(deps.Memberships, logg))
			r.Get("/attendance", controllers.AttendanceSummary(deps.Attendance, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Get("/members", controllers.AdminMembersList(deps.Memberships, logg))

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", controllers.AdminAttendanceSummary(deps.Attendance, logg))
				r.Post("/", controllers.AdminAttendanceRecord(deps.Attendance, logg))
				r.Delete("/{attendanceId}", controllers.AdminAttendanceDelete(deps.Attendance, logg))
			})

			r.Route("/staff", func(r chi.Router) {
				r.Get("/", controllers.AdminStaffList(deps.Staff, logg))
				r.Post("/", controllers.AdminStaffCreate(deps.Staff, cfg.Media, logg))
				r.Put("/{staffId}", controllers.AdminStaffUpdate(deps.Staff, cfg.Media, logg))
				r.Delete("/{staffId}", controllers.AdminStaffDelete(deps.Staff, logg))
			})

			r.Route("/sponsors", func(r chi.Router) {
				r.Get("/", controllers.AdminSponsorsList(deps.Sponsors, logg))
				r.Post("/", controllers.AdminSponsorCreate(deps.Sponsors, cfg.Media, logg))
				r.Put("/{sponsorId}", controllers.AdminSponsorUpdate(deps.Sponsors, cfg.Media, logg))
				r.Delete("/{sponsorId}", controllers.AdminSponsorDelete(deps.Sponsors, logg))
			})
		})
	})

	return r
}
