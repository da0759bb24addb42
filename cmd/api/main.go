package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mfigueroa-dev/clubcore-backend/api/routes"
	"github.com/mfigueroa-dev/clubcore-backend/internal/attendance"
	"github.com/mfigueroa-dev/clubcore-backend/internal/auth"
	"github.com/mfigueroa-dev/clubcore-backend/internal/media"
	"github.com/mfigueroa-dev/clubcore-backend/internal/memberships"
	"github.com/mfigueroa-dev/clubcore-backend/internal/notifications"
	"github.com/mfigueroa-dev/clubcore-backend/internal/sponsors"
	"github.com/mfigueroa-dev/clubcore-backend/internal/staff"
	"github.com/mfigueroa-dev/clubcore-backend/internal/users"
	stripewebhook "github.com/mfigueroa-dev/clubcore-backend/internal/webhooks/stripe"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/auth/session"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/mailer"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/migrate"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/redis"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/storage/gcs"
	pkgstripe "github.com/mfigueroa-dev/clubcore-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	sesMailer, err := mailer.New(cfg.SES, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mailer", err)
		os.Exit(1)
	}

	notifier, err := notifications.NewService(notifications.ServiceParams{
		Mailer:  sesMailer,
		AppURL:  cfg.App.PublicURL,
		AppName: cfg.SES.FromName,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(gcsClient, cfg.Media, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	registrar, err := auth.NewRegistrar(auth.RegistrarParams{TxRunner: dbClient})
	if err != nil {
		logg.Error(context.Background(), "failed to create registrar", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		TokenRedeemer:  registrar,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookIdempotencyTTL, "stripe-webhooks")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		TransactionRunner: dbClient,
		Notifier:          notifier,
		Guard:             webhookGuard,
		Registration:      cfg.Registration,
		Logger:            logg,
		Subscriptions:     stripeClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	membershipsService, err := memberships.NewService(memberships.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create memberships service", err)
		os.Exit(1)
	}

	attendanceService, err := attendance.NewService(
		attendance.NewRepository(dbClient.DB()),
		users.NewRepository(dbClient.DB()),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create attendance service", err)
		os.Exit(1)
	}

	staffService, err := staff.NewService(staff.NewRepository(dbClient.DB()), mediaService)
	if err != nil {
		logg.Error(context.Background(), "failed to create staff service", err)
		os.Exit(1)
	}

	sponsorsService, err := sponsors.NewService(sponsors.NewRepository(dbClient.DB()), mediaService)
	if err != nil {
		logg.Error(context.Background(), "failed to create sponsors service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			GCS:             gcsClient,
			SessionVerifier: sessionManager,
			AuthService:     authService,
			Memberships:     membershipsService,
			Attendance:      attendanceService,
			Staff:           staffService,
			Sponsors:        sponsorsService,
			StripeClient:    stripeClient,
			StripeWebhooks:  webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
