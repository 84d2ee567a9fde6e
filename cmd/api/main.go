package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/parcelhub/parcelhub-backend/api/routes"
	"github.com/parcelhub/parcelhub-backend/internal/couriers"
	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/locations"
	"github.com/parcelhub/parcelhub-backend/internal/notify"
	"github.com/parcelhub/parcelhub-backend/internal/otp"
	"github.com/parcelhub/parcelhub-backend/internal/packages"
	"github.com/parcelhub/parcelhub-backend/internal/stats"
	"github.com/parcelhub/parcelhub-backend/pkg/chat"
	"github.com/parcelhub/parcelhub-backend/pkg/config"
	"github.com/parcelhub/parcelhub-backend/pkg/db"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/mail"
	"github.com/parcelhub/parcelhub-backend/pkg/migrate"
	"github.com/parcelhub/parcelhub-backend/pkg/qr"
	"github.com/parcelhub/parcelhub-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	gormDB := dbClient.DB()
	packagesRepo := packages.NewRepository(gormDB)
	historyRepo := history.NewRepository(gormDB)
	notifyRepo := notify.NewRepository(gormDB)
	otpRepo := otp.NewRepository(gormDB)
	couriersRepo := couriers.NewRepository(gormDB)
	locationsRepo := locations.NewRepository(gormDB)

	notifyParams := notify.ServiceParams{
		Repo:            notifyRepo,
		HistoryRepo:     historyRepo,
		ChatLink:        chat.DeepLink,
		Logger:          logg,
		ProviderTimeout: cfg.Mail.Timeout,
	}
	if cfg.Mail.APIKey != "" {
		mailClient, err := mail.NewClient(cfg.Mail.APIKey,
			mail.WithBaseURL(cfg.Mail.BaseURL),
			mail.WithFrom(cfg.Mail.DefaultFrom),
			mail.WithHTTPClient(&http.Client{Timeout: cfg.Mail.Timeout}),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create mail client", err)
			os.Exit(1)
		}
		notifyParams.MailClient = mailClient
	} else {
		logg.Warn(context.Background(), "mail provider not configured; email notifications will be skipped")
	}
	if cfg.Chat.APIKey != "" {
		chatClient, err := chat.NewClient(cfg.Chat.APIKey,
			chat.WithBaseURL(cfg.Chat.BaseURL),
			chat.WithSenderPhone(cfg.Chat.SenderPhone),
			chat.WithHTTPClient(&http.Client{Timeout: cfg.Chat.Timeout}),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create chat client", err)
			os.Exit(1)
		}
		notifyParams.ChatClient = chatClient
	} else {
		logg.Warn(context.Background(), "chat provider not configured; chat notifications fall back to manual links")
	}

	notifyService, err := notify.NewService(notifyParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	otpService, err := otp.NewService(otp.ServiceParams{
		Repo:        otpRepo,
		HistoryRepo: historyRepo,
		Notifier:    notifyService,
		Tx:          dbClient,
		Config:      cfg.OTP,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pickup code service", err)
		os.Exit(1)
	}

	couriersService, err := couriers.NewService(couriersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create courier service", err)
		os.Exit(1)
	}
	locationsService, err := locations.NewService(locationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create location service", err)
		os.Exit(1)
	}

	packagesService, err := packages.NewService(packages.ServiceParams{
		Repo:        packagesRepo,
		HistoryRepo: historyRepo,
		OTPService:  otpService,
		Notifier:    notifyService,
		Couriers:    couriersService,
		Locations:   locationsService,
		QR: qr.NewClient(
			qr.WithBaseURL(cfg.QR.BaseURL),
			qr.WithImageSize(cfg.QR.ImageSize),
			qr.WithHTTPClient(&http.Client{Timeout: cfg.QR.Timeout}),
		),
		Tx:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create package service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(gormDB, packagesRepo, otpService)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DBPinger:  dbClient,
			Redis:     redisClient,
			Packages:  packagesService,
			Couriers:  couriersService,
			Locations: locationsService,
			History:   historyRepo,
			Notify:    notifyService,
			Stats:     statsService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "server shutdown error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
