package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/parcelhub/parcelhub-backend/internal/cron"
	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/locations"
	"github.com/parcelhub/parcelhub-backend/internal/notify"
	"github.com/parcelhub/parcelhub-backend/internal/otp"
	"github.com/parcelhub/parcelhub-backend/internal/packages"
	"github.com/parcelhub/parcelhub-backend/pkg/chat"
	"github.com/parcelhub/parcelhub-backend/pkg/config"
	"github.com/parcelhub/parcelhub-backend/pkg/db"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/mail"
	"github.com/parcelhub/parcelhub-backend/pkg/metrics"
	"github.com/parcelhub/parcelhub-backend/pkg/migrate"
	"github.com/parcelhub/parcelhub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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
	}

	notifyService, err := notify.NewService(notifyParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	locationsService, err := locations.NewService(locationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create location service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	sweepJob, err := cron.NewStorageExpiryJob(cron.StorageExpiryJobParams{
		Logger:        logg,
		DB:            dbClient,
		Reader:        packagesRepo,
		Notifier:      notifyService,
		Locations:     locationsService,
		Metrics:       metricsCollector,
		GraceDays:     cfg.Sweep.GraceDays,
		WarningWindow: cfg.Sweep.WarningWindow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create storage expiry job", err)
		os.Exit(1)
	}

	archiveJob, err := cron.NewArchiveJob(cron.ArchiveJobParams{
		Logger:    logg,
		DB:        dbClient,
		Reader:    packagesRepo,
		Retention: cfg.Archive.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create archive job", err)
		os.Exit(1)
	}

	otpPurgeJob, err := cron.NewOTPPurgeJob(cron.OTPPurgeJobParams{
		Logger:    logg,
		Purger:    otpRepo,
		Retention: cfg.Retention.OTPDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create otp purge job", err)
		os.Exit(1)
	}

	notificationRetentionJob, err := cron.NewNotificationRetentionJob(cron.NotificationRetentionJobParams{
		Logger:    logg,
		Pruner:    notifyRepo,
		Retention: cfg.Retention.NotificationDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Sweep.LockTTLOrphans)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, archiveJob, otpPurgeJob, notificationRetentionJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
