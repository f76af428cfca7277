package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/internal/database"
	"github.com/hugh/hostel-hunter/internal/mail"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/tasks"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/hugh/hostel-hunter/pkg/config"
	"github.com/hugh/hostel-hunter/pkg/queue"
	"github.com/hugh/hostel-hunter/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting hostel-hunter worker", "concurrency", cfg.Worker.Concurrency)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// The worker is the end of the queue, so it always delivers directly.
	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.Mail.Delivery == "smtp" || cfg.Mail.Delivery == "queue" {
		sender = mail.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}

	st := store.New(db)
	emailChanges := tokens.NewEmailChanges(st, mail.NewMailer(mail.MustRenderer(), sender), cfg.Server.BaseURL, logger)

	handler := tasks.NewHandler(sender, emailChanges, logger)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency, logger)

	scheduler, err := queue.NewScheduler(&cfg.Redis, cfg.Worker.PurgeCron, tasks.NewPurgeEmailChangesTask())
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		scheduler.Shutdown()
		os.Exit(1)
	}
	logger.Info("worker started, waiting for tasks...", "purge_cron", cfg.Worker.PurgeCron)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	logger.Info("worker stopped")
}
