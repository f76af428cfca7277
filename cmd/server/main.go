package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/internal/accounts"
	"github.com/hugh/hostel-hunter/internal/api"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/avatars"
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/database"
	"github.com/hugh/hostel-hunter/internal/intake"
	"github.com/hugh/hostel-hunter/internal/mail"
	"github.com/hugh/hostel-hunter/internal/profiles"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/tasks"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/hugh/hostel-hunter/internal/web"
	"github.com/hugh/hostel-hunter/pkg/config"
	"github.com/hugh/hostel-hunter/pkg/crypto"
	"github.com/hugh/hostel-hunter/pkg/queue"
	"github.com/hugh/hostel-hunter/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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

	logger.Info("starting hostel-hunter server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if cfg.Server.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Redis is optional: without it rate limits, CSRF tokens and OAuth
	// state live in process memory and queued mail is unavailable.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		_ = redisClient.Close()
		redisClient = nil
	}

	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
	}

	sender := mailSender(&cfg.Mail, asynqClient, logger)
	mailer := mail.NewMailer(mail.MustRenderer(), sender)

	cipher, err := crypto.NewCipher(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create cipher", "error", err)
		os.Exit(1)
	}
	if cfg.Encryption.Key == "" {
		logger.Warn("ENCRYPTION_KEY not set, using generated key - stored phone numbers will be unreadable after restart")
	}

	avatarStore, err := avatars.New(context.Background(), &cfg.Avatars)
	if err != nil {
		logger.Error("failed to configure avatar storage", "error", err)
		os.Exit(1)
	}
	if avatarStore == nil {
		logger.Info("avatar uploads disabled")
	}

	st := store.New(db)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	emailChanges := tokens.NewEmailChanges(st, mailer, cfg.Server.BaseURL, logger)
	invitations := tokens.NewInvitations(st, mailer, cfg.Server.BaseURL, logger)

	routerCfg := api.RouterConfig{
		DB:           db,
		Redis:        redisClient,
		Logger:       logger,
		JWTService:   jwtService,
		AuthService:  auth.NewService(st, jwtService),
		Accounts:     accounts.NewService(st, logger),
		Catalog:      catalog.NewService(st, logger),
		Intake:       intake.NewService(st, logger),
		Invitations:  invitations,
		EmailChanges: emailChanges,
		Profiles: profiles.NewService(st, profiles.Options{
			Emails:         emailChanges,
			Avatars:        avatarStore,
			Cipher:         cipher,
			MaxAvatarBytes: cfg.Avatars.MaxBytes,
		}, logger),
		Pages:          web.MustLoadPages(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
		SecureCookies:  !cfg.Server.IsDevelopment(),
		MaxAvatarBytes: cfg.Avatars.MaxBytes,
	}

	if cfg.Google.Enabled() {
		verifier := auth.NewGoogleVerifier(cfg.Google.ClientID)
		var states auth.StateStore = auth.NewMemoryStateStore()
		if redisClient != nil {
			states = auth.NewRedisStateStore(redisClient)
		}
		routerCfg.Google = verifier
		routerCfg.OAuth = auth.NewGoogleOAuthFlow(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, states, verifier)
		logger.Info("google sign-in enabled")
	}

	router := api.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		_ = asynqClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	database.Close(db)

	logger.Info("server stopped")
}

// mailSender picks the delivery path. "queue" falls back to the log when
// Redis is down so requests still complete.
func mailSender(cfg *config.MailConfig, client *asynq.Client, logger *slog.Logger) mail.Sender {
	switch cfg.Delivery {
	case "smtp":
		return mail.NewSMTPSender(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.From)
	case "queue":
		if client != nil {
			return tasks.NewQueueSender(client)
		}
		logger.Warn("MAIL_DELIVERY=queue but Redis is unavailable, logging mail instead")
	}
	return mail.NewLogSender(logger)
}
