package main

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/internal/database"
	"github.com/hugh/hostel-hunter/internal/mail"
	"github.com/hugh/hostel-hunter/internal/store"
	"github.com/hugh/hostel-hunter/internal/tasks"
	"github.com/hugh/hostel-hunter/pkg/config"
	"github.com/hugh/hostel-hunter/pkg/queue"
	"github.com/hugh/hostel-hunter/pkg/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// app is filled in by the root command before any subcommand runs.
var app struct {
	cfg    *config.Config
	log    *slog.Logger
	db     *gorm.DB
	store  *store.GormStore
	queue  *asynq.Client
	closed bool
}

var rootCmd = &cobra.Command{
	Use:   "hostelctl",
	Short: "Operator tools for hostel-hunter",
	Long: `hostelctl manages a hostel-hunter deployment from the command line.

Configuration is read the same way as the server: a .env file in the
working directory, then environment variables.

Examples:
  hostelctl migrate
  hostelctl seed
  hostelctl queue stats
  hostelctl admin create --email ops@example.com --password 'S3cretpass'
  hostelctl invite create --hostel sunrise-court-main-gate --name "Jane" --phone +254712345678`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return connect()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		disconnect()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

func connect() error {
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level := cfg.Server.LogLevel
	if verbose {
		level = "debug"
	}
	app.cfg = cfg
	app.log = util.NewLogger(cfg.Server.Env, level)

	db, err := database.Connect(&cfg.Database, app.log)
	if err != nil {
		return err
	}
	app.db = db
	app.store = store.New(db)
	return nil
}

func disconnect() {
	if app.closed {
		return
	}
	app.closed = true
	if app.queue != nil {
		_ = app.queue.Close()
	}
	if app.db != nil {
		database.Close(app.db)
	}
}

// mailer follows MAIL_DELIVERY like the server does.
func mailer() *mail.Mailer {
	var sender mail.Sender
	switch app.cfg.Mail.Delivery {
	case "smtp":
		m := app.cfg.Mail
		sender = mail.NewSMTPSender(m.Host, m.Port, m.Username, m.Password, m.From)
	case "queue":
		app.queue = queue.NewClient(&app.cfg.Redis)
		sender = tasks.NewQueueSender(app.queue)
	default:
		sender = mail.NewLogSender(app.log)
	}
	return mail.NewMailer(mail.MustRenderer(), sender)
}
