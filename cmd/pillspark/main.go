// PillSpark is a WhatsApp medicine reminder bot: users register daily
// medicine schedules over chat, receive timezone-correct reminders with
// Taken/Snooze/Skip buttons, and unanswered reminders escalate to a guardian.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pillsparkai/pillspark-bot/internal/api"
	"github.com/pillsparkai/pillspark-bot/internal/escalation"
	"github.com/pillsparkai/pillspark-bot/internal/flow"
	"github.com/pillsparkai/pillspark-bot/internal/i18n"
	"github.com/pillsparkai/pillspark-bot/internal/messaging"
	"github.com/pillsparkai/pillspark-bot/internal/schedule"
	"github.com/pillsparkai/pillspark-bot/internal/store"
	"github.com/pillsparkai/pillspark-bot/internal/util"
	"github.com/pillsparkai/pillspark-bot/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for PillSpark state data
	DefaultStateDir = "/var/lib/pillspark"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "pillspark.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if err := run(config, flags); err != nil {
		slog.Error("PillSpark failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("PillSpark exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL     string
	StateDir        string
	APIAddr         string
	Timezone        string
	AccessToken     string
	PhoneNumberID   string
	APIBaseURL      string
	VerifyToken     string
	AppSecret       string
	BannerImageURL  string
	GraceWindow     time.Duration
	SweepInterval   time.Duration
	SnoozeDelay     time.Duration
	EscalationOn    bool
	TwilioSID       string
	TwilioAuthToken string
	TwilioFrom      string
}

// Flags holds command line flag values
type Flags struct {
	stateDir      *string
	dbDSN         *string
	apiAddr       *string
	timezone      *string
	graceWindow   *time.Duration
	sweepInterval *time.Duration
	snoozeDelay   *time.Duration
	bannerImage   *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        util.GetenvOrDefault("PILLSPARK_STATE_DIR", DefaultStateDir),
		APIAddr:         util.GetenvOrDefault("API_ADDR", api.DefaultAddr),
		Timezone:        util.GetenvOrDefault("BOT_TIMEZONE", schedule.DefaultTimezone),
		AccessToken:     os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		APIBaseURL:      os.Getenv("WHATSAPP_API_BASE_URL"),
		VerifyToken:     os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		AppSecret:       os.Getenv("WHATSAPP_APP_SECRET"),
		BannerImageURL:  os.Getenv("BANNER_IMAGE_URL"),
		GraceWindow:     util.ParseDurationEnv("REMINDER_GRACE_WINDOW", escalation.DefaultGraceWindow),
		SweepInterval:   util.ParseDurationEnv("ESCALATION_SWEEP_INTERVAL", escalation.DefaultSweepInterval),
		SnoozeDelay:     util.ParseDurationEnv("SNOOZE_DELAY", flow.DefaultSnoozeDelay),
		EscalationOn:    util.ParseBoolEnv("ESCALATION_ENABLED", true),
		TwilioSID:       os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken: os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:      os.Getenv("TWILIO_FROM_NUMBER"),
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", os.Getenv("DATABASE_URL") != "",
		"PILLSPARK_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"BOT_TIMEZONE", config.Timezone,
		"WHATSAPP_ACCESS_TOKEN_SET", config.AccessToken != "",
		"WHATSAPP_PHONE_NUMBER_ID_SET", config.PhoneNumberID != "",
		"WHATSAPP_APP_SECRET_SET", config.AppSecret != "",
		"ESCALATION_ENABLED", config.EscalationOn,
		"TWILIO_CONFIGURED", config.TwilioSID != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for PillSpark data (overrides $PILLSPARK_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		timezone:      flag.String("timezone", config.Timezone, "IANA timezone for reminder triggers (overrides $BOT_TIMEZONE)"),
		graceWindow:   flag.Duration("grace-window", config.GraceWindow, "how long a reminder may stay unanswered (overrides $REMINDER_GRACE_WINDOW)"),
		sweepInterval: flag.Duration("sweep-interval", config.SweepInterval, "escalation scan interval (overrides $ESCALATION_SWEEP_INTERVAL)"),
		snoozeDelay:   flag.Duration("snooze-delay", config.SnoozeDelay, "snooze re-fire delay (overrides $SNOOZE_DELAY)"),
		bannerImage:   flag.String("banner-image", config.BannerImageURL, "image URL sent with the first greeting (overrides $BANNER_IMAGE_URL)"),
	}

	flag.Parse()

	// A custom state directory moves the default SQLite file along with it.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"timezone", *flags.timezone,
		"graceWindow", *flags.graceWindow,
		"sweepInterval", *flags.sweepInterval,
		"snoozeDelay", *flags.snoozeDelay)

	return flags
}

// ensureDirectoriesExist creates the state directory for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	return os.MkdirAll(stateDir, 0755)
}

// buildStore opens the backend matching the DSN type.
func buildStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// run wires all modules together and serves until interrupted.
func run(config Config, flags Flags) error {
	st, err := buildStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	waOpts := []whatsapp.Option{
		whatsapp.WithAccessToken(config.AccessToken),
		whatsapp.WithPhoneNumberID(config.PhoneNumberID),
	}
	if config.APIBaseURL != "" {
		waOpts = append(waOpts, whatsapp.WithBaseURL(config.APIBaseURL))
	}
	waClient, err := whatsapp.NewClient(waOpts...)
	if err != nil {
		return err
	}
	msgService := messaging.NewWhatsAppService(waClient)

	loc, err := time.LoadLocation(*flags.timezone)
	if err != nil {
		return err
	}
	registry := schedule.NewRegistry(schedule.WithLocation(loc))
	defer registry.Stop()

	timer := flow.NewSimpleTimer()
	defer timer.Stop()

	catalog := i18n.NewCatalog()
	dispatcher := flow.NewDispatcher(st, msgService, registry, timer, catalog,
		flow.WithSnoozeDelay(*flags.snoozeDelay))

	var engineOpts []flow.Option
	if *flags.bannerImage != "" {
		engineOpts = append(engineOpts, flow.WithBannerImage(*flags.bannerImage))
	}
	engine := flow.NewEngine(st, msgService, registry, dispatcher, catalog, engineOpts...)

	armed, err := dispatcher.RestoreAll()
	if err != nil {
		return err
	}
	slog.Info("Reminder schedules restored", "armed", armed, "timezone", loc.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.EscalationOn {
		monitorOpts := []escalation.Option{
			escalation.WithGraceWindow(*flags.graceWindow),
			escalation.WithSweepInterval(*flags.sweepInterval),
		}
		if config.TwilioSID != "" && config.TwilioAuthToken != "" && config.TwilioFrom != "" {
			sms, err := messaging.NewTwilioService(
				messaging.WithAccountSID(config.TwilioSID),
				messaging.WithAuthToken(config.TwilioAuthToken),
				messaging.WithFromNumber(config.TwilioFrom),
			)
			if err != nil {
				return err
			}
			monitorOpts = append(monitorOpts, escalation.WithSMSSender(sms))
			slog.Info("Guardian alerts will also go out over SMS")
		}
		monitor := escalation.NewMonitor(st, msgService, catalog, monitorOpts...)
		go monitor.Run(ctx)
	} else {
		slog.Warn("Escalation monitor disabled by configuration")
	}

	server := api.NewServer(st, msgService, registry, engine,
		api.WithAddr(*flags.apiAddr),
		api.WithVerifyToken(config.VerifyToken),
		api.WithAppSecret(config.AppSecret))
	return server.Run(ctx)
}
