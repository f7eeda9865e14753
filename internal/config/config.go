package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Telegram TelegramConfig `koanf:"telegram"`
	Notifier NotifierConfig `koanf:"notifier"`
	Calendar CalendarConfig `koanf:"calendar"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Booking  BookingConfig  `koanf:"booking"`
	Session  SessionConfig  `koanf:"session"`
	Store    StoreConfig    `koanf:"store"`
}

type ServerConfig struct {
	LogLevel string `koanf:"log_level"`
}

type TelegramConfig struct {
	BotToken      string `koanf:"bot_token"`
	UpdateTimeout int    `koanf:"update_timeout"`
}

// NotifierConfig drives the separate admin-notification bot. Notifier
// failures never affect booking outcomes.
type NotifierConfig struct {
	BotToken string `koanf:"bot_token"`
	AdminID  int64  `koanf:"admin_id"`
}

type CalendarConfig struct {
	ClientEmail string `koanf:"client_email"`
	PrivateKey  string `koanf:"private_key"`
	PrimaryID   string `koanf:"primary_id"`
	WorkID      string `koanf:"work_id"`
	Timezone    string `koanf:"timezone"`
}

// ScheduleConfig is the fixed slot-grid configuration. Values are read
// once at startup, never derived at runtime.
type ScheduleConfig struct {
	WorkStartHour   int    `koanf:"work_start_hour"`
	WorkEndHour     int    `koanf:"work_end_hour"`
	MeetingDuration string `koanf:"meeting_duration"`
	MeetingGap      string `koanf:"meeting_gap"`
	MaxPerDay       int    `koanf:"max_per_day"`
	DaysAhead       int    `koanf:"days_ahead"`
	MinDays         int    `koanf:"min_days"`
	MaxConcurrency  int    `koanf:"max_concurrency"`
}

type BookingConfig struct {
	OfficeAddress   string `koanf:"office_address"`
	UpcomingHorizon string `koanf:"upcoming_horizon"`
}

type SessionConfig struct {
	IdleTTL       string `koanf:"idle_ttl"`
	SweepSchedule string `koanf:"sweep_schedule"`
}

type StoreConfig struct {
	DataDir      string `koanf:"data_dir"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

const (
	DefaultServerLogLevel          = "info"
	DefaultTelegramUpdateTimeout   = 60
	DefaultCalendarTimezone        = "Europe/Kiev"
	DefaultScheduleWorkStartHour   = 11
	DefaultScheduleWorkEndHour     = 19
	DefaultScheduleMeetingDuration = "60m"
	DefaultScheduleMeetingGap      = "0m"
	DefaultScheduleMaxPerDay       = 8
	DefaultScheduleDaysAhead       = 30
	DefaultScheduleMinDays         = 10
	DefaultScheduleMaxConcurrency  = 5
	DefaultBookingUpcomingHorizon  = "336h" // two weeks
	DefaultSessionIdleTTL          = "30m"
	DefaultSessionSweepSchedule    = "@every 5m"
	DefaultStoreLockTimeout        = "30s"
	DefaultStoreLockRetry          = "100ms"
	DefaultStoreLockMaxRetry       = 300
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.log_level":          DefaultServerLogLevel,
		"telegram.update_timeout":   DefaultTelegramUpdateTimeout,
		"calendar.timezone":         DefaultCalendarTimezone,
		"schedule.work_start_hour":  DefaultScheduleWorkStartHour,
		"schedule.work_end_hour":    DefaultScheduleWorkEndHour,
		"schedule.meeting_duration": DefaultScheduleMeetingDuration,
		"schedule.meeting_gap":      DefaultScheduleMeetingGap,
		"schedule.max_per_day":      DefaultScheduleMaxPerDay,
		"schedule.days_ahead":       DefaultScheduleDaysAhead,
		"schedule.min_days":         DefaultScheduleMinDays,
		"schedule.max_concurrency":  DefaultScheduleMaxConcurrency,
		"booking.upcoming_horizon":  DefaultBookingUpcomingHorizon,
		"session.idle_ttl":          DefaultSessionIdleTTL,
		"session.sweep_schedule":    DefaultSessionSweepSchedule,
		"store.data_dir":            filepath.Join(os.Getenv("HOME"), ".bookingbot"),
		"store.lock_timeout":        DefaultStoreLockTimeout,
		"store.lock_retry":          DefaultStoreLockRetry,
		"store.lock_max_retry":      DefaultStoreLockMaxRetry,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".bookingbot", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("BOOKING_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BOOKING_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	if token := os.Getenv("TELEGRAM_EVENTS_BOT_TOKEN"); token != "" && cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = token
	}
	if token := os.Getenv("TELEGRAM_NOTIFICATION_BOT_TOKEN"); token != "" && cfg.Notifier.BotToken == "" {
		cfg.Notifier.BotToken = token
	}
	if mail := os.Getenv("GOOGLE_CLIENT_EMAIL"); mail != "" && cfg.Calendar.ClientEmail == "" {
		cfg.Calendar.ClientEmail = mail
	}
	if key := os.Getenv("GOOGLE_PRIVATE_KEY"); key != "" && cfg.Calendar.PrivateKey == "" {
		cfg.Calendar.PrivateKey = key
	}

	// Service-account keys arrive with escaped newlines when passed via env.
	cfg.Calendar.PrivateKey = strings.ReplaceAll(cfg.Calendar.PrivateKey, `\n`, "\n")

	return &cfg, nil
}
