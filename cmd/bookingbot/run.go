package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/bogdankol/telrgam-bot-calendar/internal/adapter"
	"github.com/bogdankol/telrgam-bot-calendar/internal/availability"
	"github.com/bogdankol/telrgam-bot-calendar/internal/calendar"
	"github.com/bogdankol/telrgam-bot-calendar/internal/commit"
	"github.com/bogdankol/telrgam-bot-calendar/internal/concurrency"
	"github.com/bogdankol/telrgam-bot-calendar/internal/config"
	"github.com/bogdankol/telrgam-bot-calendar/internal/flow"
	"github.com/bogdankol/telrgam-bot-calendar/internal/interval"
	"github.com/bogdankol/telrgam-bot-calendar/internal/record"
	"github.com/bogdankol/telrgam-bot-calendar/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the booking bot",
	Long:  `Starts the Telegram long-poll loop, the availability engine against the configured Google calendars, and the session sweeper.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}
		if err := validateRunConfig(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		lockTimeout, err := config.DurationOrDefault(cfg.Store.LockTimeout, config.DefaultStoreLockTimeout)
		if err != nil {
			return err
		}
		lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
		if err != nil {
			return err
		}
		instanceLock, err := record.NewInstanceLock(cfg.Store.DataDir, record.InstanceLockConfig{
			Timeout:  lockTimeout,
			Retry:    lockRetry,
			MaxRetry: cfg.Store.LockMaxRetry,
		})
		if err != nil {
			return err
		}
		defer instanceLock.Unlock()

		loc, err := time.LoadLocation(cfg.Calendar.Timezone)
		if err != nil {
			return fmt.Errorf("load timezone %q: %w", cfg.Calendar.Timezone, err)
		}

		meetingDuration, err := config.DurationOrDefault(cfg.Schedule.MeetingDuration, config.DefaultScheduleMeetingDuration)
		if err != nil {
			return err
		}
		meetingGap, err := config.DurationOrDefault(cfg.Schedule.MeetingGap, config.DefaultScheduleMeetingGap)
		if err != nil {
			return err
		}
		upcomingHorizon, err := config.DurationOrDefault(cfg.Booking.UpcomingHorizon, config.DefaultBookingUpcomingHorizon)
		if err != nil {
			return err
		}
		idleTTL, err := config.DurationOrDefault(cfg.Session.IdleTTL, config.DefaultSessionIdleTTL)
		if err != nil {
			return err
		}

		gcal, err := calendar.NewGoogleClient(ctx, cfg.Calendar.ClientEmail, cfg.Calendar.PrivateKey, cfg.Calendar.Timezone)
		if err != nil {
			return fmt.Errorf("init google calendar: %w", err)
		}

		calendarIDs := []string{cfg.Calendar.PrimaryID}
		if cfg.Calendar.WorkID != "" {
			calendarIDs = append(calendarIDs, cfg.Calendar.WorkID)
		}

		engine := availability.NewEngine(gcal, availability.Config{
			CalendarIDs: calendarIDs,
			Grid: interval.Grid{
				WorkStartHour: cfg.Schedule.WorkStartHour,
				WorkEndHour:   cfg.Schedule.WorkEndHour,
				SlotDuration:  meetingDuration,
				Gap:           meetingGap,
				MaxPerDay:     cfg.Schedule.MaxPerDay,
			},
			Location:       loc,
			DaysAhead:      cfg.Schedule.DaysAhead,
			MinDays:        cfg.Schedule.MinDays,
			MaxConcurrency: cfg.Schedule.MaxConcurrency,
		})

		bookingLog, err := record.NewLog(cfg.Store.DataDir)
		if err != nil {
			return fmt.Errorf("init booking log: %w", err)
		}

		var notifier commit.Notifier
		if cfg.Notifier.BotToken != "" && cfg.Notifier.AdminID != 0 {
			adminNotifier, err := adapter.NewAdminNotifier(cfg.Notifier.BotToken, cfg.Notifier.AdminID)
			if err != nil {
				return fmt.Errorf("init admin notifier: %w", err)
			}
			notifier = adminNotifier
		} else {
			slog.Warn("Admin notifications disabled, notifier bot token or admin id missing")
		}

		committer := commit.NewCommitter(engine, gcal, notifier, bookingLog, commit.Config{
			PrimaryCalendarID: cfg.Calendar.PrimaryID,
			OfficeAddress:     cfg.Booking.OfficeAddress,
		})

		registry := session.NewRegistry()

		var machine *flow.Machine
		tg := adapter.NewTelegramAdapter(cfg.Telegram.BotToken, func(evtCtx context.Context, evt flow.Event) {
			concurrency.SafeGo(func() {
				if err := machine.HandleEvent(evtCtx, evt); err != nil {
					slog.Error("Event handling failed", "client_id", evt.ClientID, "kind", evt.Kind, "error", err)
				}
			}, nil)
		}, cfg.Telegram.UpdateTimeout)

		machine = flow.NewMachine(registry, engine, committer, tg, gcal, flow.Config{
			PrimaryCalendarID: cfg.Calendar.PrimaryID,
			OfficeAddress:     cfg.Booking.OfficeAddress,
			UpcomingHorizon:   upcomingHorizon,
			Location:          loc,
		})

		if err := tg.Start(ctx); err != nil {
			return fmt.Errorf("start telegram adapter: %w", err)
		}

		// Abandoned sessions are swept after the idle TTL instead of
		// living forever.
		sweeper := cron.New()
		if _, err := sweeper.AddFunc(cfg.Session.SweepSchedule, func() {
			if evicted := registry.EvictIdle(idleTTL); evicted > 0 {
				slog.Info("Idle sessions evicted", "count", evicted, "remaining", registry.Len())
			}
		}); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
		sweeper.Start()

		slog.Info("Booking bot started",
			"timezone", cfg.Calendar.Timezone,
			"calendars", len(calendarIDs),
			"work_window", fmt.Sprintf("%02d:00-%02d:00", cfg.Schedule.WorkStartHour, cfg.Schedule.WorkEndHour))

		<-ctx.Done()

		slog.Info("Shutting down")
		sweeperCtx := sweeper.Stop()
		<-sweeperCtx.Done()
		if err := tg.Stop(context.Background()); err != nil {
			slog.Warn("Telegram adapter stop failed", "error", err)
		}
		return nil
	},
}

func validateRunConfig(cfg *config.Config) error {
	missing := []string{}
	if cfg.Telegram.BotToken == "" {
		missing = append(missing, "telegram.bot_token")
	}
	if cfg.Calendar.ClientEmail == "" {
		missing = append(missing, "calendar.client_email")
	}
	if cfg.Calendar.PrivateKey == "" {
		missing = append(missing, "calendar.private_key")
	}
	if cfg.Calendar.PrimaryID == "" {
		missing = append(missing, "calendar.primary_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %v", missing)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
