package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"notify-relay/internal/bot"
	"notify-relay/internal/config"
	"notify-relay/internal/logging"
	"notify-relay/internal/repository"
	"notify-relay/internal/service"
)

// sweepTimeout bounds a single sweep run.
const sweepTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "console", os.Stderr)
		boot.Fatal().Err(err).Msg("config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bot stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)

	telegramBot, err := bot.New(&cfg, userRepo, logging.Component(log, "bot"))
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	sweeper := service.NewSweeper(userRepo, telegramBot, cfg.SendRatePerSec, logging.Component(log, "sweeper"))

	scheduler := service.NewSchedulerService(time.Local, logging.NewCronLogger(log))
	if _, err := scheduler.ScheduleInterval(cfg.SweepInterval, cfg.SweepInitialDelay, func() {
		jobCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
		defer cancel()
		if _, err := sweeper.Run(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("sweep")
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info().Dur("sweep_interval", cfg.SweepInterval).Msg("notification relay bot started")
	err = telegramBot.Serve(ctx, func() { notifySystemd(log, daemon.SdNotifyReady) })
	notifySystemd(log, daemon.SdNotifyStopping)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// notifySystemd sends state to the service manager. Outside systemd it is a no-op.
func notifySystemd(log zerolog.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Warn().Err(err).Str("state", state).Msg("sd_notify")
	}
}
