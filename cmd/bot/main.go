// Entry point: loads configuration, assembles the application and runs
// the bot, the HTTP API and the scheduler until SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/app"
	"nomercy-bot/internal/config"
)

func main() {
	setupLogging()

	// .env is optional; in Docker the environment is passed directly.
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Info("=== NoMercy bot starting ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.DB.Close()

	application.Scheduler.Start(ctx)
	defer application.Scheduler.Stop()

	go func() {
		if err := application.Bot.Start(ctx); err != nil {
			log.WithError(err).Error("Bot stopped with error")
			cancel()
		}
	}()

	if cfg.FeatureWebAPIEnabled {
		go func() {
			if err := application.API.Listen(); err != nil {
				log.WithError(err).Error("HTTP API stopped with error")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info("=== NoMercy bot is running ===")

	select {
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down...", sig)
	case <-ctx.Done():
	}

	cancel()
	if cfg.FeatureWebAPIEnabled {
		if err := application.API.Shutdown(); err != nil {
			log.WithError(err).Warn("HTTP API shutdown failed")
		}
	}

	log.Info("=== NoMercy bot stopped ===")
}

// setupLogging sets the log format before config is available.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
