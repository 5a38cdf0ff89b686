package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"leaf-health-bot/config"
	"leaf-health-bot/internal/container"
	"leaf-health-bot/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to create logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize container")
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("close container")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	if cfg.HTTPEnabled() {
		server := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           c.HTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		run("http", func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		run("http shutdown", func() error {
			<-ctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			return server.Shutdown(shutdownCtx)
		})
	}

	if cfg.BotEnabled() {
		bot, err := c.NewBot()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create bot")
		}
		run("bot", func() error {
			log.Info().Msg("bot is running")
			return bot.Run(ctx)
		})
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		log.Error().Err(err).Msg("stopped with error")
	}
	log.Info().Msg("stopped")
}
