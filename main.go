package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raviprakash-14/scrapify/internal/bot"
	"github.com/raviprakash-14/scrapify/internal/catalog"
	"github.com/raviprakash-14/scrapify/internal/config"
	"github.com/raviprakash-14/scrapify/internal/pickup"
	"github.com/raviprakash-14/scrapify/internal/session"
	"github.com/raviprakash-14/scrapify/internal/storage"
	"github.com/raviprakash-14/scrapify/internal/valuation"
	"github.com/raviprakash-14/scrapify/internal/web"
	"github.com/raviprakash-14/scrapify/internal/wizard"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	logFileName     = "scrapify.log"
	janitorInterval = 5 * time.Minute
	pruneInterval   = time.Hour
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	config.LoadEnvFile()

	if missing := config.CheckRequiredConfig(); len(missing) > 0 {
		if config.IsInteractiveTerminal() {
			if !config.RunSetupWizard() {
				config.WaitOnWindows()
				os.Exit(1)
			}
		} else {
			config.FatalWithWait("missing required config: %s", strings.Join(missing, ", "))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		config.FatalWithWait("invalid config: %v", err)
	}

	// JOURNAL_STREAM is set by systemd when running as a service; journald
	// keeps the logs there.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			config.FatalWithWait("failed to open log file: %v", err)
		}
		defer logFile.Close()

		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
		fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
		log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))
		log.Info().Str("logFile", logFileName).Msg("logging to file")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gemini, err := valuation.NewGeminiEstimator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		config.FatalWithWait("failed to initialize gemini estimator: %v", err)
	}
	log.Info().Str("model", gemini.Model()).Msg("gemini estimator initialized")

	var (
		estimator valuation.Estimator = gemini
		store     storage.EstimateStore
	)
	if cfg.CacheEnabled {
		store, err = storage.Open(ctx, cfg.DatabaseURL, cfg.DBPath)
		if err != nil {
			config.FatalWithWait("failed to open estimate cache: %v", err)
		}
		defer store.Close()
		estimator = valuation.NewCachedEstimator(gemini, store, cfg.CacheSalt)
		log.Info().Msg("estimate caching enabled")
	}

	newWizard := func() *wizard.Wizard {
		return wizard.New(estimator, pickup.NewSimulatedScheduler(cfg.PickupDelay),
			wizard.WithLocation(cfg.Location),
			wizard.WithEstimateTimeout(cfg.EstimateTimeout),
		)
	}
	wizards := session.NewRegistry("wizards", func(string) *wizard.Wizard { return newWizard() })
	profiles := session.NewRegistry("profiles", func(string) *catalog.ProfileSession { return catalog.NewProfileSession() })
	server := web.NewServer(estimator, wizards, profiles)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx, cfg.Addr)
	})
	g.Go(func() error {
		wizards.RunJanitor(ctx, janitorInterval, cfg.SessionTTL)
		return nil
	})
	g.Go(func() error {
		profiles.RunJanitor(ctx, janitorInterval, cfg.SessionTTL)
		return nil
	})
	if store != nil {
		g.Go(func() error {
			storage.RunPruner(ctx, store, pruneInterval, storage.DefaultEstimateMaxAge)
			return nil
		})
	}

	if cfg.BotEnabled() {
		tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			config.FatalWithWait("failed to initialize telegram bot: %v", err)
		}
		tg.Debug = false
		log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")
		bot.RegisterCommands(tg)

		b := bot.NewBot(tg, newWizard)
		g.Go(func() error {
			b.Sessions().RunJanitor(ctx, janitorInterval, cfg.SessionTTL)
			return nil
		})
		g.Go(func() error {
			return runBot(ctx, tg, b)
		})
	} else {
		log.Info().Msg("BOT_TOKEN not set, telegram bot disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer b.Shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}
