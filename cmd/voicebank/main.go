package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"voicebank/config"
	"voicebank/internal/application"
	"voicebank/internal/auth"
	"voicebank/internal/bank"
	"voicebank/internal/infra/audio"
	"voicebank/internal/infra/openai"
	"voicebank/internal/infra/pushover"
	"voicebank/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	repo, cleanup, err := openRepository(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("opening storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// A missing or corrupt state file degrades to a fresh empty state;
	// this is a demo system and startup must never fail on bad state.
	snap, err := repo.Load(ctx)
	if err != nil {
		logger.Warn("loading state failed, starting empty", "error", err)
		snap = store.Empty()
	}

	ledger := bank.NewLedger()
	ledger.Restore(snap.Accounts)

	verifier := auth.NewPresenceVerifier()
	verifier.Restore(snap.Profiles)

	if !ledger.Exists(cfg.Bank.UserID) {
		balance, err := decimal.NewFromString(cfg.Bank.InitialBalance)
		if err != nil {
			logger.Warn("invalid initial balance, using 10000", "value", cfg.Bank.InitialBalance)
			balance = decimal.NewFromInt(10000)
		}
		if err := ledger.CreateAccount(cfg.Bank.UserID, cfg.Bank.DefaultPIN, balance); err != nil {
			logger.Error("seeding account", "error", err)
			os.Exit(1)
		}
		logger.Info("seeded account", "user", cfg.Bank.UserID, "balance", balance)
	}

	executor := bank.NewExecutor(ledger, cfg.Bank.Currency)

	var stt application.SpeechToText
	if cfg.OpenAI.APIKey != "" {
		stt = openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language)
	} else {
		stt = &application.NoopSTT{}
	}

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	persist := func(ctx context.Context) error {
		snap := store.Empty()
		snap.Accounts = ledger.Snapshot()
		snap.Profiles = verifier.Snapshot()
		return repo.Save(ctx, snap)
	}

	assistant := application.NewAssistant(
		createAudioSource(cfg, logger),
		stt,
		verifier,
		executor,
		notifier,
		logger,
		cfg.Auth.ProfileDir,
		persist,
	)

	logger.Info("starting voice banking assistant",
		"audio_source", cfg.Audio.Source,
		"storage", cfg.Storage.Driver,
		"user", cfg.Bank.UserID,
	)

	if err := assistant.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func openRepository(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.Repository, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	case "json":
		return store.NewJSONStore(cfg.Path), func() {}, nil
	default:
		logger.Warn("unknown storage driver, using json", "driver", cfg.Driver)
		return store.NewJSONStore(cfg.Path), func() {}, nil
	}
}

func createAudioSource(cfg *config.Config, logger *slog.Logger) application.AudioSource {
	switch cfg.Audio.Source {
	case "http":
		return audio.NewHTTPSource(cfg.Audio.HTTPAddr, cfg.Bank.UserID, cfg.Audio.AuthToken, logger)
	case "file":
		return audio.NewFileSource(cfg.Audio.FileDir, cfg.Bank.UserID)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.Bank.UserID, cfg.Audio.SampleRate, logger)
	default:
		logger.Warn("unknown audio source, using http", "source", cfg.Audio.Source)
		return audio.NewHTTPSource(cfg.Audio.HTTPAddr, cfg.Bank.UserID, cfg.Audio.AuthToken, logger)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
