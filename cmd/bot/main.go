package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/radarlink/radarlink/internal/adapter"
	"github.com/radarlink/radarlink/internal/bot"
	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/crypto"
	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/server"
	"github.com/radarlink/radarlink/internal/service"
	"github.com/radarlink/radarlink/internal/store"
	"github.com/radarlink/radarlink/internal/transport"
	"github.com/radarlink/radarlink/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const shutdownTimeout = 5 * time.Second

func main() {
	printBuildInfo()

	// local overrides from a .env file; absence is not an error
	_ = godotenv.Load()

	log := logger.NewLogger("radarlink-bot")

	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if cfg.App.Version == "" {
		cfg.App.Version = buildVersion
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	db, err := store.NewConnect(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Err(closeErr).Msg("error closing database")
		}
	}()

	if err = db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	var credentialKey []byte
	if cfg.App.CredentialKey != "" {
		if credentialKey, err = hex.DecodeString(cfg.App.CredentialKey); err != nil {
			log.Fatal().Err(err).Msg("error decoding credential key")
		}
	}
	codec, err := crypto.NewCredentialCodec(credentialKey)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating credential codec")
	}

	repos := store.NewRepositories(db, codec, log)

	game, err := adapter.NewGameClient(cfg.API, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating game api client")
	}

	chat, err := transport.NewLongPoll(cfg.Bot, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating chat transport")
	}

	dns := config.NewStaticDNSList(nil)
	if cfg.Storage.Configs.DNSFilePath != "" {
		if dns, err = config.NewDNSList(cfg.Storage.Configs.DNSFilePath); err != nil {
			log.Fatal().Err(err).Msg("error loading dns profiles")
		}
	}

	services := service.NewServices(repos, game, chat, chat, cfg, log)
	router := bot.NewRouter(chat, services, dns, cfg.App, log)

	ops := server.NewOpsServer(services.Users, cfg.Ops, log)
	if ops != nil {
		go ops.Run()
	}

	if janitor := workers.NewJanitor(cfg.Storage.Configs, cfg.Workers, log); janitor != nil {
		workers.NewWorkers(janitor).Run(ctx)
	}

	log.Info().Str("version", cfg.App.Version).Msg("radarlink started")

	if err = router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Err(err).Msg("update loop stopped")
	}

	if ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		ops.Shutdown(shutdownCtx)
	}

	log.Info().Msg("radarlink stopped")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
