package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/crypto/cryptohelper"

	"github.com/dahlia/fedichatbot/core"
	"github.com/dahlia/fedichatbot/core/llm"
	"github.com/dahlia/fedichatbot/media"
	"github.com/dahlia/fedichatbot/platforms/matrix"
)

const version = "0.4.0"

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli}).
		With().Timestamp().Logger()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	ctx := context.Background()

	client, err := matrix.Connect(ctx, &config.Matrix, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Matrix login failed")
	}
	client.Log = log.With().Str("component", "mautrix").Logger()
	log.Info().Str("user_id", client.UserID.String()).Str("device_id", client.DeviceID.String()).Msg("Logged in")

	if config.Matrix.CryptoDBPath != "" {
		pickleKey := []byte(config.Matrix.PickleKey)
		if len(pickleKey) == 0 {
			pickleKey = []byte("fedichatbot-pickle-key")
		}
		helper, err := cryptohelper.NewCryptoHelper(client, pickleKey, config.Matrix.CryptoDBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create crypto helper")
		}
		if err := helper.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to init crypto")
		}
		client.Crypto = helper
		log.Info().Msg("End-to-end encryption initialized")
	} else {
		log.Warn().Msg("Crypto DB path not set; E2EE disabled")
	}

	provider, err := llm.New(ctx, config.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM provider")
	}

	var cache media.Cache
	if config.Cache.Path != "" {
		sqliteCache, err := media.OpenSQLiteCache(config.Cache.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", config.Cache.Path).Msg("Failed to open media cache")
		}
		defer sqliteCache.Close()
		cache = sqliteCache
	} else {
		cache = media.NewMemoryCache()
	}
	resolver := media.NewResolver(cache, matrix.NewFetcher(client), log.With().Str("component", "media").Logger())

	prompts, err := core.LoadPrompts(config.Bot.PromptDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load prompt templates")
	}

	var usage *core.UsageTracker
	if config.Usage.FilePath != "" {
		usage = core.NewUsageTracker(config.Usage.FilePath, log.With().Str("component", "usage").Logger())
		defer usage.ForceSave()
	}

	if config.Bot.Version == "" {
		config.Bot.Version = version
	}

	bot := core.NewBot(provider, resolver, prompts, &config.Bot, usage,
		log.With().Str("component", "bot").Logger())
	adapter := matrix.NewAdapter(client, bot, &config.Matrix,
		log.With().Str("component", "matrix").Logger())

	if err := adapter.Start(); err != nil {
		log.Fatal().Err(err).Msg("Sync loop terminated")
	}
}
