package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/flockoff-labs/flockoff/internal/config"
	"github.com/flockoff-labs/flockoff/internal/launcher"
	"github.com/flockoff-labs/flockoff/internal/utils/logger"
)

func main() {
	// .env is optional; the environment itself may carry the config
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init(false)
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	logger.Init(cfg.LauncherEnvConfig.LoggingDebug)

	launchCfg := launcher.FromEnv(&cfg.LauncherEnvConfig)
	code, err := launcher.Launch(context.Background(), launchCfg)
	if err != nil {
		var cfgErr *launcher.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Fatal().Strs("missing", cfgErr.Missing).Msg("configuration incomplete, miner not started")
		}
		var spawnErr *launcher.SpawnError
		if errors.As(err, &spawnErr) {
			log.Fatal().Err(spawnErr.Err).Str("bin", spawnErr.Bin).Msg("could not start miner")
		}
		log.Fatal().Err(err).Msg("launch failed")
	}

	os.Exit(code)
}
