package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/flockoff-labs/flockoff/internal/config"
	"github.com/flockoff-labs/flockoff/internal/health"
	"github.com/flockoff-labs/flockoff/internal/hub"
	"github.com/flockoff-labs/flockoff/internal/miner"
	"github.com/flockoff-labs/flockoff/internal/scheduler"
	"github.com/flockoff-labs/flockoff/internal/utils/logger"
	"github.com/flockoff-labs/flockoff/pkg/chain"
	"github.com/flockoff-labs/flockoff/pkg/signature"
)

func main() {
	netuid := flag.Int("netuid", 98, "the subnet uid")
	hfRepoID := flag.String("hf_repo_id", "", "the hugging face repo id, org/user plus repo name")
	walletName := flag.String("wallet.name", "default", "bittensor wallet name")
	walletHotkey := flag.String("wallet.hotkey", "default", "bittensor wallet hotkey")
	subtensorNetwork := flag.String("subtensor.network", "test", "subtensor network to connect to")
	loggingDebug := flag.Bool("logging.debug", false, "sets log level to debug")
	evalDataDir := flag.String("eval-data-dir", "data/eval_data", "directory holding the eval data")
	evalFile := flag.String("eval-file", "data.jsonl", "name of the eval data file inside the dataset")
	submissionDir := flag.String("submission-dir", "data/submissions", "directory submissions are written to")
	submissionSize := flag.Int("submission-size", 0, "cap the submission at this many rows (0 = all)")
	runAt := flag.String("run-at", "", "run every day at this time (24h), e.g. 14:30")
	flag.Parse()

	logger.Init(*loggingDebug)
	// the Kami sidecar owns the chain connection; the network name is
	// recorded here for the operator, not dialed directly
	log.Info().
		Str("subtensor_network", *subtensorNetwork).
		Int("netuid", *netuid).
		Msg("Starting miner...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	if *hfRepoID == "" {
		log.Fatal().Msg("--hf_repo_id is required")
	}

	k, err := chain.NewKami(&cfg.KamiEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init kami client")
	}

	hubClient, err := hub.NewClient(&cfg.HubEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init hub client")
	}

	keypair, err := signature.LoadKeypairFromWallet(*walletName, *walletHotkey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load wallet hotkey")
	}

	minerCfg := &miner.Config{
		Netuid:           *netuid,
		HFRepoID:         *hfRepoID,
		WalletName:       *walletName,
		WalletHotkey:     *walletHotkey,
		SubtensorNetwork: *subtensorNetwork,
		EvalDataDir:      *evalDataDir,
		EvalFile:         *evalFile,
		SubmissionDir:    *submissionDir,
		SubmissionSize:   *submissionSize,
		RunAt:            *runAt,
	}

	status := health.NewStatus()
	if cfg.StatusPort > 0 {
		srv := health.NewServer(status)
		go func() {
			if err := srv.Start(cfg.StatusPort); err != nil {
				log.Error().Err(err).Msg("status server stopped")
			}
		}()
		defer srv.Shutdown()
	}

	m := miner.NewMiner(minerCfg, k, hubClient, keypair, status)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received, stopping miner")
		cancel()
	}()

	if *runAt == "" {
		if err := m.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("miner run failed")
		}
		log.Info().Msg("miner run finished")
		return
	}

	tod, err := scheduler.ParseTimeOfDay(*runAt)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid --run-at value")
	}

	status.SetNextRun(tod.NextRun(time.Now()))
	dc := scheduler.NewDailyCallback(tod, func() error {
		runErr := m.Run(ctx)
		status.SetNextRun(tod.NextRun(time.Now()))
		return runErr
	})
	dc.RunForever(ctx)

	log.Info().Msg("miner shutdown complete")
}
