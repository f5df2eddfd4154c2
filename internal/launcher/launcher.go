// Package launcher validates launch configuration and spawns the miner
// process with a stable flag mapping, propagating its exit code.
package launcher

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/flockoff-labs/flockoff/internal/config"
)

// FromEnv builds a LaunchConfig from the parsed environment.
func FromEnv(cfg *config.LauncherEnvConfig) LaunchConfig {
	return LaunchConfig{
		Netuid:           cfg.Netuid,
		HFRepoID:         cfg.HFRepoID,
		WalletName:       cfg.WalletName,
		WalletHotkey:     cfg.WalletHotkey,
		SubtensorNetwork: cfg.SubtensorNetwork,
		EvalDataDir:      cfg.EvalDataDir,
		SubmissionDir:    cfg.SubmissionDir,
		LoggingDebug:     cfg.LoggingDebug,
		MinerBin:         cfg.MinerBin,
	}
}

// Validate checks that every required value is present and non-empty.
// All missing keys are reported at once, named by their environment key.
func (c LaunchConfig) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"NETUID", c.Netuid},
		{"HF_REPO_ID", c.HFRepoID},
		{"WALLET_NAME", c.WalletName},
		{"WALLET_HOTKEY", c.WalletHotkey},
		{"SUBTENSOR_NETWORK", c.SubtensorNetwork},
		{"EVAL_DATA_DIR", c.EvalDataDir},
		{"SUBMISSION_DIR", c.SubmissionDir},
		{"MINER_BIN", c.MinerBin},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// Args maps the configuration onto the miner's flag surface. The order
// is fixed so repeated runs with the same config produce byte-identical
// argument lists.
func (c LaunchConfig) Args() []string {
	args := []string{
		"--netuid", c.Netuid,
		"--hf_repo_id", c.HFRepoID,
		"--wallet.name", c.WalletName,
		"--wallet.hotkey", c.WalletHotkey,
		"--subtensor.network", c.SubtensorNetwork,
		"--eval-data-dir", c.EvalDataDir,
		"--submission-dir", c.SubmissionDir,
	}
	if c.LoggingDebug {
		args = append(args, "--logging.debug")
	}
	return args
}

// Launch validates the configuration, spawns the miner process and
// blocks until it exits, returning the child's exit code unchanged.
// Configuration and spawn failures are reported before any process is
// started; the child's own failures are opaque and surface only through
// the exit code.
func Launch(ctx context.Context, cfg LaunchConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	args := cfg.Args()
	log.Info().
		Str("bin", cfg.MinerBin).
		Strs("args", args).
		Msg("launching miner")

	cmd := exec.CommandContext(ctx, cfg.MinerBin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Str("bin", cfg.MinerBin).Msg("failed to start miner process")
		return 0, &SpawnError{Bin: cfg.MinerBin, Err: err}
	}

	err := cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			log.Warn().Int("exit_code", code).Msg("miner exited with non-zero code")
			return code, nil
		}
		// wait failed for a reason other than the child exiting
		return 0, &SpawnError{Bin: cfg.MinerBin, Err: err}
	}

	log.Info().Msg("miner exited cleanly")
	return 0, nil
}
