package launcher

import (
	"fmt"
	"strings"
)

// LaunchConfig is the validated set of named values required to invoke
// the miner process. It is constructed once and never mutated.
type LaunchConfig struct {
	Netuid           string
	HFRepoID         string
	WalletName       string
	WalletHotkey     string
	SubtensorNetwork string
	EvalDataDir      string
	SubmissionDir    string
	LoggingDebug     bool

	// MinerBin is the path or name of the miner executable to spawn.
	MinerBin string
}

// ConfigurationError reports required configuration keys that are
// missing or empty. No process is spawned when it is returned.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// SpawnError reports that the miner executable could not be started.
type SpawnError struct {
	Bin string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Bin, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
