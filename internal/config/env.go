// Package config defines environment configuration structs and loaders.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	LauncherEnvConfig
	KamiEnvConfig
	HubEnvConfig
	StatusEnvConfig
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LauncherEnvConfig holds the values the launcher maps onto miner flags.
type LauncherEnvConfig struct {
	Netuid           string `env:"NETUID"`
	HFRepoID         string `env:"HF_REPO_ID"`
	WalletName       string `env:"WALLET_NAME"`
	WalletHotkey     string `env:"WALLET_HOTKEY"`
	SubtensorNetwork string `env:"SUBTENSOR_NETWORK"`
	EvalDataDir      string `env:"EVAL_DATA_DIR"`
	SubmissionDir    string `env:"SUBMISSION_DIR"`
	LoggingDebug     bool   `env:"LOGGING_DEBUG" envDefault:"false"`
	MinerBin         string `env:"MINER_BIN" envDefault:"miner"`
}

// KamiEnvConfig contains the chain sidecar target.
type KamiEnvConfig struct {
	ClientEnvConfig
	SubtensorNetwork string `env:"SUBTENSOR_NETWORK" envDefault:"test"`
	KamiHost         string `env:"KAMI_HOST" envDefault:"127.0.0.1"`
	KamiPort         string `env:"KAMI_PORT" envDefault:"3000"`
}

// HubEnvConfig configures HuggingFace Hub access.
type HubEnvConfig struct {
	ClientEnvConfig
	HubURL   string `env:"HF_HUB_URL" envDefault:"https://huggingface.co"`
	HubToken string `env:"HF_TOKEN"`
}

// ClientEnvConfig configures outbound HTTP clients. A zero timeout
// leaves each client on its own default.
type ClientEnvConfig struct {
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT"`
}

// StatusEnvConfig configures the status server. Port 0 disables it.
type StatusEnvConfig struct {
	StatusPort int `env:"STATUS_PORT" envDefault:"0"`
}
