package miner

import (
	"time"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"

	"github.com/flockoff-labs/flockoff/internal/health"
	"github.com/flockoff-labs/flockoff/internal/hub"
	"github.com/flockoff-labs/flockoff/pkg/chain"
)

// Competition defaults: the dataset repository holding the eval data
// and the competition id committed with every submission.
const (
	CompetitionRepo = "flockoff/eval-data"
	CompetitionID   = "f1"

	// EvalCommit pins the eval dataset branch the competition reads from.
	EvalCommit = "main"

	// DefaultCommitRetryInterval spaces out chain commitment attempts;
	// the chain only accepts one commitment per hotkey every 20 minutes.
	DefaultCommitRetryInterval = 120 * time.Second
)

// Config carries the miner's flag surface.
type Config struct {
	Netuid           int
	HFRepoID         string
	WalletName       string
	WalletHotkey     string
	SubtensorNetwork string
	EvalDataDir      string
	EvalFile         string
	SubmissionDir    string
	SubmissionSize   int // 0 means the full eval set
	RunAt            string

	// CommitRetryInterval overrides the spacing between chain
	// commitment attempts; zero means DefaultCommitRetryInterval.
	CommitRetryInterval time.Duration
}

// Miner runs the submission pipeline: eval data download, submission
// build, hub upload and chain commitment.
type Miner struct {
	cfg     *Config
	kami    *chain.Kami
	hub     *hub.Client
	keypair *sr25519.Keypair
	status  *health.Status
}
