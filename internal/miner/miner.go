// Package miner implements the submission pipeline: verify the hotkey
// is registered, fetch the competition eval data, build and upload a
// submission, then commit the model id on chain.
package miner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/rs/zerolog/log"

	"github.com/flockoff-labs/flockoff/internal/health"
	"github.com/flockoff-labs/flockoff/internal/hub"
	"github.com/flockoff-labs/flockoff/pkg/chain"
	"github.com/flockoff-labs/flockoff/pkg/signature"
)

// NewMiner wires the pipeline dependencies. The status tracker may be
// nil when no status server runs.
func NewMiner(cfg *Config, kami *chain.Kami, hubClient *hub.Client, keypair *sr25519.Keypair, status *health.Status) *Miner {
	if cfg.CommitRetryInterval <= 0 {
		cfg.CommitRetryInterval = DefaultCommitRetryInterval
	}
	return &Miner{
		cfg:     cfg,
		kami:    kami,
		hub:     hubClient,
		keypair: keypair,
		status:  status,
	}
}

// Run executes one full pipeline pass.
func (m *Miner) Run(ctx context.Context) error {
	commit, err := m.run(ctx)
	if m.status != nil {
		m.status.RecordRun(commit, err)
	}
	return err
}

func (m *Miner) run(ctx context.Context) (string, error) {
	hotkey := signature.ToSs58Address(m.keypair)

	if err := m.assertRegistered(hotkey); err != nil {
		return "", err
	}

	evalFile := fmt.Sprintf("eval_data_%s.jsonl", time.Now().Format(hourStamp))
	if err := m.ensureEvalData(evalFile); err != nil {
		return "", err
	}

	subPath, err := BuildSubmission(m.cfg.EvalDataDir, evalFile, m.cfg.SubmissionDir, m.cfg.SubmissionSize)
	if err != nil {
		return "", err
	}

	digest, err := signature.DigestFile(subPath)
	if err != nil {
		return "", err
	}
	provider, err := signature.NewProvider(m.keypair)
	if err != nil {
		return "", err
	}
	sig, err := provider.Sign(digest)
	if err != nil {
		return "", err
	}

	summary := fmt.Sprintf("submission %s signed %s", digest, sig)
	commit, err := m.hub.UploadFile(m.cfg.HFRepoID, hub.DefaultRevision, hub.RepoTypeModel, subPath, summary)
	if err != nil {
		return "", fmt.Errorf("upload submission: %w", err)
	}

	modelID := ModelID{
		Namespace:     m.cfg.HFRepoID,
		Commit:        commit,
		CompetitionID: CompetitionID,
	}
	log.Info().
		Str("model_id", modelID.String()).
		Msg("committing model id to the chain")

	if err := m.commitWithRetry(ctx, modelID); err != nil {
		return commit, err
	}

	if _, err := ArchiveSubmission(subPath); err != nil {
		log.Warn().Err(err).Str("path", subPath).Msg("failed to archive submission")
	}
	return commit, nil
}

// assertRegistered checks the hotkey appears in the subnet metagraph.
func (m *Miner) assertRegistered(hotkey string) error {
	res, err := m.kami.GetMetagraph(m.cfg.Netuid)
	if err != nil {
		return fmt.Errorf("fetch metagraph: %w", err)
	}

	uid := chain.FindUIDByHotkey(&res.Data, hotkey)
	if uid < 0 {
		return fmt.Errorf("hotkey %s is not registered on netuid %d", hotkey, m.cfg.Netuid)
	}

	log.Info().
		Str("hotkey", hotkey).
		Int("uid", uid).
		Int("netuid", m.cfg.Netuid).
		Msg("hotkey registered")
	return nil
}

// ensureEvalData makes sure the hour-stamped eval file exists locally,
// downloading the competition dataset when it does not.
func (m *Miner) ensureEvalData(evalFile string) error {
	target := filepath.Join(m.cfg.EvalDataDir, evalFile)
	if _, err := os.Stat(target); err == nil {
		log.Info().Str("path", target).Msg("eval file exists")
		return nil
	}

	log.Info().Str("path", target).Msg("eval file missing, downloading eval data")

	sha, err := m.hub.GetRevision(CompetitionRepo, EvalCommit, hub.RepoTypeDataset)
	if err != nil {
		return fmt.Errorf("resolve eval revision: %w", err)
	}
	if err := m.hub.SnapshotDownload(CompetitionRepo, sha, m.cfg.EvalDataDir, hub.RepoTypeDataset, true); err != nil {
		return fmt.Errorf("download eval data: %w", err)
	}

	source := filepath.Join(m.cfg.EvalDataDir, m.cfg.EvalFile)
	if err := os.Rename(source, target); err != nil {
		return fmt.Errorf("rename eval file: %w", err)
	}
	return nil
}

// commitWithRetry keeps attempting the chain commitment until it is
// accepted or the context is cancelled. The chain rate-limits
// commitments, so failures are expected and retried on an interval.
func (m *Miner) commitWithRetry(ctx context.Context, modelID ModelID) error {
	for {
		res, err := m.kami.SetCommitment(chain.SetCommitmentParams{
			Netuid: m.cfg.Netuid,
			Data:   modelID.ToCompressedStr(),
		})
		if err == nil {
			log.Info().
				Str("extrinsic", res.Data).
				Str("model_id", modelID.String()).
				Msg("committed submission to the chain")
			return nil
		}

		log.Error().
			Err(err).
			Str("retry_in", m.cfg.CommitRetryInterval.String()).
			Msg("failed to commit model id on chain, retrying")

		timer := time.NewTimer(m.cfg.CommitRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("commit aborted: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
