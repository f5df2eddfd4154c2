package miner

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"

	"github.com/flockoff-labs/flockoff/internal/config"
	"github.com/flockoff-labs/flockoff/internal/health"
	"github.com/flockoff-labs/flockoff/internal/hub"
	"github.com/flockoff-labs/flockoff/pkg/chain"
	"github.com/flockoff-labs/flockoff/pkg/signature"
)

type fakeBackend struct {
	hotkeys       []string
	uploads       int
	commits       int
	commitOID     string
	rejectCommits int // reject this many commit attempts before accepting
}

func (f *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/chain/subnet-metagraph/"):
			hotkeys := `"` + strings.Join(f.hotkeys, `","`) + `"`
			if len(f.hotkeys) == 0 {
				hotkeys = ""
			}
			fmt.Fprintf(w, `{"statusCode":200,"success":true,"data":{"netuid":98,"hotkeys":[%s],"coldkeys":[],"axons":[],"active":[],"lastUpdate":[],"blockAtRegistration":[]},"error":null}`, hotkeys)
		case r.URL.Path == "/chain/set-commitment":
			f.commits++
			if f.commits <= f.rejectCommits {
				fmt.Fprint(w, `{"statusCode":200,"success":false,"data":"","error":{"msg":"rate limited"}}`)
				return
			}
			fmt.Fprint(w, `{"statusCode":200,"success":true,"data":"0xext","error":null}`)
		case r.URL.Path == "/api/datasets/flockoff/eval-data/revision/main":
			fmt.Fprint(w, `{"sha":"evalsha"}`)
		case r.URL.Path == "/api/datasets/flockoff/eval-data/tree/evalsha":
			fmt.Fprint(w, `[{"type":"file","path":"data.jsonl","size":8,"oid":"x"}]`)
		case r.URL.Path == "/datasets/flockoff/eval-data/resolve/evalsha/data.jsonl":
			fmt.Fprint(w, `{"q":"from-hub"}`+"\n")
		case strings.HasPrefix(r.URL.Path, "/api/models/") && strings.Contains(r.URL.Path, "/commit/"):
			f.uploads++
			fmt.Fprintf(w, `{"commitUrl":"u","commitOid":"%s"}`, f.commitOID)
		default:
			t.Logf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestMiner(t *testing.T, backend *fakeBackend, cfg *Config, keypair *sr25519.Keypair) (*Miner, *health.Status) {
	t.Helper()
	ts := httptest.NewServer(backend.handler(t))
	t.Cleanup(ts.Close)
	addr := ts.Listener.Addr().(*net.TCPAddr)

	k, err := chain.NewKami(&config.KamiEnvConfig{
		KamiHost: addr.IP.String(),
		KamiPort: fmt.Sprint(addr.Port),
	})
	if err != nil {
		t.Fatalf("new kami: %v", err)
	}

	h, err := hub.NewClient(&config.HubEnvConfig{HubURL: ts.URL})
	if err != nil {
		t.Fatalf("new hub client: %v", err)
	}

	status := health.NewStatus()
	return NewMiner(cfg, k, h, keypair, status), status
}

func baseConfig(t *testing.T) *Config {
	return &Config{
		Netuid:        98,
		HFRepoID:      "org/repo",
		EvalDataDir:   t.TempDir(),
		EvalFile:      "data.jsonl",
		SubmissionDir: t.TempDir(),
	}
}

func TestRun_FullPipeline(t *testing.T) {
	keypair, err := sr25519.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	hotkey := signature.ToSs58Address(keypair)

	cfg := baseConfig(t)
	writeEvalFile(t, cfg.EvalDataDir, fmt.Sprintf("eval_data_%s.jsonl", time.Now().Format(hourStamp)), []string{
		`{"q":"one"}`,
		`{"q":"two"}`,
	})

	backend := &fakeBackend{hotkeys: []string{"other", hotkey}, commitOID: "def456"}
	m, status := newTestMiner(t, backend, cfg, keypair)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if backend.uploads != 1 || backend.commits != 1 {
		t.Fatalf("expected 1 upload and 1 commit, got %d and %d", backend.uploads, backend.commits)
	}
	if v := status.View(); v.Runs != 1 || v.LastCommit != "def456" || v.LastError != "" {
		t.Fatalf("unexpected status: %+v", v)
	}

	// the uploaded submission is archived, not kept in plain form
	entries, err := os.ReadDir(cfg.SubmissionDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".jsonl.zst") {
		t.Fatalf("expected one archived submission, got %v", entries)
	}
}

func TestRun_DownloadsEvalData(t *testing.T) {
	keypair, err := sr25519.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig(t)
	backend := &fakeBackend{
		hotkeys:   []string{signature.ToSs58Address(keypair)},
		commitOID: "abc",
	}
	m, _ := newTestMiner(t, backend, cfg, keypair)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stamped := filepath.Join(cfg.EvalDataDir, fmt.Sprintf("eval_data_%s.jsonl", time.Now().Format(hourStamp)))
	if _, err := os.Stat(stamped); err != nil {
		t.Fatalf("expected downloaded eval file at %s: %v", stamped, err)
	}
}

func TestRun_CommitRetriesUntilAccepted(t *testing.T) {
	keypair, err := sr25519.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig(t)
	cfg.CommitRetryInterval = 10 * time.Millisecond
	backend := &fakeBackend{
		hotkeys:       []string{signature.ToSs58Address(keypair)},
		commitOID:     "retry-ok",
		rejectCommits: 1,
	}
	m, status := newTestMiner(t, backend, cfg, keypair)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if backend.commits != 2 {
		t.Fatalf("expected 2 commit attempts, got %d", backend.commits)
	}
	if v := status.View(); v.LastCommit != "retry-ok" || v.LastError != "" {
		t.Fatalf("unexpected status after retried commit: %+v", v)
	}
}

func TestRun_CommitAbortsOnCancel(t *testing.T) {
	keypair, err := sr25519.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig(t)
	cfg.CommitRetryInterval = time.Hour
	backend := &fakeBackend{
		hotkeys:       []string{signature.ToSs58Address(keypair)},
		commitOID:     "never",
		rejectCommits: 1 << 30,
	}
	m, _ := newTestMiner(t, backend, cfg, keypair)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err = m.Run(ctx)
	if err == nil {
		t.Fatal("expected error when commit loop is cancelled")
	}
	if !strings.Contains(err.Error(), "commit aborted") {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancel did not abort the retry loop promptly, took %s", elapsed)
	}
	if backend.commits < 1 {
		t.Fatalf("expected at least one commit attempt, got %d", backend.commits)
	}
}

func TestRun_UnregisteredHotkey(t *testing.T) {
	keypair, err := sr25519.GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig(t)
	backend := &fakeBackend{hotkeys: []string{"someone-else"}, commitOID: "zzz"}
	m, status := newTestMiner(t, backend, cfg, keypair)

	if err := m.Run(context.Background()); err == nil {
		t.Fatal("expected error for unregistered hotkey")
	}
	if backend.uploads != 0 {
		t.Fatalf("no upload expected, got %d", backend.uploads)
	}
	if v := status.View(); v.LastError == "" {
		t.Fatalf("expected error recorded in status, got %+v", v)
	}
}
