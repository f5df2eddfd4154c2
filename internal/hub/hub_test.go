package hub

import (
	"bufio"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flockoff-labs/flockoff/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewClient(&config.HubEnvConfig{HubURL: ts.URL, HubToken: "test-token"})
	require.NoError(t, err, "new client")
	return c
}

func TestNewClient_NilConfig(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err, "expected error when cfg is nil")
}

func TestNewClient_ClientTimeout(t *testing.T) {
	c, err := NewClient(&config.HubEnvConfig{
		HubURL:          "https://huggingface.co",
		ClientEnvConfig: config.ClientEnvConfig{ClientTimeout: 5 * time.Second},
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.api.GetClient().Timeout)

	c, err = NewClient(&config.HubEnvConfig{HubURL: "https://huggingface.co"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, c.api.GetClient().Timeout, "zero timeout falls back to the default")
}

func TestGetRevision(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/datasets/org/data/revision/main" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sha":"abc123","lastModified":"2024-01-01T00:00:00Z","private":false}`))
	})

	sha, err := c.GetRevision("org/data", "main", RepoTypeDataset)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
}

func TestGetRevision_MissingSha(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	_, err := c.GetRevision("org/data", "main", RepoTypeDataset)
	require.Error(t, err, "expected error for missing sha")
}

func TestSnapshotDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/datasets/org/data/tree/abc123":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"type":"file","path":"data.jsonl","size":12,"oid":"x"},{"type":"directory","path":"sub","size":0,"oid":"y"},{"type":"file","path":"sub/extra.jsonl","size":3,"oid":"z"}]`))
		case "/datasets/org/data/resolve/abc123/data.jsonl":
			w.Write([]byte(`{"a":1}` + "\n"))
		case "/datasets/org/data/resolve/abc123/sub/extra.jsonl":
			w.Write([]byte(`{"b":2}` + "\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.jsonl")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, c.SnapshotDownload("org/data", "abc123", dir, RepoTypeDataset, true))

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr), "force download should wipe existing directory contents")

	got, err := os.ReadFile(filepath.Join(dir, "data.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`+"\n", string(got))

	_, err = os.Stat(filepath.Join(dir, "sub", "extra.jsonl"))
	assert.NoError(t, err, "nested file should be downloaded")
}

func TestSnapshotDownload_Paginated(t *testing.T) {
	treePath := "/api/datasets/org/data/tree/abc123"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == treePath && r.URL.Query().Get("cursor") == "":
			w.Header().Set("Link", `<`+treePath+`?recursive=true&cursor=p2>; rel="next"`)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"type":"file","path":"f0.jsonl","size":1,"oid":"a"},{"type":"file","path":"f1.jsonl","size":1,"oid":"b"}]`))
		case r.URL.Path == treePath && r.URL.Query().Get("cursor") == "p2":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"type":"file","path":"f2.jsonl","size":1,"oid":"c"},{"type":"file","path":"f3.jsonl","size":1,"oid":"d"}]`))
		case strings.HasPrefix(r.URL.Path, "/datasets/org/data/resolve/abc123/"):
			w.Write([]byte(`{"x":1}` + "\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	files, err := c.ListTree("org/data", "abc123", RepoTypeDataset)
	require.NoError(t, err)
	require.Len(t, files, 4, "listing must span all pages")

	dir := t.TempDir()
	require.NoError(t, c.SnapshotDownload("org/data", "abc123", dir, RepoTypeDataset, false))
	for _, name := range []string{"f0.jsonl", "f1.jsonl", "f2.jsonl", "f3.jsonl"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "file %s missing from snapshot", name)
	}
}

func TestNextPageURL(t *testing.T) {
	assert.Equal(t, "", nextPageURL(""))
	assert.Equal(t, "", nextPageURL(`</api/x?cursor=a>; rel="prev"`))
	assert.Equal(t, "/api/x?cursor=b", nextPageURL(`</api/x?cursor=a>; rel="prev", </api/x?cursor=b>; rel="next"`))
}

func TestUploadFile(t *testing.T) {
	var gotPath string
	var gotContent []byte

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/models/org/repo/commit/main" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var line struct {
				Key   string `json:"key"`
				Value struct {
					Path     string `json:"path"`
					Content  string `json:"content"`
					Encoding string `json:"encoding"`
				} `json:"value"`
			}
			if err := sonic.Unmarshal(scanner.Bytes(), &line); err != nil {
				t.Errorf("bad ndjson line: %v", err)
				continue
			}
			if line.Key == "file" {
				gotPath = line.Value.Path
				gotContent, _ = base64.StdEncoding.DecodeString(line.Value.Content)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"commitUrl":"https://huggingface.co/org/repo/commit/def456","commitOid":"def456"}`))
	})

	local := filepath.Join(t.TempDir(), "submission_2024010112.jsonl")
	require.NoError(t, os.WriteFile(local, []byte(`{"a":1}`+"\n"), 0o644))

	commit, err := c.UploadFile("org/repo", "main", RepoTypeModel, local, "submission upload")
	require.NoError(t, err)
	assert.Equal(t, "def456", commit)
	assert.Equal(t, "submission_2024010112.jsonl", gotPath)
	assert.Equal(t, `{"a":1}`+"\n", string(gotContent))
}
