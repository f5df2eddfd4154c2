// Package hub provides a HuggingFace Hub client covering the miner's
// needs: revision resolution, dataset snapshot downloads and file
// uploads through the commit API.
package hub

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/flockoff-labs/flockoff/internal/config"
)

// Client talks to the HuggingFace Hub. API metadata calls go through
// resty; bulk file transfers go through a retrying HTTP client.
type Client struct {
	api      *resty.Client
	transfer *retryablehttp.Client
	BaseURL  string
	token    string
}

// NewClient creates a Hub client from the environment configuration.
func NewClient(cfg *config.HubEnvConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	baseURL := strings.TrimRight(cfg.HubURL, "/")

	timeout := cfg.ClientTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	api := resty.New().
		SetBaseURL(baseURL).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(timeout)
	if cfg.HubToken != "" {
		api.SetAuthToken(cfg.HubToken)
	}

	transfer := retryablehttp.NewClient()
	transfer.RetryMax = 5
	transfer.HTTPClient.Timeout = 10 * time.Minute
	transfer.RetryWaitMin = 500 * time.Millisecond
	transfer.RetryWaitMax = 20 * time.Second
	transfer.Logger = nil

	log.Info().
		Str("base_url", baseURL).
		Int("retry_max", transfer.RetryMax).
		Msg("hub client initialized")

	return &Client{
		api:      api,
		transfer: transfer,
		BaseURL:  baseURL,
		token:    cfg.HubToken,
	}, nil
}

func apiPrefix(repoType string) string {
	return repoType + "s"
}

func resolvePrefix(repoType string) string {
	if repoType == RepoTypeModel {
		// model files resolve at the repo root
		return ""
	}
	return apiPrefix(repoType) + "/"
}

// GetRevision resolves a branch or revision name to its commit sha.
func (c *Client) GetRevision(repoID, revision, repoType string) (string, error) {
	if revision == "" {
		revision = DefaultRevision
	}

	var info RevisionInfo
	path := fmt.Sprintf("/api/%s/%s/revision/%s", apiPrefix(repoType), repoID, revision)
	resp, err := c.api.R().SetResult(&info).Get(path)
	if err != nil {
		return "", fmt.Errorf("get revision %s@%s: %w", repoID, revision, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("revision request returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if info.SHA == "" {
		return "", fmt.Errorf("revision %s@%s has no sha", repoID, revision)
	}

	log.Debug().
		Str("repo", repoID).
		Str("revision", revision).
		Str("sha", info.SHA).
		Msg("resolved revision")
	return info.SHA, nil
}

// ListTree lists all files of the repository at the given revision.
// The tree endpoint paginates large listings, so pages are followed
// through the Link header until exhausted.
func (c *Client) ListTree(repoID, revision, repoType string) ([]TreeEntry, error) {
	var files []TreeEntry
	next := fmt.Sprintf("/api/%s/%s/tree/%s?recursive=true", apiPrefix(repoType), repoID, revision)
	for next != "" {
		var entries []TreeEntry
		resp, err := c.api.R().
			SetResult(&entries).
			Get(next)
		if err != nil {
			return nil, fmt.Errorf("list tree %s@%s: %w", repoID, revision, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("tree request returned status %d: %s", resp.StatusCode(), resp.String())
		}

		for _, e := range entries {
			if e.Type == "file" {
				files = append(files, e)
			}
		}
		next = nextPageURL(resp.Header().Get("Link"))
	}
	return files, nil
}

// nextPageURL extracts the rel="next" target from a Link header, or ""
// when there is no further page.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		url := strings.Trim(strings.TrimSpace(segs[0]), "<>")
		for _, attr := range segs[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				return url
			}
		}
	}
	return ""
}

// SnapshotDownload downloads all files of a repository revision into
// localDir. When force is true the directory is wiped first.
func (c *Client) SnapshotDownload(repoID, revision, localDir, repoType string, force bool) error {
	if !filepath.IsAbs(localDir) {
		abs, err := filepath.Abs(localDir)
		if err != nil {
			return fmt.Errorf("resolve local dir: %w", err)
		}
		localDir = abs
	}

	if force {
		log.Info().
			Str("repo", repoID).
			Str("revision", revision).
			Str("local_dir", localDir).
			Msg("force snapshot download, wiping local dir")
		if err := os.RemoveAll(localDir); err != nil {
			return fmt.Errorf("wipe local dir: %w", err)
		}
	}
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return fmt.Errorf("create local dir: %w", err)
	}

	files, err := c.ListTree(repoID, revision, repoType)
	if err != nil {
		return err
	}

	log.Info().
		Str("repo", repoID).
		Str("revision", revision).
		Int("files", len(files)).
		Str("local_dir", localDir).
		Msg("downloading snapshot")

	for _, f := range files {
		if err := c.downloadFile(repoID, revision, repoType, f.Path, localDir); err != nil {
			return fmt.Errorf("download %s: %w", f.Path, err)
		}
	}
	return nil
}

func (c *Client) downloadFile(repoID, revision, repoType, remotePath, localDir string) error {
	url := fmt.Sprintf("%s/%s%s/resolve/%s/%s", c.BaseURL, resolvePrefix(repoType), repoID, revision, remotePath)

	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.transfer.Do(req)
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("transfer returned status %d: %s", resp.StatusCode, string(body))
	}

	target := filepath.Join(localDir, filepath.FromSlash(remotePath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	log.Debug().
		Str("path", remotePath).
		Int64("bytes", n).
		Msg("downloaded file")
	return nil
}

// UploadFile commits a single local file to the repository branch and
// returns the resulting commit id.
func (c *Client) UploadFile(repoID, branch, repoType, localPath, summary string) (string, error) {
	if branch == "" {
		branch = DefaultRevision
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read upload file: %w", err)
	}

	lines := []commitLine{
		{Key: "header", Value: commitHeader{Summary: summary}},
		{Key: "file", Value: commitFile{
			Path:     filepath.Base(localPath),
			Content:  base64.StdEncoding.EncodeToString(content),
			Encoding: "base64",
		}},
	}

	var body bytes.Buffer
	for _, line := range lines {
		raw, err := sonic.Marshal(line)
		if err != nil {
			return "", fmt.Errorf("marshal commit line: %w", err)
		}
		body.Write(raw)
		body.WriteByte('\n')
	}

	var result CommitResult
	path := fmt.Sprintf("/api/%s/%s/commit/%s", apiPrefix(repoType), repoID, branch)
	resp, err := c.api.R().
		SetHeader("Content-Type", "application/x-ndjson").
		SetBody(body.Bytes()).
		SetResult(&result).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("commit %s: %w", repoID, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("commit returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.CommitOID == "" {
		return "", fmt.Errorf("commit response missing commit id")
	}

	log.Info().
		Str("repo", repoID).
		Str("branch", branch).
		Str("commit", result.CommitOID).
		Str("file", filepath.Base(localPath)).
		Msg("uploaded file")
	return result.CommitOID, nil
}
