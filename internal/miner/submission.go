package miner

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// submissionJSON encodes rows with sorted keys so identical rows always
// serialize to identical bytes.
var submissionJSON = sonic.Config{SortMapKeys: true}.Froze()

const hourStamp = "2006010215"

// LoadJSONL reads a line-delimited JSON file into a slice of rows.
// Blank lines are skipped.
func LoadJSONL(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl: %w", err)
	}
	defer f.Close()

	var rows []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row map[string]any
		if err := sonic.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("parse jsonl line: %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return rows, nil
}

// BuildSubmission loads the eval data, shuffles it, optionally caps it
// at size rows and writes an hour-stamped submission file with
// deterministic per-row encoding. It returns the submission file path.
func BuildSubmission(evalDataDir, evalFile, submissionDir string, size int) (string, error) {
	rows, err := LoadJSONL(filepath.Join(evalDataDir, evalFile))
	if err != nil {
		return "", err
	}

	rand.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})
	if size > 0 && size < len(rows) {
		rows = rows[:size]
	}

	if err := os.MkdirAll(submissionDir, 0o755); err != nil {
		return "", fmt.Errorf("create submission dir: %w", err)
	}

	stamp := time.Now().Format(hourStamp)
	name := fmt.Sprintf("submission_%s.jsonl", stamp)
	if size > 0 {
		name = fmt.Sprintf("submission_%s_%d.jsonl", stamp, size)
	}
	path := filepath.Join(submissionDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create submission file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range rows {
		encoded, err := submissionJSON.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("encode submission row: %w", err)
		}
		if _, err := w.Write(encoded); err != nil {
			return "", fmt.Errorf("write submission row: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return "", fmt.Errorf("write submission row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush submission file: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(rows)).
		Msg("submission file saved")
	return path, nil
}
