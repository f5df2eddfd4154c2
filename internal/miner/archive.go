package miner

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// ArchiveSubmission compresses an uploaded submission file to
// <path>.zst and removes the original. Submissions stay on disk for
// audit but only in compressed form once the chain commit went through.
func ArchiveSubmission(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open submission: %w", err)
	}
	defer in.Close()

	archived := path + ".zst"
	out, err := os.Create(archived)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return "", fmt.Errorf("create zstd writer: %w", err)
	}

	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return "", fmt.Errorf("compress submission: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finish archive: %w", err)
	}

	in.Close()
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove original submission: %w", err)
	}

	log.Info().
		Str("archive", archived).
		Msg("archived submission")
	return archived, nil
}
