package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/vedhavyas/go-subkey"
)

func ToSs58Address(keypair *sr25519.Keypair) string {
	ss58Address := subkey.SS58Encode(
		keypair.Public().Encode(),
		SubstrateNetworkId,
	)
	return ss58Address
}

// DigestFile returns the sha256 digest of a file as "sha256:<hex>",
// the message form signed alongside submission uploads.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
