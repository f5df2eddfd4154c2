package signature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/vedhavyas/go-subkey"
)

func TestSignatureProvider(t *testing.T) {
	keypair, err := sr25519.GenerateKeypair()
	if err != nil {
		t.Fatalf("Failed to generate keypair: %v", err)
	}

	provider, err := NewProvider(keypair)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	message := "sha256:deadbeef"

	signature, err := provider.Sign(message)
	if err != nil {
		t.Fatalf("Failed to sign message: %v", err)
	}

	if len(signature) < 2 || signature[:2] != "0x" {
		t.Error("Expected signature to start with '0x'")
	}

	if len(signature) != 130 { // 0x + 128 hex chars (64 bytes)
		t.Errorf("Expected signature length 130, got %d", len(signature))
	}

	ss58Address := subkey.SS58Encode(keypair.Public().Encode(), SubstrateNetworkId)

	ok, err := Verify(message, signature, ss58Address)
	if err != nil {
		t.Fatalf("Verification failed: %v", err)
	}

	if !ok {
		t.Error("Expected signature to be valid, but verification failed")
	}

	// A different message must not verify
	ok, err = Verify("sha256:cafebabe", signature, ss58Address)
	if err != nil {
		t.Fatalf("Verification errored: %v", err)
	}
	if ok {
		t.Error("Expected verification of a different message to fail")
	}
}

func TestVerify_MalformedSignature(t *testing.T) {
	if _, err := Verify("m", "deadbeef", "addr"); err == nil {
		t.Error("expected error for signature without 0x prefix")
	}
	if _, err := Verify("m", "0x1234", "addr"); err == nil {
		t.Error("expected error for short signature")
	}
}

func TestDigestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submission.jsonl")
	if err := os.WriteFile(path, []byte(`{"a":1}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile: %v", err)
	}
	second, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile: %v", err)
	}

	if first != second {
		t.Errorf("digest not stable: %s vs %s", first, second)
	}
	if len(first) != len("sha256:")+64 {
		t.Errorf("unexpected digest format: %s", first)
	}
}
