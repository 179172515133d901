package ospackage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// LoadKeyRing reads an armored OpenPGP public key file.
func LoadKeyRing(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signing key %s: %w", path, err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key %s: %w", path, err)
	}
	return keyring, nil
}

// VerifyDetachedSignature checks an armored detached signature over path.
func VerifyDetachedSignature(keyring openpgp.EntityList, path, sigPath string) error {
	signed, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer signed.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature %s: %w", sigPath, err)
	}
	defer sig.Close()

	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, signed, sig, nil); err != nil {
		return fmt.Errorf("signature verification failed for %s: %w", path, err)
	}
	return nil
}

// VerifyChecksum compares the sha256 of path with want (hex, any case).
func VerifyChecksum(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", path, strings.ToLower(want), got)
	}
	return nil
}
