package hybrid

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/pgtgrly/bombe-mcp/internal/config"
)

// sign produces a hex-encoded signature over checksum using the
// configured algorithm, one of the two algorithms the configuration
// names explicitly: hmac-sha256 and ed25519. keyMaterial is hex for
// HMAC (the shared secret) and hex-encoded ed25519 seed for Ed25519.
func sign(algorithm config.SigningAlgorithm, keyMaterial, checksum string) (string, error) {
	switch algorithm {
	case config.SigningNone:
		return "", nil
	case config.SigningHMACSHA256:
		key, err := hex.DecodeString(keyMaterial)
		if err != nil {
			return "", fmt.Errorf("decode hmac key: %w", err)
		}
		mac := hmac.New(sha256.New, key)
		mac.Write([]byte(checksum))
		return hex.EncodeToString(mac.Sum(nil)), nil
	case config.SigningEd25519:
		seed, err := hex.DecodeString(keyMaterial)
		if err != nil {
			return "", fmt.Errorf("decode ed25519 seed: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return "", fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		priv := ed25519.NewKeyFromSeed(seed)
		sig := ed25519.Sign(priv, []byte(checksum))
		return hex.EncodeToString(sig), nil
	default:
		return "", fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
}

// verify checks a hex-encoded signature over checksum against keyMaterial
// under algorithm. For hmac-sha256, keyMaterial is the shared secret; for
// ed25519, keyMaterial is the hex-encoded public key.
func verify(algorithm config.SigningAlgorithm, keyMaterial, checksum, signature string) (bool, error) {
	switch algorithm {
	case config.SigningNone:
		return signature == "", nil
	case config.SigningHMACSHA256:
		key, err := hex.DecodeString(keyMaterial)
		if err != nil {
			return false, fmt.Errorf("decode hmac key: %w", err)
		}
		sig, err := hex.DecodeString(signature)
		if err != nil {
			return false, nil
		}
		mac := hmac.New(sha256.New, key)
		mac.Write([]byte(checksum))
		return hmac.Equal(sig, mac.Sum(nil)), nil
	case config.SigningEd25519:
		pub, err := hex.DecodeString(keyMaterial)
		if err != nil {
			return false, fmt.Errorf("decode ed25519 public key: %w", err)
		}
		sig, err := hex.DecodeString(signature)
		if err != nil {
			return false, nil
		}
		if len(pub) != ed25519.PublicKeySize {
			return false, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
		}
		return ed25519.Verify(ed25519.PublicKey(pub), []byte(checksum), sig), nil
	default:
		return false, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
}
