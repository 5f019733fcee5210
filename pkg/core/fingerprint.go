package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the short content hash used for change detection:
// hex of the first 8 bytes of the sha256 sum. Collisions across a single
// project's inputs are not a practical concern at this length.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Fingerprint hashes the App's canonical YAML encoding. Two Apps with the
// same fingerprint render byte-identical documents for a given target.
func (a *App) Fingerprint() (string, error) {
	data, err := EncodeYAML(a)
	if err != nil {
		return "", err
	}
	return HashContent(data), nil
}
