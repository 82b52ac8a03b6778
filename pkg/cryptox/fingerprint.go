package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a SHA-256 digest of secret, base64url-encoded without
// padding (43 chars). It identifies a session without keeping its refresh
// token around. The empty secret has no fingerprint.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
