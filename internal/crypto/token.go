package crypto

import (
	"crypto/rand"
	"encoding/base64"
)

// NewDownloadToken returns an opaque token appended to blob download URLs.
func NewDownloadToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
