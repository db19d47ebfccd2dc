package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewDocumentID returns the operator-facing document identifier.
func NewDocumentID() string {
	return uuid.New().String()
}

// NewSigningToken returns the bearer credential embedded in the public
// signing link: 32 bytes from crypto/rand, hex encoded. Possession of
// the token is the only authorization for the signer endpoints, so it
// carries more entropy than a v4 uuid and no structure.
func NewSigningToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate signing token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// SigningURL builds the public link from the externally visible scheme
// and host of the request that created the document.
func SigningURL(scheme, host, token string) string {
	return fmt.Sprintf("%s://%s/sign/%s", scheme, host, token)
}
