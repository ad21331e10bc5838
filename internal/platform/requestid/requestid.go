// Package requestid generates opaque ids for request correlation.
package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const idBytes = 16

// New returns a random 128-bit id in hex form.
func New() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("request id entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
