package normalize

import (
	"crypto/sha256"
	"fmt"
)

// DataHash computes the hex-encoded SHA-256 of an uploaded file's bytes,
// recorded with each import batch for audit.
func DataHash(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}
