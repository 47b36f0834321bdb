package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize collapses every whitespace run to a single space and trims the ends.
func Normalize(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// Hash is the content address of already normalized text.
func Hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
