// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"
)

const OrderIDPrefix = "ord_"

// GenerateOrderID returns "ord_" followed by a random 128-bit identifier in hex.
func GenerateOrderID() string {
	return OrderIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SecretsEqual compares two secrets in constant time.
func SecretsEqual(expected, provided string) bool {
	e := sha256.Sum256([]byte(expected))
	p := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(e[:], p[:]) == 1
}
