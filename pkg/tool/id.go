// Package tool holds small id helpers shared by the services.
package tool

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUIDV7 returns a time-ordered UUID string. Record ids, trace ids
// and key nonces all come from here.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PrefixedKey returns prefix followed by a fresh UUIDv7, e.g. "cash:0190...".
// A trailing ":" is added to prefix when missing.
func PrefixedKey(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return prefix + GenerateUUIDV7()
}
