// Package cache holds completed verification runs so an unchanged
// (citation, proposition) pair is not re-verified while its result is fresh.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// Cache defines the interface for result caching
type Cache interface {
	Get(ctx context.Context, key string) (*model.VerificationRun, bool)
	Set(ctx context.Context, key string, run *model.VerificationRun)
}

// Key generates a cache key from a normalized citation and the proposition
// it was verified against. Proposition case and spacing are ignored.
func Key(normalized, proposition string) string {
	prop := strings.ToLower(strings.Join(strings.Fields(proposition), " "))
	hash := sha256.Sum256([]byte(normalized + "\x00" + prop))
	return "citecheck:v1:" + hex.EncodeToString(hash[:])
}
