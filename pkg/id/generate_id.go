package id

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewLoanID is a creation timestamp plus a random nonce, so ids sort by age.
func NewLoanID(now time.Time) string {
	return fmt.Sprintf("loan_%d_%s", now.UnixMilli(), NewID32()[:8])
}

// New returns prefix_ followed by 12 random hex characters.
func New(prefix string) string {
	return prefix + "_" + NewID32()[:12]
}
