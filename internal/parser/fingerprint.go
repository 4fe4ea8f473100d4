package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/recall/internal/domain"
)

// Fingerprint identifies an entry by content rather than by storage row,
// so re-importing a deck can tell new entries apart from ones already
// held. Casing, surrounding whitespace, and line endings do not change
// the identity.
func Fingerprint(item domain.MemoryItem) string {
	parts := []string{item.Question, item.Answer, item.Category}
	for i, p := range parts {
		p = strings.ToLower(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		parts[i] = strings.TrimSpace(p)
	}
	// Fields are joined with a newline so "ab"+"c" and "a"+"bc" hash
	// differently.
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}
