package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Length is the number of hex characters kept from the hash
const Length = 12

// Compute returns the dedup fingerprint of a job from its visible
// list-page fields. Fields are normalized (trimmed, lowercased, inner
// whitespace collapsed) so cosmetic differences between extractions of
// the same posting map to the same fingerprint.
func Compute(title, company, salary, location string) string {
	h := sha256.New()
	for _, field := range []string{title, company, salary, location} {
		h.Write([]byte(normalize(field)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:Length]
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
