package services

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Slugify lowers the name and collapses every run of non-alphanumeric
// characters into a single hyphen: "  Café Crème 2000! " -> "caf-cr-me-2000".
func Slugify(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// slugSuffix returns a lowercase time-ordered token appended on slug
// collision. One pass only: the token's collision probability is treated
// as negligible and the unique index catches the rest.
func slugSuffix() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return strings.ToLower(hex.EncodeToString(id[:]))
}
