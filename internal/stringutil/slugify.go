package stringutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// maxSlugLen bounds slugs used as file and directory names.
const maxSlugLen = 48

// Slugify lowercases s and joins its runs of letters and digits with single
// hyphens. The result is at most maxSlugLen bytes and never ends in a hyphen.
func Slugify(s string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			gap = b.Len() > 0
			continue
		}
		if gap {
			b.WriteByte('-')
			gap = false
		}
		if b.Len()+len(string(r)) > maxSlugLen {
			break
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), "-")
}

// Key maps an id to a name safe for the filesystem. Ids that are already
// their own slug map to themselves; any other id gets a short hash of the
// original appended, so ids that slugify alike stay apart.
func Key(id string) string {
	slug := Slugify(id)
	if slug == id {
		return slug
	}
	if slug == "" {
		return ShortHash(id)
	}
	return slug + "-" + ShortHash(id)
}

// ShortHash returns the first seven hex digits of the SHA-256 of s.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:4])[:7]
}
