package posts

import "strings"

// Slugify derives the URL-safe public identifier from a post title. It is
// deterministic and carries no uniqueness suffix: two titles that normalize
// to the same slug collide, and the mutation service rejects the second one.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // leading separators are dropped
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			// Any run of spaces, punctuation or other characters collapses
			// into a single hyphen.
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
