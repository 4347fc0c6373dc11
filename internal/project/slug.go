package project

import (
	"strings"
)

// Slugify derives the URL-safe identifier for a project name: lowercase
// ASCII alphanumerics with single hyphens between words. The result is a
// pure function of the name; collision disambiguation happens at creation
// time.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "project"
	}
	return slug
}
