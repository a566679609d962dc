package correlation

import (
	"regexp"
	"strings"
)

var refPattern = regexp.MustCompile(`\[(REF-[A-Z0-9]+)\]`)

// ExtractRefCode pulls the bracketed reference token out of a subject
// line, normalized to upper case at extraction so later matching is
// exact-string. Returns "" when no token is present.
func ExtractRefCode(subject string) string {
	m := refPattern.FindStringSubmatch(strings.ToUpper(subject))
	if m == nil {
		return ""
	}
	return m[1]
}

// StampRefCode prepends the bracketed reference token to a subject
// unless one is already present.
func StampRefCode(subject, ref string) string {
	if ref == "" || ExtractRefCode(subject) != "" {
		return subject
	}
	return strings.TrimSpace("[" + ref + "] " + subject)
}
