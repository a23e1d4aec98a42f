package identifier

import (
	"regexp"
	"strings"
)

// The prefix is restricted to four digits. The suffix allows all graphic
// ASCII except '?', so that a resolver-style query string is never mistaken
// for part of the identifier.
var doiPattern = regexp.MustCompile(`^10\.[0-9]{4}/[!->@-~]+$`)

// ValidateDoi returns the canonical (uppercased) form of a scheme-less DOI
// such as "10.5060/foo". The second return value is false if s is not a
// syntactically valid DOI.
func ValidateDoi(s string) (string, bool) {
	if strings.HasSuffix(s, "\n") || !doiPattern.MatchString(s) {
		return "", false
	}
	return strings.ToUpper(s), true
}
