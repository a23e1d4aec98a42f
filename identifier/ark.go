package identifier

import (
	"regexp"
	"strings"
)

// A 'b' first character is accepted so that shadow ARKs validate; the
// suffix may contain any graphic ASCII and has no length limit.
var arkPattern = regexp.MustCompile(`^((?:[0-9]|b)[0-9]{4}(?:[0-9]{4})?/)([!-~]+)$`)

const lowerHex = "0123456789abcdef"

// ValidateArk returns the canonical form of a scheme-less ARK such as
// "13030/foo". The second return value is false if s is not a syntactically
// valid ARK or if its suffix normalizes to nothing.
//
// Normalization of the suffix, in order: hyphens are removed; runs of
// structural characters ('.' and '/') collapse to their first character;
// one leading and one trailing structural character are stripped; and
// percent-encodings are normalized. Variant paths are not re-ordered, since
// component order in DOIs is significant.
func ValidateArk(s string) (string, bool) {
	if strings.HasSuffix(s, "\n") {
		return "", false
	}
	m := arkPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	prefix, suffix := m[1], m[2]

	suffix = strings.ReplaceAll(suffix, "-", "")
	suffix = collapseStructural(suffix)
	suffix = trimStructural(suffix)
	if suffix == "" {
		return "", false
	}

	suffix, ok := normalizePercentEncoding(suffix)
	if !ok {
		return "", false
	}
	return prefix + suffix, true
}

func isStructural(c byte) bool {
	return c == '.' || c == '/'
}

// collapseStructural replaces every run of two or more structural
// characters with the run's first character.
func collapseStructural(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if i > 0 && isStructural(s[i]) && isStructural(s[i-1]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func trimStructural(s string) string {
	if s != "" && isStructural(s[0]) {
		s = s[1:]
	}
	if s != "" && isStructural(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

// isUnreserved reports whether c may appear literally in a canonical suffix
// in place of its percent-encoding.
func isUnreserved(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	}
	return strings.IndexByte("=#*+@_$", c) >= 0
}

func isArkChar(c byte) bool {
	return isUnreserved(c) || isStructural(c)
}

// normalizePercentEncoding decodes %XX sequences that stand for unreserved
// characters, lowercases the remaining ones and encodes any literal
// character outside the ARK character set. A '%' that does not start a
// valid sequence fails normalization.
func normalizePercentEncoding(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' {
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return "", false
			}
			decoded := hexValue(s[i+1])<<4 | hexValue(s[i+2])
			if isUnreserved(decoded) {
				b.WriteByte(decoded)
			} else {
				b.WriteString(strings.ToLower(s[i : i+3]))
			}
			i += 2
			continue
		}
		if isArkChar(c) {
			b.WriteByte(c)
			continue
		}
		writeLowerEscape(&b, c)
	}
	return b.String(), true
}

func writeLowerEscape(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(lowerHex[c>>4])
	b.WriteByte(lowerHex[c&0x0f])
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
