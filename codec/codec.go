// Package codec percent-encodes arbitrary text so that it can be embedded in
// log records and minter arguments, and decodes it again.
//
// Text is first encoded as UTF-8. Every byte that is not exempt under the
// chosen Profile is replaced by '%' followed by two uppercase hex digits.
// Exempt bytes pass through unchanged. Decode reverses any of the profiles.
package codec

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Profile selects which characters are exempt from encoding.
type Profile int

const (
	// LogMessage exempts graphic ASCII and space, except '%'.
	// Used for exception strings in log records.
	LogMessage Profile = iota + 1

	// LogField is LogMessage with space encoded as well.
	// Used for log record fields other than exception strings.
	LogField

	// NoidArgument is LogField with (') and (") encoded as well.
	NoidArgument

	// NoidElement is NoidArgument with (:) encoded as well.
	// Used for minter element names.
	NoidElement
)

var (
	// ErrMalformedPercentEncoding is returned when a '%' is not followed by
	// two hex digits.
	ErrMalformedPercentEncoding = errors.New("malformed percent-encoding")

	// ErrInvalidUTF8 is returned when the decoded bytes are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("decoded text is not valid UTF-8")

	// ErrUnknownProfile is returned by ParseProfile.
	ErrUnknownProfile = errors.New("unknown encoding profile")
)

const upperHex = "0123456789ABCDEF"

// String returns the profile's name.
func (p Profile) String() string {
	switch p {
	case LogMessage:
		return "log-message"
	case LogField:
		return "log-field"
	case NoidArgument:
		return "noid-argument"
	case NoidElement:
		return "noid-element"
	default:
		return "unknown"
	}
}

// ParseProfile maps the profile number 1..4 to a Profile.
func ParseProfile(n int) (Profile, error) {
	p := Profile(n)
	if p < LogMessage || p > NoidElement {
		return 0, ErrUnknownProfile
	}
	return p, nil
}

// exempt reports whether b passes through unencoded under p.
func (p Profile) exempt(b byte) bool {
	if b < ' ' || b > '~' || b == '%' {
		return false
	}
	switch p {
	case LogMessage:
		return true
	case LogField:
		return b != ' '
	case NoidArgument:
		return b != ' ' && b != '\'' && b != '"'
	case NoidElement:
		return b != ' ' && b != '\'' && b != '"' && b != ':'
	}
	return false
}

// Encode percent-encodes s under profile p.
func Encode(p Profile, s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if p.exempt(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

// Decode reverses Encode for every profile. Hex digits may be of either case.
func Decode(s string) (string, error) {
	if strings.IndexByte(s, '%') < 0 {
		if !utf8.ValidString(s) {
			return "", ErrInvalidUTF8
		}
		return s, nil
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			buf = append(buf, c)
			continue
		}
		if i+2 >= len(s) {
			return "", ErrMalformedPercentEncoding
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", ErrMalformedPercentEncoding
		}
		buf = append(buf, hi<<4|lo)
		i += 2
	}

	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
