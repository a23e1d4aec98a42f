package identifier

import "strings"

// DoiToShadow returns the shadow ARK of a scheme-less DOI, for example
// "10.5060/FOO" becomes "b5060/foo". The result is in canonical ARK form.
// The second return value is false if doi is not a valid DOI.
//
// The mapping is uniform lowercasing plus percent-encoding. Percent signs
// are escaped because they carry no encoding meaning in DOIs, and every
// character that ARK normalization would otherwise drop (hyphens, and
// structural characters at the ends of the suffix or inside a run) is
// escaped too, so distinct DOIs never share a shadow ARK. The mapping is
// not reversible by ShadowToDoi in general.
func DoiToShadow(doi string) (string, bool) {
	canonical, ok := ValidateDoi(doi)
	if !ok {
		return "", false
	}
	prefix := "b" + canonical[3:8]
	suffix := canonical[8:]

	suffix = strings.ReplaceAll(suffix, "%", "%25")
	suffix = strings.ReplaceAll(suffix, "-", "%2d")
	suffix = strings.ToLower(suffix)
	suffix = escapeStructuralEnds(suffix)
	suffix = escapeStructuralRuns(suffix)

	return ValidateArk(prefix + suffix)
}

// ShadowToDoi returns the DOI that a minted shadow ARK stands for, for
// example "b5060/foo" becomes "10.5060/FOO". It is intended for ARKs minted
// by this system's counters only and is not the inverse of DoiToShadow.
func ShadowToDoi(ark string) string {
	if ark == "" {
		return "10."
	}
	return strings.ToUpper("10." + ark[1:])
}

func escapeStructuralEnds(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	last := len(s) - 1
	for i := 0; i < len(s); i++ {
		if (i == 0 || i == last) && isStructural(s[i]) {
			writeLowerEscape(&b, s[i])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escapeStructuralRuns keeps the first character of every run of structural
// characters and percent-encodes the rest.
func escapeStructuralRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if i > 0 && isStructural(s[i]) && isStructural(s[i-1]) {
			writeLowerEscape(&b, s[i])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
