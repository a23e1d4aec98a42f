package minter

import "strconv"

// Keys used by the minter state.
const (
	keyBaseCount        = "basecount"
	keyCombinedCount    = "oacounter"
	keyMaxCombinedCount = "oatop"
	keyTotalCount       = "total"
	keyMaxPerCounter    = "percounter"
	keyTemplate         = "template"
	keyMask             = "mask"
	keyAtLast           = "atlast"
	keyActiveCounters   = "saclist"
	keyInactiveCounters = "siclist"
)

// compatibilityDefaults are not used here. They are set so that other
// noid-compatible readers, such as N2T, can open the minter.
var compatibilityDefaults = []struct {
	key   string
	value string
}{
	{"addcheckchar", "1"},
	{"atlast_status", "3"},
	{"dbversion", "Generated by pidminter"},
	{"erc", "Generated by pidminter"},
	{"expandable", "1"},
	{"fseqnum", "1"},
	{"generator_type", "random"},
	{"germ", "0"},
	{"gseqnum", "1"},
	{"gseqnum_date", "0"},
	{"held", "0"},
	{"lzskipcount", "0"},
	{"maskskipcount", "0"},
	{"oklz", "1"},
	{"padwidth", "20"},
	{"queued", "0"},
	{"status", "e"},
	{"type", "rand"},
	{"unbounded", "1"},
	{"version", "0.1.0"},
}

// CounterTopKey names the high-water mark key of counter n.
func CounterTopKey(n int) string { return "c" + strconv.Itoa(n) + "/top" }

// CounterValueKey names the current value key of counter n.
func CounterValueKey(n int) string { return "c" + strconv.Itoa(n) + "/value" }

// DefaultKeys returns every key a freshly initialized minter holds.
func DefaultKeys() []string {
	keys := []string{
		keyBaseCount, keyCombinedCount, keyMaxCombinedCount, keyTotalCount, keyMaxPerCounter,
		keyTemplate, keyMask, keyAtLast, keyActiveCounters, keyInactiveCounters,
	}
	for _, d := range compatibilityDefaults {
		keys = append(keys, d.key)
	}
	return keys
}

func seedDefaults(s *Session) {
	for _, k := range []string{keyBaseCount, keyCombinedCount, keyMaxCombinedCount, keyTotalCount, keyMaxPerCounter} {
		_ = s.SetInt(k, 0)
	}
	for _, k := range []string{keyTemplate, keyMask, keyAtLast, keyActiveCounters, keyInactiveCounters} {
		_ = s.Set(k, "")
	}
	for _, d := range compatibilityDefaults {
		_ = s.Set(d.key, d.value)
	}
}
