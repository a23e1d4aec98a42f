// Package identifier validates and canonicalizes scheme-less DOI and ARK
// identifiers, and maps DOIs onto the "shadow ARKs" used to track them.
//
// Validation is a query, not a control-flow exception: every function
// reports an invalid identifier through a false second return value and
// never panics on malformed input.
//
// Canonical forms:
//
//   - DOI: "10.5060/foo" canonicalizes to "10.5060/FOO".
//   - ARK: "13030/-foo--bar" canonicalizes to "13030/foobar" and
//     "13030/.foo." to "13030/foo".
//   - Shadow ARK: the DOI "10.5060/FOO" shadows to "b5060/foo".
package identifier
