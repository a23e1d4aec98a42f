// Package minter holds the durable allocation state of an identifier minter
// and the transactional session through which it is changed.
//
// A Session loads a minter's whole record collection into a working copy
// when it opens. Reads and writes only touch the working copy. Closing the
// session with the Success outcome writes the working copy back as a unit;
// every other outcome (a dry run, a failure, or a cooperative early exit)
// discards it and leaves storage exactly as it was. Identifiers handed out
// by a discarded session are handed out again by the next one.
//
// State is a typed view over a Session that exposes the minter's counters,
// template and counter lists as ordinary Go fields.
//
// The package performs no locking of its own; the storage.Collection in use
// must guarantee a single writer.
package minter
