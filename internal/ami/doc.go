// Package ami owns the Asterisk Manager Interface connection.
//
// Ownership boundary:
// - socket transport and deadline-bounded frame reads
// - frame parsing (responses, events, flattened headers)
// - ActionID correlation and the dispatch loop
// - login handshake and connection lifecycle
//
// The protocol is used strictly one-outstanding-request-at-a-time; the
// dispatcher tolerates interleaved unsolicited events but never pipelines.
// Tabular command output is opaque text here; shaping it is the caller's
// concern.
package ami
