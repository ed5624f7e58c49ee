// Package batch composes checksum, frame and sequence into the UDP batch codec.
//
// Ownership boundary:
// - sender-side chunking and the long-lived sender sequence counter
// - receiver-side validation, loss accounting and record reassembly
// - per-record fan-out to a shared downstream consumer
package batch
