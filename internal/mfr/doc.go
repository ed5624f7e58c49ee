// Package mfr is the radar control side of the link.
//
// Ownership boundary:
// - CommManager owns the inbound UDP channel, its batch receiver and
//   sequence tracker, and the legacy single-record fallback.
// - Picture owns the latest per-id target and missile state.
// - Service wires both to the HTTP status surface, the stats reporter and
//   the optional status poll against the simulator control channel.
package mfr
