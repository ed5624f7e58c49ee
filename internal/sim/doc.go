// Package sim defines the fixed-size simulation records that travel in batch
// and legacy UDP datagrams, together with their frame.Layout implementations.
//
// Records are encoded field by field in host-native byte order with no
// padding, matching the batch header.
package sim
