// Package frame encodes and decodes the UDP batch frame:
//
//	magic u32 | seqID u32 | payloadCRC u32 | count u32 | record[count]
//
// Header fields and records use host-native byte order, matching peers that
// copy packed structs straight onto the wire. Both ends must share byte order.
package frame
