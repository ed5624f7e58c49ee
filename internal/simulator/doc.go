// Package simulator is the data source side of the link: a constant-velocity
// world stepped on a fixed tick, streamed to the MFR over UDP, and steered by
// requests on the TCP control channel.
package simulator
