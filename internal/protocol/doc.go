// Package protocol owns the wire contracts shared by the simulator and MFR.
//
// Ownership boundary:
// - error taxonomy for every decode and parse path
// - checksum, batch frame, sequence and batch codec primitives (subpackages)
// - control channel framing and command/response layouts (subpackages)
//
// Nothing under protocol performs I/O other than the io.Reader/io.Writer
// helpers in tcpframe.
package protocol
