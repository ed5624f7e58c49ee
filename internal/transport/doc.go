// Package transport owns sockets: the UDP receive loop, the UDP batch sender,
// and the TCP control channel client and server.
//
// Ownership boundary:
// - transport moves bytes and manages lifecycles.
// - framing and parsing live in internal/protocol.
// - what a datagram or request means is decided by the handler.
package transport
