// Package command owns the control-channel payload layouts.
//
// Every payload starts with a one-byte type discriminant followed by a fixed
// little-endian layout. ParseResponse turns an untrusted response buffer into
// exactly one typed Response; ParseRequest does the same for requests on the
// serving side. Parsers are pure: no I/O, no shared state, and results never
// alias the input buffer.
package command
