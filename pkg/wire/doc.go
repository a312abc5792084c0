// Package wire implements the SOME/IP Service Discovery message format.
//
// An SD message is a SOME/IP header followed by the SD header, a list of
// fixed-size entries and a list of variable-size options:
//
//	+----------------------------------------------------------+
//	| SOME/IP header (16 bytes, message id 0xFFFF8100)         |
//	+----------------------------------------------------------+
//	| Flags (1) | Reserved (3)                                 |
//	| Length of entries array (4)                              |
//	| Entries (16 bytes each)                                  |
//	| Length of options array (4)                              |
//	| Options (3 + length bytes each)                          |
//	+----------------------------------------------------------+
//
// All multi-byte fields are big-endian.
//
// # Decoding
//
// Decode validates the headers and every length field once, builds an
// index of option offsets and returns a Message. Entries and options are
// then decoded on demand through accessors that never read past the
// buffer. Any inconsistency in the option list makes the whole message
// malformed.
//
// # Encoding
//
// Builder appends entries together with their options while honoring a
// maximum message size. Option lists are deduplicated against the options
// already serialized into the message so that entries sharing endpoints
// reference the same option runs.
package wire
