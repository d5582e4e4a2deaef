// Package protocol implements the framing of the request/response serialization
// protocol (RESP2) spoken by the key-value server. It converts commands into their
// wire format and decodes exactly one reply per call, without interpreting any
// command semantics.
//
// Wire format:
//
//	request:  *<argc>\r\n  then  $<len>\r\n<arg>\r\n  per argument
//	replies:  +status\r\n
//	          -error message\r\n
//	          :integer\r\n
//	          $<len>\r\n<bytes>\r\n   ($-1\r\n is the nil bulk string)
//	          *<n>\r\n<n replies>     (*-1\r\n is the nil array)
//
// Key Components:
//
//   - Command: an ordered list of byte-string arguments.
//
//   - Reply: a tagged value whose Kind is one of status, error, integer, bulk or array.
//     A well-formed server error frame decodes to a KindError reply, never to a Go error.
//
//   - Reader: decodes replies from a buffered stream. Only I/O failures and malformed
//     streams (errors wrapping ErrMalformed) are returned as errors.
//
//   - Writer: buffers encoded commands until Flush.
//
// Thread Safety:
//
//	Reader and Writer keep internal buffers and must not be shared between goroutines.
package protocol
