package protocol

import (
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/common"
	"strconv"
)

// --------------------------------------------------------------------------
// Reply Kinds
// --------------------------------------------------------------------------

// Kind discriminates the variants of a Reply
type Kind uint8

const (
	KindStatus  Kind = iota + 1 // +OK
	KindError                   // -ERR message
	KindInteger                 // :42
	KindBulk                    // $3 foo, $-1 for nil
	KindArray                   // *2 ..., *-1 for nil
)

// Wire markers of the reply kinds
const (
	markerStatus  = '+'
	markerError   = '-'
	markerInteger = ':'
	markerBulk    = '$'
	markerArray   = '*'
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// --------------------------------------------------------------------------
// Reply Structure
// --------------------------------------------------------------------------

// Reply is a single decoded server reply. Which fields are used depends on Kind:
//   - KindStatus, KindError, KindBulk: Str
//   - KindInteger: Int
//   - KindArray: Elems
//
// Null marks the nil bulk string ($-1) and the nil array (*-1). An empty bulk
// string has Null == false and a zero length Str.
type Reply struct {
	Kind  Kind
	Str   []byte
	Int   int64
	Elems []Reply
	Null  bool
}

// StatusReply creates a simple string reply
func StatusReply(s string) Reply {
	return Reply{Kind: KindStatus, Str: []byte(s)}
}

// ErrorReply creates a server error reply
func ErrorReply(msg string) Reply {
	return Reply{Kind: KindError, Str: []byte(msg)}
}

// IntegerReply creates an integer reply
func IntegerReply(n int64) Reply {
	return Reply{Kind: KindInteger, Int: n}
}

// BulkReply creates a bulk string reply. A nil slice still yields an empty, non-nil bulk string.
func BulkReply(b []byte) Reply {
	if b == nil {
		b = []byte{}
	}
	return Reply{Kind: KindBulk, Str: b}
}

// NilBulkReply creates the nil bulk string reply
func NilBulkReply() Reply {
	return Reply{Kind: KindBulk, Null: true}
}

// ArrayReply creates an array reply
func ArrayReply(elems ...Reply) Reply {
	if elems == nil {
		elems = []Reply{}
	}
	return Reply{Kind: KindArray, Elems: elems}
}

// NilArrayReply creates the nil array reply
func NilArrayReply() Reply {
	return Reply{Kind: KindArray, Null: true}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// IsNil reports whether the reply is the nil bulk string or the nil array
func (r Reply) IsNil() bool {
	return r.Null && (r.Kind == KindBulk || r.Kind == KindArray)
}

// IsError reports whether the server answered with an error
func (r Reply) IsError() bool {
	return r.Kind == KindError
}

// Err returns the server error carried by an error reply, nil for every other kind
func (r Reply) Err() *common.CommandError {
	if r.Kind != KindError {
		return nil
	}
	return &common.CommandError{Message: string(r.Str)}
}

// Text returns the textual payload of status, error and bulk replies and the decimal
// form of integer replies. Arrays and nil replies return an empty string.
func (r Reply) Text() string {
	switch r.Kind {
	case KindStatus, KindError, KindBulk:
		return string(r.Str)
	case KindInteger:
		return strconv.FormatInt(r.Int, 10)
	default:
		return ""
	}
}

// Interface converts the reply into plain Go values:
// nil for nil replies, string for status and bulk, int64 for integers,
// *common.CommandError for errors and []any for arrays.
func (r Reply) Interface() any {
	if r.IsNil() {
		return nil
	}
	switch r.Kind {
	case KindStatus, KindBulk:
		return string(r.Str)
	case KindInteger:
		return r.Int
	case KindError:
		return r.Err()
	case KindArray:
		out := make([]any, len(r.Elems))
		for i, e := range r.Elems {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// String returns a short debugging representation
func (r Reply) String() string {
	if r.IsNil() {
		return fmt.Sprintf("%s(nil)", r.Kind)
	}
	switch r.Kind {
	case KindArray:
		return fmt.Sprintf("array(%d)", len(r.Elems))
	case KindInteger:
		return fmt.Sprintf("integer(%d)", r.Int)
	default:
		return fmt.Sprintf("%s(%q)", r.Kind, r.Str)
	}
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Marshal encodes the reply in its wire format
func (r Reply) Marshal() []byte {
	return r.AppendMarshal(nil)
}

// AppendMarshal appends the wire format of the reply to dst
func (r Reply) AppendMarshal(dst []byte) []byte {
	switch r.Kind {
	case KindStatus:
		dst = append(dst, markerStatus)
		dst = append(dst, r.Str...)
		return append(dst, '\r', '\n')
	case KindError:
		dst = append(dst, markerError)
		dst = append(dst, r.Str...)
		return append(dst, '\r', '\n')
	case KindInteger:
		dst = append(dst, markerInteger)
		dst = strconv.AppendInt(dst, r.Int, 10)
		return append(dst, '\r', '\n')
	case KindBulk:
		if r.Null {
			return append(dst, "$-1\r\n"...)
		}
		return appendBulk(dst, r.Str)
	case KindArray:
		if r.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = appendHeader(dst, markerArray, len(r.Elems))
		for _, e := range r.Elems {
			dst = e.AppendMarshal(dst)
		}
		return dst
	default:
		return dst
	}
}

func appendHeader(dst []byte, marker byte, n int) []byte {
	dst = append(dst, marker)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, '\r', '\n')
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = appendHeader(dst, markerBulk, len(b))
	dst = append(dst, b...)
	return append(dst, '\r', '\n')
}
