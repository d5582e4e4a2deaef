package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrMalformed is wrapped by every error caused by a byte stream that is not a valid reply
var ErrMalformed = errors.New("malformed reply")

const (
	// DefaultMaxBulkLen matches the default proto-max-bulk-len of the server (512 MB)
	DefaultMaxBulkLen = 512 * 1024 * 1024
	// DefaultMaxArrayLen bounds the element count of a single array
	DefaultMaxArrayLen = 1 << 24
	// DefaultMaxDepth bounds the nesting of arrays
	DefaultMaxDepth = 64

	maxArrayPrealloc = 1024

	defaultReaderSize = 16 * 1024 // 16 KB
)

// Reader decodes replies from a buffered byte stream.
// A Reader is not safe for concurrent use.
type Reader struct {
	br *bufio.Reader

	MaxBulkLen  int64
	MaxArrayLen int64
	MaxDepth    int
}

// NewReader creates a Reader with the default limits
func NewReader(rd io.Reader) *Reader {
	return &Reader{
		br:          bufio.NewReaderSize(rd, defaultReaderSize),
		MaxBulkLen:  DefaultMaxBulkLen,
		MaxArrayLen: DefaultMaxArrayLen,
		MaxDepth:    DefaultMaxDepth,
	}
}

// Reset discards any buffered data and switches to reading from rd
func (r *Reader) Reset(rd io.Reader) {
	r.br.Reset(rd)
}

// Buffered returns the number of bytes that were received but not yet decoded
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}

// ReadReply reads exactly one reply. Server errors are returned as KindError
// replies with a nil error. The returned error is either an I/O error of the
// underlying reader (io.EOF only if the stream ended before the first byte of
// the reply) or wraps ErrMalformed.
func (r *Reader) ReadReply() (Reply, error) {
	return r.readReply(0)
}

func (r *Reader) readReply(depth int) (Reply, error) {
	line, err := r.readLine()
	if err != nil {
		if depth > 0 && err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}

	switch line[0] {
	case markerStatus:
		return Reply{Kind: KindStatus, Str: copyBytes(line[1:])}, nil

	case markerError:
		return Reply{Kind: KindError, Str: copyBytes(line[1:])}, nil

	case markerInteger:
		n, err := parseInt(line[1:])
		if err != nil {
			return Reply{}, err
		}
		return Reply{Kind: KindInteger, Int: n}, nil

	case markerBulk:
		n, err := parseInt(line[1:])
		if err != nil {
			return Reply{}, err
		}
		if n == -1 {
			return NilBulkReply(), nil
		}
		if n < 0 || n > r.MaxBulkLen {
			return Reply{}, fmt.Errorf("%w: invalid bulk length %d", ErrMalformed, n)
		}
		return r.readBulk(n)

	case markerArray:
		n, err := parseInt(line[1:])
		if err != nil {
			return Reply{}, err
		}
		if n == -1 {
			return NilArrayReply(), nil
		}
		if n < 0 || n > r.MaxArrayLen {
			return Reply{}, fmt.Errorf("%w: invalid array length %d", ErrMalformed, n)
		}
		if depth >= r.MaxDepth {
			return Reply{}, fmt.Errorf("%w: arrays nested deeper than %d", ErrMalformed, r.MaxDepth)
		}
		// The header is untrusted, grow with the elements actually read
		elems := make([]Reply, 0, min(n, maxArrayPrealloc))
		for i := int64(0); i < n; i++ {
			elem, err := r.readReply(depth + 1)
			if err != nil {
				return Reply{}, err
			}
			elems = append(elems, elem)
		}
		return Reply{Kind: KindArray, Elems: elems}, nil

	default:
		return Reply{}, fmt.Errorf("%w: unknown reply marker %q", ErrMalformed, line[0])
	}
}

// readBulk reads n bytes of payload followed by CRLF
func (r *Reader) readBulk(n int64) (Reply, error) {
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Reply{}, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return Reply{}, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrMalformed)
	}
	return Reply{Kind: KindBulk, Str: buf[:n]}, nil
}

// readLine returns the next line without its CRLF terminator.
// The result is only valid until the next read.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		// Line is longer than the buffer, collect the rest
		long := append([]byte(nil), line...)
		for err == bufio.ErrBufferFull {
			line, err = r.br.ReadSlice('\n')
			long = append(long, line...)
		}
		line = long
	}
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("%w: line not terminated by CRLF", ErrMalformed)
	}
	return line[:len(line)-2], nil
}

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid integer %q", ErrMalformed, b)
	}
	return n, nil
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
