package transport

import (
	"errors"
	"github.com/ValentinKolb/rconn/rpc/common"
	"net"
	"os"
	"syscall"
)

// IsTimeoutCause reports whether err is an OS or runtime level timeout:
// an expired deadline, a net.Error timeout, ETIMEDOUT, or EAGAIN/EWOULDBLOCK
// (the operation would block past the configured timeout)
func IsTimeoutCause(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isClosedCause reports whether err stems from a handle that was already closed
func isClosedCause(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, common.ErrNotConnected)
}

// ClassifyConnect maps a failed connect to a *common.TimeoutError or *common.ConnectionError
func ClassifyConnect(addr string, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeoutCause(err) {
		return &common.TimeoutError{Op: "connect", Err: err}
	}
	return &common.ConnectionError{Op: "connect", Addr: addr, Err: err}
}

// ClassifyWrite maps a failed write to a *common.TimeoutError or *common.ConnectionError
func ClassifyWrite(err error) error {
	if err == nil {
		return nil
	}
	if IsTimeoutCause(err) {
		return &common.TimeoutError{Op: "write", Err: err}
	}
	if isClosedCause(err) {
		return &common.ConnectionError{Op: "write", Err: common.ErrNotConnected}
	}
	return &common.ConnectionError{Op: "write", Err: err}
}

// ClassifyRead maps a failed read to a *common.TimeoutError, or to a
// *common.ConnectionError if the handle was closed underneath the read.
// Every other failure, including malformed replies and EOF, is a *common.ProtocolError.
func ClassifyRead(err error) error {
	if err == nil {
		return nil
	}
	if IsTimeoutCause(err) {
		return &common.TimeoutError{Op: "read", Err: err}
	}
	if isClosedCause(err) {
		return &common.ConnectionError{Op: "read", Err: common.ErrNotConnected}
	}
	return &common.ProtocolError{Message: err.Error(), Err: err}
}
