package base

import (
	"net"
	"time"
)

// setDeadline applies timeout to the next blocking call through set
// (SetReadDeadline or SetWriteDeadline). A zero timeout sets an already
// expired deadline, so the call fails unless it can complete at once.
func setDeadline(set func(time.Time) error, timeout time.Duration) error {
	return set(time.Now().Add(timeout))
}

// NewDialer returns a dialer whose connect (and tls handshake) must finish within timeout.
// A zero timeout makes the dial fail immediately with a timeout error.
func NewDialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{Deadline: time.Now().Add(timeout), KeepAlive: -1}
}
