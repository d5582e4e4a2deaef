package transport

import (
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"strings"
)

// --------------------------------------------------------------------------
// Driver
// --------------------------------------------------------------------------

// IDriver is the capability interface every connection driver implements.
// A driver owns at most one transport handle and serves one caller at a time.
type IDriver interface {
	// Name returns the registry name of the driver (e.g. "std")
	Name() string

	// Connect opens the transport described by config and applies its read timeout.
	// A driver that is already connected closes its old handle first.
	Connect(config common.Config) error

	// IsConnected reports whether the driver holds an open handle. It never fails.
	IsConnected() bool

	// SetTimeout sets the timeout in (fractional) seconds applied to every following
	// blocking read and write. 0 means no wait, the call fails unless it completes at once.
	SetTimeout(seconds float64) error

	// Write encodes and flushes one command
	Write(cmd protocol.Command) error

	// Read blocks until one complete reply is available or the timeout elapses.
	// Server errors are returned as KindError replies, not as errors.
	Read() (protocol.Reply, error)

	// Disconnect closes the handle if present. Calling it again is a no-op.
	Disconnect() error
}

// --------------------------------------------------------------------------
// Capabilities
// --------------------------------------------------------------------------

// Capability is a bit set describing what a driver can do
type Capability uint8

const (
	CapTCP         Capability = 1 << iota // plain tcp connections
	CapUnix                               // unix domain sockets
	CapTLS                                // explicit tls connections
	CapTLSFallback                        // retries a timed out plain connect over tls
)

// Has reports whether c contains all capabilities of other
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	names := make([]string, 0, 4)
	if c.Has(CapTCP) {
		names = append(names, "tcp")
	}
	if c.Has(CapUnix) {
		names = append(names, "unix")
	}
	if c.Has(CapTLS) {
		names = append(names, "tls")
	}
	if c.Has(CapTLSFallback) {
		names = append(names, "tls-fallback")
	}
	return strings.Join(names, ",")
}

// Factory creates a new, disconnected driver
type Factory func() IDriver

// Entry is one candidate driver in the registry
type Entry struct {
	Name         string
	Capabilities Capability
	New          Factory
}
