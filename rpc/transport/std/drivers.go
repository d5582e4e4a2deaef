package std

import (
	"github.com/ValentinKolb/rconn/rpc/transport"
	"github.com/ValentinKolb/rconn/rpc/transport/base"
	"github.com/ValentinKolb/rconn/rpc/transport/tcp"
	"github.com/ValentinKolb/rconn/rpc/transport/unix"
	"sync"
)

const (
	// Name is the default driver. A plain connect that times out is retried once over TLS.
	Name = "std"
	// NameStrict is the same driver without the implicit TLS retry
	NameStrict = "std-strict"
)

var registerOnce sync.Once

func init() {
	Register()
}

// Register adds the built-in drivers to the process-wide registry.
// It runs once, later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		// Names and factories are static, registration cannot fail
		_ = transport.Register(transport.Entry{
			Name:         Name,
			Capabilities: transport.CapTCP | transport.CapUnix | transport.CapTLS | transport.CapTLSFallback,
			New:          NewDriver,
		})
		_ = transport.Register(transport.Entry{
			Name:         NameStrict,
			Capabilities: transport.CapTCP | transport.CapUnix | transport.CapTLS,
			New:          NewStrictDriver,
		})
	})
}

// NewDriver creates a disconnected driver using the net package connectors
func NewDriver() transport.IDriver {
	return base.NewDriver(Name, connectors(), true)
}

// NewStrictDriver creates a disconnected driver that requires explicit TLS configuration
func NewStrictDriver() transport.IDriver {
	return base.NewDriver(NameStrict, connectors(), false)
}

func connectors() base.Connectors {
	return base.Connectors{
		TCP:  tcp.NewConnector(),
		TLS:  tcp.NewTLSConnector(),
		Unix: unix.NewConnector(),
	}
}
