package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"github.com/ValentinKolb/rconn/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger(common.LoggerTransport)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration.
	// The dial must finish within timeout, a timeout of 0 fails immediately.
	Connect(config common.Config, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp", "tls")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.Config) error
}

// Connectors holds the connector used for each transport medium.
// A nil connector makes the corresponding scheme fail to connect.
type Connectors struct {
	TCP  IClientConnector
	TLS  IClientConnector
	Unix IClientConnector
}

// -----------------------------------------------------------
// Driver
// -----------------------------------------------------------

// driver implements transport.IDriver on top of a net.Conn obtained from a connector.
// The handle is guarded by mu so Disconnect may be called from another goroutine
// while a Read or Write is blocked; everything else belongs to the single caller.
type driver struct {
	name        string
	connectors  Connectors
	tlsFallback bool

	mu   sync.Mutex
	conn net.Conn
	addr string

	reader        *protocol.Reader
	writer        *protocol.Writer
	timeoutMicros atomic.Int64
}

// -----------------------------------------------------------
// Driver Factory Method (used by the registered drivers)
// -----------------------------------------------------------

// NewDriver creates a disconnected driver using the given connectors.
// With tlsFallback set, a plain tcp connect that times out is retried once over tls.
func NewDriver(name string, connectors Connectors, tlsFallback bool) transport.IDriver {
	return &driver{
		name:        name,
		connectors:  connectors,
		tlsFallback: tlsFallback,
		reader:      protocol.NewReader(nil),
		writer:      protocol.NewWriter(nil),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IDriver)
// --------------------------------------------------------------------------

func (d *driver) Name() string {
	return d.name
}

func (d *driver) Connect(config common.Config) error {
	addr := config.Address()
	if err := config.Validate(); err != nil {
		return &common.ConnectionError{Op: "connect", Addr: addr, Err: err}
	}

	connectMicros, err := transport.SecondsToMicros(config.ConnectTimeout)
	if err != nil {
		return &common.ConnectionError{Op: "connect", Addr: addr, Err: err}
	}

	// Drop a previous connection, the driver owns exactly one handle
	_ = d.Disconnect()

	conn, medium, err := d.dial(config, transport.MicrosToDuration(connectMicros))
	if err != nil {
		recordConnectError(d.name, err)
		Logger.Debugf("Failed to connect to %s: %v", addr, err)
		return err
	}

	d.attach(conn, addr)

	// The read timeout must be in place before the first command
	if err := d.SetTimeout(config.ReadTimeout); err != nil {
		_ = d.Disconnect()
		return &common.ConnectionError{Op: "connect", Addr: addr, Err: err}
	}

	recordConnect(d.name, medium)
	Logger.Infof("Connected to %s using %s (driver %s)", addr, medium, d.name)
	return nil
}

func (d *driver) IsConnected() bool {
	return d.handle() != nil
}

func (d *driver) SetTimeout(seconds float64) error {
	micros, err := transport.SecondsToMicros(seconds)
	if err != nil {
		return err
	}
	d.timeoutMicros.Store(micros)
	return nil
}

func (d *driver) Write(cmd protocol.Command) error {
	conn := d.handle()
	if conn == nil {
		return &common.ConnectionError{Op: "write", Err: common.ErrNotConnected}
	}
	if len(cmd) == 0 {
		return protocol.ErrEmptyCommand
	}

	if err := setDeadline(conn.SetWriteDeadline, d.timeout()); err != nil {
		return d.fail(conn, transport.ClassifyWrite(err))
	}
	if err := d.writer.WriteCommand(cmd); err != nil {
		return d.fail(conn, transport.ClassifyWrite(err))
	}
	if err := d.writer.Flush(); err != nil {
		return d.fail(conn, transport.ClassifyWrite(err))
	}

	commandsWritten.Inc()
	return nil
}

func (d *driver) Read() (protocol.Reply, error) {
	conn := d.handle()
	if conn == nil {
		return protocol.Reply{}, &common.ConnectionError{Op: "read", Err: common.ErrNotConnected}
	}

	if err := setDeadline(conn.SetReadDeadline, d.timeout()); err != nil {
		return protocol.Reply{}, d.fail(conn, transport.ClassifyRead(err))
	}

	reply, err := d.reader.ReadReply()
	if err != nil {
		// A partially consumed reply cannot be resumed, so every failed read
		// (timeouts included) leaves the driver disconnected
		return protocol.Reply{}, d.fail(conn, transport.ClassifyRead(err))
	}

	if reply.IsError() {
		commandErrors.Inc()
		Logger.Debugf("Server replied with error: %s", reply.Str)
	}
	return reply, nil
}

func (d *driver) Disconnect() error {
	d.mu.Lock()
	conn, addr := d.conn, d.addr
	d.conn = nil
	d.mu.Unlock()

	if conn == nil {
		return nil
	}

	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		Logger.Debugf("Error closing connection to %s: %v", addr, err)
	}
	Logger.Debugf("Disconnected from %s", addr)
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dial resolves the transport medium from the configuration and connects.
// It returns the name of the connector that succeeded.
func (d *driver) dial(config common.Config, timeout time.Duration) (net.Conn, string, error) {
	addr := config.Address()

	// Unix sockets never touch tcp or tls
	if config.Scheme == common.SchemeUnix {
		conn, err := d.connectWith(d.connectors.Unix, config, timeout)
		return conn, nameOf(d.connectors.Unix), transport.ClassifyConnect(addr, err)
	}

	// Explicit tls, no plain attempt first
	if config.SSL || config.Scheme == common.SchemeSSL {
		conn, err := d.connectWith(d.connectors.TLS, config, timeout)
		return conn, nameOf(d.connectors.TLS), transport.ClassifyConnect(addr, err)
	}

	// Plain tcp, also for an empty scheme
	conn, err := d.connectWith(d.connectors.TCP, config, timeout)
	if err == nil {
		return conn, nameOf(d.connectors.TCP), nil
	}
	if !d.tlsFallback || !transport.IsTimeoutCause(err) {
		return nil, "", transport.ClassifyConnect(addr, err)
	}

	// Some deployments require tls on the same port and a plain connect simply
	// hangs until the timeout, retry exactly once over tls
	Logger.Warningf("Connect to %s timed out, trying with TLS now", addr)
	tlsFallbacks.Inc()

	conn, tlsErr := d.connectWith(d.connectors.TLS, config, timeout)
	if tlsErr != nil {
		return nil, "", &common.TimeoutError{Op: "connect", Err: errors.Join(err, tlsErr)}
	}
	return conn, nameOf(d.connectors.TLS), nil
}

// connectWith connects and upgrades a connection using a single connector
func (d *driver) connectWith(connector IClientConnector, config common.Config, timeout time.Duration) (net.Conn, error) {
	if connector == nil {
		return nil, fmt.Errorf("driver %s does not support this transport", d.name)
	}

	conn, err := connector.Connect(config, timeout)
	if err != nil {
		return nil, err
	}

	if err := connector.UpgradeConnection(conn, config); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade %s connection: %w", connector.GetName(), err)
	}
	return conn, nil
}

// attach makes conn the driver's handle and points the codec at it
func (d *driver) attach(conn net.Conn, addr string) {
	d.reader.Reset(conn)
	d.writer.Reset(conn)

	d.mu.Lock()
	d.conn = conn
	d.addr = addr
	d.mu.Unlock()
}

// handle returns the current connection or nil
func (d *driver) handle() net.Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn
}

// fail records err, drops conn if it is still the driver's handle and returns err
func (d *driver) fail(conn net.Conn, err error) error {
	recordIOError(err)

	d.mu.Lock()
	addr := d.addr
	owned := d.conn == conn
	if owned {
		d.conn = nil
	}
	d.mu.Unlock()

	Logger.Debugf("I/O failure on %s: %v", addr, err)

	if owned {
		_ = conn.Close()
	}
	return err
}

// timeout returns the configured timeout as a duration
func (d *driver) timeout() time.Duration {
	return transport.MicrosToDuration(d.timeoutMicros.Load())
}

func nameOf(connector IClientConnector) string {
	if connector == nil {
		return ""
	}
	return connector.GetName()
}
