package tcp

import (
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/transport/base"
	"net"
	"time"
)

const (
	defaultKeepAlive = 30 * time.Second
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct {
	noDelay   bool
	keepAlive time.Duration
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(config common.Config, timeout time.Duration) (net.Conn, error) {
	return base.NewDialer(timeout).Dial("tcp", net.JoinHostPort(config.Host, itoa(config.Port)))
}

// UpgradeConnection disables Nagle's algorithm and enables keep-alive probes
func (c *clientConnector) UpgradeConnection(conn net.Conn, _ common.Config) error {
	return upgradeTCP(conn, c.noDelay, c.keepAlive)
}

// --------------------------------------------------------------------------
// Connector Factory Method
// --------------------------------------------------------------------------

// NewConnector creates a TCP connector with TCP_NODELAY and a 30s keep-alive period
func NewConnector() base.IClientConnector {
	return &clientConnector{
		noDelay:   true,
		keepAlive: defaultKeepAlive,
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// upgradeTCP applies the socket options to conn if it is a *net.TCPConn
func upgradeTCP(conn net.Conn, noDelay bool, keepAlive time.Duration) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	if err := tcpConn.SetNoDelay(noDelay); err != nil {
		return err
	}

	if keepAlive > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(keepAlive); err != nil {
			return err
		}
	}
	return nil
}
