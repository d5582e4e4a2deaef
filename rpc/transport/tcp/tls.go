package tcp

import (
	"crypto/tls"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/transport/base"
	"net"
	"strconv"
	"time"
)

// tlsConnector implements the IClientConnector interface for TLS over TCP.
// The timeout bounds the tcp connect and the handshake together.
type tlsConnector struct {
	noDelay   bool
	keepAlive time.Duration
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *tlsConnector) GetName() string {
	return "tls"
}

func (c *tlsConnector) Connect(config common.Config, timeout time.Duration) (net.Conn, error) {
	tlsConf, err := config.TLSConfig()
	if err != nil {
		return nil, err
	}

	return tls.DialWithDialer(base.NewDialer(timeout), "tcp", net.JoinHostPort(config.Host, itoa(config.Port)), tlsConf)
}

// UpgradeConnection applies the tcp socket options to the connection below the tls session
func (c *tlsConnector) UpgradeConnection(conn net.Conn, _ common.Config) error {
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return nil
	}
	return upgradeTCP(tlsConn.NetConn(), c.noDelay, c.keepAlive)
}

// --------------------------------------------------------------------------
// Connector Factory Method
// --------------------------------------------------------------------------

// NewTLSConnector creates a TLS connector with the same socket options as NewConnector
func NewTLSConnector() base.IClientConnector {
	return &tlsConnector{
		noDelay:   true,
		keepAlive: defaultKeepAlive,
	}
}

func itoa(port int) string {
	return strconv.Itoa(port)
}
