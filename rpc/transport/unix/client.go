package unix

import (
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/transport/base"
	"net"
	"time"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(config common.Config, timeout time.Duration) (net.Conn, error) {
	return base.NewDialer(timeout).Dial("unix", config.Path)
}

func (c *clientConnector) UpgradeConnection(_ net.Conn, _ common.Config) error {
	return nil
}

// --------------------------------------------------------------------------
// Connector Factory Method
// --------------------------------------------------------------------------

// NewConnector creates a new Unix socket connector
func NewConnector() base.IClientConnector {
	return &clientConnector{}
}
