package client

import (
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"github.com/ValentinKolb/rconn/rpc/transport"
	_ "github.com/ValentinKolb/rconn/rpc/transport/std" // built-in drivers
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger(common.LoggerClient)
)

// Client sends commands over a single driver and waits for each reply.
// Like the driver it wraps, a Client serves one caller at a time.
type Client struct {
	driver transport.IDriver
}

// New creates a client on top of an already connected driver
func New(driver transport.IDriver) *Client {
	return &Client{driver: driver}
}

// Dial connects the named driver from the process-wide registry and wraps it.
// An empty name selects the first registered driver.
func Dial(driverName string, config common.Config) (*Client, error) {
	driver, err := transport.Connect(driverName, config)
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Client connected to %s using driver %s", config.Address(), driver.Name())
	return New(driver), nil
}

// Driver returns the underlying driver
func (c *Client) Driver() transport.IDriver {
	return c.driver
}

// Close disconnects the underlying driver
func (c *Client) Close() error {
	return c.driver.Disconnect()
}

// --------------------------------------------------------------------------
// Generic Commands
// --------------------------------------------------------------------------

// Call builds a command from args (see protocol.NewCommand), sends it and returns the reply.
// Server errors are returned as replies of kind error, not as errors.
func (c *Client) Call(args ...any) (protocol.Reply, error) {
	cmd, err := protocol.NewCommand(args...)
	if err != nil {
		return protocol.Reply{}, err
	}
	return c.Do(cmd)
}

// Do sends cmd and reads exactly one reply
func (c *Client) Do(cmd protocol.Command) (protocol.Reply, error) {
	if err := c.driver.Write(cmd); err != nil {
		return protocol.Reply{}, err
	}
	return c.driver.Read()
}

// --------------------------------------------------------------------------
// Typed Commands
// --------------------------------------------------------------------------

// Ping checks that the server answers PING with PONG
func (c *Client) Ping() error {
	reply, err := c.invoke("PING")
	if err != nil {
		return err
	}
	if reply.Kind != protocol.KindStatus || reply.Text() != "PONG" {
		return fmt.Errorf("unexpected reply to PING: %s", reply)
	}
	return nil
}

// Get returns the value of key and whether it exists
func (c *Client) Get(key string) (value []byte, loaded bool, err error) {
	reply, err := c.invoke("GET", key)
	if err != nil {
		return nil, false, err
	}
	if reply.Kind != protocol.KindBulk {
		return nil, false, fmt.Errorf("unexpected reply to GET: %s", reply)
	}
	if reply.IsNil() {
		return nil, false, nil
	}
	return reply.Str, true, nil
}

// Set stores value under key
func (c *Client) Set(key string, value []byte) error {
	reply, err := c.invoke("SET", key, value)
	if err != nil {
		return err
	}
	if reply.Kind != protocol.KindStatus {
		return fmt.Errorf("unexpected reply to SET: %s", reply)
	}
	return nil
}

// Del deletes keys and returns how many existed
func (c *Client) Del(keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	reply, err := c.invoke("DEL", keys)
	if err != nil {
		return 0, err
	}
	if reply.Kind != protocol.KindInteger {
		return 0, fmt.Errorf("unexpected reply to DEL: %s", reply)
	}
	return reply.Int, nil
}

// invoke is used by the typed commands: an error reply is turned into a *common.CommandError
func (c *Client) invoke(args ...any) (protocol.Reply, error) {
	reply, err := c.Call(args...)
	if err != nil {
		return protocol.Reply{}, err
	}
	if reply.IsError() {
		return protocol.Reply{}, reply.Err()
	}
	return reply, nil
}
