package base

import (
	"errors"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"github.com/ValentinKolb/rconn/rpc/transport/testserver"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------
// Test connectors
// -----------------------------------------------------------

// pipeConnector hands out in-memory connections and counts how often it was used
type pipeConnector struct {
	name       string
	err        error
	upgradeErr error

	mu    sync.Mutex
	calls atomic.Int32
	peers []net.Conn
}

func (c *pipeConnector) GetName() string { return c.name }

func (c *pipeConnector) Connect(_ common.Config, _ time.Duration) (net.Conn, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	client, server := net.Pipe()
	c.mu.Lock()
	c.peers = append(c.peers, server)
	c.mu.Unlock()
	return client, nil
}

func (c *pipeConnector) UpgradeConnection(net.Conn, common.Config) error {
	return c.upgradeErr
}

func (c *pipeConnector) peer(i int) net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peers[i]
}

// netConnector dials real sockets (tcp or unix) for tests against the scripted server
type netConnector struct {
	network string
	calls   atomic.Int32
}

func (c *netConnector) GetName() string { return c.network }

func (c *netConnector) Connect(config common.Config, timeout time.Duration) (net.Conn, error) {
	c.calls.Add(1)
	dialer := net.Dialer{Timeout: timeout}
	if c.network == "unix" {
		return dialer.Dial("unix", config.Path)
	}
	return dialer.Dial("tcp", net.JoinHostPort(config.Host, strconv.Itoa(config.Port)))
}

func (c *netConnector) UpgradeConnection(net.Conn, common.Config) error { return nil }

func dialTimeout() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}
}

type fakeConnectors struct {
	tcp, tls, unix *pipeConnector
}

func newFakeConnectors() fakeConnectors {
	return fakeConnectors{
		tcp:  &pipeConnector{name: "tcp"},
		tls:  &pipeConnector{name: "tls"},
		unix: &pipeConnector{name: "unix"},
	}
}

func (f fakeConnectors) connectors() Connectors {
	return Connectors{TCP: f.tcp, TLS: f.tls, Unix: f.unix}
}

func (f fakeConnectors) calls() (tcp, tls, unix int32) {
	return f.tcp.calls.Load(), f.tls.calls.Load(), f.unix.calls.Load()
}

// connectToServer returns a driver connected to srv over real sockets
func connectToServer(t *testing.T, srv *testserver.Server, readTimeout float64) *driver {
	t.Helper()
	network := "tcp"
	conf := srv.Config()
	if conf.Scheme == common.SchemeUnix {
		network = "unix"
	}
	conn := &netConnector{network: network}
	d := NewDriver("test", Connectors{TCP: conn, Unix: conn}, false).(*driver)

	conf.ConnectTimeout = 2
	conf.ReadTimeout = readTimeout
	require.NoError(t, d.Connect(conf))
	t.Cleanup(func() { _ = d.Disconnect() })
	return d
}

// -----------------------------------------------------------
// Connect
// -----------------------------------------------------------

func TestConnectUnixUsesOnlyUnixConnector(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.tcp.err = dialTimeout()
	d := NewDriver("test", fakes.connectors(), true)

	conf := common.DefaultConfig()
	conf.Scheme = common.SchemeUnix
	conf.Path = "/tmp/does-not-matter.sock"

	require.NoError(t, d.Connect(conf))
	assert.True(t, d.IsConnected())

	tcpCalls, tlsCalls, unixCalls := fakes.calls()
	assert.Equal(t, int32(0), tcpCalls)
	assert.Equal(t, int32(0), tlsCalls)
	assert.Equal(t, int32(1), unixCalls)
}

func TestConnectUnixFailureNeverFallsBack(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.unix.err = dialTimeout()
	d := NewDriver("test", fakes.connectors(), true)

	conf := common.DefaultConfig()
	conf.Scheme = common.SchemeUnix
	conf.Path = "/tmp/does-not-matter.sock"

	err := d.Connect(conf)
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err))

	tcpCalls, tlsCalls, _ := fakes.calls()
	assert.Equal(t, int32(0), tcpCalls)
	assert.Equal(t, int32(0), tlsCalls)
}

func TestConnectSSLUsesOnlyTLSConnector(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true)

	conf := common.DefaultConfig()
	conf.SSL = true

	require.NoError(t, d.Connect(conf))
	assert.True(t, d.IsConnected())

	tcpCalls, tlsCalls, unixCalls := fakes.calls()
	assert.Equal(t, int32(0), tcpCalls)
	assert.Equal(t, int32(1), tlsCalls)
	assert.Equal(t, int32(0), unixCalls)
}

func TestConnectSSLSchemeUsesOnlyTLSConnector(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true)

	conf := common.DefaultConfig()
	conf.Scheme = common.SchemeSSL
	conf.SSL = false

	require.NoError(t, d.Connect(conf))

	tcpCalls, tlsCalls, _ := fakes.calls()
	assert.Equal(t, int32(0), tcpCalls)
	assert.Equal(t, int32(1), tlsCalls)
}

func TestConnectEmptySchemeIsTCP(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true)

	conf := common.DefaultConfig()
	conf.Scheme = ""

	require.NoError(t, d.Connect(conf))
	assert.True(t, d.IsConnected())

	tcpCalls, tlsCalls, unixCalls := fakes.calls()
	assert.Equal(t, int32(1), tcpCalls)
	assert.Equal(t, int32(0), tlsCalls)
	assert.Equal(t, int32(0), unixCalls)
}

func TestConnectTimeoutFallsBackToTLSExactlyOnce(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.tcp.err = dialTimeout()
	fakes.tls.err = dialTimeout()
	d := NewDriver("test", fakes.connectors(), true)

	err := d.Connect(common.DefaultConfig())
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err))
	assert.False(t, d.IsConnected())

	tcpCalls, tlsCalls, unixCalls := fakes.calls()
	assert.Equal(t, int32(1), tcpCalls)
	assert.Equal(t, int32(1), tlsCalls)
	assert.Equal(t, int32(0), unixCalls)
}

func TestConnectTimeoutFallbackFailureIsTimeout(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.tcp.err = dialTimeout()
	tlsErr := errors.New("tls: handshake failure")
	fakes.tls.err = tlsErr
	d := NewDriver("test", fakes.connectors(), true)

	err := d.Connect(common.DefaultConfig())
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err))
	assert.ErrorIs(t, err, tlsErr)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestConnectTimeoutFallbackSucceeds(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.tcp.err = dialTimeout()
	d := NewDriver("test", fakes.connectors(), true)

	require.NoError(t, d.Connect(common.DefaultConfig()))
	assert.True(t, d.IsConnected())

	_, tlsCalls, _ := fakes.calls()
	assert.Equal(t, int32(1), tlsCalls)
}

func TestConnectWithoutFallback(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.tcp.err = dialTimeout()
	d := NewDriver("strict", fakes.connectors(), false)

	err := d.Connect(common.DefaultConfig())
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err))

	_, tlsCalls, _ := fakes.calls()
	assert.Equal(t, int32(0), tlsCalls)
}

func TestConnectRefusedDoesNotFallBack(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.tcp.err = &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	d := NewDriver("test", fakes.connectors(), true)

	err := d.Connect(common.DefaultConfig())
	require.Error(t, err)
	assert.True(t, common.IsConnection(err))
	assert.False(t, common.IsTimeout(err))
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)

	_, tlsCalls, _ := fakes.calls()
	assert.Equal(t, int32(0), tlsCalls)
}

func TestConnectInvalidConfig(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true)

	conf := common.DefaultConfig()
	conf.ReadTimeout = -1
	err := d.Connect(conf)
	assert.True(t, common.IsConnection(err))

	conf = common.DefaultConfig()
	conf.Scheme = common.SchemeUnix
	err = d.Connect(conf)
	assert.True(t, common.IsConnection(err))

	tcpCalls, tlsCalls, unixCalls := fakes.calls()
	assert.Zero(t, tcpCalls+tlsCalls+unixCalls)
}

func TestConnectMissingConnector(t *testing.T) {
	d := NewDriver("tcp-only", Connectors{TCP: &pipeConnector{name: "tcp"}}, false)

	conf := common.DefaultConfig()
	conf.SSL = true
	err := d.Connect(conf)
	require.Error(t, err)
	assert.True(t, common.IsConnection(err))
	assert.False(t, d.IsConnected())
}

func TestConnectUpgradeFailureClosesConnection(t *testing.T) {
	fakes := newFakeConnectors()
	fakes.tcp.upgradeErr = errors.New("setsockopt failed")
	d := NewDriver("test", fakes.connectors(), true)

	err := d.Connect(common.DefaultConfig())
	require.Error(t, err)
	assert.True(t, common.IsConnection(err))
	assert.False(t, d.IsConnected())

	// the peer sees the closed connection
	_, err = fakes.tcp.peer(0).Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestConnectReplacesPreviousConnection(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true)

	require.NoError(t, d.Connect(common.DefaultConfig()))
	require.NoError(t, d.Connect(common.DefaultConfig()))
	assert.True(t, d.IsConnected())

	_, err := fakes.tcp.peer(0).Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestConnectAppliesReadTimeout(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true).(*driver)

	conf := common.DefaultConfig()
	conf.ReadTimeout = 1.0000009
	require.NoError(t, d.Connect(conf))
	assert.Equal(t, int64(1_000_000), d.timeoutMicros.Load())
}

// -----------------------------------------------------------
// Disconnect and timeouts
// -----------------------------------------------------------

func TestDisconnectIsIdempotent(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true)

	assert.NoError(t, d.Disconnect())
	assert.False(t, d.IsConnected())

	require.NoError(t, d.Connect(common.DefaultConfig()))
	assert.NoError(t, d.Disconnect())
	assert.NoError(t, d.Disconnect())
	assert.False(t, d.IsConnected())
}

func TestDisconnectWhileReconnecting(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), true)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			assert.NoError(t, d.Connect(common.DefaultConfig()))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			assert.NoError(t, d.Disconnect())
		}
	}()
	wg.Wait()

	require.NoError(t, d.Disconnect())
	assert.False(t, d.IsConnected())
}

func TestSetTimeout(t *testing.T) {
	d := NewDriver("test", newFakeConnectors().connectors(), true).(*driver)

	// allowed while disconnected
	require.NoError(t, d.SetTimeout(2.5))
	assert.Equal(t, int64(2_500_000), d.timeoutMicros.Load())

	require.NoError(t, d.SetTimeout(0.0000019))
	assert.Equal(t, int64(1), d.timeoutMicros.Load())

	require.NoError(t, d.SetTimeout(0))
	assert.Equal(t, int64(0), d.timeoutMicros.Load())

	assert.Error(t, d.SetTimeout(-1))
	assert.Equal(t, int64(0), d.timeoutMicros.Load())
}

// -----------------------------------------------------------
// Write and Read
// -----------------------------------------------------------

func TestWriteAndReadWhileDisconnected(t *testing.T) {
	d := NewDriver("test", newFakeConnectors().connectors(), true)

	start := time.Now()
	err := d.Write(protocol.StringCommand("PING"))
	require.Error(t, err)
	assert.True(t, common.IsConnection(err))
	assert.ErrorIs(t, err, common.ErrNotConnected)

	_, err = d.Read()
	require.Error(t, err)
	assert.True(t, common.IsConnection(err))
	assert.ErrorIs(t, err, common.ErrNotConnected)

	assert.Less(t, time.Since(start), time.Second)
}

func TestWriteAfterDisconnectFailsPromptly(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 5)

	require.NoError(t, d.Disconnect())

	start := time.Now()
	err := d.Write(protocol.StringCommand("PING"))
	assert.ErrorIs(t, err, common.ErrNotConnected)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWriteEmptyCommand(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 5)

	assert.ErrorIs(t, d.Write(protocol.Command{}), protocol.ErrEmptyCommand)
	assert.True(t, d.IsConnected())
}

func TestWriteTimeout(t *testing.T) {
	fakes := newFakeConnectors()
	d := NewDriver("test", fakes.connectors(), false)
	require.NoError(t, d.Connect(common.DefaultConfig()))
	require.NoError(t, d.SetTimeout(0.05))

	// nobody reads the other end of the pipe
	payload := strings.Repeat("x", 64*1024)
	err := d.Write(protocol.StringCommand("SET", "key", payload))
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err))

	var timeoutErr *common.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "write", timeoutErr.Op)
	assert.False(t, d.IsConnected())
}

func TestRoundTrip(t *testing.T) {
	for _, newServer := range []func(testing.TB) *testserver.Server{testserver.NewTCP, testserver.NewUnix} {
		srv := newServer(t)
		d := connectToServer(t, srv, 2)

		require.NoError(t, d.Write(protocol.StringCommand("SET", "key", "value")))
		reply, err := d.Read()
		require.NoError(t, err)
		assert.Equal(t, protocol.StatusReply("OK"), reply)

		require.NoError(t, d.Write(protocol.StringCommand("GET", "key")))
		reply, err = d.Read()
		require.NoError(t, err)
		assert.Equal(t, "value", reply.Text())

		require.NoError(t, d.Write(protocol.StringCommand("GET", "missing")))
		reply, err = d.Read()
		require.NoError(t, err)
		assert.True(t, reply.IsNil())

		received := srv.Received()
		require.Len(t, received, 3)
		assert.Equal(t, `"SET" "key" "value"`, received[0].String())
	}
}

func TestReadNilAndEmptyBulkAreDistinct(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 2)
	srv.Enqueue(testserver.Raw("$-1\r\n"), testserver.Raw("$0\r\n\r\n"))

	require.NoError(t, d.Write(protocol.StringCommand("GET", "a")))
	nilReply, err := d.Read()
	require.NoError(t, err)

	require.NoError(t, d.Write(protocol.StringCommand("GET", "b")))
	emptyReply, err := d.Read()
	require.NoError(t, err)

	assert.True(t, nilReply.IsNil())
	assert.False(t, emptyReply.IsNil())
	assert.Equal(t, []byte{}, emptyReply.Str)
}

func TestReadCommandErrorKeepsConnection(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 2)

	require.NoError(t, d.Write(protocol.StringCommand("GET")))
	reply, err := d.Read()
	require.NoError(t, err)
	require.True(t, reply.IsError())
	assert.Equal(t, "ERR wrong number of arguments for 'get' command", reply.Err().Message)
	assert.True(t, d.IsConnected())

	require.NoError(t, d.Write(protocol.StringCommand("PING")))
	reply, err = d.Read()
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply.Text())
}

func TestReadLargeReplyAcrossManyChunks(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 5)

	value := strings.Repeat("0123456789", 100_000)
	elems := []protocol.Reply{protocol.BulkReply([]byte(value)), protocol.IntegerReply(-7), protocol.NilBulkReply()}
	srv.Enqueue(testserver.Reply(protocol.ArrayReply(elems...)))

	require.NoError(t, d.Write(protocol.StringCommand("MGET", "a", "b", "c")))
	reply, err := d.Read()
	require.NoError(t, err)
	require.Equal(t, protocol.KindArray, reply.Kind)
	require.Len(t, reply.Elems, 3)
	assert.Equal(t, value, reply.Elems[0].Text())
	assert.Equal(t, int64(-7), reply.Elems[1].Int)
	assert.True(t, reply.Elems[2].IsNil())
}

func TestReadTimeoutDisconnects(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 0.1)
	srv.Enqueue(testserver.Stall())

	require.NoError(t, d.Write(protocol.StringCommand("BLPOP", "queue", "0")))

	start := time.Now()
	_, err := d.Read()
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	var timeoutErr *common.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "read", timeoutErr.Op)
	assert.False(t, d.IsConnected())
}

func TestZeroReadTimeoutDoesNotWait(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 2)
	srv.Enqueue(testserver.Stall())

	require.NoError(t, d.Write(protocol.StringCommand("BLPOP", "queue", "0")))
	require.NoError(t, d.SetTimeout(0))

	start := time.Now()
	_, err := d.Read()
	require.Error(t, err)
	assert.True(t, common.IsTimeout(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, d.IsConnected())
}

func TestZeroTimeoutWriteFailsImmediately(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 0)

	err := d.Write(protocol.StringCommand("PING"))
	require.Error(t, err)

	var timeoutErr *common.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "write", timeoutErr.Op)
	assert.Empty(t, srv.Received())
}

func TestReadMalformedReply(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 2)
	srv.Enqueue(testserver.Raw("?what\r\n"))

	require.NoError(t, d.Write(protocol.StringCommand("PING")))
	_, err := d.Read()
	require.Error(t, err)
	assert.True(t, common.IsProtocol(err))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	assert.False(t, d.IsConnected())
}

func TestReadConnectionClosedByServer(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 2)
	srv.Enqueue(testserver.CloseConn())

	require.NoError(t, d.Write(protocol.StringCommand("PING")))
	_, err := d.Read()
	require.Error(t, err)
	assert.True(t, common.IsProtocol(err))
	assert.False(t, d.IsConnected())
}

func TestReadTruncatedReply(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 2)
	srv.Enqueue(testserver.Step{Reply: []byte("$10\r\nabc"), Close: true})

	require.NoError(t, d.Write(protocol.StringCommand("GET", "a")))

	_, err := d.Read()
	require.Error(t, err)
	assert.True(t, common.IsProtocol(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDisconnectUnblocksRead(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 30)
	srv.Enqueue(testserver.Stall())

	require.NoError(t, d.Write(protocol.StringCommand("BLPOP", "queue", "0")))

	done := make(chan error, 1)
	go func() {
		_, err := d.Read()
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, d.Disconnect())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, common.IsConnection(err))
		assert.ErrorIs(t, err, common.ErrNotConnected)
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after Disconnect")
	}
	assert.False(t, d.IsConnected())
}

func TestPipelinedCommands(t *testing.T) {
	srv := testserver.NewTCP(t)
	d := connectToServer(t, srv, 2)

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Write(protocol.StringCommand("ECHO", strconv.Itoa(i))))
	}
	for i := 0; i < 10; i++ {
		reply, err := d.Read()
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i), reply.Text())
	}
}
