package testserver

import (
	"crypto/tls"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"github.com/edwingeng/deque/v2"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// -----------------------------------------------------------
// Script Steps
// -----------------------------------------------------------

// defaultTimeout is the connect and read timeout of Config (seconds)
const defaultTimeout = 2

// Step is the server's reaction to one received command
type Step struct {
	Reply []byte        // raw bytes written back (may be malformed on purpose)
	Delay time.Duration // wait before replying
	Stall bool          // never reply, keep the connection open until Close
	Close bool          // close the connection after writing Reply (if any)
}

// Reply creates a step answering with the encoding of r
func Reply(r protocol.Reply) Step {
	return Step{Reply: r.Marshal()}
}

// Raw creates a step answering with raw wire bytes
func Raw(wire string) Step {
	return Step{Reply: []byte(wire)}
}

// Stall creates a step that never answers
func Stall() Step {
	return Step{Stall: true}
}

// CloseConn creates a step that closes the connection without answering
func CloseConn() Step {
	return Step{Close: true}
}

// -----------------------------------------------------------
// Server
// -----------------------------------------------------------

// Server is a scripted server speaking the wire protocol, used by tests.
// Each received command consumes the next queued Step; with an empty queue the
// server answers PING, ECHO, SET, GET, DEL and QUIT from an in-memory map.
type Server struct {
	tb       testing.TB
	listener net.Listener
	config   common.Config

	mu       sync.Mutex
	script   *deque.Deque[Step]
	received []protocol.Command
	conns    map[net.Conn]struct{}
	data     map[string][]byte

	accepted atomic.Int64
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewTCP starts a server on a random local tcp port
func NewTCP(tb testing.TB) *Server {
	tb.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("Failed to create test server: %v", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	conf := common.DefaultConfig()
	conf.Host = addr.IP.String()
	conf.Port = addr.Port

	return start(tb, listener, conf)
}

// NewUnix starts a server on a unix socket in a temporary directory
func NewUnix(tb testing.TB) *Server {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "rconn.sock")
	listener, err := net.Listen("unix", path)
	if err != nil {
		tb.Fatalf("Failed to create unix test server: %v", err)
	}

	conf := common.DefaultConfig()
	conf.Scheme = common.SchemeUnix
	conf.Path = path

	return start(tb, listener, conf)
}

// NewTLS starts a tls server with a freshly generated self-signed certificate.
// The returned Config trusts that certificate through TLSCAFile.
func NewTLS(tb testing.TB) *Server {
	tb.Helper()

	cert, caFile := generateCertificate(tb)

	tcpListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("Failed to create tls test server: %v", err)
	}
	listener := tls.NewListener(tcpListener, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})

	addr := tcpListener.Addr().(*net.TCPAddr)
	conf := common.DefaultConfig()
	conf.Scheme = common.SchemeSSL
	conf.SSL = true
	conf.Host = addr.IP.String()
	conf.Port = addr.Port
	conf.TLSCAFile = caFile

	return start(tb, listener, conf)
}

func start(tb testing.TB, listener net.Listener, conf common.Config) *Server {
	conf.ConnectTimeout = defaultTimeout
	conf.ReadTimeout = defaultTimeout

	s := &Server{
		tb:       tb,
		listener: listener,
		config:   conf,
		script:   deque.NewDeque[Step](),
		conns:    make(map[net.Conn]struct{}),
		data:     make(map[string][]byte),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	tb.Cleanup(s.Close)
	return s
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// Config returns a connection configuration pointing at the server with
// connect and read timeouts of 2 seconds
func (s *Server) Config() common.Config {
	return s.config
}

// Enqueue appends steps to the script
func (s *Server) Enqueue(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, step := range steps {
		s.script.PushBack(step)
	}
}

// Received returns a copy of all commands received so far
func (s *Server) Received() []protocol.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Command, len(s.received))
	copy(out, s.received)
	return out
}

// Accepted returns the number of accepted connections
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Close stops the server and closes all open connections. It is safe to call twice.
func (s *Server) Close() {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	close(s.done)
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	_ = s.listener.Close()
	s.wg.Wait()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}

		s.mu.Lock()
		select {
		case <-s.done:
			s.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		s.accepted.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection answers the commands of one connection until it is closed
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	reader := protocol.NewReader(conn)
	for {
		request, err := reader.ReadReply()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.tb.Logf("test server: error reading request: %v", err)
			}
			return
		}

		cmd := toCommand(request)
		step, scripted := s.next(cmd)

		if !scripted {
			step = s.execute(cmd)
		}

		if step.Delay > 0 {
			select {
			case <-time.After(step.Delay):
			case <-s.done:
				return
			}
		}
		if step.Stall {
			<-s.done
			return
		}
		if len(step.Reply) > 0 {
			if _, err := conn.Write(step.Reply); err != nil {
				return
			}
		}
		if step.Close {
			return
		}
	}
}

// next records cmd and pops the next scripted step if there is one
func (s *Server) next(cmd protocol.Command) (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received = append(s.received, cmd)
	if s.script.Len() == 0 {
		return Step{}, false
	}
	return s.script.PopFront(), true
}

// execute answers cmd from the in-memory map
func (s *Server) execute(cmd protocol.Command) Step {
	if len(cmd) == 0 {
		return Reply(protocol.ErrorReply("ERR empty command"))
	}

	name := strings.ToLower(string(cmd[0]))
	args := cmd[1:]
	arity := func(min, max int) bool {
		return len(args) >= min && (max < 0 || len(args) <= max)
	}
	wrongArity := Reply(protocol.ErrorReply(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name)))

	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "ping":
		if !arity(0, 1) {
			return wrongArity
		}
		if len(args) == 1 {
			return Reply(protocol.BulkReply(args[0]))
		}
		return Reply(protocol.StatusReply("PONG"))
	case "echo":
		if !arity(1, 1) {
			return wrongArity
		}
		return Reply(protocol.BulkReply(args[0]))
	case "set":
		if !arity(2, 2) {
			return wrongArity
		}
		s.data[string(args[0])] = append([]byte(nil), args[1]...)
		return Reply(protocol.StatusReply("OK"))
	case "get":
		if !arity(1, 1) {
			return wrongArity
		}
		value, ok := s.data[string(args[0])]
		if !ok {
			return Reply(protocol.NilBulkReply())
		}
		return Reply(protocol.BulkReply(value))
	case "del":
		if !arity(1, -1) {
			return wrongArity
		}
		var n int64
		for _, key := range args {
			if _, ok := s.data[string(key)]; ok {
				delete(s.data, string(key))
				n++
			}
		}
		return Reply(protocol.IntegerReply(n))
	case "quit":
		return Reply(protocol.StatusReply("OK"))
	default:
		return Reply(protocol.ErrorReply("ERR unknown command '" + string(cmd[0]) + "'"))
	}
}

// toCommand converts a decoded request (array of bulk strings) into a Command
func toCommand(request protocol.Reply) protocol.Command {
	if request.Kind != protocol.KindArray {
		return protocol.Command{[]byte(request.Text())}
	}
	cmd := make(protocol.Command, len(request.Elems))
	for i, e := range request.Elems {
		cmd[i] = e.Str
	}
	return cmd
}
