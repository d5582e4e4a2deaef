package cmd

import (
	"bytes"
	"github.com/ValentinKolb/rconn/rpc/transport"
	"github.com/ValentinKolb/rconn/rpc/transport/testserver"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintDrivers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDrivers(&buf, []transport.Entry{
		{Name: "std", Capabilities: transport.CapTCP | transport.CapTLS},
		{Name: "other", Capabilities: transport.CapUnix},
	}))

	assert.Equal(t, "NAME   CAPABILITIES\nstd    tcp,tls\nother  unix\n", buf.String())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})

	require.NoError(t, RootCmd.Execute())
	assert.Equal(t, "rconn v"+Version+"\n", buf.String())
}

func TestKVCallCommand(t *testing.T) {
	srv := testserver.NewTCP(t)
	port := strconv.Itoa(srv.Config().Port)

	RootCmd.SetArgs([]string{"kv", "call", "--port", port, "--read-timeout", "2", "SET", "greeting", "hello"})
	t.Cleanup(func() { RootCmd.SetArgs(nil) })
	require.NoError(t, RootCmd.Execute())

	received := srv.Received()
	require.Len(t, received, 1)
	assert.Equal(t, `"SET" "greeting" "hello"`, received[0].String())
}

func TestKVCommandConnectionRefused(t *testing.T) {
	srv := testserver.NewTCP(t)
	port := strconv.Itoa(srv.Config().Port)
	srv.Close()

	RootCmd.SetArgs([]string{"kv", "ping", "--port", port, "--connect-timeout", "1"})
	t.Cleanup(func() { RootCmd.SetArgs(nil) })
	assert.Error(t, RootCmd.Execute())
}
