package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Driver metrics (exposed through metrics.WritePrometheus)
// --------------------------------------------------------------------------

var (
	commandsWritten = metrics.NewCounter(`rconn_commands_written_total`)
	commandErrors   = metrics.NewCounter(`rconn_command_error_replies_total`)
	tlsFallbacks    = metrics.NewCounter(`rconn_tls_fallbacks_total`)
	protocolErrors  = metrics.NewCounter(`rconn_protocol_errors_total`)
)

// recordConnect counts a successful connect per driver and medium
func recordConnect(driver, medium string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`rconn_connects_total{driver=%q,medium=%q}`, driver, medium)).Inc()
}

// recordConnectError counts a failed connect per driver and error kind
func recordConnectError(driver string, err error) {
	kind := "connection"
	if common.IsTimeout(err) {
		kind = "timeout"
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`rconn_connect_errors_total{driver=%q,kind=%q}`, driver, kind)).Inc()
}

// recordIOError counts a classified read or write failure
func recordIOError(err error) {
	var timeoutErr *common.TimeoutError
	switch {
	case errors.As(err, &timeoutErr):
		metrics.GetOrCreateCounter(fmt.Sprintf(`rconn_timeouts_total{op=%q}`, timeoutErr.Op)).Inc()
	case common.IsProtocol(err):
		protocolErrors.Inc()
	}
}
