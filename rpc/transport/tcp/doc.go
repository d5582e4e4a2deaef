// Package tcp implements the TCP and TLS connectors of the connection driver.
// It provides concrete implementations of the base package's connector interface;
// connection state, timeouts and the protocol codec live in the base package.
//
// Key Components:
//
//   - clientConnector: dials plain TCP with the connect timeout and sets
//     TCP_NODELAY and keep-alive on the socket.
//
//   - tlsConnector: dials TCP and performs the TLS handshake within the same
//     connect timeout, using the TLS settings of the connection configuration.
package tcp
