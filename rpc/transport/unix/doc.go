// Package unix implements the Unix domain socket connector of the connection driver.
// It provides optimized communication for processes running on the same machine.
//
// The connector only dials the configured socket path; connection state, timeouts
// and the protocol codec are inherited from the base package.
package unix
