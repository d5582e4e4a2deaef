// Package cmd implements the command-line interface of rconn. It provides a
// hierarchical command structure for inspecting the registered drivers and for
// talking to a key-value server through them.
//
// The package is organized into several subpackages:
//
//   - kv: Commands that connect to a server (ping, call, get, set, del, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through an environment variable with the RCONN_ prefix
// (e.g. RCONN_READ_TIMEOUT=2.5), optionally from a .env or .env.local file.
//
// See rconn -help for a list of all commands.
package cmd
