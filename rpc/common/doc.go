// Package common provides core data structures and utilities shared across
// the connection layer. It defines the connection configuration, the error
// taxonomy visible to callers and the logging setup used by other packages.
//
// Key Components:
//
//   - Config: Fully resolved parameters of one connection attempt (scheme, address,
//     fractional-second timeouts, TLS settings). Can be built from a loosely typed
//     mapping (ParseConfig) or a redis://, rediss:// or unix:// URL (ParseURL).
//
//   - Errors: TimeoutError, ProtocolError and ConnectionError are returned by driver
//     operations. CommandError is the in-band error a server reports inside a reply,
//     it is delivered as data and never means the connection is broken.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the module.
package common
