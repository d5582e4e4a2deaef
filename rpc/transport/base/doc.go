// Package base provides the connection driver shared by all registered drivers,
// independent of the concrete transport medium (tcp, unix sockets, tls). It is
// extended with medium-specific connectors.
//
// The package focuses on:
//   - Owning exactly one transport handle per driver
//   - Applying the configured timeout as a deadline to every read and write
//   - Encoding commands and decoding replies through the protocol package
//   - Classifying every failure as timeout, connection or protocol error
//
// Key Components:
//
//   - IClientConnector: Interface for medium-specific dialing and socket options.
//     The tcp and unix packages provide the implementations.
//
//   - driver: Implementation of transport.IDriver. A unix scheme only uses the unix
//     connector and an ssl configuration only uses the tls connector. A plain tcp
//     connect that times out is retried exactly once over tls when the driver was
//     created with tlsFallback.
//
// Failure Handling:
//
//	A failed read or write closes the handle and leaves the driver disconnected,
//	since the position in the reply stream is unknown afterwards. Replies of kind
//	error are returned as data and keep the connection open.
//
// Thread Safety:
//
//	A driver serves one caller at a time. Disconnect may be called from another
//	goroutine to abort a blocked Read or Write.
package base
