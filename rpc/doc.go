// Package rpc provides the client side of the key-value store wire protocol.
//
// The package is organized into several subpackages:
//
//   - common: Configuration, error kinds and logging shared by all packages.
//
//   - protocol: Encoding of commands and decoding of replies.
//
//   - transport: The driver abstraction and registry, with implementations in
//     base, tcp, unix and std, and a scripted server for tests in testserver.
//
//   - serializer: Formatting of replies for display (text, JSON, YAML, raw).
//
//   - client: A small command client on top of a driver.
package rpc
