// Package std provides the built-in drivers and registers them with the
// transport registry when it is imported:
//
//   - std: tcp, unix and tls; a plain tcp connect that times out is retried
//     once over tls to the same address.
//   - std-strict: tcp, unix and tls without the implicit retry. TLS must be
//     requested explicitly through the configuration.
//
// Usage:
//
//	import _ "github.com/ValentinKolb/rconn/rpc/transport/std"
//
//	driver, err := transport.Connect(std.Name, config)
package std
