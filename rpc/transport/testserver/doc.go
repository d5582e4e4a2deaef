/*
Package testserver provides a scripted server speaking the wire protocol over tcp,
unix sockets and tls. It is used by the driver, client and CLI tests.

Example:

	srv := testserver.NewTCP(t)
	srv.Enqueue(testserver.Raw("+OK\r\n"), testserver.Stall())

	driver := std.NewDriver()
	err := driver.Connect(srv.Config())

Without queued steps the server answers PING, ECHO, SET, GET, DEL and QUIT
from an in-memory map.
*/
package testserver
