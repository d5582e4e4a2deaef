// Package client implements a small command client on top of a transport driver.
// It is the collaborator that issues commands and interprets replies, the driver
// itself never looks at command semantics.
//
// Key Components:
//
//   - Client.Call/Do: send any command and return the raw reply. Server errors
//     are delivered as replies of kind error.
//
//   - Client.Ping/Get/Set/Del: typed helpers that turn error replies into
//     *common.CommandError values.
//
// Usage Example:
//
//	config, _ := common.ParseURL("redis://127.0.0.1:6379?read_timeout=2.5")
//	c, err := client.Dial("", config)
//	if err != nil {
//	  return err
//	}
//	defer c.Close()
//
//	_ = c.Set("mykey", []byte("myvalue"))
//	value, exists, _ := c.Get("mykey")
//
// Thread Safety:
//
//	A Client is not safe for concurrent use. Use one client per goroutine.
package client
