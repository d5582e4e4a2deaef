package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConnected is the cause of every operation attempted on a driver that holds no connection
var ErrNotConnected = errors.New("not connected")

// --------------------------------------------------------------------------
// Timeout
// --------------------------------------------------------------------------

// TimeoutError is returned when connect, write or read exceeds the configured timeout,
// or when the OS reports that the operation would block past it
type TimeoutError struct {
	Op  string // connect, write or read
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s timed out", e.Op)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Timeout reports true, so a TimeoutError also satisfies the Timeout() part of net.Error
func (e *TimeoutError) Timeout() bool {
	return true
}

// --------------------------------------------------------------------------
// Protocol
// --------------------------------------------------------------------------

// ProtocolError is returned when a read fails for any reason other than a timeout.
// Either the byte stream is not a valid reply or the transport failed mid-frame.
type ProtocolError struct {
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

// CommandError is an error reported by the server inside an otherwise complete reply.
// It is delivered as reply data, the connection stays usable.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// Prefix returns the leading error code of the message (e.g. ERR, WRONGTYPE)
func (e *CommandError) Prefix() string {
	prefix, _, _ := strings.Cut(e.Message, " ")
	return prefix
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// ConnectionError is returned when a connection cannot be established for a reason
// other than a timeout, or when an operation is attempted without a live connection
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Predicates
// --------------------------------------------------------------------------

// IsTimeout reports whether err is or wraps a *TimeoutError
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsProtocol reports whether err is or wraps a *ProtocolError
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsCommand reports whether err is or wraps a *CommandError
func IsCommand(err error) bool {
	var target *CommandError
	return errors.As(err, &target)
}

// IsConnection reports whether err is or wraps a *ConnectionError
func IsConnection(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}
