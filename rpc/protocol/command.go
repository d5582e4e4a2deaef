package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyCommand is returned when a command without arguments is encoded
var ErrEmptyCommand = errors.New("empty command")

// Command is one protocol request: the command name followed by its arguments
type Command [][]byte

// NewCommand converts the arguments into a Command. Slices of supported types
// are flattened by one level, so NewCommand("DEL", []string{"a", "b"}) yields
// DEL a b. Supported scalars: string, []byte, all integer types, float32/64,
// bool (1/0) and fmt.Stringer.
func NewCommand(args ...any) (Command, error) {
	cmd := make(Command, 0, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case []string:
			for _, s := range v {
				cmd = append(cmd, []byte(s))
			}
		case [][]byte:
			cmd = append(cmd, v...)
		case []any:
			for j, inner := range v {
				b, err := scalarArg(inner)
				if err != nil {
					return nil, fmt.Errorf("argument %d.%d: %w", i, j, err)
				}
				cmd = append(cmd, b)
			}
		default:
			b, err := scalarArg(v)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			cmd = append(cmd, b)
		}
	}
	if len(cmd) == 0 {
		return nil, ErrEmptyCommand
	}
	return cmd, nil
}

// StringCommand creates a Command from plain strings
func StringCommand(args ...string) Command {
	cmd := make(Command, len(args))
	for i, a := range args {
		cmd[i] = []byte(a)
	}
	return cmd
}

// Name returns the upper-cased command name
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return strings.ToUpper(string(c[0]))
}

// Bytes returns the wire encoding of the command
func (c Command) Bytes() []byte {
	return AppendCommand(nil, c)
}

// String returns the arguments quoted and separated by spaces (for logs)
func (c Command) String() string {
	parts := make([]string, len(c))
	for i, a := range c {
		parts[i] = strconv.Quote(string(a))
	}
	return strings.Join(parts, " ")
}

// AppendCommand appends the multi-bulk encoding of cmd to dst:
// *<argc>\r\n followed by $<len>\r\n<arg>\r\n per argument
func AppendCommand(dst []byte, cmd Command) []byte {
	dst = appendHeader(dst, markerArray, len(cmd))
	for _, arg := range cmd {
		dst = appendBulk(dst, arg)
	}
	return dst
}

func scalarArg(arg any) ([]byte, error) {
	switch v := arg.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case int:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(nil, v, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint64:
		return strconv.AppendUint(nil, v, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
	case bool:
		if v {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", arg)
	}
}
