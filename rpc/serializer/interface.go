package serializer

import (
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"sort"
	"strings"
)

// IReplyFormatter is the interface for all reply formatters
type IReplyFormatter interface {
	// Format renders a reply for display
	// It returns the rendered bytes and an error if any
	Format(reply protocol.Reply) ([]byte, error)
}

// formatters maps the names accepted by ByName to their factory functions
var formatters = map[string]func() IReplyFormatter{
	"text": NewTextFormatter,
	"json": NewJSONFormatter,
	"yaml": NewYAMLFormatter,
	"raw":  NewRawFormatter,
}

// ByName returns the formatter registered under name (text, json, yaml, raw)
func ByName(name string) (IReplyFormatter, error) {
	factory, ok := formatters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("invalid format %s. must be one of %s", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// Names returns the sorted names accepted by ByName
func Names() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// plainValue converts a reply into values understood by the json and yaml encoders.
// Server errors become a single-key map {"error": message}.
func plainValue(r protocol.Reply) any {
	if r.IsNil() {
		return nil
	}
	switch r.Kind {
	case protocol.KindStatus, protocol.KindBulk:
		return string(r.Str)
	case protocol.KindInteger:
		return r.Int
	case protocol.KindError:
		return map[string]string{"error": string(r.Str)}
	case protocol.KindArray:
		out := make([]any, len(r.Elems))
		for i, e := range r.Elems {
			out[i] = plainValue(e)
		}
		return out
	default:
		return nil
	}
}
