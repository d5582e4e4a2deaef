package serializer

import (
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"strconv"
	"strings"
)

// NewTextFormatter creates a formatter producing the human readable output known from
// interactive key-value clients: quoted bulk strings, (integer) and (error) markers and
// numbered, indented arrays
func NewTextFormatter() IReplyFormatter {
	return &textFormatterImpl{}
}

// textFormatterImpl implements the IReplyFormatter interface with plain text
type textFormatterImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IReplyFormatter)
// --------------------------------------------------------------------------

func (f textFormatterImpl) Format(reply protocol.Reply) ([]byte, error) {
	lines := textLines(reply)
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// textLines renders a reply as lines. Nested array elements are indented below their label.
func textLines(r protocol.Reply) []string {
	switch r.Kind {
	case protocol.KindStatus:
		return []string{string(r.Str)}
	case protocol.KindError:
		return []string{"(error) " + string(r.Str)}
	case protocol.KindInteger:
		return []string{"(integer) " + strconv.FormatInt(r.Int, 10)}
	case protocol.KindBulk:
		if r.Null {
			return []string{"(nil)"}
		}
		return []string{strconv.Quote(string(r.Str))}
	case protocol.KindArray:
		if r.Null {
			return []string{"(nil)"}
		}
		if len(r.Elems) == 0 {
			return []string{"(empty array)"}
		}

		width := len(strconv.Itoa(len(r.Elems)))
		var out []string
		for i, e := range r.Elems {
			label := fmt.Sprintf("%*d) ", width, i+1)
			pad := strings.Repeat(" ", len(label))
			sub := textLines(e)
			out = append(out, label+sub[0])
			for _, line := range sub[1:] {
				out = append(out, pad+line)
			}
		}
		return out
	default:
		return []string{fmt.Sprintf("(%s)", r.Kind)}
	}
}
