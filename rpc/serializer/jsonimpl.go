package serializer

import (
	"encoding/json"
	"github.com/ValentinKolb/rconn/rpc/protocol"
)

// NewJSONFormatter creates a new formatter using json encoding
func NewJSONFormatter() IReplyFormatter {
	return &jsonFormatterImpl{}
}

// jsonFormatterImpl implements the IReplyFormatter interface using json encoding
type jsonFormatterImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IReplyFormatter)
// --------------------------------------------------------------------------

func (j jsonFormatterImpl) Format(reply protocol.Reply) ([]byte, error) {
	b, err := json.Marshal(plainValue(reply))
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
