package serializer

import (
	"github.com/ValentinKolb/rconn/rpc/protocol"
)

// NewRawFormatter creates a formatter that re-encodes the reply in its wire format
func NewRawFormatter() IReplyFormatter {
	return &rawFormatterImpl{}
}

// rawFormatterImpl implements the IReplyFormatter interface with the protocol encoding
type rawFormatterImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IReplyFormatter)
// --------------------------------------------------------------------------

func (r rawFormatterImpl) Format(reply protocol.Reply) ([]byte, error) {
	return reply.Marshal(), nil
}
