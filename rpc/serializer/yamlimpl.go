package serializer

import (
	"github.com/ValentinKolb/rconn/rpc/protocol"
	"gopkg.in/yaml.v3"
)

// NewYAMLFormatter creates a new formatter using yaml encoding
func NewYAMLFormatter() IReplyFormatter {
	return &yamlFormatterImpl{}
}

// yamlFormatterImpl implements the IReplyFormatter interface using yaml encoding
type yamlFormatterImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IReplyFormatter)
// --------------------------------------------------------------------------

func (y yamlFormatterImpl) Format(reply protocol.Reply) ([]byte, error) {
	return yaml.Marshal(plainValue(reply))
}
