package protocol

import (
	"testing"

	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/stretchr/testify/assert"
)

// TestReplyMarshal checks the wire form of every reply kind
func TestReplyMarshal(t *testing.T) {
	tests := []struct {
		reply    Reply
		expected string
	}{
		{StatusReply("OK"), "+OK\r\n"},
		{ErrorReply("ERR boom"), "-ERR boom\r\n"},
		{IntegerReply(-3), ":-3\r\n"},
		{BulkReply([]byte("foo")), "$3\r\nfoo\r\n"},
		{BulkReply(nil), "$0\r\n\r\n"},
		{NilBulkReply(), "$-1\r\n"},
		{ArrayReply(), "*0\r\n"},
		{NilArrayReply(), "*-1\r\n"},
		{ArrayReply(IntegerReply(1), NilBulkReply()), "*2\r\n:1\r\n$-1\r\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, string(tt.reply.Marshal()), tt.reply.String())
	}
}

// TestReplyAccessors checks Text, Interface and Err
func TestReplyAccessors(t *testing.T) {
	assert.Equal(t, "OK", StatusReply("OK").Text())
	assert.Equal(t, "12", IntegerReply(12).Text())
	assert.Equal(t, "", ArrayReply(IntegerReply(1)).Text())
	assert.Equal(t, "", NilBulkReply().Text())

	assert.Nil(t, StatusReply("OK").Err())
	assert.Equal(t, &common.CommandError{Message: "ERR x"}, ErrorReply("ERR x").Err())

	value := ArrayReply(
		StatusReply("OK"),
		IntegerReply(3),
		NilBulkReply(),
		ArrayReply(BulkReply([]byte("x"))),
		ErrorReply("ERR y"),
	).Interface()
	assert.Equal(t, []any{"OK", int64(3), nil, []any{"x"}, &common.CommandError{Message: "ERR y"}}, value)

	assert.False(t, IntegerReply(0).IsNil())
	assert.True(t, NilArrayReply().IsNil())
}

// TestKindString checks the names used in logs and formatters
func TestKindString(t *testing.T) {
	assert.Equal(t, "status", KindStatus.String())
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "kind(0)", Kind(0).String())
	assert.Equal(t, `bulk("a")`, BulkReply([]byte("a")).String())
	assert.Equal(t, "array(nil)", NilArrayReply().String())
}
