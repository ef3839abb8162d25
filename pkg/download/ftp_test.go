package download

import (
	"context"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyStatus(t *testing.T) {
	resp, err := replyStatus(&textproto.Error{Code: 550, Msg: "No such file"})
	require.NoError(t, err)
	assert.Equal(t, 550, resp.Status)
	assert.False(t, resp.OK())

	_, err = replyStatus(assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFTPInvalidURL(t *testing.T) {
	_, err := FTPTransport{}.Open(context.Background(), "ftp://[::1", 0)
	assert.Error(t, err)
}

func TestResponseOK(t *testing.T) {
	assert.True(t, (&Response{Status: 200}).OK())
	assert.True(t, (&Response{Status: ftpTransferComplete}).OK())
	assert.False(t, (&Response{Status: 302}).OK())
}
