package download

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"net/url"
	"sync"

	"github.com/jlaffaye/ftp"

	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
)

// ftpTransferComplete is the reply closing a successful retrieval.
const ftpTransferComplete = ftp.StatusClosingDataConnection

// FTPTransport retrieves ftp sources, logging in anonymously unless the URL
// carries credentials.
type FTPTransport struct{}

func (FTPTransport) Open(ctx context.Context, rawURL string, offset int64) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid ftp url")
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "21")
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(connectTimeout))
	if err != nil {
		return replyStatus(err)
	}

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return replyStatus(err)
	}

	var size int64
	if n, err := conn.FileSize(u.Path); err == nil {
		size = n
	}

	body, err := conn.RetrFrom(u.Path, uint64(offset))
	if err != nil {
		_ = conn.Quit()
		return replyStatus(err)
	}

	// Stop the data connection when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Quit() })
	return &Response{
		Status:  ftpTransferComplete,
		Size:    size,
		Resumed: offset > 0,
		Body:    &ftpBody{Response: body, conn: conn, stop: stop},
	}, nil
}

// replyStatus turns an FTP protocol error into an unsuccessful Response so
// the reply code is reported like an HTTP status.
func replyStatus(err error) (*Response, error) {
	var tp *textproto.Error
	if errors.As(err, &tp) {
		return &Response{Status: tp.Code}, nil
	}
	return nil, err
}

type ftpBody struct {
	*ftp.Response
	conn *ftp.ServerConn
	stop func() bool

	once sync.Once
	err  error
}

func (b *ftpBody) Close() error {
	b.once.Do(func() {
		b.stop()
		b.err = b.Response.Close()
		_ = b.conn.Quit()
	})
	return b.err
}
