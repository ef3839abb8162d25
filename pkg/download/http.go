package download

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/glorpus-work/pkgsmith/internal/version"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
)

const (
	connectTimeout = 10 * time.Second
	maxRedirects   = 10
)

// HTTPTransport retrieves http and https sources.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

// NewHTTPTransport creates a transport identifying itself with the tool's
// user agent.
func NewHTTPTransport() *HTTPTransport {
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: time.Second}
	return &HTTPTransport{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: connectTimeout,
				ForceAttemptHTTP2:   true,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: version.UserAgent(),
	}
}

func (t *HTTPTransport) Open(ctx context.Context, rawURL string, offset int64) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", t.userAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}

	r := &Response{Status: resp.StatusCode}
	if !r.OK() {
		_ = resp.Body.Close()
		return r, nil
	}

	r.Body = resp.Body
	r.Resumed = offset > 0 && resp.StatusCode == http.StatusPartialContent
	if resp.ContentLength >= 0 {
		r.Size = resp.ContentLength
		if r.Resumed {
			r.Size += offset
		}
	}
	return r, nil
}
