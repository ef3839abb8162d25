package download

import (
	"context"
	"io"
)

// Transport opens one remote resource for the bulk engine. Implementations
// exist for HTTP(S) and FTP; tests substitute their own.
type Transport interface {
	// Open starts retrieving rawURL from byte offset. A non-nil Response is
	// returned for every answer the server gave, successful or not; err is
	// reserved for failures that produced no status at all.
	Open(ctx context.Context, rawURL string, offset int64) (*Response, error)
}

// Response is an opened transfer.
type Response struct {
	// Status is the protocol status code: the HTTP status, or the FTP reply
	// code of the retrieval.
	Status int
	// Size is the full length of the resource including any resumed prefix,
	// or zero when unknown.
	Size int64
	// Resumed is set when the body continues at the requested offset. When
	// false the body starts at byte zero.
	Resumed bool
	// Body is nil for unsuccessful statuses.
	Body io.ReadCloser
}

// OK reports whether Status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
