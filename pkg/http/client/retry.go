package client

import (
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/samber/lo"
)

// retryableErrors are connection-level failures that are safe to replay immediately.
var retryableErrors = []error{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ENETUNREACH,
	syscall.EPIPE,
	io.EOF,
	io.ErrUnexpectedEOF,
	net.ErrClosed,
}

// retryTransport replays requests that failed on a dead pooled connection.
// Once maxRetries is exhausted it drops idle connections and tries one last time.
type retryTransport struct {
	base       http.RoundTripper
	transport  *http.Transport // nil when base is not an *http.Transport
	maxRetries int
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := 0
	for attempt <= t.maxRetries {
		resp, err := t.send(req, attempt)
		switch {
		case err == nil:
			return resp, nil
		case errors.Is(err, ErrConnExpired):
			// expired connections are free
			continue
		case !isRetryableError(err):
			return nil, err
		}
		attempt++
	}

	if t.transport != nil {
		t.transport.CloseIdleConnections()
	}
	return t.send(req, t.maxRetries+1)
}

func (t *retryTransport) send(req *http.Request, attempt int) (*http.Response, error) {
	if attempt == 0 {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return t.base.RoundTrip(clone)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return lo.SomeBy(retryableErrors, func(target error) bool {
		return errors.Is(err, target)
	})
}
