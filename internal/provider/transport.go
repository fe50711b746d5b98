package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/itzenzy2/PersonalChatBot/internal/chaterr"
)

// DefaultTimeout bounds a single provider call, streaming included.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of a rejected response is kept.
const maxErrorBody = 1 << 20

// HTTPOptions configures the client an adapter talks through.
type HTTPOptions struct {
	Timeout time.Duration
	// Transport is the underlying round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

type captureKey struct{}

// exchange records what the provider answered for one call.
type exchange struct {
	statusCode int
	body       []byte
}

func withExchange(ctx context.Context) (context.Context, *exchange) {
	ex := &exchange{}
	return context.WithValue(ctx, captureKey{}, ex), ex
}

// boundary is the round tripper between the SDKs and the network. It adds
// fixed headers and keeps the body of non-2xx answers so the SDK can still
// parse it while the relay sees the raw payload.
type boundary struct {
	base    http.RoundTripper
	headers http.Header
}

func newHTTPClient(opts HTTPOptions, headers http.Header) *http.Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &boundary{base: base, headers: headers},
	}
}

func (b *boundary) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(b.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range b.headers {
			req.Header[k] = v
		}
	}

	resp, err := b.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	ex, _ := req.Context().Value(captureKey{}).(*exchange)
	if ex == nil {
		return resp, nil
	}
	ex.statusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading error response: %w", readErr)
	}
	ex.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// callError classifies an SDK failure using what the boundary saw.
func callError(provider string, ex *exchange, err error) error {
	switch {
	case ex == nil || ex.statusCode == 0 || interrupted(err):
		return &chaterr.TransportError{Provider: provider, Err: err}
	case ex.statusCode < 200 || ex.statusCode >= 300:
		return &chaterr.RejectedError{
			Provider:   provider,
			StatusCode: ex.statusCode,
			Payload:    chaterr.DecodePayload(ex.body),
			Err:        err,
		}
	default:
		return fmt.Errorf("%s: %w: %v", provider, chaterr.ErrMalformedResponse, err)
	}
}

// interrupted reports whether err is a cancellation or timeout that can hit
// a call after the status line was already received.
func interrupted(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
