// Package chaterr defines the relay's failure taxonomy and collapses any
// failure into a single flat message.
package chaterr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// UnknownMessage is used when a failure carries no text at all.
const UnknownMessage = "An unknown error occurred"

// Kind classifies a failure.
type Kind string

const (
	KindEmptyConversation Kind = "empty_conversation"
	KindInvalidRequest    Kind = "invalid_request"
	KindMissingCredential Kind = "missing_credential"
	KindTransport         Kind = "transport"
	KindProviderRejected  Kind = "provider_rejected"
	KindMalformedResponse Kind = "malformed_response"
	KindInternal          Kind = "internal"
)

var (
	// ErrMissingCredential marks a route whose provider credential is not configured.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedResponse marks a successful call whose body lacks the expected reply.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// MissingCredential returns an ErrMissingCredential carrying a caller-facing message.
func MissingCredential(msg string) error {
	return &credentialError{msg: msg}
}

type credentialError struct{ msg string }

func (e *credentialError) Error() string { return e.msg }
func (e *credentialError) Unwrap() error { return ErrMissingCredential }

// TransportError is a network-level failure talking to a provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError is a non-2xx answer from a provider. Payload is the decoded
// JSON body, the raw body text when it is not JSON, or nil when empty.
type RejectedError struct {
	Provider   string
	StatusCode int
	Payload    any
	Err        error
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("%s: request rejected with status %d %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RejectedError) Unwrap() error { return e.Err }

// DecodePayload turns a provider error body into a payload value.
func DecodePayload(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return string(body)
}

// Error is the single failure type that leaves the dispatcher.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the kind to the status returned to clients.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindEmptyConversation, KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Invalid wraps a client-side validation failure.
func Invalid(err error) *Error {
	return &Error{Kind: KindInvalidRequest, Message: messageOf(err), cause: err}
}
