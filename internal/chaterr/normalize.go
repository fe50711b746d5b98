package chaterr

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itzenzy2/PersonalChatBot/internal/conversation"
)

// Normalize converts any failure into an *Error whose message is flat text.
// Provider payloads are rendered in this order: a nested "error" field, then
// the whole payload, then the failure's own message.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	out := &Error{Kind: classify(err), cause: err}

	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.Payload != nil {
		out.Message = renderPayload(rejected.Payload)
	}
	if out.Message == "" {
		out.Message = messageOf(err)
	}
	return out
}

func renderPayload(payload any) string {
	if obj, ok := payload.(map[string]any); ok {
		if nested, ok := obj["error"]; ok && nested != nil {
			return render(nested)
		}
	}
	return render(payload)
}

func classify(err error) Kind {
	var (
		transport *TransportError
		rejected  *RejectedError
	)
	switch {
	case errors.Is(err, conversation.ErrEmptyConversation):
		return KindEmptyConversation
	case errors.Is(err, conversation.ErrInvalidMessage), errors.Is(err, conversation.ErrLastNotUser):
		return KindInvalidRequest
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.As(err, &rejected):
		return KindProviderRejected
	case errors.As(err, &transport):
		return KindTransport
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	default:
		return KindInternal
	}
}

// render keeps strings verbatim and serializes anything else to JSON.
// encoding/json sorts map keys, which keeps the text canonical.
func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func messageOf(err error) string {
	if err == nil || err.Error() == "" {
		return UnknownMessage
	}
	return err.Error()
}
