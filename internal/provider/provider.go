package provider

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/schema"

	"github.com/itzenzy2/PersonalChatBot/internal/capability"
	"github.com/itzenzy2/PersonalChatBot/internal/conversation"
)

// Adapter is the contract every provider family implements. Req and Resp
// are the provider's own request and response types; nothing outside the
// adapter inspects them.
type Adapter[Req, Resp any] interface {
	// Family returns the provider family the adapter serves.
	Family() capability.Provider

	// BuildRequest turns the canonical conversation into a complete
	// provider request. It performs no I/O.
	BuildRequest(in Input) (Req, error)

	// Invoke sends the request. It is the only method that talks to the network.
	Invoke(ctx context.Context, req Req) (Resp, error)

	// ParseResponse extracts the canonical result.
	ParseResponse(resp Resp) (*Result, error)

	// Stream sends the request and yields reply fragments in delivery order.
	// Closing the returned reader stops the producer.
	Stream(ctx context.Context, req Req) (*schema.StreamReader[string], error)
}

// Input is everything an adapter needs to build one request.
type Input struct {
	// Prior is the history before the latest turn, already spliced with the
	// synthetic system-prompt pair when the family has no native system role.
	Prior  []conversation.Message
	Latest conversation.Message
	// SystemPrompt is only set for families with a native system role.
	SystemPrompt string
	Capability   capability.Entry
	WebSearch    bool
}

// Result is the canonical reply.
type Result struct {
	Reply             string          `json:"reply"`
	GroundingMetadata json.RawMessage `json:"groundingMetadata"`
}
