// Package event publishes relay activity on a watermill pub/sub so that
// observers (the /events stream, tests) can follow chat traffic.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/itzenzy2/PersonalChatBot/internal/logging"
)

// EventType represents the type of event.
type EventType string

const (
	ChatCompleted EventType = "chat.completed"
	ChatStreamed  EventType = "chat.streamed"
	ChatFailed    EventType = "chat.failed"
)

const topic = "relay.activity"

// Event is one published activity record.
type Event struct {
	ID   string          `json:"id"`
	Type EventType       `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the event data into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Bus is the relay activity bus. A nil *Bus accepts and drops everything.
type Bus struct {
	pubsub *gochannel.GoChannel
	buffer int
}

// NewBus creates a bus whose subscribers each buffer up to buffer events.
// Events beyond that are dropped for the slow subscriber only.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: int64(buffer),
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		buffer: buffer,
	}
}

// Publish sends an event to every current subscriber. With no subscribers
// the event is discarded.
func (b *Bus) Publish(eventType EventType, data any) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s data: %w", eventType, err)
	}
	ev := Event{
		ID:   watermill.NewULID(),
		Type: eventType,
		Time: time.Now().UTC(),
		Data: raw,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set("type", string(eventType))
	return b.pubsub.Publish(topic, msg)
}

// Subscribe returns a channel of events published after the call. The
// channel is closed when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	if b == nil {
		return nil, fmt.Errorf("event bus not configured")
	}

	msgs, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, b.buffer)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev Event
			err := json.Unmarshal(msg.Payload, &ev)
			msg.Ack()
			if err != nil {
				logging.Warn().Err(err).Str("messageID", msg.UUID).Msg("undecodable event")
				continue
			}

			select {
			case out <- ev:
			default:
				logging.Warn().
					Str("eventType", string(ev.Type)).
					Msg("event dropped: subscriber channel full")
			}
		}
	}()
	return out, nil
}

// Close closes the bus and all its subscriptions.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.pubsub.Close()
}
