package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/itzenzy2/PersonalChatBot/internal/chaterr"
	"github.com/itzenzy2/PersonalChatBot/internal/dispatch"
)

// SSE event names of a streamed reply.
const (
	EventChunk = "chunk"
	EventDone  = "done"
	EventError = "error"
)

// EventConnected opens every /events stream. Activity events use their
// type (chat.completed, chat.failed, ...) as the SSE event name.
const EventConnected = "connected"

// SSEHeartbeatInterval is the interval for SSE heartbeats while the provider
// is silent.
var SSEHeartbeatInterval = 15 * time.Second

// ChunkEvent is the data of a chunk event.
type ChunkEvent struct {
	Text string `json:"text"`
}

// sseWriter wraps http.ResponseWriter for SSE.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	rc := http.NewResponseController(w)

	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	return &sseWriter{w: w, flusher: flusher, rc: rc}, nil
}

func (s *sseWriter) writeEvent(eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}

	// ResponseController reaches through middleware wrappers.
	if flushErr := s.rc.Flush(); flushErr != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *sseWriter) writeHeader() {
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	s.w.Header().Set("Access-Control-Allow-Origin", "*")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

func (s *sseWriter) writeHeartbeat() {
	fmt.Fprintf(s.w, ": heartbeat\n\n")
	s.flusher.Flush()
}

type fragment struct {
	text string
	err  error
}

// streamChat relays a streamed reply. Failures before the first byte get a
// regular JSON error; later ones become an error event.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, req dispatch.ChatRequest) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sr, err := s.chat.StreamChatRequest(r.Context(), req)
	if err != nil {
		norm := chaterr.Normalize(err)
		writeError(w, norm.HTTPStatus(), norm.Message)
		return
	}
	defer sr.Close()

	sse.writeHeader()

	done := make(chan struct{})
	defer close(done)

	fragments := make(chan fragment)
	go func() {
		defer close(fragments)
		for {
			text, err := sr.Recv()
			select {
			case fragments <- fragment{text: text, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(SSEHeartbeatInterval)
	defer ticker.Stop()

	log := hlog.FromRequest(r)
	for {
		select {
		case <-r.Context().Done():
			return
		case f, ok := <-fragments:
			if !ok {
				return
			}
			switch {
			case errors.Is(f.err, io.EOF):
				_ = sse.writeEvent(EventDone, struct{}{})
				return
			case f.err != nil:
				norm := chaterr.Normalize(f.err)
				log.Warn().Str("kind", string(norm.Kind)).Err(f.err).Msg("chat stream failed")
				_ = sse.writeEvent(EventError, ErrorResponse{Error: norm.Message})
				return
			}
			if err := sse.writeEvent(EventChunk, ChunkEvent{Text: f.text}); err != nil {
				return
			}
		case <-ticker.C:
			sse.writeHeartbeat()
		}
	}
}

// activityEvents streams relay activity (completed, streamed and failed
// chat requests) until the client disconnects.
func (s *Server) activityEvents(w http.ResponseWriter, r *http.Request) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, err := s.bus.Subscribe(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	sse.writeHeader()
	if err := sse.writeEvent(EventConnected, struct{}{}); err != nil {
		return
	}

	ticker := time.NewTicker(SSEHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := sse.writeEvent(string(e.Type), e); err != nil {
				return
			}
		case <-ticker.C:
			sse.writeHeartbeat()
		}
	}
}
