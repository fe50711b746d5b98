package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/itzenzy2/PersonalChatBot/internal/chaterr"
	"github.com/itzenzy2/PersonalChatBot/internal/conversation"
	"github.com/itzenzy2/PersonalChatBot/internal/dispatch"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	History         conversation.Conversation `json:"history"`
	Model           string                    `json:"model,omitempty"`
	SystemPrompt    string                    `json:"systemPrompt,omitempty"`
	EnableWebSearch bool                      `json:"enableWebSearch,omitempty"`
	Stream          bool                      `json:"stream,omitempty"`
	// Message is the single-turn form used by older clients. It is only
	// read when History is absent.
	Message string `json:"message,omitempty"`
}

// errNoHistory is returned when neither history nor message is present.
var errNoHistory = errors.New(msgNoHistory)

func decodeChatRequest(r *http.Request) (dispatch.ChatRequest, bool, error) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return dispatch.ChatRequest{}, false, fmt.Errorf("Invalid request body: %w", err)
	}

	history := body.History
	if history == nil {
		msg := strings.TrimSpace(body.Message)
		if msg == "" {
			return dispatch.ChatRequest{}, false, errNoHistory
		}
		history = conversation.Conversation{conversation.NewText(conversation.RoleUser, msg)}
	}

	return dispatch.ChatRequest{
		History:      history,
		Model:        body.Model,
		SystemPrompt: body.SystemPrompt,
		WebSearch:    body.EnableWebSearch,
	}, body.Stream, nil
}

// handleChat answers POST /chat with {reply, groundingMetadata}, or with an
// SSE stream when the body sets "stream": true.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	req, stream, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if stream {
		s.streamChat(w, r, req)
		return
	}

	result, err := s.chat.HandleChatRequest(r.Context(), req)
	if err != nil {
		norm := chaterr.Normalize(err)
		writeError(w, norm.HTTPStatus(), norm.Message)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
