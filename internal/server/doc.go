/*
Package server provides the HTTP front of the chat relay.

# Endpoints

	POST /chat                      one chat turn (JSON or SSE)
	POST /.netlify/functions/chat   alias of /chat
	GET  /health                    liveness
	GET  /events                    SSE stream of relay activity (when a bus is configured)

Any other method on the chat routes answers 405 with a JSON error body.

# Chat request

	{
	  "history":         [{"role": "user", "parts": [{"text": "Hello"}]}],
	  "model":           "gemini-2.5-pro",
	  "systemPrompt":    "Be brief.",
	  "enableWebSearch": true,
	  "stream":          false
	}

history is required unless the legacy "message" field carries a single
user turn. model, systemPrompt and enableWebSearch are optional.

# Responses

Success:

	{"reply": "...", "groundingMetadata": {...} | null}

Failure, 400 for invalid input and 500 for everything else:

	{"error": "flat message"}

With "stream": true the reply is sent as text/event-stream:

	event: chunk
	data: {"text":"..."}

	event: done
	data: {}

A failure after the stream opened is sent as an "error" event carrying
{"error": "..."}. A failure before it opened is a regular JSON error.

# Middleware

Every request gets a ULID request id (or keeps the caller's X-Request-ID),
a request-scoped zerolog logger and one access log line. CORS allows any
origin.

# Usage

	srv := server.New(server.DefaultConfig(), dispatcher, bus)
	go srv.Start()
	defer srv.Shutdown(ctx)
*/
package server
