// Package provider implements the provider adapters behind the chat relay.
//
// Each provider family is a self-contained adapter satisfying Adapter, which
// splits one call into three steps:
//
//   - BuildRequest: canonical conversation -> provider request (no I/O)
//   - Invoke: the network call
//   - ParseResponse: provider response -> Result
//
// # Supported Families
//
// ## Gemini
//
// Built on the genai SDK against the Gemini API backend. History is sent
// with every call; no chat session is kept between requests. When the
// capability entry allows it, a web-search grounding tool is attached in
// the shape the model accepts:
//
//	legacy  -> {"googleSearchRetrieval": {}}
//	current -> {"googleSearch": {}}
//
// Grounding metadata of the first candidate is returned as raw JSON. A
// system prompt only reaches the adapter when the capability table gives
// Gemini a native system role; it is then sent as systemInstruction.
//
// ## GitHub Models
//
// Built on the eino-ext OpenAI chat model against the OpenAI-compatible
// GitHub Models endpoint. The model is picked per call with model.WithModel:
//
//	adapter, err := NewGitHubAdapter(ctx, GitHubConfig{Token: os.Getenv("GITHUB_TOKEN")})
//	req, err := adapter.BuildRequest(in)
//	resp, err := adapter.Invoke(ctx, req)
//	result, err := adapter.ParseResponse(resp)
//
// The system prompt travels as a native system message, decoding parameters
// are fixed (temperature 0.7, 4096 max tokens) and no tools are ever sent.
//
// # Errors
//
// Both adapters share one HTTP boundary that records the status and body of
// non-2xx answers. Failures are returned as *chaterr.TransportError,
// *chaterr.RejectedError (with the decoded provider payload) or wrap
// chaterr.ErrMalformedResponse; turning them into text is left to
// chaterr.Normalize.
//
// # Streaming
//
// Stream returns an eino schema.StreamReader of text fragments. Closing the
// reader stops the producer goroutine and closes the upstream response.
package provider
